package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"civicportal/internal/document"
)

const maxBodyBytes = 1 << 20

// submissionForm is the urlencoded shape of POST /documents.
type submissionForm struct {
	Type                 string   `form:"type"`
	FullName             string   `form:"full_name"`
	Address              string   `form:"address"`
	Email                string   `form:"email"`
	Phone                string   `form:"phone"`
	DataConsent          string   `form:"data_consent"`
	ApplicationPurpose   string   `form:"application_purpose"`
	NationalID           string   `form:"national_id"`
	ScannedID            string   `form:"scanned_id"`
	Birthplace           string   `form:"birthplace"`
	Birthdate            string   `form:"birthdate"`
	Sex                  string   `form:"sex"`
	Religion             string   `form:"religion"`
	MaritalStatus        string   `form:"marital_status"`
	Occupation           string   `form:"occupation"`
	Nationality          string   `form:"nationality"`
	FatherName           string   `form:"father_name"`
	MotherName           string   `form:"mother_name"`
	DeceasedName         string   `form:"deceased_name"`
	DateOfDeath          string   `form:"date_of_death"`
	FamilyRegisterNumber string   `form:"family_register_number"`
	HouseholdHead        string   `form:"household_head"`
	Relationship         string   `form:"relationship"`
	Education            string   `form:"education"`
	BloodType            string   `form:"blood_type"`
	Members              []string `form:"members"`
}

func (f *submissionForm) fields() map[string]string {
	return map[string]string{
		document.FieldType:                 f.Type,
		document.FieldFullName:             f.FullName,
		document.FieldAddress:              f.Address,
		document.FieldEmail:                f.Email,
		document.FieldPhone:                f.Phone,
		document.FieldDataConsent:          f.DataConsent,
		document.FieldApplicationPurpose:   f.ApplicationPurpose,
		document.FieldNationalID:           f.NationalID,
		document.FieldScannedID:            f.ScannedID,
		document.FieldBirthplace:           f.Birthplace,
		document.FieldBirthdate:            f.Birthdate,
		document.FieldSex:                  f.Sex,
		document.FieldReligion:             f.Religion,
		document.FieldMaritalStatus:        f.MaritalStatus,
		document.FieldOccupation:           f.Occupation,
		document.FieldNationality:          f.Nationality,
		document.FieldFatherName:           f.FatherName,
		document.FieldMotherName:           f.MotherName,
		document.FieldDeceasedName:         f.DeceasedName,
		document.FieldDateOfDeath:          f.DateOfDeath,
		document.FieldFamilyRegisterNumber: f.FamilyRegisterNumber,
		document.FieldHouseholdHead:        f.HouseholdHead,
		document.FieldRelationship:         f.Relationship,
		document.FieldEducation:            f.Education,
		document.FieldBloodType:            f.BloodType,
		document.FieldMembers:              strings.Join(f.Members, "\n"),
	}
}

// decodeSubmission reads the submission body into the flat field map the
// validator expects. JSON and urlencoded forms are accepted.
func decodeSubmission(r *http.Request) (map[string]string, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "application/x-www-form-urlencoded":
		err := r.ParseForm()
		if err != nil {
			return nil, fmt.Errorf("failed to parse form: %w", err)
		}

		var submission = new(submissionForm)
		err = decoder.Decode(submission, r.Form)
		if err != nil {
			return nil, fmt.Errorf("failed to decode form: %w", err)
		}

		return submission.fields(), nil
	default:
		var body map[string]any
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		if err := dec.Decode(&body); err != nil {
			return nil, fmt.Errorf("failed to decode json body: %w", err)
		}
		return flattenJSON(body), nil
	}
}

// flattenJSON renders scalar values as strings and joins lists one per line.
func flattenJSON(body map[string]any) map[string]string {
	fields := make(map[string]string, len(body))
	for k, v := range body {
		fields[k] = jsonString(v)
	}
	return fields
}

func jsonString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		return t.String()
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			parts = append(parts, jsonString(item))
		}
		return strings.Join(parts, "\n")
	default:
		return fmt.Sprint(t)
	}
}

// decisionBody carries the optional admin notes of approve and reject.
type decisionBody struct {
	Notes string `json:"notes" form:"notes"`
}

func decodeDecision(r *http.Request) (*decisionBody, error) {
	body := new(decisionBody)
	if r.Body == nil || r.ContentLength == 0 {
		return body, nil
	}

	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	if mediaType == "application/x-www-form-urlencoded" {
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("failed to parse form: %w", err)
		}
		if err := decoder.Decode(body, r.Form); err != nil {
			return nil, fmt.Errorf("failed to decode form: %w", err)
		}
		return body, nil
	}

	if err := json.NewDecoder(r.Body).Decode(body); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode json body: %w", err)
	}
	return body, nil
}
