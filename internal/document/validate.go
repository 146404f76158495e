package document

import (
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"time"

	"civicportal/internal/utils"
	"civicportal/pkg/types"
)

// Submission field names shared by the JSON and form bodies.
const (
	FieldType                 = "type"
	FieldFullName             = "full_name"
	FieldAddress              = "address"
	FieldEmail                = "email"
	FieldPhone                = "phone"
	FieldDataConsent          = "data_consent"
	FieldApplicationPurpose   = "application_purpose"
	FieldNationalID           = "national_id"
	FieldScannedID            = "scanned_id"
	FieldBirthplace           = "birthplace"
	FieldBirthdate            = "birthdate"
	FieldSex                  = "sex"
	FieldReligion             = "religion"
	FieldMaritalStatus        = "marital_status"
	FieldOccupation           = "occupation"
	FieldNationality          = "nationality"
	FieldFatherName           = "father_name"
	FieldMotherName           = "mother_name"
	FieldDeceasedName         = "deceased_name"
	FieldDateOfDeath          = "date_of_death"
	FieldFamilyRegisterNumber = "family_register_number"
	FieldHouseholdHead        = "household_head"
	FieldRelationship         = "relationship"
	FieldEducation            = "education"
	FieldBloodType            = "blood_type"
	FieldMembers              = "members"
)

const DateLayout = "2006-01-02"

var (
	phoneReg        = regexp.MustCompile(`^\+?[0-9]{8,15}$`)
	registryNumReg  = regexp.MustCompile(`^[0-9]{16}$`)
	phoneStripper   = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")
	validBloodTypes = map[string]bool{"A": true, "B": true, "AB": true, "O": true}
)

// Validate checks fields against the rules of docType and builds the record
// it describes. Every violation is reported in a single *ValidationError.
func Validate(docType types.DocumentType, fields map[string]string) (*types.DocumentRequest, error) {
	return validate(docType, fields, time.Now())
}

func validate(docType types.DocumentType, fields map[string]string, now time.Time) (*types.DocumentRequest, error) {
	r := &fieldReader{fields: fields, errs: new(ValidationError), now: now}

	if docType == "" {
		docType = types.DocumentType(strings.ToUpper(r.optional(FieldType)))
	}

	switch {
	case docType == "":
		r.errs.add(FieldType, "Document type is required.")
	case !docType.Valid():
		r.errs.add(FieldType, "Unknown document type.")
	}

	applicant := types.Applicant{
		FullName:    r.required(FieldFullName, "Full name"),
		Address:     r.required(FieldAddress, "Address"),
		Email:       r.email(FieldEmail),
		Phone:       r.phone(FieldPhone),
		DataConsent: r.consent(FieldDataConsent),
	}

	var details types.DocumentDetails
	switch docType {
	case types.DocumentTypeIDCard:
		details = r.idCard()
	case types.DocumentTypeBirthCert:
		details = r.birthCert()
	case types.DocumentTypeDeathCert:
		details = r.deathCert()
	case types.DocumentTypeFamilyRegister:
		details = r.familyRegister()
	}

	if err := r.errs.orNil(); err != nil {
		return nil, err
	}

	return &types.DocumentRequest{
		Type:      docType,
		Applicant: applicant,
		Details:   details,
	}, nil
}

type fieldReader struct {
	fields map[string]string
	errs   *ValidationError
	now    time.Time
}

func (r *fieldReader) optional(name string) string {
	return strings.TrimSpace(r.fields[name])
}

func (r *fieldReader) optionalPtr(name string) *string {
	v := r.optional(name)
	if v == "" {
		return nil
	}
	return &v
}

func (r *fieldReader) required(name, label string) string {
	v := r.optional(name)
	if v == "" {
		r.errs.add(name, label+" is required.")
	}
	return v
}

func (r *fieldReader) email(name string) string {
	v := r.required(name, "Email")
	if v == "" {
		return v
	}
	if _, err := mail.ParseAddress(v); err != nil {
		r.errs.add(name, "Enter a valid email address.")
	}
	return v
}

func (r *fieldReader) phone(name string) string {
	v := phoneStripper.Replace(r.required(name, "Phone number"))
	if v == "" {
		return v
	}
	if !phoneReg.MatchString(v) {
		r.errs.add(name, "Enter a valid phone number.")
	}
	return v
}

func (r *fieldReader) consent(name string) bool {
	v := strings.ToLower(r.optional(name))
	if v == "" {
		r.errs.add(name, "Data consent is required.")
		return false
	}

	ok, err := strconv.ParseBool(v)
	if err != nil {
		ok = v == "on" || v == "yes"
	}
	if !ok {
		r.errs.add(name, "You must consent to the processing of your data.")
	}
	return ok
}

func (r *fieldReader) registryNumber(name, label string, required bool) string {
	var v string
	if required {
		v = r.required(name, label)
	} else {
		v = r.optional(name)
	}
	if v == "" {
		return v
	}
	if !registryNumReg.MatchString(v) {
		r.errs.add(name, label+" must be 16 digits.")
	}
	return v
}

func (r *fieldReader) date(name, label string) time.Time {
	v := r.required(name, label)
	if v == "" {
		return time.Time{}
	}

	t, err := time.Parse(DateLayout, v)
	if err != nil {
		r.errs.add(name, label+" must be a date in YYYY-MM-DD format.")
		return time.Time{}
	}
	if t.After(r.now) {
		r.errs.add(name, label+" cannot be in the future.")
	}
	return t
}

func (r *fieldReader) sex(name string) types.Sex {
	v := types.Sex(strings.ToUpper(r.required(name, "Sex")))
	if v == "" {
		return v
	}
	if v != types.SexMale && v != types.SexFemale {
		r.errs.add(name, "Sex must be MALE or FEMALE.")
	}
	return v
}

func (r *fieldReader) idCard() *types.IDCardDetails {
	purpose := types.ApplicationPurpose(strings.ToUpper(r.required(FieldApplicationPurpose, "Application purpose")))
	switch purpose {
	case "", types.ApplicationPurposeNew, types.ApplicationPurposeRenewal, types.ApplicationPurposeReplacement:
	default:
		r.errs.add(FieldApplicationPurpose, "Application purpose must be NEW, RENEWAL or REPLACEMENT.")
	}

	// First time applicants have no national id yet.
	nationalID := r.registryNumber(FieldNationalID, "National ID number", purpose != types.ApplicationPurposeNew)

	var scanned *string
	if purpose == types.ApplicationPurposeRenewal {
		scanned = utils.StringPtrOrNil(r.required(FieldScannedID, "Scanned ID"))
	} else {
		scanned = r.optionalPtr(FieldScannedID)
	}

	return &types.IDCardDetails{
		Purpose:       purpose,
		NationalID:    utils.StringPtrOrNil(nationalID),
		ScannedIDRef:  scanned,
		Birthplace:    r.required(FieldBirthplace, "Birthplace"),
		Birthdate:     r.date(FieldBirthdate, "Birthdate"),
		Sex:           r.sex(FieldSex),
		Religion:      r.required(FieldReligion, "Religion"),
		MaritalStatus: r.required(FieldMaritalStatus, "Marital status"),
		Occupation:    r.required(FieldOccupation, "Occupation"),
		Nationality:   r.required(FieldNationality, "Nationality"),
	}
}

func (r *fieldReader) birthCert() *types.BirthCertDetails {
	return &types.BirthCertDetails{
		NationalID: r.registryNumber(FieldNationalID, "National ID number", true),
		Birthplace: r.required(FieldBirthplace, "Birthplace"),
		Birthdate:  r.date(FieldBirthdate, "Birthdate"),
		Sex:        r.sex(FieldSex),
		FatherName: r.required(FieldFatherName, "Father's name"),
		MotherName: r.required(FieldMotherName, "Mother's name"),
	}
}

func (r *fieldReader) deathCert() *types.DeathCertDetails {
	return &types.DeathCertDetails{
		NationalID:   r.registryNumber(FieldNationalID, "National ID number", true),
		DeceasedName: r.required(FieldDeceasedName, "Deceased's name"),
		DateOfDeath:  r.date(FieldDateOfDeath, "Date of death"),
	}
}

func (r *fieldReader) familyRegister() *types.FamilyRegisterDetails {
	details := &types.FamilyRegisterDetails{
		NationalID:           r.registryNumber(FieldNationalID, "National ID number", true),
		HouseholdHead:        r.required(FieldHouseholdHead, "Household head"),
		FamilyRegisterNumber: utils.StringPtrOrNil(r.registryNumber(FieldFamilyRegisterNumber, "Family register number", false)),
		Relationship:         r.optionalPtr(FieldRelationship),
		Education:            r.optionalPtr(FieldEducation),
		Members:              splitMembers(r.fields[FieldMembers]),
	}

	if bt := strings.ToUpper(r.optional(FieldBloodType)); bt != "" {
		if !validBloodTypes[bt] {
			r.errs.add(FieldBloodType, "Blood type must be A, B, AB or O.")
		}
		details.BloodType = &bt
	}

	return details
}

// splitMembers accepts one household member per line.
func splitMembers(raw string) []string {
	var members []string
	for _, line := range strings.Split(raw, "\n") {
		if m := strings.TrimSpace(line); m != "" {
			members = append(members, m)
		}
	}
	return members
}
