package types

import (
	"encoding/json"
	"fmt"
	"time"
)

type DocumentType string

const (
	DocumentTypeIDCard         DocumentType = "ID_CARD"
	DocumentTypeFamilyRegister DocumentType = "FAMILY_REGISTER"
	DocumentTypeBirthCert      DocumentType = "BIRTH_CERT"
	DocumentTypeDeathCert      DocumentType = "DEATH_CERT"
)

var AllDocumentTypes = []DocumentType{
	DocumentTypeIDCard,
	DocumentTypeFamilyRegister,
	DocumentTypeBirthCert,
	DocumentTypeDeathCert,
}

func (t DocumentType) Valid() bool {
	switch t {
	case DocumentTypeIDCard, DocumentTypeFamilyRegister, DocumentTypeBirthCert, DocumentTypeDeathCert:
		return true
	}
	return false
}

// Label is the human readable name used in descriptions and PDF titles.
func (t DocumentType) Label() string {
	switch t {
	case DocumentTypeIDCard:
		return "ID card"
	case DocumentTypeFamilyRegister:
		return "family register"
	case DocumentTypeBirthCert:
		return "birth certificate"
	case DocumentTypeDeathCert:
		return "death certificate"
	}
	return "document"
}

type DocumentStatus string

const (
	DocumentStatusSubmitted DocumentStatus = "SUBMITTED"
	DocumentStatusApproved  DocumentStatus = "APPROVED"
	DocumentStatusRejected  DocumentStatus = "REJECTED"
)

func (s DocumentStatus) Valid() bool {
	switch s {
	case DocumentStatusSubmitted, DocumentStatusApproved, DocumentStatusRejected:
		return true
	}
	return false
}

// Applicant holds the fields every document type requires.
type Applicant struct {
	FullName    string `db:"full_name" json:"fullName"`
	Address     string `db:"address" json:"address"`
	Email       string `db:"email" json:"email"`
	Phone       string `db:"phone" json:"phone"`
	DataConsent bool   `db:"data_consent" json:"dataConsent"`
}

// DocumentRequest is one resident submission for a civil document.
type DocumentRequest struct {
	ID            string         `db:"id" json:"id"`
	ResidentID    string         `db:"resident_id" json:"residentId"`
	Type          DocumentType   `db:"type" json:"type"`
	Status        DocumentStatus `db:"status" json:"status"`
	Notes         *string        `db:"notes" json:"notes"`
	GeneratedFile *string        `db:"generated_file" json:"generatedFile"`

	Applicant

	// Details is persisted as jsonb, keyed by Type.
	Details DocumentDetails `db:"-" json:"details"`

	SubmittedAt time.Time  `db:"submitted_at" json:"submittedAt"`
	DecidedAt   *time.Time `db:"decided_at" json:"decidedAt"`
	DecidedBy   *string    `db:"decided_by" json:"decidedBy"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updatedAt"`
}

// DocumentRequestSummary is the listing shape returned to residents.
type DocumentRequestSummary struct {
	ID          string         `json:"id"`
	Type        DocumentType   `json:"type"`
	Status      DocumentStatus `json:"status"`
	SubmittedAt time.Time      `json:"submittedAt"`
	Notes       *string        `json:"notes"`
}

func (d *DocumentRequest) Summary() DocumentRequestSummary {
	return DocumentRequestSummary{
		ID:          d.ID,
		Type:        d.Type,
		Status:      d.Status,
		SubmittedAt: d.SubmittedAt,
		Notes:       d.Notes,
	}
}

type DocumentCounts struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
}

type DocumentRequestFilter struct {
	Status DocumentStatus
	Type   DocumentType
}

// DocumentDetails is the type specific part of a request. Exactly one
// variant exists per DocumentType.
type DocumentDetails interface {
	DocumentType() DocumentType
}

type ApplicationPurpose string

const (
	ApplicationPurposeNew         ApplicationPurpose = "NEW"
	ApplicationPurposeRenewal     ApplicationPurpose = "RENEWAL"
	ApplicationPurposeReplacement ApplicationPurpose = "REPLACEMENT"
)

type Sex string

const (
	SexMale   Sex = "MALE"
	SexFemale Sex = "FEMALE"
)

type IDCardDetails struct {
	Purpose       ApplicationPurpose `json:"applicationPurpose"`
	NationalID    *string            `json:"nationalId,omitempty"`
	ScannedIDRef  *string            `json:"scannedId,omitempty"`
	Birthplace    string             `json:"birthplace"`
	Birthdate     time.Time          `json:"birthdate"`
	Sex           Sex                `json:"sex"`
	Religion      string             `json:"religion"`
	MaritalStatus string             `json:"maritalStatus"`
	Occupation    string             `json:"occupation"`
	Nationality   string             `json:"nationality"`
}

func (IDCardDetails) DocumentType() DocumentType { return DocumentTypeIDCard }

type BirthCertDetails struct {
	NationalID string    `json:"nationalId"`
	Birthplace string    `json:"birthplace"`
	Birthdate  time.Time `json:"birthdate"`
	Sex        Sex       `json:"sex"`
	FatherName string    `json:"fatherName"`
	MotherName string    `json:"motherName"`
}

func (BirthCertDetails) DocumentType() DocumentType { return DocumentTypeBirthCert }

type DeathCertDetails struct {
	NationalID   string    `json:"nationalId"`
	DeceasedName string    `json:"deceasedName"`
	DateOfDeath  time.Time `json:"dateOfDeath"`
}

func (DeathCertDetails) DocumentType() DocumentType { return DocumentTypeDeathCert }

type FamilyRegisterDetails struct {
	NationalID           string   `json:"nationalId"`
	HouseholdHead        string   `json:"householdHead"`
	FamilyRegisterNumber *string  `json:"familyRegisterNumber,omitempty"`
	Relationship         *string  `json:"relationship,omitempty"`
	Education            *string  `json:"education,omitempty"`
	BloodType            *string  `json:"bloodType,omitempty"`
	Members              []string `json:"members,omitempty"`
}

func (FamilyRegisterDetails) DocumentType() DocumentType { return DocumentTypeFamilyRegister }

// DecodeDocumentDetails unmarshals the stored jsonb payload into the variant
// matching docType.
func DecodeDocumentDetails(docType DocumentType, raw []byte) (DocumentDetails, error) {
	var details DocumentDetails
	switch docType {
	case DocumentTypeIDCard:
		details = new(IDCardDetails)
	case DocumentTypeBirthCert:
		details = new(BirthCertDetails)
	case DocumentTypeDeathCert:
		details = new(DeathCertDetails)
	case DocumentTypeFamilyRegister:
		details = new(FamilyRegisterDetails)
	default:
		return nil, fmt.Errorf("unknown document type %q", docType)
	}

	if len(raw) == 0 {
		return details, nil
	}

	if err := json.Unmarshal(raw, details); err != nil {
		return nil, fmt.Errorf("decode %s details: %w", docType, err)
	}

	return details, nil
}
