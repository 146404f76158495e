package pdf

import (
	"strings"
	"time"

	"civicportal/internal/utils"
	"civicportal/pkg/types"
)

const dash = "-"

// Row is one label/value line in a document's field table.
type Row struct {
	Label string
	Value string
}

// layout describes the type specific part of a generated document.
type layout struct {
	Title    string
	Subtitle string
	Rows     func(req *types.DocumentRequest) []Row
	// List is rendered after the field table when it returns entries.
	ListTitle string
	List      func(req *types.DocumentRequest) []string
}

var layouts = map[types.DocumentType]layout{
	types.DocumentTypeIDCard: {
		Title:    "IDENTITY CARD ISSUANCE LETTER",
		Subtitle: "Resident identity card application",
		Rows:     idCardRows,
	},
	types.DocumentTypeFamilyRegister: {
		Title:     "FAMILY REGISTER CERTIFICATE",
		Subtitle:  "Household registration record",
		Rows:      familyRegisterRows,
		ListTitle: "Household members",
		List:      familyMembers,
	},
	types.DocumentTypeBirthCert: {
		Title:    "CERTIFICATE OF BIRTH",
		Subtitle: "Extract from the civil registry of births",
		Rows:     birthCertRows,
	},
	types.DocumentTypeDeathCert: {
		Title:    "CERTIFICATE OF DEATH",
		Subtitle: "Extract from the civil registry of deaths",
		Rows:     deathCertRows,
	},
}

var genericLayout = layout{
	Title:    "CIVIL DOCUMENT",
	Subtitle: "Civil registry record",
	Rows:     applicantRows,
}

func layoutFor(docType types.DocumentType) layout {
	if l, ok := layouts[docType]; ok {
		return l
	}
	return genericLayout
}

func applicantRows(req *types.DocumentRequest) []Row {
	return []Row{
		{"Full name", orDash(req.FullName)},
		{"Address", orDash(req.Address)},
		{"Email", orDash(req.Email)},
		{"Phone", orDash(req.Phone)},
	}
}

func idCardRows(req *types.DocumentRequest) []Row {
	d, ok := req.Details.(*types.IDCardDetails)
	if !ok || d == nil {
		d = &types.IDCardDetails{}
	}

	return []Row{
		{"Full name", orDash(req.FullName)},
		{"National ID number", ptrOrDash(d.NationalID)},
		{"Application purpose", titleCase(string(d.Purpose))},
		{"Place / date of birth", placeAndDate(d.Birthplace, d.Birthdate)},
		{"Sex", titleCase(string(d.Sex))},
		{"Religion", orDash(d.Religion)},
		{"Marital status", orDash(d.MaritalStatus)},
		{"Occupation", orDash(d.Occupation)},
		{"Nationality", orDash(d.Nationality)},
		{"Address", orDash(req.Address)},
		{"Email", orDash(req.Email)},
		{"Phone", orDash(req.Phone)},
	}
}

func familyRegisterRows(req *types.DocumentRequest) []Row {
	d, ok := req.Details.(*types.FamilyRegisterDetails)
	if !ok || d == nil {
		d = &types.FamilyRegisterDetails{}
	}

	return []Row{
		{"Household head", orDash(d.HouseholdHead)},
		{"National ID number", orDash(d.NationalID)},
		{"Family register number", ptrOrDash(d.FamilyRegisterNumber)},
		{"Applicant", orDash(req.FullName)},
		{"Relationship to head", ptrOrDash(d.Relationship)},
		{"Education", ptrOrDash(d.Education)},
		{"Blood type", ptrOrDash(d.BloodType)},
		{"Address", orDash(req.Address)},
		{"Email", orDash(req.Email)},
		{"Phone", orDash(req.Phone)},
	}
}

func familyMembers(req *types.DocumentRequest) []string {
	d, ok := req.Details.(*types.FamilyRegisterDetails)
	if !ok || d == nil {
		return nil
	}
	return d.Members
}

func birthCertRows(req *types.DocumentRequest) []Row {
	d, ok := req.Details.(*types.BirthCertDetails)
	if !ok || d == nil {
		d = &types.BirthCertDetails{}
	}

	return []Row{
		{"Full name", orDash(req.FullName)},
		{"National ID number", orDash(d.NationalID)},
		{"Place of birth", orDash(d.Birthplace)},
		{"Date of birth", dateOrDash(d.Birthdate)},
		{"Sex", titleCase(string(d.Sex))},
		{"Father's name", orDash(d.FatherName)},
		{"Mother's name", orDash(d.MotherName)},
		{"Address", orDash(req.Address)},
		{"Email", orDash(req.Email)},
		{"Phone", orDash(req.Phone)},
	}
}

func deathCertRows(req *types.DocumentRequest) []Row {
	d, ok := req.Details.(*types.DeathCertDetails)
	if !ok || d == nil {
		d = &types.DeathCertDetails{}
	}

	return []Row{
		{"Name of the deceased", orDash(d.DeceasedName)},
		{"National ID number", orDash(d.NationalID)},
		{"Date of death", dateOrDash(d.DateOfDeath)},
		{"Reported by", orDash(req.FullName)},
		{"Address", orDash(req.Address)},
		{"Email", orDash(req.Email)},
		{"Phone", orDash(req.Phone)},
	}
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return dash
	}
	return s
}

func ptrOrDash(s *string) string {
	return orDash(utils.PtrString(s))
}

func dateOrDash(t time.Time) string {
	if t.IsZero() {
		return dash
	}
	return t.Format("02 January 2006")
}

func placeAndDate(place string, date time.Time) string {
	if strings.TrimSpace(place) == "" && date.IsZero() {
		return dash
	}
	return orDash(place) + ", " + dateOrDash(date)
}

func titleCase(s string) string {
	if s == "" {
		return dash
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
