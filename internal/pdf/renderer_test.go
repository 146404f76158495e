package pdf

import (
	"context"
	"testing"
	"time"

	"civicportal/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLetterhead = Letterhead{
	Municipality:   "Municipality of Sukamaju",
	Office:         "Civil Registry Office",
	AuthorityLabel: "Head of Civil Registry",
}

func sampleRequests() []*types.DocumentRequest {
	birth := time.Date(1990, time.March, 4, 0, 0, 0, 0, time.UTC)
	nik := "3201010101900001"

	applicant := types.Applicant{
		FullName:    "Siti Rahmawati",
		Address:     "Jl. Melati No. 5, Sukamaju",
		Email:       "siti@example.com",
		Phone:       "081234567890",
		DataConsent: true,
	}

	return []*types.DocumentRequest{
		{ID: "id-card", Type: types.DocumentTypeIDCard, Applicant: applicant, Details: &types.IDCardDetails{
			Purpose: types.ApplicationPurposeRenewal, NationalID: &nik, Birthplace: "Bandung", Birthdate: birth,
			Sex: types.SexFemale, Religion: "Islam", MaritalStatus: "Married", Occupation: "Nurse", Nationality: "Indonesian",
		}},
		{ID: "family", Type: types.DocumentTypeFamilyRegister, Applicant: applicant, Details: &types.FamilyRegisterDetails{
			NationalID: nik, HouseholdHead: "Ahmad Fauzi", Members: []string{"Ahmad Fauzi", "Siti Rahmawati"},
		}},
		{ID: "birth", Type: types.DocumentTypeBirthCert, Applicant: applicant, Details: &types.BirthCertDetails{
			NationalID: nik, Birthplace: "Bandung", Birthdate: birth, Sex: types.SexFemale, FatherName: "Ahmad", MotherName: "Aminah",
		}},
		{ID: "death", Type: types.DocumentTypeDeathCert, Applicant: applicant, Details: &types.DeathCertDetails{
			NationalID: nik, DeceasedName: "Rahmat Hidayat", DateOfDeath: birth.AddDate(30, 0, 0),
		}},
		{ID: "unknown", Type: types.DocumentType("MARRIAGE_CERT"), Applicant: applicant},
	}
}

func TestRenderEveryLayout(t *testing.T) {
	r := NewFPDFRenderer(testLetterhead)

	for _, req := range sampleRequests() {
		t.Run(string(req.Type), func(t *testing.T) {
			data, err := r.Render(context.Background(), req)
			require.NoError(t, err)
			assert.True(t, len(data) > 100)
			assert.Equal(t, "%PDF-", string(data[:5]))
		})
	}
}

func TestRenderWithNonLatinName(t *testing.T) {
	r := NewFPDFRenderer(testLetterhead)
	req := sampleRequests()[2]
	req.FullName = "Zoë Ñúñez"

	data, err := r.Render(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-", string(data[:5]))
}

func TestRenderCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFPDFRenderer(testLetterhead).Render(ctx, sampleRequests()[0])
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLayoutSelection(t *testing.T) {
	assert.Equal(t, "IDENTITY CARD ISSUANCE LETTER", layoutFor(types.DocumentTypeIDCard).Title)
	assert.Equal(t, "FAMILY REGISTER CERTIFICATE", layoutFor(types.DocumentTypeFamilyRegister).Title)
	assert.Equal(t, "CERTIFICATE OF BIRTH", layoutFor(types.DocumentTypeBirthCert).Title)
	assert.Equal(t, "CERTIFICATE OF DEATH", layoutFor(types.DocumentTypeDeathCert).Title)
	assert.Equal(t, genericLayout.Title, layoutFor("SOMETHING_ELSE").Title)
}

func TestOptionalFieldsRenderAsDash(t *testing.T) {
	req := &types.DocumentRequest{
		Type:      types.DocumentTypeFamilyRegister,
		Applicant: types.Applicant{FullName: "Ahmad Fauzi"},
		Details:   &types.FamilyRegisterDetails{NationalID: "3201010101900001", HouseholdHead: "Ahmad Fauzi"},
	}

	rows := familyRegisterRows(req)
	values := map[string]string{}
	for _, row := range rows {
		values[row.Label] = row.Value
	}

	assert.Equal(t, dash, values["Family register number"])
	assert.Equal(t, dash, values["Relationship to head"])
	assert.Equal(t, dash, values["Education"])
	assert.Equal(t, dash, values["Blood type"])
	assert.Equal(t, dash, values["Address"])
	assert.Equal(t, "Ahmad Fauzi", values["Household head"])
}

func TestIDCardRowsWithoutNationalID(t *testing.T) {
	req := &types.DocumentRequest{
		Type:    types.DocumentTypeIDCard,
		Details: &types.IDCardDetails{Purpose: types.ApplicationPurposeNew, Sex: types.SexMale},
	}

	rows := idCardRows(req)
	assert.Equal(t, Row{"National ID number", dash}, rows[1])
	assert.Equal(t, Row{"Application purpose", "New"}, rows[2])
	assert.Equal(t, Row{"Place / date of birth", dash}, rows[3])
	assert.Equal(t, Row{"Sex", "Male"}, rows[4])
}
