package seed

import (
	"context"
	"fmt"
	"math/rand"

	"civicportal/internal/document"
	"civicportal/pkg/types"

	"github.com/sirupsen/logrus"
)

var seedResidentIDs = []string{
	"seed-resident-0001",
	"seed-resident-0002",
	"seed-resident-0003",
	"seed-resident-0004",
	"seed-resident-0005",
}

var seedApplicants = []struct {
	Name  string
	Email string
	Phone string
}{
	{"Siti Rahmawati", "siti.rahmawati@example.com", "081234567890"},
	{"Ahmad Fauzi", "ahmad.fauzi@example.com", "081298765432"},
	{"Dewi Lestari", "dewi.lestari@example.com", "+6285712345678"},
	{"Budi Santoso", "budi.santoso@example.com", "082112223333"},
	{"Rina Kartika", "rina.kartika@example.com", "087855554444"},
}

var seedRejectionReasons = []string{
	"[seed] Scanned identity card is unreadable.",
	"[seed] Supporting letter from the hospital is missing.",
	"[seed] Applicant address does not match the family register.",
}

type weightedOutcome struct {
	Status types.DocumentStatus
	Weight int
}

var weightedOutcomes = []weightedOutcome{
	{Status: types.DocumentStatusSubmitted, Weight: 50},
	{Status: types.DocumentStatusApproved, Weight: 35},
	{Status: types.DocumentStatusRejected, Weight: 15},
}

// Result summarises a seeding run.
type Result struct {
	Submitted int
	Approved  int
	Rejected  int
}

// SeedDocuments submits count demo requests through the document service and
// decides a share of them as admin, so generated files and activity entries
// exist alongside the pending queue.
func SeedDocuments(ctx context.Context, svc *document.Service, admin *types.Actor, count int, rng *rand.Rand, logger logrus.FieldLogger) (*Result, error) {
	result := new(Result)
	if count <= 0 {
		logger.Info("skipping document seed because count <= 0")
		return result, nil
	}

	for i := 0; i < count; i++ {
		docType := types.AllDocumentTypes[rng.Intn(len(types.AllDocumentTypes))]
		residentID := seedResidentIDs[rng.Intn(len(seedResidentIDs))]

		req, err := svc.Submit(ctx, residentID, docType, seedFields(docType, rng))
		if err != nil {
			return result, fmt.Errorf("failed to submit seed document %d: %w", i+1, err)
		}
		result.Submitted++

		switch pickWeightedOutcome(rng) {
		case types.DocumentStatusApproved:
			if _, err := svc.Approve(ctx, req.ID, admin, "[seed] verified"); err != nil {
				return result, fmt.Errorf("failed to approve seed document %s: %w", req.ID, err)
			}
			result.Approved++
		case types.DocumentStatusRejected:
			reason := seedRejectionReasons[rng.Intn(len(seedRejectionReasons))]
			if _, err := svc.Reject(ctx, req.ID, admin, reason); err != nil {
				return result, fmt.Errorf("failed to reject seed document %s: %w", req.ID, err)
			}
			result.Rejected++
		}
	}

	logger.WithFields(logrus.Fields{
		"submitted": result.Submitted,
		"approved":  result.Approved,
		"rejected":  result.Rejected,
	}).Info("document requests seeded")

	return result, nil
}

func seedFields(docType types.DocumentType, rng *rand.Rand) map[string]string {
	applicant := seedApplicants[rng.Intn(len(seedApplicants))]

	fields := map[string]string{
		document.FieldFullName:    applicant.Name,
		document.FieldAddress:     fmt.Sprintf("Jl. Melati No. %d, Sukamaju", rng.Intn(120)+1),
		document.FieldEmail:       applicant.Email,
		document.FieldPhone:       applicant.Phone,
		document.FieldDataConsent: "true",
		document.FieldNationalID:  fmt.Sprintf("3201%012d", rng.Int63n(1_000_000_000_000)),
	}

	birthdate := fmt.Sprintf("%d-%02d-%02d", 1950+rng.Intn(60), rng.Intn(12)+1, rng.Intn(28)+1)

	switch docType {
	case types.DocumentTypeIDCard:
		fields[document.FieldApplicationPurpose] = string(types.ApplicationPurposeReplacement)
		fields[document.FieldBirthplace] = "Bandung"
		fields[document.FieldBirthdate] = birthdate
		fields[document.FieldSex] = pickSex(rng)
		fields[document.FieldReligion] = "Islam"
		fields[document.FieldMaritalStatus] = "Married"
		fields[document.FieldOccupation] = "Civil servant"
		fields[document.FieldNationality] = "Indonesian"
	case types.DocumentTypeFamilyRegister:
		fields[document.FieldHouseholdHead] = applicant.Name
		fields[document.FieldRelationship] = "Head of household"
		fields[document.FieldBloodType] = []string{"A", "B", "AB", "O"}[rng.Intn(4)]
		fields[document.FieldMembers] = applicant.Name + "\nNur Aisyah\nMuhammad Rizki"
	case types.DocumentTypeBirthCert:
		fields[document.FieldBirthplace] = "Sukamaju"
		fields[document.FieldBirthdate] = birthdate
		fields[document.FieldSex] = pickSex(rng)
		fields[document.FieldFatherName] = "Ahmad Fauzi"
		fields[document.FieldMotherName] = "Siti Rahmawati"
	case types.DocumentTypeDeathCert:
		fields[document.FieldDeceasedName] = "Rahmat Hidayat"
		fields[document.FieldDateOfDeath] = fmt.Sprintf("2024-%02d-%02d", rng.Intn(12)+1, rng.Intn(28)+1)
	}

	return fields
}

func pickSex(rng *rand.Rand) string {
	if rng.Intn(2) == 0 {
		return string(types.SexMale)
	}
	return string(types.SexFemale)
}

func pickWeightedOutcome(rng *rand.Rand) types.DocumentStatus {
	total := 0
	for _, item := range weightedOutcomes {
		total += item.Weight
	}

	roll := rng.Intn(total)
	running := 0
	for _, item := range weightedOutcomes {
		running += item.Weight
		if roll < running {
			return item.Status
		}
	}

	return types.DocumentStatusSubmitted
}

// SampleFields returns a deterministic valid submission of docType, used for
// layout previews.
func SampleFields(docType types.DocumentType) map[string]string {
	return seedFields(docType, rand.New(rand.NewSource(1)))
}
