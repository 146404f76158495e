package document_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"civicportal/internal/document"
	"civicportal/internal/document/documenttest"
	"civicportal/pkg/types"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"
)

var (
	resident = &types.Actor{ID: "resident-1", Email: "siti@example.com", Role: types.RoleResident}
	neighbor = &types.Actor{ID: "resident-2", Email: "budi@example.com", Role: types.RoleResident}
	admin    = &types.Actor{ID: "admin-1", Email: "clerk@example.com", Role: types.RoleAdmin}

	fixedNow = time.Date(2025, time.June, 1, 9, 30, 0, 0, time.UTC)
)

type ServiceSuite struct {
	suite.Suite

	ctx       context.Context
	store     *documenttest.Store
	generator *documenttest.Generator
	svc       *document.Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	s.ctx = context.Background()
	s.store = documenttest.NewStore()
	s.generator = documenttest.NewGenerator()
	s.svc = document.New(s.store, s.store, s.generator, logger, document.WithClock(func() time.Time { return fixedNow }))
}

func deathCertFields() map[string]string {
	return map[string]string{
		document.FieldFullName:     "Siti Rahmawati",
		document.FieldAddress:      "Jl. Melati No. 5",
		document.FieldEmail:        "siti@example.com",
		document.FieldPhone:        "081234567890",
		document.FieldDataConsent:  "true",
		document.FieldNationalID:   "3201010101900001",
		document.FieldDeceasedName: "Rahmat Hidayat",
		document.FieldDateOfDeath:  "2024-05-01",
	}
}

func (s *ServiceSuite) submit(owner *types.Actor) *types.DocumentRequest {
	req, err := s.svc.Submit(s.ctx, owner.ID, types.DocumentTypeDeathCert, deathCertFields())
	s.Require().NoError(err)
	return req
}

func (s *ServiceSuite) TestSubmit() {
	req := s.submit(resident)

	s.NotEmpty(req.ID)
	s.Equal(resident.ID, req.ResidentID)
	s.Equal(types.DocumentStatusSubmitted, req.Status)
	s.Nil(req.GeneratedFile)
	s.Nil(req.Notes)

	stored, err := s.svc.GetDetail(s.ctx, req.ID, resident)
	s.Require().NoError(err)
	s.Equal("Rahmat Hidayat", stored.Details.(*types.DeathCertDetails).DeceasedName)
}

func (s *ServiceSuite) TestSubmitInvalid() {
	fields := deathCertFields()
	delete(fields, document.FieldDeceasedName)

	_, err := s.svc.Submit(s.ctx, resident.ID, types.DocumentTypeDeathCert, fields)

	var verr *document.ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Contains(verr.Fields, document.FieldDeceasedName)

	own, err := s.svc.ListOwn(s.ctx, resident.ID)
	s.Require().NoError(err)
	s.Empty(own)
}

func (s *ServiceSuite) TestSubmitWithoutResident() {
	_, err := s.svc.Submit(s.ctx, "", types.DocumentTypeDeathCert, deathCertFields())
	s.ErrorIs(err, document.ErrForbidden)
}

func (s *ServiceSuite) TestSubmitStorageFailure() {
	boom := errors.New("connection reset")
	s.store.FailCreate = boom

	_, err := s.svc.Submit(s.ctx, resident.ID, types.DocumentTypeDeathCert, deathCertFields())
	s.ErrorIs(err, boom)
}

func (s *ServiceSuite) TestListOwnNewestFirst() {
	first := s.submit(resident)
	s.submit(neighbor)
	second := s.submit(resident)

	own, err := s.svc.ListOwn(s.ctx, resident.ID)
	s.Require().NoError(err)
	s.Require().Len(own, 2)
	s.Equal(second.ID, own[0].ID)
	s.Equal(first.ID, own[1].ID)
}

func (s *ServiceSuite) TestListAll() {
	a := s.submit(resident)
	s.submit(neighbor)
	c := s.submit(resident)

	_, err := s.svc.Approve(s.ctx, a.ID, admin, "")
	s.Require().NoError(err)
	_, err = s.svc.Reject(s.ctx, c.ID, admin, "unreadable scan")
	s.Require().NoError(err)

	docs, counts, err := s.svc.ListAll(s.ctx, admin, types.DocumentRequestFilter{})
	s.Require().NoError(err)
	s.Len(docs, 3)
	s.Equal(types.DocumentCounts{Total: 3, Pending: 1, Approved: 1, Rejected: 1}, *counts)

	docs, counts, err = s.svc.ListAll(s.ctx, admin, types.DocumentRequestFilter{Status: types.DocumentStatusApproved})
	s.Require().NoError(err)
	s.Require().Len(docs, 1)
	s.Equal(a.ID, docs[0].ID)
	s.Equal(3, counts.Total)

	_, _, err = s.svc.ListAll(s.ctx, resident, types.DocumentRequestFilter{})
	s.ErrorIs(err, document.ErrForbidden)
}

func (s *ServiceSuite) TestGetDetailAccess() {
	req := s.submit(resident)

	_, err := s.svc.GetDetail(s.ctx, req.ID, resident)
	s.NoError(err)

	_, err = s.svc.GetDetail(s.ctx, req.ID, admin)
	s.NoError(err)

	_, err = s.svc.GetDetail(s.ctx, req.ID, neighbor)
	s.ErrorIs(err, document.ErrForbidden)

	_, err = s.svc.GetDetail(s.ctx, "missing", admin)
	s.ErrorIs(err, document.ErrNotFound)
}

func (s *ServiceSuite) TestApprove() {
	req := s.submit(resident)

	approved, err := s.svc.Approve(s.ctx, req.ID, admin, "  verified in person ")
	s.Require().NoError(err)

	s.Equal(types.DocumentStatusApproved, approved.Status)
	s.Require().NotNil(approved.GeneratedFile)
	s.Equal("verified in person", *approved.Notes)
	s.Equal(admin.ID, *approved.DecidedBy)
	s.Equal(fixedNow, *approved.DecidedAt)
	s.Equal([]string{*approved.GeneratedFile}, s.generator.Files())

	stored, err := s.svc.GetDetail(s.ctx, req.ID, admin)
	s.Require().NoError(err)
	s.Equal(types.DocumentStatusApproved, stored.Status)

	entries := s.store.Activity()
	s.Require().Len(entries, 1)
	s.Equal(types.ActivityActionApproveDocument, entries[0].Action)
	s.Equal(types.ActivityEntityDocumentRequest, entries[0].EntityType)
	s.Equal(req.ID, entries[0].EntityID)
	s.Equal(admin.ID, *entries[0].ActorID)
	s.Equal("Siti Rahmawati", entries[0].Metadata["applicant_name"])
}

func fieldsFor(docType types.DocumentType) map[string]string {
	fields := deathCertFields()
	delete(fields, document.FieldDeceasedName)
	delete(fields, document.FieldDateOfDeath)

	var extra map[string]string
	switch docType {
	case types.DocumentTypeIDCard:
		extra = map[string]string{
			document.FieldApplicationPurpose: "RENEWAL",
			document.FieldScannedID:          "uploads/ktp.jpg",
			document.FieldBirthplace:         "Bandung",
			document.FieldBirthdate:          "1990-03-04",
			document.FieldSex:                "FEMALE",
			document.FieldReligion:           "Islam",
			document.FieldMaritalStatus:      "Married",
			document.FieldOccupation:         "Nurse",
			document.FieldNationality:        "Indonesian",
		}
	case types.DocumentTypeBirthCert:
		extra = map[string]string{
			document.FieldBirthplace: "Bandung",
			document.FieldBirthdate:  "2024-01-15",
			document.FieldSex:        "MALE",
			document.FieldFatherName: "Ahmad Fauzi",
			document.FieldMotherName: "Siti Rahmawati",
		}
	case types.DocumentTypeDeathCert:
		return deathCertFields()
	case types.DocumentTypeFamilyRegister:
		extra = map[string]string{
			document.FieldHouseholdHead: "Ahmad Fauzi",
			document.FieldMembers:       "Ahmad Fauzi\nSiti Rahmawati",
		}
	}
	for k, v := range extra {
		fields[k] = v
	}
	return fields
}

func (s *ServiceSuite) TestApproveEveryType() {
	for _, docType := range []types.DocumentType{
		types.DocumentTypeIDCard,
		types.DocumentTypeBirthCert,
		types.DocumentTypeDeathCert,
		types.DocumentTypeFamilyRegister,
	} {
		s.Run(string(docType), func() {
			s.SetupTest()

			req, err := s.svc.Submit(s.ctx, resident.ID, docType, fieldsFor(docType))
			s.Require().NoError(err)
			s.Equal(docType, req.Details.DocumentType())

			approved, err := s.svc.Approve(s.ctx, req.ID, admin, "")
			s.Require().NoError(err)
			s.Equal(types.DocumentStatusApproved, approved.Status)
			s.Require().NotNil(approved.GeneratedFile)
			s.Equal([]string{*approved.GeneratedFile}, s.generator.Files())

			entries := s.store.Activity()
			s.Require().Len(entries, 1)
			s.Equal(types.ActivityActionApproveDocument, entries[0].Action)
			s.Equal(req.ID, entries[0].EntityID)
		})
	}
}

func (s *ServiceSuite) TestApproveWithoutNotes() {
	req := s.submit(resident)

	approved, err := s.svc.Approve(s.ctx, req.ID, admin, "")
	s.Require().NoError(err)
	s.Nil(approved.Notes)
}

func (s *ServiceSuite) TestApproveTwice() {
	req := s.submit(resident)

	_, err := s.svc.Approve(s.ctx, req.ID, admin, "")
	s.Require().NoError(err)

	_, err = s.svc.Approve(s.ctx, req.ID, admin, "")
	s.ErrorIs(err, document.ErrInvalidState)
	s.Len(s.store.Activity(), 1)
}

func (s *ServiceSuite) TestApproveRequiresAdmin() {
	req := s.submit(resident)

	_, err := s.svc.Approve(s.ctx, req.ID, resident, "")
	s.ErrorIs(err, document.ErrForbidden)
	s.Zero(s.generator.Calls)
}

func (s *ServiceSuite) TestApproveMissing() {
	_, err := s.svc.Approve(s.ctx, "missing", admin, "")
	s.ErrorIs(err, document.ErrNotFound)
}

func (s *ServiceSuite) TestApproveGenerationFailure() {
	req := s.submit(resident)
	s.generator.Fail = true

	_, err := s.svc.Approve(s.ctx, req.ID, admin, "")

	var gerr *document.GenerationError
	s.Require().ErrorAs(err, &gerr)
	s.Equal(req.ID, gerr.DocumentID)
	s.ErrorIs(err, documenttest.ErrGeneration)

	stored, err := s.svc.GetDetail(s.ctx, req.ID, admin)
	s.Require().NoError(err)
	s.Equal(types.DocumentStatusSubmitted, stored.Status)
	s.Nil(stored.GeneratedFile)
	s.Empty(s.store.Activity())
}

func (s *ServiceSuite) TestConcurrentApproveSucceedsOnce() {
	req := s.submit(resident)

	const workers = 10
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.svc.Approve(s.ctx, req.ID, admin, "")
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}()
	}
	wg.Wait()

	var succeeded int
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		s.ErrorIs(err, document.ErrInvalidState)
	}

	s.Equal(1, succeeded)
	s.Len(s.store.Activity(), 1)
	s.Len(s.generator.Files(), 1)
}

func (s *ServiceSuite) TestReject() {
	req := s.submit(resident)

	rejected, err := s.svc.Reject(s.ctx, req.ID, admin, "Death certificate from hospital missing")
	s.Require().NoError(err)

	s.Equal(types.DocumentStatusRejected, rejected.Status)
	s.Equal("Death certificate from hospital missing", *rejected.Notes)
	s.Nil(rejected.GeneratedFile)
	s.Zero(s.generator.Calls)

	entries := s.store.Activity()
	s.Require().Len(entries, 1)
	s.Equal(types.ActivityActionRejectDocument, entries[0].Action)
	s.Contains(entries[0].Description, "Death certificate from hospital missing")
	s.Equal("Death certificate from hospital missing", entries[0].Metadata["reason"])
}

func (s *ServiceSuite) TestRejectRequiresNotes() {
	req := s.submit(resident)

	for _, notes := range []string{"", "   "} {
		_, err := s.svc.Reject(s.ctx, req.ID, admin, notes)

		var verr *document.ValidationError
		s.Require().ErrorAs(err, &verr)
		s.Contains(verr.Fields, "notes")
	}

	// Notes are checked before the record is looked up.
	_, err := s.svc.Reject(s.ctx, "missing", admin, "")
	var verr *document.ValidationError
	s.ErrorAs(err, &verr)

	stored, err := s.svc.GetDetail(s.ctx, req.ID, admin)
	s.Require().NoError(err)
	s.Equal(types.DocumentStatusSubmitted, stored.Status)
	s.Empty(s.store.Activity())
}

func (s *ServiceSuite) TestRejectAfterApprove() {
	req := s.submit(resident)

	_, err := s.svc.Approve(s.ctx, req.ID, admin, "")
	s.Require().NoError(err)

	_, err = s.svc.Reject(s.ctx, req.ID, admin, "changed my mind")
	s.ErrorIs(err, document.ErrInvalidState)
}

func (s *ServiceSuite) TestRejectRequiresAdmin() {
	req := s.submit(resident)

	_, err := s.svc.Reject(s.ctx, req.ID, neighbor, "spam")
	s.ErrorIs(err, document.ErrForbidden)
}

func (s *ServiceSuite) TestDownload() {
	req := s.submit(resident)
	approved, err := s.svc.Approve(s.ctx, req.ID, admin, "")
	s.Require().NoError(err)
	firstFile := *approved.GeneratedFile

	dl, err := s.svc.Download(s.ctx, req.ID, resident)
	s.Require().NoError(err)
	defer dl.Body.Close()

	s.Equal("DEATH_CERT_Siti_Rahmawati_20250601.pdf", dl.Filename)
	s.Equal("application/pdf", dl.ContentType)

	body, err := io.ReadAll(dl.Body)
	s.Require().NoError(err)
	s.EqualValues(len(body), dl.Size)
	s.Equal("%PDF-", string(body[:5]))

	stored, err := s.svc.GetDetail(s.ctx, req.ID, resident)
	s.Require().NoError(err)
	s.NotEqual(firstFile, *stored.GeneratedFile)
	s.Equal([]string{*stored.GeneratedFile}, s.generator.Files())
	s.Equal(2, s.generator.Calls)
}

func (s *ServiceSuite) TestConcurrentDownloadsKeepOnlyCurrentFile() {
	req := s.submit(resident)
	_, err := s.svc.Approve(s.ctx, req.ID, admin, "")
	s.Require().NoError(err)

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			dl, err := s.svc.Download(s.ctx, req.ID, resident)
			if err == nil {
				_, err = io.ReadAll(dl.Body)
				_ = dl.Body.Close()
			}
			errs[i] = err
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		s.NoError(err)
	}

	stored, err := s.svc.GetDetail(s.ctx, req.ID, resident)
	s.Require().NoError(err)
	s.Equal([]string{*stored.GeneratedFile}, s.generator.Files())
	s.Equal(workers+1, s.generator.Calls)
}

func (s *ServiceSuite) TestDownloadByAdmin() {
	req := s.submit(resident)
	_, err := s.svc.Approve(s.ctx, req.ID, admin, "")
	s.Require().NoError(err)

	dl, err := s.svc.Download(s.ctx, req.ID, admin)
	s.Require().NoError(err)
	s.NoError(dl.Body.Close())
}

func (s *ServiceSuite) TestDownloadRules() {
	pending := s.submit(resident)

	_, err := s.svc.Download(s.ctx, pending.ID, resident)
	s.ErrorIs(err, document.ErrNotApproved)

	_, err = s.svc.Download(s.ctx, pending.ID, neighbor)
	s.ErrorIs(err, document.ErrForbidden)

	_, err = s.svc.Download(s.ctx, "missing", resident)
	s.ErrorIs(err, document.ErrNotFound)

	rejected := s.submit(resident)
	_, err = s.svc.Reject(s.ctx, rejected.ID, admin, "incomplete")
	s.Require().NoError(err)

	_, err = s.svc.Download(s.ctx, rejected.ID, resident)
	s.ErrorIs(err, document.ErrNotApproved)
}

func (s *ServiceSuite) TestDownloadGenerationFailure() {
	req := s.submit(resident)
	approved, err := s.svc.Approve(s.ctx, req.ID, admin, "")
	s.Require().NoError(err)

	s.generator.Fail = true
	_, err = s.svc.Download(s.ctx, req.ID, resident)

	var gerr *document.GenerationError
	s.ErrorAs(err, &gerr)

	stored, err := s.svc.GetDetail(s.ctx, req.ID, resident)
	s.Require().NoError(err)
	s.Equal(*approved.GeneratedFile, *stored.GeneratedFile)
}
