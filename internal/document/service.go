package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"time"

	"civicportal/internal/metrics"
	"civicportal/internal/utils"
	"civicportal/pkg/types"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Repository persists document requests.
type Repository interface {
	CreateDocumentRequest(ctx context.Context, req *types.DocumentRequest) error
	DocumentRequest(ctx context.Context, id string) (*types.DocumentRequest, error)
	DocumentRequestsByResident(ctx context.Context, residentID string) ([]*types.DocumentRequest, error)
	DocumentRequests(ctx context.Context, filter types.DocumentRequestFilter) ([]*types.DocumentRequest, error)
	DocumentCounts(ctx context.Context) (*types.DocumentCounts, error)

	// TransitionStatus applies t only if the record is still in t.From and
	// returns types.ErrStatusConflict otherwise.
	TransitionStatus(ctx context.Context, t *Transition) error

	// SetGeneratedFile replaces the file path of an approved record and
	// returns the path it replaced, or types.ErrStatusConflict if the record
	// is not approved.
	SetGeneratedFile(ctx context.Context, id, path string) (*string, error)
}

// ActivityLog is the append-only audit sink.
type ActivityLog interface {
	Record(ctx context.Context, entry *types.ActivityLogEntry) error
}

// Transactor runs fn against a repository and activity log that share one
// transaction. A non-nil error from fn rolls everything back.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(repo Repository, activity ActivityLog) error) error
}

// Generator renders and stores the PDF for a request. Open returns an error
// wrapping fs.ErrNotExist when the file is missing.
type Generator interface {
	Generate(ctx context.Context, req *types.DocumentRequest) (string, error)
	Open(ctx context.Context, path string) (io.ReadCloser, int64, error)
	Remove(ctx context.Context, path string) error
}

type Transition struct {
	ID            string
	From          types.DocumentStatus
	To            types.DocumentStatus
	Notes         *string
	GeneratedFile *string
	DecidedBy     *string
	DecidedAt     time.Time
}

// Download is a freshly generated PDF ready to be streamed. The caller must
// close Body.
type Download struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.ReadCloser
}

type Service struct {
	repo      Repository
	tx        Transactor
	generator Generator
	logger    logrus.FieldLogger
	now       func() time.Time
}

type Option func(*Service)

// WithClock overrides the time source used for decisions and file names.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(repo Repository, tx Transactor, generator Generator, logger logrus.FieldLogger, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		tx:        tx,
		generator: generator,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit validates fields for docType and stores a new SUBMITTED request
// owned by residentID.
func (s *Service) Submit(ctx context.Context, residentID string, docType types.DocumentType, fields map[string]string) (*types.DocumentRequest, error) {
	if residentID == "" {
		return nil, ErrForbidden
	}

	req, err := Validate(docType, fields)
	if err != nil {
		return nil, err
	}

	req.ResidentID = residentID
	req.Status = types.DocumentStatusSubmitted

	if err := s.repo.CreateDocumentRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("create document request: %w", err)
	}

	metrics.DocumentsSubmitted.WithLabelValues(string(req.Type)).Inc()

	s.logger.WithFields(logrus.Fields{
		"document_id": req.ID,
		"resident_id": residentID,
		"type":        req.Type,
	}).Info("document request submitted")

	return req, nil
}

// ListOwn returns the resident's requests, newest submission first.
func (s *Service) ListOwn(ctx context.Context, residentID string) ([]*types.DocumentRequest, error) {
	docs, err := s.repo.DocumentRequestsByResident(ctx, residentID)
	if err != nil {
		return nil, fmt.Errorf("list document requests for resident %s: %w", residentID, err)
	}
	return docs, nil
}

// ListAll returns every request matching filter along with counts over the
// whole table.
func (s *Service) ListAll(ctx context.Context, admin *types.Actor, filter types.DocumentRequestFilter) ([]*types.DocumentRequest, *types.DocumentCounts, error) {
	if !admin.IsAdmin() {
		return nil, nil, ErrForbidden
	}

	var (
		docs   []*types.DocumentRequest
		counts *types.DocumentCounts
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		docs, err = s.repo.DocumentRequests(gctx, filter)
		return utils.ErrorWrapOrNil(err, "list document requests")
	})
	g.Go(func() error {
		var err error
		counts, err = s.repo.DocumentCounts(gctx)
		return utils.ErrorWrapOrNil(err, "count document requests")
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	return docs, counts, nil
}

func (s *Service) GetDetail(ctx context.Context, id string, requester *types.Actor) (*types.DocumentRequest, error) {
	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if !requester.CanAccess(doc.ResidentID) {
		return nil, ErrForbidden
	}

	return doc, nil
}

// Approve generates the document and moves the request to APPROVED. The
// status change and its activity entry commit together; if generation or
// the transaction fails nothing is persisted.
func (s *Service) Approve(ctx context.Context, id string, admin *types.Actor, notes string) (*types.DocumentRequest, error) {
	if !admin.IsAdmin() {
		return nil, ErrForbidden
	}

	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if doc.Status != types.DocumentStatusSubmitted {
		return nil, ErrInvalidState
	}

	path, err := s.generate(ctx, doc)
	if err != nil {
		return nil, err
	}

	transition := &Transition{
		ID:            doc.ID,
		From:          types.DocumentStatusSubmitted,
		To:            types.DocumentStatusApproved,
		Notes:         utils.StringPtrOrNil(strings.TrimSpace(notes)),
		GeneratedFile: &path,
		DecidedBy:     &admin.ID,
		DecidedAt:     s.now(),
	}

	entry := &types.ActivityLogEntry{
		ActorID:     &admin.ID,
		Action:      types.ActivityActionApproveDocument,
		Description: fmt.Sprintf("Approved %s request %s for %s", doc.Type.Label(), doc.ID, doc.FullName),
		EntityType:  types.ActivityEntityDocumentRequest,
		EntityID:    doc.ID,
		Metadata: map[string]any{
			"type":           string(doc.Type),
			"applicant_name": doc.FullName,
		},
	}

	if err := s.commitTransition(ctx, transition, entry); err != nil {
		s.discard(ctx, path)
		return nil, err
	}

	applyTransition(doc, transition)

	metrics.DocumentTransitions.WithLabelValues(string(doc.Type), string(doc.Status)).Inc()

	s.logger.WithFields(logrus.Fields{
		"document_id": doc.ID,
		"admin_id":    admin.ID,
		"file":        path,
	}).Info("document request approved")

	return doc, nil
}

// Reject moves a SUBMITTED request to REJECTED. notes is mandatory.
func (s *Service) Reject(ctx context.Context, id string, admin *types.Actor, notes string) (*types.DocumentRequest, error) {
	if !admin.IsAdmin() {
		return nil, ErrForbidden
	}

	notes = strings.TrimSpace(notes)
	if notes == "" {
		return nil, &ValidationError{Fields: map[string]string{"notes": "A rejection reason is required."}}
	}

	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if doc.Status != types.DocumentStatusSubmitted {
		return nil, ErrInvalidState
	}

	transition := &Transition{
		ID:        doc.ID,
		From:      types.DocumentStatusSubmitted,
		To:        types.DocumentStatusRejected,
		Notes:     &notes,
		DecidedBy: &admin.ID,
		DecidedAt: s.now(),
	}

	entry := &types.ActivityLogEntry{
		ActorID:     &admin.ID,
		Action:      types.ActivityActionRejectDocument,
		Description: fmt.Sprintf("Rejected %s request %s for %s: %s", doc.Type.Label(), doc.ID, doc.FullName, notes),
		EntityType:  types.ActivityEntityDocumentRequest,
		EntityID:    doc.ID,
		Metadata: map[string]any{
			"type":           string(doc.Type),
			"applicant_name": doc.FullName,
			"reason":         notes,
		},
	}

	if err := s.commitTransition(ctx, transition, entry); err != nil {
		return nil, err
	}

	applyTransition(doc, transition)

	metrics.DocumentTransitions.WithLabelValues(string(doc.Type), string(doc.Status)).Inc()

	s.logger.WithFields(logrus.Fields{
		"document_id": doc.ID,
		"admin_id":    admin.ID,
	}).Info("document request rejected")

	return doc, nil
}

// Download regenerates the PDF of an approved request and opens it for
// streaming. The file the new path replaced is removed once it is stored.
func (s *Service) Download(ctx context.Context, id string, requester *types.Actor) (*Download, error) {
	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if !requester.CanAccess(doc.ResidentID) {
		return nil, ErrForbidden
	}

	if doc.Status != types.DocumentStatusApproved {
		return nil, ErrNotApproved
	}

	path, err := s.generate(ctx, doc)
	if err != nil {
		return nil, err
	}

	// Opened before the path is stored so a concurrent download replacing
	// it cannot remove the file out from under this one.
	body, size, err := s.generator.Open(ctx, path)
	if err != nil {
		s.discard(ctx, path)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("open generated file %s: %w", path, err)
	}

	previous, err := s.repo.SetGeneratedFile(ctx, doc.ID, path)
	if err != nil {
		_ = body.Close()
		s.discard(ctx, path)
		if errors.Is(err, types.ErrStatusConflict) {
			return nil, ErrNotApproved
		}
		return nil, fmt.Errorf("store generated file for %s: %w", doc.ID, err)
	}

	if previous != nil && *previous != path {
		s.discard(ctx, *previous)
	}
	doc.GeneratedFile = &path

	return &Download{
		Filename:    DownloadFilename(doc, s.now()),
		ContentType: "application/pdf",
		Size:        size,
		Body:        body,
	}, nil
}

func (s *Service) load(ctx context.Context, id string) (*types.DocumentRequest, error) {
	doc, err := s.repo.DocumentRequest(ctx, id)
	if err != nil {
		if errors.Is(err, types.ErrDocumentRequestNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load document request %s: %w", id, err)
	}
	return doc, nil
}

func (s *Service) generate(ctx context.Context, doc *types.DocumentRequest) (string, error) {
	started := time.Now()

	path, err := s.generator.Generate(ctx, doc)
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	metrics.GenerationDuration.WithLabelValues(string(doc.Type), outcome).Observe(time.Since(started).Seconds())

	if err != nil {
		s.logger.WithError(err).WithField("document_id", doc.ID).Error("failed to generate document")
		return "", &GenerationError{DocumentID: doc.ID, Err: err}
	}

	return path, nil
}

func (s *Service) commitTransition(ctx context.Context, t *Transition, entry *types.ActivityLogEntry) error {
	err := s.tx.WithinTx(ctx, func(repo Repository, activity ActivityLog) error {
		if err := repo.TransitionStatus(ctx, t); err != nil {
			return err
		}
		return activity.Record(ctx, entry)
	})
	if err == nil {
		return nil
	}

	if errors.Is(err, types.ErrStatusConflict) {
		return ErrInvalidState
	}
	return fmt.Errorf("transition document request %s to %s: %w", t.ID, t.To, err)
}

// discard removes a generated file that is no longer referenced.
func (s *Service) discard(ctx context.Context, path string) {
	if err := s.generator.Remove(context.WithoutCancel(ctx), path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.WithError(err).WithField("path", path).Warn("failed to remove generated document")
	}
}

func applyTransition(doc *types.DocumentRequest, t *Transition) {
	doc.Status = t.To
	doc.Notes = t.Notes
	doc.GeneratedFile = t.GeneratedFile
	doc.DecidedBy = t.DecidedBy
	doc.DecidedAt = utils.TimePtr(t.DecidedAt)
	doc.UpdatedAt = t.DecidedAt
}
