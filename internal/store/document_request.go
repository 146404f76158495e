package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"civicportal/internal/document"
	"civicportal/internal/utils"
	"civicportal/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
)

const documentRequestsTableName = "document_requests"

var documentRequestColumns = append(utils.StructTagValues(types.DocumentRequest{}), "details")

// documentRequestRow carries the raw jsonb details alongside the typed columns.
type documentRequestRow struct {
	types.DocumentRequest
	RawDetails []byte `db:"details"`
}

func (r *documentRequestRow) decode() (*types.DocumentRequest, error) {
	req := r.DocumentRequest
	details, err := types.DecodeDocumentDetails(req.Type, r.RawDetails)
	if err != nil {
		return nil, fmt.Errorf("decode details of %s: %w", req.ID, err)
	}
	req.Details = details
	return &req, nil
}

type DocumentRequestRepository struct {
	db DBTX
}

func NewDocumentRequestRepository(db DBTX) *DocumentRequestRepository {
	return &DocumentRequestRepository{db: db}
}

// CreateDocumentRequest assigns the id and timestamps of req before inserting it.
func (r *DocumentRequestRepository) CreateDocumentRequest(ctx context.Context, req *types.DocumentRequest) error {
	now := time.Now().UTC()
	if req.ID == "" {
		req.ID = utils.NanoID()
	}
	req.SubmittedAt = now
	req.UpdatedAt = now

	details, err := json.Marshal(req.Details)
	if err != nil {
		return fmt.Errorf("failed to encode document details: %w", err)
	}

	values := utils.StructToMap(req)
	values["details"] = details

	query, args, err := psql().
		Insert(documentRequestsTableName).
		SetMap(values).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert document request query: %w", err)
	}

	_, err = r.db.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to insert document request")
}

func (r *DocumentRequestRepository) DocumentRequest(ctx context.Context, id string) (*types.DocumentRequest, error) {
	query, args, err := psql().
		Select(documentRequestColumns...).
		From(documentRequestsTableName).
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate document request query: %w", err)
	}

	var row documentRequestRow
	err = pgxscan.Get(ctx, r.db, &row, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrDocumentRequestNotFound
		}
		return nil, fmt.Errorf("failed to fetch document request: %w", err)
	}

	return row.decode()
}

// DocumentRequestsByResident returns a resident's requests, newest first.
func (r *DocumentRequestRepository) DocumentRequestsByResident(ctx context.Context, residentID string) ([]*types.DocumentRequest, error) {
	return r.selectRequests(ctx, psql().
		Select(documentRequestColumns...).
		From(documentRequestsTableName).
		Where(sq.Eq{"resident_id": residentID}).
		OrderBy("submitted_at DESC", "id"))
}

// DocumentRequests lists every request, newest first. Empty filter fields match all.
func (r *DocumentRequestRepository) DocumentRequests(ctx context.Context, filter types.DocumentRequestFilter) ([]*types.DocumentRequest, error) {
	builder := psql().
		Select(documentRequestColumns...).
		From(documentRequestsTableName).
		OrderBy("submitted_at DESC", "id")

	if filter.Status != "" {
		builder = builder.Where(sq.Eq{"status": filter.Status})
	}
	if filter.Type != "" {
		builder = builder.Where(sq.Eq{"type": filter.Type})
	}

	return r.selectRequests(ctx, builder)
}

func (r *DocumentRequestRepository) selectRequests(ctx context.Context, builder sq.SelectBuilder) ([]*types.DocumentRequest, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate document requests query: %w", err)
	}

	var rows []*documentRequestRow
	err = pgxscan.Select(ctx, r.db, &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch document requests: %w", err)
	}

	out := make([]*types.DocumentRequest, 0, len(rows))
	for _, row := range rows {
		req, err := row.decode()
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}

	return out, nil
}

func (r *DocumentRequestRepository) DocumentCounts(ctx context.Context) (*types.DocumentCounts, error) {
	query, args, err := psql().
		Select("status", "count(*) AS count").
		From(documentRequestsTableName).
		GroupBy("status").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate document counts query: %w", err)
	}

	var rows []struct {
		Status types.DocumentStatus `db:"status"`
		Count  int                  `db:"count"`
	}
	err = pgxscan.Select(ctx, r.db, &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count document requests: %w", err)
	}

	counts := new(types.DocumentCounts)
	for _, row := range rows {
		counts.Total += row.Count
		switch row.Status {
		case types.DocumentStatusSubmitted:
			counts.Pending = row.Count
		case types.DocumentStatusApproved:
			counts.Approved = row.Count
		case types.DocumentStatusRejected:
			counts.Rejected = row.Count
		}
	}

	return counts, nil
}

// TransitionStatus updates the record only while it is still in t.From.
func (r *DocumentRequestRepository) TransitionStatus(ctx context.Context, t *document.Transition) error {
	query, args, err := psql().
		Update(documentRequestsTableName).
		SetMap(map[string]any{
			"status":         t.To,
			"notes":          t.Notes,
			"generated_file": t.GeneratedFile,
			"decided_by":     t.DecidedBy,
			"decided_at":     t.DecidedAt,
			"updated_at":     t.DecidedAt,
		}).
		Where(sq.Eq{"id": t.ID, "status": t.From}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate transition query: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to transition document request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrStatusConflict
	}

	return nil
}

// SetGeneratedFile swaps in path and returns the path it replaced. The row is
// locked while the previous value is read so concurrent callers each see the
// value they overwrite.
func (r *DocumentRequestRepository) SetGeneratedFile(ctx context.Context, id, path string) (*string, error) {
	current := psql().
		Select("id", "generated_file").
		From(documentRequestsTableName).
		Where(sq.Eq{"id": id, "status": types.DocumentStatusApproved}).
		Suffix("FOR UPDATE")

	query, args, err := psql().
		Update(documentRequestsTableName+" AS d").
		Set("generated_file", path).
		Set("updated_at", time.Now().UTC()).
		FromSelect(current, "prev").
		Where("d.id = prev.id").
		Suffix("RETURNING prev.generated_file").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate update generated file query: %w", err)
	}

	var previous *string
	err = pgxscan.Get(ctx, r.db, &previous, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrStatusConflict
		}
		return nil, fmt.Errorf("failed to update generated file: %w", err)
	}

	return previous, nil
}
