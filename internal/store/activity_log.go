package store

import (
	"context"
	"fmt"
	"time"

	"civicportal/internal/utils"
	"civicportal/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
)

const activityLogsTableName = "activity_logs"

const DefaultActivityLimit = 50

var activityLogColumns = utils.StructTagValues(types.ActivityLogEntry{})

type ActivityLogRepository struct {
	db DBTX
}

func NewActivityLogRepository(db DBTX) *ActivityLogRepository {
	return &ActivityLogRepository{db: db}
}

// Record appends entry, filling in its id and timestamp when unset.
func (r *ActivityLogRepository) Record(ctx context.Context, entry *types.ActivityLogEntry) error {
	if entry.ID == "" {
		entry.ID = utils.NanoID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if entry.Metadata == nil {
		entry.Metadata = map[string]any{}
	}

	query, args, err := psql().
		Insert(activityLogsTableName).
		SetMap(utils.StructToMap(entry)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert activity log query: %w", err)
	}

	_, err = r.db.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to record activity")
}

// Recent returns the latest entries, newest first.
func (r *ActivityLogRepository) Recent(ctx context.Context, limit int) ([]*types.ActivityLogEntry, error) {
	if limit <= 0 {
		limit = DefaultActivityLimit
	}

	query, args, err := psql().
		Select(activityLogColumns...).
		From(activityLogsTableName).
		OrderBy("created_at DESC", "id").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate recent activity query: %w", err)
	}

	var entries []*types.ActivityLogEntry
	err = pgxscan.Select(ctx, r.db, &entries, query, args...)
	if err != nil {
		return nil, utils.ErrorWrapOrNil(err, "failed to get recent activity")
	}

	return entries, nil
}

// EntriesByEntity returns the history of one entity in chronological order.
func (r *ActivityLogRepository) EntriesByEntity(ctx context.Context, entityType, entityID string) ([]*types.ActivityLogEntry, error) {
	query, args, err := psql().
		Select(activityLogColumns...).
		From(activityLogsTableName).
		Where(sq.Eq{"entity_type": entityType, "entity_id": entityID}).
		OrderBy("created_at ASC", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate entity activity query: %w", err)
	}

	var entries []*types.ActivityLogEntry
	err = pgxscan.Select(ctx, r.db, &entries, query, args...)
	if err != nil {
		return nil, utils.ErrorWrapOrNil(err, "failed to get entity activity")
	}

	return entries, nil
}
