package store

import (
	"context"
	"fmt"

	"civicportal/internal/document"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx so repositories can run
// inside or outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func psql() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

// UnitOfWork hands out repositories bound to a single transaction.
type UnitOfWork struct {
	pool *pgxpool.Pool
}

func NewUnitOfWork(pool *pgxpool.Pool) *UnitOfWork {
	return &UnitOfWork{pool: pool}
}

func (u *UnitOfWork) WithinTx(ctx context.Context, fn func(repo document.Repository, activity document.ActivityLog) error) error {
	err := pgx.BeginFunc(ctx, u.pool, func(tx pgx.Tx) error {
		return fn(NewDocumentRequestRepository(tx), NewActivityLogRepository(tx))
	})
	if err != nil {
		return fmt.Errorf("unit of work: %w", err)
	}
	return nil
}
