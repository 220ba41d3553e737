package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// DBProvider hands out database handles. *frame.Service satisfies it, as do
// transaction scoped handles created with InTransaction.
type DBProvider interface {
	DB(ctx context.Context, readOnly bool) *gorm.DB
}

type txProvider struct {
	tx *gorm.DB
}

func (tp *txProvider) DB(ctx context.Context, _ bool) *gorm.DB {
	return tp.tx.WithContext(ctx)
}

// InTransaction runs fn with a provider bound to a single database
// transaction; any error returned by fn rolls the transaction back.
func InTransaction(ctx context.Context, provider DBProvider, fn func(tx DBProvider) error) error {
	return provider.DB(ctx, false).Transaction(func(tx *gorm.DB) error {
		return fn(&txProvider{tx: tx})
	})
}

const uniqueViolationCode = "23505"

// IsUniqueViolation reports whether err came from a unique index rejecting a row.
func IsUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}
