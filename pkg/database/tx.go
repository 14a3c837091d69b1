package database

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Context carries the request context and the transaction handle a repository call runs on.
type Context struct {
	Ctx context.Context
	Tx  *gorm.DB
}

// DB returns the transaction handle bound to the request context
func (c Context) DB() *gorm.DB {
	ctx := c.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	return c.Tx.WithContext(ctx)
}

// TxRunner scopes a unit of work to a single transaction.
// The transaction commits when fn returns nil and rolls back otherwise.
type TxRunner interface {
	InTx(ctx context.Context, fn func(dbc Context) error) error
}

type gormTxRunner struct {
	db *gorm.DB
}

// NewGormTxRunner returns a transaction runner backed by gorm transactions
func NewGormTxRunner(db *gorm.DB) TxRunner {
	return &gormTxRunner{db: db}
}

func (r *gormTxRunner) InTx(ctx context.Context, fn func(dbc Context) error) error {
	if fn == nil {
		return nil
	}
	if r == nil || r.db == nil {
		return errors.New("transaction runner has nil db")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(Context{Ctx: ctx, Tx: tx})
	})
}

// ReadOnly returns a Context running directly on db, outside any explicit transaction
func ReadOnly(ctx context.Context, db *gorm.DB) Context {
	return Context{Ctx: ctx, Tx: db}
}
