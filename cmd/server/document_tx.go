package main

import (
	"context"
	"database/sql"
	"time"

	dErrors "doctrail/pkg/domain-errors"
	txcontext "doctrail/pkg/platform/tx"
)

const defaultDocumentTxTimeout = 5 * time.Second

// documentPostgresTx runs a lifecycle operation inside one database
// transaction. The transaction travels in the context so the document store
// and the audit store both write through it; either everything commits or
// everything rolls back.
type documentPostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func newDocumentPostgresTx(db *sql.DB) *documentPostgresTx {
	return &documentPostgresTx{db: db}
}

func (t *documentPostgresTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultDocumentTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	return nil
}
