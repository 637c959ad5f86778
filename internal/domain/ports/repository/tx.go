package repository

import "context"

// Tx is an opaque transaction handle. Its concrete type is infra-defined
// (pgx.Tx for Postgres, nil for the file store which serializes internally).
type Tx interface{}

// TransactionManager executes fn within a storage transaction, passing the
// transaction handle through via tx.
//
// Use-case code stays free of storage types: repositories accept the same
// handle and detect it implementation-side. fn returning an error rolls the
// transaction back; otherwise it is committed. Backends without real
// transactions (the flat-file tier) run fn under their store lock instead;
// the ledger semantics are identical, only the crash-atomicity guarantee
// differs.
type TransactionManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
