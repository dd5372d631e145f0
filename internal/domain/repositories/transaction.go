package repositories

import "context"

// TxFn runs with a transaction installed in its context via SetTx
type TxFn func(ctx context.Context) error

// TransactionManager wraps the multi-statement operations that must commit
// or roll back as a unit: version ledger updates, bulk project grants, and
// subtree deletes.
type TransactionManager interface {
	ExecTx(ctx context.Context, fn TxFn) error
}
