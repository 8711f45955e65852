package inmemdb

import (
	"cmp"
	"context"
	"strings"

	"github.com/trezcool/madrasa/core"
	"github.com/trezcool/madrasa/core/finance"
)

type transactionRepository struct {
	db *DB
}

var _ finance.Repository = (*transactionRepository)(nil)

func NewTransactionRepository(db *DB) finance.Repository {
	return &transactionRepository{db: db}
}

var transactionFields = map[string]func(a, b finance.Transaction) int{
	"date":       func(a, b finance.Transaction) int { return a.Date.Compare(b.Date) },
	"amount":     func(a, b finance.Transaction) int { return cmp.Compare(a.Amount, b.Amount) },
	"type":       func(a, b finance.Transaction) int { return strings.Compare(string(a.Type), string(b.Type)) },
	"category":   func(a, b finance.Transaction) int { return strings.Compare(string(a.Category), string(b.Category)) },
	"created_at": func(a, b finance.Transaction) int { return a.CreatedAt.Compare(b.CreatedAt) },
	"updated_at": func(a, b finance.Transaction) int { return a.UpdatedAt.Compare(b.UpdatedAt) },
}

func match(tx finance.Transaction, filter *finance.QueryFilter) bool {
	if filter == nil {
		return true
	}
	switch {
	case filter.Search != "" && !contains(tx.Description, filter.Search):
	case filter.Type != "" && tx.Type != filter.Type:
	case filter.Category != "" && tx.Category != filter.Category:
	case filter.StudentID != "" && tx.StudentID.String != filter.StudentID:
	case filter.TeacherID != "" && tx.TeacherID.String != filter.TeacherID:
	case !filter.DateFrom.IsZero() && tx.Date.Before(filter.DateFrom):
	case !filter.DateTo.IsZero() && !tx.Date.Before(filter.DateTo):
	default:
		return true
	}
	return false
}

func (repo *transactionRepository) query(filter *finance.QueryFilter, ordering []core.DBOrdering) []finance.Transaction {
	txs := make([]finance.Transaction, 0, len(repo.db.transactions))
	for _, tx := range repo.db.transactions {
		if match(tx, filter) {
			txs = append(txs, tx)
		}
	}
	sortInserted(repo.db, txs, func(r finance.Transaction) string { return r.ID })
	sortRows(txs, ordering, transactionFields)
	return txs
}

func (repo *transactionRepository) CreateTransaction(_ context.Context, tx finance.Transaction, exec ...core.DBExecutor) (finance.Transaction, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	tx.ID = repo.db.newID()
	record(exec, repo.db.transactions, tx.ID)
	repo.db.transactions[tx.ID] = tx
	return tx, nil
}

func (repo *transactionRepository) QueryTransactions(_ context.Context, filter *finance.QueryFilter, ordering []core.DBOrdering, _ ...core.DBExecutor) ([]finance.Transaction, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.query(filter, ordering), nil
}

func (repo *transactionRepository) GetTransaction(_ context.Context, id string, _ ...core.DBExecutor) (finance.Transaction, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if tx, ok := repo.db.transactions[id]; ok {
		return tx, nil
	}
	return finance.Transaction{}, finance.ErrNotFound
}

func (repo *transactionRepository) UpdateTransaction(_ context.Context, tx finance.Transaction, exec ...core.DBExecutor) (finance.Transaction, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.transactions[tx.ID]
	if !ok {
		return finance.Transaction{}, finance.ErrNotFound
	}
	tx.CreatedAt = orig.CreatedAt
	record(exec, repo.db.transactions, tx.ID)
	repo.db.transactions[tx.ID] = tx
	return tx, nil
}

func (repo *transactionRepository) DeleteTransaction(_ context.Context, id string, exec ...core.DBExecutor) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	record(exec, repo.db.transactions, id)
	delete(repo.db.transactions, id)
	return nil
}

func (repo *transactionRepository) SumTransactions(_ context.Context, filter *finance.QueryFilter, _ ...core.DBExecutor) (int64, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var total int64
	for _, tx := range repo.db.transactions {
		if match(tx, filter) {
			total += tx.Amount
		}
	}
	return total, nil
}

func (repo *transactionRepository) LatestTransaction(_ context.Context, filter *finance.QueryFilter, _ ...core.DBExecutor) (finance.Transaction, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var (
		latest finance.Transaction
		found  bool
	)
	for _, tx := range repo.db.transactions {
		if !match(tx, filter) {
			continue
		}
		// ties go to the last inserted
		if !found || tx.Date.After(latest.Date) || (tx.Date.Equal(latest.Date) && repo.db.seq[tx.ID] > repo.db.seq[latest.ID]) {
			latest, found = tx, true
		}
	}
	if !found {
		return finance.Transaction{}, finance.ErrNotFound
	}
	return latest, nil
}
