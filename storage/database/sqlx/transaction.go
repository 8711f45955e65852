package sqlxrepos

import (
	"context"
	"fmt"

	"github.com/trezcool/madrasa/core"
	"github.com/trezcool/madrasa/core/finance"
)

const transactionColumns = "id, type, category, amount, description, date, student_id, teacher_id, created_at, updated_at"

var transactionOrderFields = map[string]bool{
	"date":       true,
	"amount":     true,
	"type":       true,
	"category":   true,
	"created_at": true,
	"updated_at": true,
}

type transactionRepository struct {
	exec core.DBExecutor
}

var _ finance.Repository = (*transactionRepository)(nil) // interface compliance check

func NewTransactionRepository(exec core.DBExecutor) finance.Repository {
	return &transactionRepository{exec: exec}
}

// filter builds the WHERE clause of filter. ok is false when nothing can match.
func (repo transactionRepository) filter(filter *finance.QueryFilter) (w where, ok bool) {
	if filter == nil {
		return w, true
	}
	if filter.Search != "" {
		w.add("description ILIKE ?", "%"+filter.Search+"%")
	}
	if filter.Type != "" {
		w.add("type = ?", filter.Type)
	}
	if filter.Category != "" {
		w.add("category = ?", filter.Category)
	}
	if filter.StudentID != "" {
		if !isUUID(filter.StudentID) {
			return w, false
		}
		w.add("student_id = ?", filter.StudentID)
	}
	if filter.TeacherID != "" {
		if !isUUID(filter.TeacherID) {
			return w, false
		}
		w.add("teacher_id = ?", filter.TeacherID)
	}
	if !filter.DateFrom.IsZero() {
		w.add("date >= ?", filter.DateFrom.UTC())
	}
	if !filter.DateTo.IsZero() {
		w.add("date < ?", filter.DateTo.UTC())
	}
	return w, true
}

func (repo transactionRepository) CreateTransaction(ctx context.Context, tx finance.Transaction, exec ...core.DBExecutor) (finance.Transaction, error) {
	tx.ID = newID()
	q := fmt.Sprintf("INSERT INTO transactions (%s) VALUES (%s) RETURNING %s", transactionColumns, placeholders(10), transactionColumns)

	rows, err := core.GetExec(repo.exec, exec).QueryContext(
		ctx, rebind(q),
		tx.ID, tx.Type, tx.Category, tx.Amount, tx.Description, tx.Date.UTC(), tx.StudentID, tx.TeacherID,
		tx.CreatedAt.UTC(), tx.UpdatedAt.UTC(),
	)
	if err != nil {
		return finance.Transaction{}, core.NewPersistenceError(err, "inserting transaction")
	}
	tx, err = scanOne[finance.Transaction](rows)
	return tx, core.NewPersistenceError(err, "inserting transaction")
}

func (repo transactionRepository) QueryTransactions(ctx context.Context, filter *finance.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]finance.Transaction, error) {
	w, ok := repo.filter(filter)
	if !ok {
		return []finance.Transaction{}, nil
	}

	q := "SELECT " + transactionColumns + " FROM transactions" + w.String() + orderBy(ordering, transactionOrderFields, "created_at, id")
	rows, err := core.GetExec(repo.exec, exec).QueryContext(ctx, rebind(q), w.args...)
	if err != nil {
		return nil, core.NewPersistenceError(err, "querying transactions")
	}
	txs, err := scanAll[finance.Transaction](rows)
	if err != nil {
		return nil, core.NewPersistenceError(err, "querying transactions")
	}
	return txs, nil
}

func (repo transactionRepository) GetTransaction(ctx context.Context, id string, exec ...core.DBExecutor) (finance.Transaction, error) {
	if !isUUID(id) {
		return finance.Transaction{}, finance.ErrNotFound
	}

	q := "SELECT " + transactionColumns + " FROM transactions WHERE id = ?"
	rows, err := core.GetExec(repo.exec, exec).QueryContext(ctx, rebind(q), id)
	if err != nil {
		return finance.Transaction{}, core.NewPersistenceError(err, "finding transaction")
	}
	tx, err := scanOne[finance.Transaction](rows)
	if err != nil {
		return finance.Transaction{}, trapNoRowsErr(err, finance.ErrNotFound, "finding transaction")
	}
	return tx, nil
}

func (repo transactionRepository) UpdateTransaction(ctx context.Context, tx finance.Transaction, exec ...core.DBExecutor) (finance.Transaction, error) {
	if !isUUID(tx.ID) {
		return finance.Transaction{}, finance.ErrNotFound
	}

	q := "UPDATE transactions SET type = ?, category = ?, amount = ?, description = ?, date = ?, student_id = ?, " +
		"teacher_id = ?, updated_at = ? WHERE id = ? RETURNING " + transactionColumns
	rows, err := core.GetExec(repo.exec, exec).QueryContext(
		ctx, rebind(q),
		tx.Type, tx.Category, tx.Amount, tx.Description, tx.Date.UTC(), tx.StudentID, tx.TeacherID, tx.UpdatedAt.UTC(), tx.ID,
	)
	if err != nil {
		return finance.Transaction{}, core.NewPersistenceError(err, "updating transaction")
	}
	tx, err = scanOne[finance.Transaction](rows)
	if err != nil {
		return finance.Transaction{}, trapNoRowsErr(err, finance.ErrNotFound, "updating transaction")
	}
	return tx, nil
}

func (repo transactionRepository) DeleteTransaction(ctx context.Context, id string, exec ...core.DBExecutor) error {
	if !isUUID(id) {
		return finance.ErrNotFound
	}
	_, err := core.GetExec(repo.exec, exec).ExecContext(ctx, rebind("DELETE FROM transactions WHERE id = ?"), id)
	return core.NewPersistenceError(err, "deleting transaction")
}

// SumTransactions calls get_transactions_total when filtering on a type over a closed period only.
func (repo transactionRepository) SumTransactions(ctx context.Context, filter *finance.QueryFilter, exec ...core.DBExecutor) (int64, error) {
	var (
		total int64
		err   error
	)
	exe := core.GetExec(repo.exec, exec)

	if filter != nil && isPeriodTotal(*filter) {
		err = exe.QueryRowContext(
			ctx, "SELECT get_transactions_total($1, $2, $3)",
			filter.Type, filter.DateFrom.UTC(), filter.DateTo.UTC(),
		).Scan(&total)
	} else {
		w, ok := repo.filter(filter)
		if !ok {
			return 0, nil
		}
		q := "SELECT COALESCE(SUM(amount), 0) FROM transactions" + w.String()
		err = exe.QueryRowContext(ctx, rebind(q), w.args...).Scan(&total)
	}
	if err != nil {
		return 0, core.NewPersistenceError(err, "summing transactions")
	}
	return total, nil
}

func isPeriodTotal(f finance.QueryFilter) bool {
	return f.Type != "" && !f.DateFrom.IsZero() && !f.DateTo.IsZero() &&
		f.Search == "" && f.Category == "" && f.StudentID == "" && f.TeacherID == ""
}

func (repo transactionRepository) LatestTransaction(ctx context.Context, filter *finance.QueryFilter, exec ...core.DBExecutor) (finance.Transaction, error) {
	w, ok := repo.filter(filter)
	if !ok {
		return finance.Transaction{}, finance.ErrNotFound
	}

	q := "SELECT " + transactionColumns + " FROM transactions" + w.String() + " ORDER BY date DESC, created_at DESC LIMIT 1"
	rows, err := core.GetExec(repo.exec, exec).QueryContext(ctx, rebind(q), w.args...)
	if err != nil {
		return finance.Transaction{}, core.NewPersistenceError(err, "finding latest transaction")
	}
	tx, err := scanOne[finance.Transaction](rows)
	if err != nil {
		return finance.Transaction{}, trapNoRowsErr(err, finance.ErrNotFound, "finding latest transaction")
	}
	return tx, nil
}
