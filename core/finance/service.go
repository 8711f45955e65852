package finance

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/madrasa/core"
)

var ErrNotFound = core.NewNotFoundError("transaction")

type (
	Repository interface {
		CreateTransaction(ctx context.Context, tx Transaction, exec ...core.DBExecutor) (Transaction, error)
		// QueryTransactions applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on Transaction.Description.
		QueryTransactions(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Transaction, error)
		GetTransaction(ctx context.Context, id string, exec ...core.DBExecutor) (Transaction, error)
		UpdateTransaction(ctx context.Context, tx Transaction, exec ...core.DBExecutor) (Transaction, error)
		DeleteTransaction(ctx context.Context, id string, exec ...core.DBExecutor) error
		// SumTransactions sums the amounts of the transactions matching filter.
		SumTransactions(ctx context.Context, filter *QueryFilter, exec ...core.DBExecutor) (int64, error)
		// LatestTransaction returns the most recent transaction matching filter, or ErrNotFound.
		LatestTransaction(ctx context.Context, filter *QueryFilter, exec ...core.DBExecutor) (Transaction, error)
	}

	Service struct {
		repo  Repository
		clock core.Clock
	}
)

// DefaultOrdering lists the most recent transactions first.
var DefaultOrdering = []core.DBOrdering{{Field: "date", Ascending: false}}

func NewService(repo Repository, clock core.Clock) *Service {
	return &Service{repo: repo, clock: clock}
}

// Create appends a validated NewTransaction to the ledger.
func (svc *Service) Create(ctx context.Context, nt NewTransaction, exec ...core.DBExecutor) (Transaction, error) {
	now := svc.clock.Now()
	tx := Transaction{
		Type:        nt.Type,
		Category:    nt.Category,
		Amount:      nt.Amount,
		Description: nt.Description,
		Date:        now,
		StudentID:   null.NewString(nt.StudentID, nt.StudentID != ""),
		TeacherID:   null.NewString(nt.TeacherID, nt.TeacherID != ""),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if nt.Date != nil && !nt.Date.IsZero() {
		tx.Date = nt.Date.UTC()
	}
	if tx.Amount <= 0 {
		return Transaction{}, core.NewValidationError(nil, core.FieldError{Field: "amount", Error: "amount must be positive"})
	}
	tx, err := svc.repo.CreateTransaction(ctx, tx, exec...)
	return tx, errors.Wrap(err, "creating transaction")
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Transaction, error) {
	if len(ordering) == 0 {
		ordering = DefaultOrdering
	}
	return svc.repo.QueryTransactions(ctx, filter, ordering)
}

func (svc *Service) Get(ctx context.Context, id string) (Transaction, error) {
	return svc.repo.GetTransaction(ctx, id)
}

// Update applies an administrative correction to a Transaction.
func (svc *Service) Update(ctx context.Context, id string, nt NewTransaction) (Transaction, error) {
	orig, err := svc.repo.GetTransaction(ctx, id)
	if err != nil {
		return Transaction{}, err
	}
	orig.Type = nt.Type
	orig.Category = nt.Category
	orig.Amount = nt.Amount
	orig.Description = nt.Description
	if nt.Date != nil && !nt.Date.IsZero() {
		orig.Date = nt.Date.UTC()
	}
	orig.StudentID = null.NewString(nt.StudentID, nt.StudentID != "")
	orig.TeacherID = null.NewString(nt.TeacherID, nt.TeacherID != "")
	orig.UpdatedAt = svc.clock.Now()

	tx, err := svc.repo.UpdateTransaction(ctx, orig)
	return tx, errors.Wrap(err, "updating transaction")
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	if _, err := svc.repo.GetTransaction(ctx, id); err != nil {
		return err
	}
	return errors.Wrap(svc.repo.DeleteTransaction(ctx, id), "deleting transaction")
}

// Summary sums income & expenses over [from, to).
func (svc *Service) Summary(ctx context.Context, from, to time.Time) (Summary, error) {
	sum := Summary{From: from, To: to}

	income, err := svc.repo.SumTransactions(ctx, &QueryFilter{Type: Income, DateFrom: from, DateTo: to})
	if err != nil {
		return Summary{}, errors.Wrap(err, "summing income")
	}
	expense, err := svc.repo.SumTransactions(ctx, &QueryFilter{Type: Expense, DateFrom: from, DateTo: to})
	if err != nil {
		return Summary{}, errors.Wrap(err, "summing expenses")
	}

	sum.Income = income
	sum.Expense = expense
	sum.Net = income - expense
	return sum, nil
}

// CurrentMonthSummary sums the ledger over the current calendar month.
func (svc *Service) CurrentMonthSummary(ctx context.Context) (Summary, error) {
	from, to := core.MonthBounds(svc.clock.Now())
	return svc.Summary(ctx, from, to)
}
