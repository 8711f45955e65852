package billing

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/madrasa/core"
	"github.com/trezcool/madrasa/core/finance"
	"github.com/trezcool/madrasa/core/student"
	"github.com/trezcool/madrasa/core/teacher"
)

type (
	// StudentEarning is the teacher's share of one student's fee.
	StudentEarning struct {
		StudentID        string                   `json:"student_id"`
		Name             string                   `json:"name"`
		SubscriptionType student.SubscriptionType `json:"subscription_type"`
		SubscriptionFee  int64                    `json:"subscription_fee"`
		Status           student.Status           `json:"status"`
		Earnings         int64                    `json:"earnings"`
		IsActive         bool                     `json:"is_active"` // counted in the current earnings
	}

	Payout struct {
		Amount int64     `json:"amount"`
		Date   time.Time `json:"date"`
	}

	// Earnings is a point-in-time reconciliation of a teacher's account, rebuilt from the ledger on every read.
	Earnings struct {
		TeacherID            string           `json:"teacher_id"`
		TeacherName          string           `json:"teacher_name"`
		Percentage           float64          `json:"percentage"`
		Students             []StudentEarning `json:"students"`
		TotalCurrentEarnings int64            `json:"total_current_earnings"`
		LastPayment          *Payout          `json:"last_payment"`
		TotalPaid            int64            `json:"total_paid"`
		LifetimeEarnings     int64            `json:"lifetime_earnings"`
		AmountOwed           int64            `json:"amount_owed"` // negative when the teacher was overpaid
	}
)

// TeacherEarnings reconciles what the teacher earns now, has earned overall and has been paid.
func (svc *Service) TeacherEarnings(ctx context.Context, teacherID string) (Earnings, error) {
	t, err := svc.teachers.GetTeacher(ctx, teacherID)
	if err != nil {
		if core.IsNotFound(err) {
			return Earnings{}, teacher.ErrNotFound
		}
		return Earnings{}, errors.Wrap(err, "fetching teacher")
	}
	return svc.earnings(ctx, t)
}

func (svc *Service) earnings(ctx context.Context, t teacher.Teacher) (Earnings, error) {
	earn := Earnings{
		TeacherID:   t.ID,
		TeacherName: t.Name,
		Percentage:  t.Percentage,
		Students:    make([]StudentEarning, 0),
	}

	active := true
	students, err := svc.students.QueryStudents(
		ctx,
		&student.QueryFilter{TeacherID: t.ID, Active: &active},
		[]core.DBOrdering{{Field: "name", Ascending: true}},
	)
	if err != nil {
		return Earnings{}, errors.Wrap(err, "querying teacher students")
	}

	now := svc.clock.Now()
	for _, std := range students {
		se := StudentEarning{
			StudentID:        std.ID,
			Name:             std.Name,
			SubscriptionType: std.SubscriptionType,
			SubscriptionFee:  std.SubscriptionFee,
			Status:           svc.evaluator.Status(std, now),
			Earnings:         Share(std.SubscriptionFee, t.Percentage),
		}
		se.IsActive = se.Status != student.StatusExpired
		if se.IsActive {
			earn.TotalCurrentEarnings += se.Earnings
		}
		earn.Students = append(earn.Students, se)
	}

	payouts := &finance.QueryFilter{Type: finance.Expense, Category: finance.CategoryTeacherPayout, TeacherID: t.ID}
	last, err := svc.ledger.LatestTransaction(ctx, payouts)
	switch {
	case err == nil:
		earn.LastPayment = &Payout{Amount: last.Amount, Date: last.Date}
	case !core.IsNotFound(err):
		return Earnings{}, errors.Wrap(err, "fetching last payout")
	}

	if earn.TotalPaid, err = svc.ledger.SumTransactions(ctx, payouts); err != nil {
		return Earnings{}, errors.Wrap(err, "summing payouts")
	}

	// the share is rounded per payment, as it would have been paid out
	income, err := svc.ledger.QueryTransactions(
		ctx,
		&finance.QueryFilter{Type: finance.Income, Category: finance.CategorySubscription, TeacherID: t.ID},
		finance.DefaultOrdering,
	)
	if err != nil {
		return Earnings{}, errors.Wrap(err, "querying teacher income")
	}
	for _, tx := range income {
		earn.LifetimeEarnings += Share(tx.Amount, t.Percentage)
	}

	earn.AmountOwed = earn.LifetimeEarnings - earn.TotalPaid
	return earn, nil
}
