package billing

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/madrasa/core"
	"github.com/trezcool/madrasa/core/finance"
	"github.com/trezcool/madrasa/core/teacher"
)

type (
	TeacherSummary struct {
		TeacherID      string  `json:"teacher_id"`
		Name           string  `json:"name"`
		Percentage     float64 `json:"percentage"`
		ActiveStudents int     `json:"active_students"`
		Earnings       int64   `json:"earnings"`
		AmountOwed     int64   `json:"amount_owed"`
	}

	Dashboard struct {
		ActiveStudents  int              `json:"active_students"`
		MonthStart      time.Time        `json:"month_start"`
		MonthIncome     int64            `json:"month_income"`
		MonthExpenses   int64            `json:"month_expenses"`
		MonthNet        int64            `json:"month_net"`
		TeacherEarnings []TeacherSummary `json:"teacher_earnings"`
	}
)

// Dashboard gathers the headline figures of the current month.
func (svc *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	var (
		dash Dashboard
		err  error
	)

	if dash.ActiveStudents, err = svc.students.CountActiveStudents(ctx); err != nil {
		return Dashboard{}, errors.Wrap(err, "counting active students")
	}

	from, to := core.MonthBounds(svc.clock.Now())
	dash.MonthStart = from
	if dash.MonthIncome, err = svc.ledger.SumTransactions(ctx, &finance.QueryFilter{Type: finance.Income, DateFrom: from, DateTo: to}); err != nil {
		return Dashboard{}, errors.Wrap(err, "summing month income")
	}
	if dash.MonthExpenses, err = svc.ledger.SumTransactions(ctx, &finance.QueryFilter{Type: finance.Expense, DateFrom: from, DateTo: to}); err != nil {
		return Dashboard{}, errors.Wrap(err, "summing month expenses")
	}
	dash.MonthNet = dash.MonthIncome - dash.MonthExpenses

	active := true
	teachers, err := svc.teachers.QueryTeachers(ctx, &teacher.QueryFilter{Active: &active}, []core.DBOrdering{{Field: "name", Ascending: true}})
	if err != nil {
		return Dashboard{}, errors.Wrap(err, "querying active teachers")
	}

	dash.TeacherEarnings = make([]TeacherSummary, 0, len(teachers))
	for _, t := range teachers {
		earn, err := svc.earnings(ctx, t)
		if err != nil {
			return Dashboard{}, err
		}
		sum := TeacherSummary{
			TeacherID:  t.ID,
			Name:       t.Name,
			Percentage: t.Percentage,
			Earnings:   earn.TotalCurrentEarnings,
			AmountOwed: earn.AmountOwed,
		}
		for _, se := range earn.Students {
			if se.IsActive {
				sum.ActiveStudents++
			}
		}
		dash.TeacherEarnings = append(dash.TeacherEarnings, sum)
	}
	return dash, nil
}
