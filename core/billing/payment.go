package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/madrasa/core"
	"github.com/trezcool/madrasa/core/finance"
	"github.com/trezcool/madrasa/core/student"
	"github.com/trezcool/madrasa/core/teacher"
)

// PaymentResult is the outcome of RecordPayment.
type PaymentResult struct {
	Student       student.Student     `json:"student"`
	Status        student.Status      `json:"status"`
	Transaction   finance.Transaction `json:"transaction"`
	SessionsAdded int                 `json:"sessions_added"` // per_session only
	PeriodsAdded  int                 `json:"periods_added"`  // time-based only
}

// RecordPayment appends a subscription income to the ledger and renews the student's subscription.
// Both writes belong to the same unit of work: they are committed or rolled back together.
// The student row stays locked until the unit ends, so concurrent payments are applied one after the other.
func (svc *Service) RecordPayment(ctx context.Context, studentID string, amount int64) (PaymentResult, error) {
	if err := amountError(amount); err != nil {
		return PaymentResult{}, err
	}

	var res PaymentResult
	err := svc.transactor.WithinTx(ctx, func(exec core.DBExecutor) error {
		std, err := svc.students.GetStudentForUpdate(ctx, studentID, exec)
		if err != nil {
			return err
		}

		now := svc.clock.Now()
		tx, err := svc.ledger.CreateTransaction(ctx, finance.Transaction{
			Type:        finance.Income,
			Category:    finance.CategorySubscription,
			Amount:      amount,
			Description: fmt.Sprintf("Subscription payment - %s", std.Name),
			Date:        now,
			StudentID:   null.StringFrom(std.ID),
			TeacherID:   std.TeacherID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}, exec)
		if err != nil {
			return errors.Wrap(err, "recording payment transaction")
		}

		res.SessionsAdded, res.PeriodsAdded = svc.renew(&std, amount, now)
		std.UpdatedAt = now
		if std, err = svc.students.UpdateStudent(ctx, std, exec); err != nil {
			return errors.Wrap(err, "renewing subscription")
		}

		res.Student = std
		res.Status = svc.evaluator.Status(std, now)
		res.Transaction = tx
		return nil
	})
	if err != nil {
		return PaymentResult{}, err
	}

	extras := map[string]interface{}{
		"student_id":     res.Student.ID,
		"transaction_id": res.Transaction.ID,
		"amount":         amount,
	}
	if res.SessionsAdded == 0 && res.PeriodsAdded == 0 {
		svc.logger.Warn("payment below subscription fee: subscription not extended", extras)
	} else {
		svc.logger.Info("payment recorded", extras)
	}
	return res, nil
}

// renew extends std's subscription by as many fee-equivalents as amount covers.
func (svc *Service) renew(std *student.Student, amount int64, now time.Time) (sessions, periods int) {
	var units int
	if std.SubscriptionFee > 0 {
		units = int(amount / std.SubscriptionFee)
	}

	std.LastPaymentDate = null.TimeFrom(now)
	std.Active = true

	if std.SubscriptionType == student.PerSession {
		std.SessionsRemaining += units
		return units, 0
	}

	if units > 0 {
		base := now
		if std.SubscriptionEndDate.Valid && std.SubscriptionEndDate.Time.After(now) {
			base = std.SubscriptionEndDate.Time
		}
		std.SubscriptionEndDate = null.TimeFrom(extend(std.SubscriptionType, base, units, svc.conf.CourseBlockDays))
	}

	if !std.SubscriptionStartDate.Valid || std.SubscriptionStartDate.Time.After(now) {
		// a lapsed subscription left unrenewed keeps no start rather than one past its end
		if std.SubscriptionEndDate.Valid && std.SubscriptionEndDate.Time.Before(now) {
			std.SubscriptionStartDate = null.Time{}
		} else {
			std.SubscriptionStartDate = null.TimeFrom(now)
		}
	}
	return 0, units
}

// extend advances base by the given number of renewal periods.
// A course is one fixed block whatever the number of periods paid.
func extend(typ student.SubscriptionType, base time.Time, periods, courseDays int) time.Time {
	switch typ {
	case student.Weekly:
		return base.AddDate(0, 0, 7*periods)
	case student.Course:
		return base.AddDate(0, 0, courseDays)
	default: // monthly
		return base.AddDate(0, periods, 0)
	}
}

// RecordPayout appends a teacher payout expense to the ledger.
func (svc *Service) RecordPayout(ctx context.Context, teacherID string, amount int64, description string) (finance.Transaction, error) {
	if err := amountError(amount); err != nil {
		return finance.Transaction{}, err
	}

	t, err := svc.teachers.GetTeacher(ctx, teacherID)
	if err != nil {
		if core.IsNotFound(err) {
			return finance.Transaction{}, teacher.ErrNotFound
		}
		return finance.Transaction{}, errors.Wrap(err, "fetching teacher")
	}

	description = core.CleanString(description)
	if description == "" {
		description = fmt.Sprintf("Teacher payout - %s", t.Name)
	}

	now := svc.clock.Now()
	tx, err := svc.ledger.CreateTransaction(ctx, finance.Transaction{
		Type:        finance.Expense,
		Category:    finance.CategoryTeacherPayout,
		Amount:      amount,
		Description: description,
		Date:        now,
		TeacherID:   null.StringFrom(t.ID),
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return finance.Transaction{}, errors.Wrap(err, "recording payout")
	}

	svc.logger.Info("payout recorded", map[string]interface{}{"teacher_id": t.ID, "transaction_id": tx.ID, "amount": amount})
	return tx, nil
}
