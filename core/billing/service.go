package billing

import (
	"math"

	"github.com/trezcool/madrasa/core"
	"github.com/trezcool/madrasa/core/finance"
	"github.com/trezcool/madrasa/core/student"
	"github.com/trezcool/madrasa/core/teacher"
)

// Service moves money between students, teachers & the ledger.
type Service struct {
	students   student.Repository
	teachers   teacher.Repository
	ledger     finance.Repository
	transactor core.Transactor
	clock      core.Clock
	evaluator  student.Evaluator
	conf       core.BillingConfig
	logger     core.Logger
}

func NewService(
	students student.Repository,
	teachers teacher.Repository,
	ledger finance.Repository,
	transactor core.Transactor,
	clock core.Clock,
	conf core.BillingConfig,
	logger core.Logger,
) *Service {
	if conf.CourseBlockDays <= 0 {
		conf.CourseBlockDays = core.DefaultBillingConfig().CourseBlockDays
	}
	return &Service{
		students:   students,
		teachers:   teachers,
		ledger:     ledger,
		transactor: transactor,
		clock:      clock,
		evaluator:  student.NewEvaluator(conf),
		conf:       conf,
		logger:     logger,
	}
}

// Share returns the teacher's part of amount, rounded to the nearest unit.
func Share(amount int64, percentage float64) int64 {
	return int64(math.Round(float64(amount) * percentage / 100))
}

func amountError(amount int64) error {
	if amount > 0 {
		return nil
	}
	return core.NewValidationError(nil, core.FieldError{Field: "amount", Error: "amount must be greater than 0"})
}
