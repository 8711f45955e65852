package student

import (
	"context"
	"sort"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/madrasa/core"
	"github.com/trezcool/madrasa/core/teacher"
)

var (
	// errors
	ErrNotFound        = core.NewNotFoundError("student")
	errTeacherNotFound = "teacher not found"
)

type (
	Repository interface {
		CreateStudent(ctx context.Context, s Student, exec ...core.DBExecutor) (Student, error)
		// QueryStudents applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of Student.Name or Student.Phone.
		QueryStudents(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Student, error)
		GetStudent(ctx context.Context, id string, exec ...core.DBExecutor) (Student, error)
		// GetStudentForUpdate locks the Student until the unit of work behind exec ends.
		GetStudentForUpdate(ctx context.Context, id string, exec ...core.DBExecutor) (Student, error)
		UpdateStudent(ctx context.Context, s Student, exec ...core.DBExecutor) (Student, error)
		DeleteStudent(ctx context.Context, id string, exec ...core.DBExecutor) error
		CountActiveStudents(ctx context.Context, exec ...core.DBExecutor) (int, error)
	}

	Service struct {
		repo      Repository
		teachers  teacher.Repository
		clock     core.Clock
		evaluator Evaluator
	}
)

func NewService(repo Repository, teachers teacher.Repository, clock core.Clock, evaluator Evaluator) *Service {
	return &Service{
		repo:      repo,
		teachers:  teachers,
		clock:     clock,
		evaluator: evaluator,
	}
}

func (svc *Service) checkTeacher(ctx context.Context, teacherID string) error {
	if teacherID == "" {
		return nil
	}
	if _, err := svc.teachers.GetTeacher(ctx, teacherID); err != nil {
		if core.IsNotFound(err) {
			return core.NewValidationError(err, core.FieldError{Field: "teacher_id", Error: errTeacherNotFound})
		}
		return errors.Wrap(err, "checking teacher")
	}
	return nil
}

// Create stores a validated NewStudent.
func (svc *Service) Create(ctx context.Context, ns NewStudent) (Student, error) {
	if err := svc.checkTeacher(ctx, ns.TeacherID); err != nil {
		return Student{}, err
	}

	now := svc.clock.Now()
	std := Student{
		Name:                  ns.Name,
		Category:              ns.Category,
		Age:                   ns.Age,
		Phone:                 ns.Phone,
		TeacherID:             null.NewString(ns.TeacherID, ns.TeacherID != ""),
		SubscriptionType:      ns.SubscriptionType,
		SubscriptionFee:       ns.SubscriptionFee,
		SubscriptionStartDate: nullTime(ns.SubscriptionStartDate),
		SubscriptionEndDate:   nullTime(ns.SubscriptionEndDate),
		SessionsRemaining:     ns.SessionsRemaining,
		Active:                true,
		Notes:                 ns.Notes,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if ns.Active != nil {
		std.Active = *ns.Active
	}
	std, err := svc.repo.CreateStudent(ctx, std)
	return std, errors.Wrap(err, "creating student")
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Student, error) {
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "name", Ascending: true}}
	}
	return svc.repo.QueryStudents(ctx, filter, ordering)
}

func (svc *Service) Get(ctx context.Context, id string) (Student, error) {
	return svc.repo.GetStudent(ctx, id)
}

// Update applies a validated NewStudent (see UpdateStudent.Merge) to the Student with the given id.
func (svc *Service) Update(ctx context.Context, id string, ns NewStudent) (Student, error) {
	orig, err := svc.repo.GetStudent(ctx, id)
	if err != nil {
		return Student{}, err
	}
	if ns.TeacherID != orig.TeacherID.String {
		if err = svc.checkTeacher(ctx, ns.TeacherID); err != nil {
			return Student{}, err
		}
	}

	orig.Name = ns.Name
	orig.Category = ns.Category
	orig.Age = ns.Age
	orig.Phone = ns.Phone
	orig.TeacherID = null.NewString(ns.TeacherID, ns.TeacherID != "")
	orig.SubscriptionType = ns.SubscriptionType
	orig.SubscriptionFee = ns.SubscriptionFee
	orig.SubscriptionStartDate = nullTime(ns.SubscriptionStartDate)
	orig.SubscriptionEndDate = nullTime(ns.SubscriptionEndDate)
	orig.SessionsRemaining = ns.SessionsRemaining
	orig.Notes = ns.Notes
	if ns.Active != nil {
		orig.Active = *ns.Active
	}
	orig.UpdatedAt = svc.clock.Now()

	std, err := svc.repo.UpdateStudent(ctx, orig)
	return std, errors.Wrap(err, "updating student")
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	if _, err := svc.repo.GetStudent(ctx, id); err != nil {
		return err
	}
	return errors.Wrap(svc.repo.DeleteStudent(ctx, id), "deleting student")
}

// StatusOf evaluates the subscription state of std right now.
func (svc *Service) StatusOf(std Student) Status {
	return svc.evaluator.Status(std, svc.clock.Now())
}

// Snapshot pairs std with its current subscription state.
func (svc *Service) Snapshot(std Student) Snapshot {
	return svc.evaluator.Snapshot(std, svc.clock.Now())
}

func (svc *Service) Snapshots(students []Student) []Snapshot {
	now := svc.clock.Now()
	snaps := make([]Snapshot, 0, len(students))
	for _, std := range students {
		snaps = append(snaps, svc.evaluator.Snapshot(std, now))
	}
	return snaps
}

// Expiring returns the active students whose subscription is expired, in warning,
// or ends within `days` days, the most urgent first.
func (svc *Service) Expiring(ctx context.Context, days int) ([]Snapshot, error) {
	active := true
	students, err := svc.repo.QueryStudents(ctx, &QueryFilter{Active: &active}, nil)
	if err != nil {
		return nil, errors.Wrap(err, "querying active students")
	}

	now := svc.clock.Now()
	expiring := make([]Snapshot, 0)
	for _, std := range students {
		snap := svc.evaluator.Snapshot(std, now)
		switch {
		case snap.Status == StatusExpired || snap.Status == StatusWarning:
		case snap.DaysRemaining != nil && *snap.DaysRemaining <= days:
		default:
			continue
		}
		expiring = append(expiring, snap)
	}

	sort.SliceStable(expiring, func(i, j int) bool {
		a, b := expiring[i], expiring[j]
		if ra, rb := statusRank(a.Status), statusRank(b.Status); ra != rb {
			return ra < rb
		}
		if ua, ub := urgency(a), urgency(b); ua != ub {
			return ua < ub
		}
		return a.Name < b.Name
	})
	return expiring, nil
}

// urgency is the number of days or sessions left.
func urgency(snap Snapshot) int {
	if snap.DaysRemaining != nil {
		return *snap.DaysRemaining
	}
	return snap.SessionsRemaining
}

func (svc *Service) CountActive(ctx context.Context) (int, error) {
	return svc.repo.CountActiveStudents(ctx)
}
