package teacher

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/madrasa/core"
)

var ErrNotFound = core.NewNotFoundError("teacher")

type (
	Repository interface {
		CreateTeacher(ctx context.Context, t Teacher, exec ...core.DBExecutor) (Teacher, error)
		// QueryTeachers applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of Teacher.Name or Teacher.Phone.
		QueryTeachers(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Teacher, error)
		GetTeacher(ctx context.Context, id string, exec ...core.DBExecutor) (Teacher, error)
		UpdateTeacher(ctx context.Context, t Teacher, exec ...core.DBExecutor) (Teacher, error)
		// DeleteTeacher unassigns the teacher from its students & transactions.
		DeleteTeacher(ctx context.Context, id string, exec ...core.DBExecutor) error
	}

	Service struct {
		repo  Repository
		clock core.Clock
	}
)

func NewService(repo Repository, clock core.Clock) *Service {
	return &Service{repo: repo, clock: clock}
}

func (nt *NewTeacher) Validate(validate *validator.Validate) error {
	nt.Name = core.CleanString(nt.Name)
	nt.Phone = core.CleanString(nt.Phone)
	nt.Notes = core.CleanString(nt.Notes)
	return validate.Struct(nt)
}

func (svc *Service) Create(ctx context.Context, nt NewTeacher) (Teacher, error) {
	now := svc.clock.Now()
	t := Teacher{
		Name:       nt.Name,
		Phone:      nt.Phone,
		Percentage: nt.Percentage,
		Active:     true,
		Notes:      nt.Notes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if nt.Active != nil {
		t.Active = *nt.Active
	}
	t, err := svc.repo.CreateTeacher(ctx, t)
	return t, errors.Wrap(err, "creating teacher")
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Teacher, error) {
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "name", Ascending: true}}
	}
	return svc.repo.QueryTeachers(ctx, filter, ordering)
}

func (svc *Service) Get(ctx context.Context, id string) (Teacher, error) {
	return svc.repo.GetTeacher(ctx, id)
}

// Update applies a validated NewTeacher (see UpdateTeacher.Merge) to the Teacher with the given id.
func (svc *Service) Update(ctx context.Context, id string, nt NewTeacher) (Teacher, error) {
	orig, err := svc.repo.GetTeacher(ctx, id)
	if err != nil {
		return Teacher{}, err
	}
	orig.Name = nt.Name
	orig.Phone = nt.Phone
	orig.Percentage = nt.Percentage
	orig.Notes = nt.Notes
	if nt.Active != nil {
		orig.Active = *nt.Active
	}
	orig.UpdatedAt = svc.clock.Now()

	t, err := svc.repo.UpdateTeacher(ctx, orig)
	return t, errors.Wrap(err, "updating teacher")
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	if _, err := svc.repo.GetTeacher(ctx, id); err != nil {
		return err
	}
	return errors.Wrap(svc.repo.DeleteTeacher(ctx, id), "deleting teacher")
}
