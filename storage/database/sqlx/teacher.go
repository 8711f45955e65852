package sqlxrepos

import (
	"context"
	"fmt"

	"github.com/trezcool/madrasa/core"
	"github.com/trezcool/madrasa/core/teacher"
)

const teacherColumns = "id, name, phone, percentage, active, notes, created_at, updated_at"

var teacherOrderFields = map[string]bool{
	"name":       true,
	"percentage": true,
	"created_at": true,
	"updated_at": true,
}

type teacherRepository struct {
	exec core.DBExecutor
}

var _ teacher.Repository = (*teacherRepository)(nil) // interface compliance check

func NewTeacherRepository(exec core.DBExecutor) teacher.Repository {
	return &teacherRepository{exec: exec}
}

func (repo teacherRepository) CreateTeacher(ctx context.Context, t teacher.Teacher, exec ...core.DBExecutor) (teacher.Teacher, error) {
	t.ID = newID()
	q := fmt.Sprintf("INSERT INTO teachers (%s) VALUES (%s) RETURNING %s", teacherColumns, placeholders(8), teacherColumns)

	rows, err := core.GetExec(repo.exec, exec).QueryContext(
		ctx, rebind(q),
		t.ID, t.Name, t.Phone, t.Percentage, t.Active, t.Notes, t.CreatedAt.UTC(), t.UpdatedAt.UTC(),
	)
	if err != nil {
		return teacher.Teacher{}, core.NewPersistenceError(err, "inserting teacher")
	}
	t, err = scanOne[teacher.Teacher](rows)
	return t, core.NewPersistenceError(err, "inserting teacher")
}

func (repo teacherRepository) QueryTeachers(ctx context.Context, filter *teacher.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]teacher.Teacher, error) {
	var w where
	if filter != nil {
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			w.add("(name ILIKE ? OR phone ILIKE ?)", val, val)
		}
		if filter.Active != nil {
			w.add("active = ?", *filter.Active)
		}
	}

	q := "SELECT " + teacherColumns + " FROM teachers" + w.String() + orderBy(ordering, teacherOrderFields, "created_at, id")
	rows, err := core.GetExec(repo.exec, exec).QueryContext(ctx, rebind(q), w.args...)
	if err != nil {
		return nil, core.NewPersistenceError(err, "querying teachers")
	}
	teachers, err := scanAll[teacher.Teacher](rows)
	if err != nil {
		return nil, core.NewPersistenceError(err, "querying teachers")
	}
	return teachers, nil
}

func (repo teacherRepository) GetTeacher(ctx context.Context, id string, exec ...core.DBExecutor) (teacher.Teacher, error) {
	if !isUUID(id) {
		return teacher.Teacher{}, teacher.ErrNotFound
	}

	q := "SELECT " + teacherColumns + " FROM teachers WHERE id = ?"
	rows, err := core.GetExec(repo.exec, exec).QueryContext(ctx, rebind(q), id)
	if err != nil {
		return teacher.Teacher{}, core.NewPersistenceError(err, "finding teacher")
	}
	t, err := scanOne[teacher.Teacher](rows)
	if err != nil {
		return teacher.Teacher{}, trapNoRowsErr(err, teacher.ErrNotFound, "finding teacher")
	}
	return t, nil
}

func (repo teacherRepository) UpdateTeacher(ctx context.Context, t teacher.Teacher, exec ...core.DBExecutor) (teacher.Teacher, error) {
	if !isUUID(t.ID) {
		return teacher.Teacher{}, teacher.ErrNotFound
	}

	q := "UPDATE teachers SET name = ?, phone = ?, percentage = ?, active = ?, notes = ?, updated_at = ? " +
		"WHERE id = ? RETURNING " + teacherColumns
	rows, err := core.GetExec(repo.exec, exec).QueryContext(
		ctx, rebind(q),
		t.Name, t.Phone, t.Percentage, t.Active, t.Notes, t.UpdatedAt.UTC(), t.ID,
	)
	if err != nil {
		return teacher.Teacher{}, core.NewPersistenceError(err, "updating teacher")
	}
	t, err = scanOne[teacher.Teacher](rows)
	if err != nil {
		return teacher.Teacher{}, trapNoRowsErr(err, teacher.ErrNotFound, "updating teacher")
	}
	return t, nil
}

// DeleteTeacher relies on the ON DELETE SET NULL foreign keys to unassign students & transactions.
func (repo teacherRepository) DeleteTeacher(ctx context.Context, id string, exec ...core.DBExecutor) error {
	if !isUUID(id) {
		return teacher.ErrNotFound
	}
	_, err := core.GetExec(repo.exec, exec).ExecContext(ctx, rebind("DELETE FROM teachers WHERE id = ?"), id)
	return core.NewPersistenceError(err, "deleting teacher")
}
