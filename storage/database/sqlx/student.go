package sqlxrepos

import (
	"context"
	"fmt"
	"strings"

	"github.com/trezcool/madrasa/core"
	"github.com/trezcool/madrasa/core/student"
)

const studentColumns = "id, name, category, age, phone, teacher_id, subscription_type, subscription_fee, " +
	"subscription_start_date, subscription_end_date, sessions_remaining, last_payment_date, active, notes, " +
	"created_at, updated_at"

var studentOrderFields = map[string]bool{
	"name":                    true,
	"age":                     true,
	"category":                true,
	"subscription_type":       true,
	"subscription_fee":        true,
	"subscription_start_date": true,
	"subscription_end_date":   true,
	"sessions_remaining":      true,
	"last_payment_date":       true,
	"created_at":              true,
	"updated_at":              true,
}

type studentRepository struct {
	exec core.DBExecutor
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(exec core.DBExecutor) student.Repository {
	return &studentRepository{exec: exec}
}

func (repo studentRepository) values(std student.Student) []interface{} {
	return []interface{}{
		std.ID, std.Name, std.Category, std.Age, std.Phone, std.TeacherID, std.SubscriptionType, std.SubscriptionFee,
		std.SubscriptionStartDate, std.SubscriptionEndDate, std.SessionsRemaining, std.LastPaymentDate, std.Active,
		std.Notes, std.CreatedAt.UTC(), std.UpdatedAt.UTC(),
	}
}

func (repo studentRepository) CreateStudent(ctx context.Context, std student.Student, exec ...core.DBExecutor) (student.Student, error) {
	std.ID = newID()
	q := fmt.Sprintf("INSERT INTO students (%s) VALUES (%s) RETURNING %s", studentColumns, placeholders(16), studentColumns)

	rows, err := core.GetExec(repo.exec, exec).QueryContext(ctx, rebind(q), repo.values(std)...)
	if err != nil {
		return student.Student{}, core.NewPersistenceError(err, "inserting student")
	}
	std, err = scanOne[student.Student](rows)
	return std, core.NewPersistenceError(err, "inserting student")
}

func (repo studentRepository) QueryStudents(ctx context.Context, filter *student.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]student.Student, error) {
	var w where
	if filter != nil {
		// students with Name or Phone matching the search keyword
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			w.add("(name ILIKE ? OR phone ILIKE ?)", val, val)
		}
		if filter.TeacherID != "" {
			if !isUUID(filter.TeacherID) {
				return []student.Student{}, nil
			}
			w.add("teacher_id = ?", filter.TeacherID)
		}
		if filter.Active != nil {
			w.add("active = ?", *filter.Active)
		}
		if filter.SubscriptionType != "" {
			w.add("subscription_type = ?", filter.SubscriptionType)
		}
	}

	q := "SELECT " + studentColumns + " FROM students" + w.String() + orderBy(ordering, studentOrderFields, "created_at, id")
	rows, err := core.GetExec(repo.exec, exec).QueryContext(ctx, rebind(q), w.args...)
	if err != nil {
		return nil, core.NewPersistenceError(err, "querying students")
	}
	students, err := scanAll[student.Student](rows)
	if err != nil {
		return nil, core.NewPersistenceError(err, "querying students")
	}
	return students, nil
}

func (repo studentRepository) get(ctx context.Context, id string, lock bool, exec []core.DBExecutor) (student.Student, error) {
	if !isUUID(id) {
		return student.Student{}, student.ErrNotFound
	}

	var q strings.Builder
	q.WriteString("SELECT " + studentColumns + " FROM students WHERE id = ?")
	if lock {
		q.WriteString(" FOR UPDATE")
	}

	rows, err := core.GetExec(repo.exec, exec).QueryContext(ctx, rebind(q.String()), id)
	if err != nil {
		return student.Student{}, core.NewPersistenceError(err, "finding student")
	}
	std, err := scanOne[student.Student](rows)
	if err != nil {
		return student.Student{}, trapNoRowsErr(err, student.ErrNotFound, "finding student")
	}
	return std, nil
}

func (repo studentRepository) GetStudent(ctx context.Context, id string, exec ...core.DBExecutor) (student.Student, error) {
	return repo.get(ctx, id, false, exec)
}

func (repo studentRepository) GetStudentForUpdate(ctx context.Context, id string, exec ...core.DBExecutor) (student.Student, error) {
	return repo.get(ctx, id, true, exec)
}

func (repo studentRepository) UpdateStudent(ctx context.Context, std student.Student, exec ...core.DBExecutor) (student.Student, error) {
	if !isUUID(std.ID) {
		return student.Student{}, student.ErrNotFound
	}

	q := "UPDATE students SET name = ?, category = ?, age = ?, phone = ?, teacher_id = ?, subscription_type = ?, " +
		"subscription_fee = ?, subscription_start_date = ?, subscription_end_date = ?, sessions_remaining = ?, " +
		"last_payment_date = ?, active = ?, notes = ?, updated_at = ? WHERE id = ? RETURNING " + studentColumns
	args := repo.values(std)
	args = append(args[1:14], std.UpdatedAt.UTC(), std.ID) // all but id & timestamps

	rows, err := core.GetExec(repo.exec, exec).QueryContext(ctx, rebind(q), args...)
	if err != nil {
		return student.Student{}, core.NewPersistenceError(err, "updating student")
	}
	std, err = scanOne[student.Student](rows)
	if err != nil {
		return student.Student{}, trapNoRowsErr(err, student.ErrNotFound, "updating student")
	}
	return std, nil
}

func (repo studentRepository) DeleteStudent(ctx context.Context, id string, exec ...core.DBExecutor) error {
	if !isUUID(id) {
		return student.ErrNotFound
	}
	_, err := core.GetExec(repo.exec, exec).ExecContext(ctx, rebind("DELETE FROM students WHERE id = ?"), id)
	return core.NewPersistenceError(err, "deleting student")
}

func (repo studentRepository) CountActiveStudents(ctx context.Context, exec ...core.DBExecutor) (int, error) {
	var count int
	err := core.GetExec(repo.exec, exec).QueryRowContext(ctx, "SELECT get_active_students_count()").Scan(&count)
	if err != nil {
		return 0, core.NewPersistenceError(err, "counting active students")
	}
	return count, nil
}
