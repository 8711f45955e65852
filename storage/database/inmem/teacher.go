package inmemdb

import (
	"cmp"
	"context"
	"strings"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/madrasa/core"
	"github.com/trezcool/madrasa/core/teacher"
)

type teacherRepository struct {
	db *DB
}

var _ teacher.Repository = (*teacherRepository)(nil)

func NewTeacherRepository(db *DB) teacher.Repository {
	return &teacherRepository{db: db}
}

var teacherFields = map[string]func(a, b teacher.Teacher) int{
	"name":       func(a, b teacher.Teacher) int { return strings.Compare(a.Name, b.Name) },
	"percentage": func(a, b teacher.Teacher) int { return cmp.Compare(a.Percentage, b.Percentage) },
	"created_at": func(a, b teacher.Teacher) int { return a.CreatedAt.Compare(b.CreatedAt) },
	"updated_at": func(a, b teacher.Teacher) int { return a.UpdatedAt.Compare(b.UpdatedAt) },
}

func (repo *teacherRepository) CreateTeacher(_ context.Context, t teacher.Teacher, exec ...core.DBExecutor) (teacher.Teacher, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	t.ID = repo.db.newID()
	record(exec, repo.db.teachers, t.ID)
	repo.db.teachers[t.ID] = t
	return t, nil
}

func (repo *teacherRepository) QueryTeachers(_ context.Context, filter *teacher.QueryFilter, ordering []core.DBOrdering, _ ...core.DBExecutor) ([]teacher.Teacher, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	teachers := make([]teacher.Teacher, 0, len(repo.db.teachers))
	for _, t := range repo.db.teachers {
		if filter != nil {
			if filter.Search != "" && !(contains(t.Name, filter.Search) || contains(t.Phone, filter.Search)) {
				continue
			}
			if filter.Active != nil && t.Active != *filter.Active {
				continue
			}
		}
		teachers = append(teachers, t)
	}

	sortInserted(repo.db, teachers, func(r teacher.Teacher) string { return r.ID })
	sortRows(teachers, ordering, teacherFields)
	return teachers, nil
}

func (repo *teacherRepository) GetTeacher(_ context.Context, id string, _ ...core.DBExecutor) (teacher.Teacher, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if t, ok := repo.db.teachers[id]; ok {
		return t, nil
	}
	return teacher.Teacher{}, teacher.ErrNotFound
}

func (repo *teacherRepository) UpdateTeacher(_ context.Context, t teacher.Teacher, exec ...core.DBExecutor) (teacher.Teacher, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.teachers[t.ID]
	if !ok {
		return teacher.Teacher{}, teacher.ErrNotFound
	}
	t.CreatedAt = orig.CreatedAt
	record(exec, repo.db.teachers, t.ID)
	repo.db.teachers[t.ID] = t
	return t, nil
}

func (repo *teacherRepository) DeleteTeacher(_ context.Context, id string, exec ...core.DBExecutor) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	record(exec, repo.db.teachers, id)
	delete(repo.db.teachers, id)
	for stdID, std := range repo.db.students {
		if std.TeacherID.String == id {
			record(exec, repo.db.students, stdID)
			std.TeacherID = null.String{}
			repo.db.students[stdID] = std
		}
	}
	for txID, tx := range repo.db.transactions {
		if tx.TeacherID.String == id {
			record(exec, repo.db.transactions, txID)
			tx.TeacherID = null.String{}
			repo.db.transactions[txID] = tx
		}
	}
	return nil
}
