package inmemdb

import (
	"cmp"
	"context"
	"strings"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/madrasa/core"
	"github.com/trezcool/madrasa/core/student"
)

type studentRepository struct {
	db *DB
}

var _ student.Repository = (*studentRepository)(nil)

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db}
}

var studentFields = map[string]func(a, b student.Student) int{
	"name":                    func(a, b student.Student) int { return strings.Compare(a.Name, b.Name) },
	"age":                     func(a, b student.Student) int { return cmp.Compare(a.Age, b.Age) },
	"category":                func(a, b student.Student) int { return cmp.Compare(a.Category, b.Category) },
	"subscription_type":       func(a, b student.Student) int { return cmp.Compare(a.SubscriptionType, b.SubscriptionType) },
	"subscription_fee":        func(a, b student.Student) int { return cmp.Compare(a.SubscriptionFee, b.SubscriptionFee) },
	"subscription_start_date": func(a, b student.Student) int { return cmpNull(a.SubscriptionStartDate, b.SubscriptionStartDate) },
	"subscription_end_date":   func(a, b student.Student) int { return cmpNull(a.SubscriptionEndDate, b.SubscriptionEndDate) },
	"sessions_remaining":      func(a, b student.Student) int { return cmp.Compare(a.SessionsRemaining, b.SessionsRemaining) },
	"last_payment_date":       func(a, b student.Student) int { return cmpNull(a.LastPaymentDate, b.LastPaymentDate) },
	"created_at":              func(a, b student.Student) int { return a.CreatedAt.Compare(b.CreatedAt) },
	"updated_at":              func(a, b student.Student) int { return a.UpdatedAt.Compare(b.UpdatedAt) },
}

func (repo *studentRepository) CreateStudent(_ context.Context, std student.Student, exec ...core.DBExecutor) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	std.ID = repo.db.newID()
	record(exec, repo.db.students, std.ID)
	repo.db.students[std.ID] = std
	return std, nil
}

func (repo *studentRepository) QueryStudents(_ context.Context, filter *student.QueryFilter, ordering []core.DBOrdering, _ ...core.DBExecutor) ([]student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	students := make([]student.Student, 0, len(repo.db.students))
	for _, std := range repo.db.students {
		if filter != nil {
			if filter.Search != "" && !(contains(std.Name, filter.Search) || contains(std.Phone, filter.Search)) {
				continue
			}
			if filter.TeacherID != "" && std.TeacherID.String != filter.TeacherID {
				continue
			}
			if filter.Active != nil && std.Active != *filter.Active {
				continue
			}
			if filter.SubscriptionType != "" && std.SubscriptionType != filter.SubscriptionType {
				continue
			}
		}
		students = append(students, std)
	}

	sortInserted(repo.db, students, func(r student.Student) string { return r.ID })
	sortRows(students, ordering, studentFields)
	return students, nil
}

func (repo *studentRepository) GetStudent(_ context.Context, id string, _ ...core.DBExecutor) (student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if std, ok := repo.db.students[id]; ok {
		return std, nil
	}
	return student.Student{}, student.ErrNotFound
}

// GetStudentForUpdate relies on the transactor running one unit of work at a time.
func (repo *studentRepository) GetStudentForUpdate(ctx context.Context, id string, exec ...core.DBExecutor) (student.Student, error) {
	return repo.GetStudent(ctx, id, exec...)
}

func (repo *studentRepository) UpdateStudent(_ context.Context, std student.Student, exec ...core.DBExecutor) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.students[std.ID]
	if !ok {
		return student.Student{}, student.ErrNotFound
	}
	std.CreatedAt = orig.CreatedAt
	record(exec, repo.db.students, std.ID)
	repo.db.students[std.ID] = std
	return std, nil
}

func (repo *studentRepository) DeleteStudent(_ context.Context, id string, exec ...core.DBExecutor) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	record(exec, repo.db.students, id)
	delete(repo.db.students, id)
	for txID, tx := range repo.db.transactions {
		if tx.StudentID.String == id {
			record(exec, repo.db.transactions, txID)
			tx.StudentID = null.String{}
			repo.db.transactions[txID] = tx
		}
	}
	return nil
}

func (repo *studentRepository) CountActiveStudents(_ context.Context, _ ...core.DBExecutor) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var count int
	for _, std := range repo.db.students {
		if std.Active {
			count++
		}
	}
	return count, nil
}
