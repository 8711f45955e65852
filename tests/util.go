package testutil

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/madrasa/core"
	"github.com/trezcool/madrasa/core/finance"
	"github.com/trezcool/madrasa/core/student"
	"github.com/trezcool/madrasa/core/teacher"
	"github.com/trezcool/madrasa/storage/database"
	"github.com/trezcool/madrasa/storage/database/inmem"
)

// Now is the instant tests are frozen at.
var Now = time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC)

// Store bundles the repositories of an in-memory database.
type Store struct {
	DB           *inmemdb.DB
	Students     student.Repository
	Teachers     teacher.Repository
	Transactions finance.Repository
	Transactor   core.Transactor
}

func NewStore() *Store {
	db := inmemdb.Open()
	return &Store{
		DB:           db,
		Students:     inmemdb.NewStudentRepository(db),
		Teachers:     inmemdb.NewTeacherRepository(db),
		Transactions: inmemdb.NewTransactionRepository(db),
		Transactor:   inmemdb.NewTransactor(db),
	}
}

// PrepareDB connects to TEST_DATABASE_URL, migrates it and empties it. The test is skipped when the variable is unset.
func PrepareDB(t *testing.T) *sql.DB {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := database.OpenURL(dsn)
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(db); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	ResetDB(t, db)
	return db
}

func ResetDB(t *testing.T, db *sql.DB) {
	if _, err := db.Exec("TRUNCATE transactions, students, teachers"); err != nil {
		t.Fatalf("ResetDB() failed: %v", err)
	}
}

func CreateTeacher(t *testing.T, repo teacher.Repository, name string, percentage float64, active bool) teacher.Teacher {
	tch, err := repo.CreateTeacher(context.Background(), teacher.Teacher{
		Name:       name,
		Phone:      "0810000000",
		Percentage: percentage,
		Active:     active,
		CreatedAt:  Now,
		UpdatedAt:  Now,
	})
	if err != nil {
		t.Fatalf("CreateTeacher() failed: %v", err)
	}
	return tch
}

// CreateStudent stores std, filling in the personal fields left empty.
func CreateStudent(t *testing.T, repo student.Repository, std student.Student) student.Student {
	if std.Category == "" {
		std.Category = student.CategoryPreparatory
	}
	if std.Age == 0 {
		std.Age = 8
	}
	if std.Phone == "" {
		std.Phone = "0990000000"
	}
	if std.SubscriptionType == "" {
		std.SubscriptionType = student.Monthly
	}
	if std.CreatedAt.IsZero() {
		std.CreatedAt = Now
	}
	std.UpdatedAt = std.CreatedAt

	std, err := repo.CreateStudent(context.Background(), std)
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return std
}

func CreateTransaction(t *testing.T, repo finance.Repository, tx finance.Transaction) finance.Transaction {
	if tx.Date.IsZero() {
		tx.Date = Now
	}
	tx.CreatedAt, tx.UpdatedAt = tx.Date, tx.Date

	tx, err := repo.CreateTransaction(context.Background(), tx)
	if err != nil {
		t.Fatalf("CreateTransaction() failed: %v", err)
	}
	return tx
}

func Date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TimeOf(t time.Time) null.Time {
	return null.TimeFrom(t)
}

func StringOf(s string) null.String {
	return null.StringFrom(s)
}
