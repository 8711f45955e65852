package inmemdb_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/madrasa/core"
	"github.com/trezcool/madrasa/core/finance"
	"github.com/trezcool/madrasa/core/student"
	"github.com/trezcool/madrasa/tests"
)

func TestTransactor_WithinTx(t *testing.T) {
	store := testutil.NewStore()
	ctx := context.Background()
	std := testutil.CreateStudent(t, store.Students, student.Student{Name: "Amina", SubscriptionFee: 4000})

	errBoom := errors.New("boom")
	err := store.Transactor.WithinTx(ctx, func(exec core.DBExecutor) error {
		std.SessionsRemaining = 9
		if _, err := store.Students.UpdateStudent(ctx, std, exec); err != nil {
			return err
		}
		if _, err := store.Transactions.CreateTransaction(ctx, finance.Transaction{Type: finance.Income, Category: finance.CategoryOther, Amount: 10}, exec); err != nil {
			return err
		}
		return errBoom
	})
	assert.Equal(t, errBoom, err)

	got, err := store.Students.GetStudent(ctx, std.ID)
	require.NoError(t, err)
	assert.Zero(t, got.SessionsRemaining)
	txs, err := store.Transactions.QueryTransactions(ctx, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, txs)

	err = store.Transactor.WithinTx(ctx, func(exec core.DBExecutor) error {
		_, err := store.Transactions.CreateTransaction(ctx, finance.Transaction{Type: finance.Income, Category: finance.CategoryOther, Amount: 10}, exec)
		return err
	})
	require.NoError(t, err)
	txs, err = store.Transactions.QueryTransactions(ctx, nil, nil)
	require.NoError(t, err)
	assert.Len(t, txs, 1)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	err = store.Transactor.WithinTx(cancelled, func(core.DBExecutor) error {
		t.Fatal("unit ran on a cancelled context")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTransactor_WithinTx_KeepsOutsideWrites(t *testing.T) {
	store := testutil.NewStore()
	ctx := context.Background()

	started, resume := make(chan struct{}), make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- store.Transactor.WithinTx(ctx, func(exec core.DBExecutor) error {
			if _, err := store.Students.CreateStudent(ctx, student.Student{Name: "Amina"}, exec); err != nil {
				return err
			}
			close(started)
			<-resume
			return errors.New("boom")
		})
	}()

	<-started
	tch := testutil.CreateTeacher(t, store.Teachers, "Musa", 40, true)
	close(resume)
	require.EqualError(t, <-done, "boom")

	_, err := store.Teachers.GetTeacher(ctx, tch.ID)
	assert.NoError(t, err)
	students, err := store.Students.QueryStudents(ctx, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, students)
}

func TestStudentRepository_QueryStudents(t *testing.T) {
	store := testutil.NewStore()
	ctx := context.Background()
	tch := testutil.CreateTeacher(t, store.Teachers, "Musa", 40, true)

	amina := testutil.CreateStudent(t, store.Students, student.Student{
		Name: "Amina", TeacherID: null.StringFrom(tch.ID), Active: true, SubscriptionEndDate: null.TimeFrom(testutil.Date(2024, 2, 1)),
	})
	bilal := testutil.CreateStudent(t, store.Students, student.Student{
		Name: "Bilal", Phone: "0971234567", Category: student.CategoryAutism, SubscriptionType: student.PerSession,
	})
	chidi := testutil.CreateStudent(t, store.Students, student.Student{
		Name: "Chidi", Active: true, SubscriptionEndDate: null.TimeFrom(testutil.Date(2024, 1, 10)),
	})

	active, inactive := true, false
	tests := []struct {
		name     string
		filter   *student.QueryFilter
		ordering []core.DBOrdering
		want     []student.Student
	}{
		{name: "insertion order", want: []student.Student{amina, bilal, chidi}},
		{name: "name desc", ordering: []core.DBOrdering{{Field: "name"}}, want: []student.Student{chidi, bilal, amina}},
		{
			name:     "end date asc, nulls last",
			ordering: []core.DBOrdering{{Field: "subscription_end_date", Ascending: true}},
			want:     []student.Student{chidi, amina, bilal},
		},
		{name: "active", filter: &student.QueryFilter{Active: &active}, want: []student.Student{amina, chidi}},
		{name: "inactive", filter: &student.QueryFilter{Active: &inactive}, want: []student.Student{bilal}},
		{name: "teacher", filter: &student.QueryFilter{TeacherID: tch.ID}, want: []student.Student{amina}},
		{name: "type", filter: &student.QueryFilter{SubscriptionType: student.PerSession}, want: []student.Student{bilal}},
		{name: "search phone", filter: &student.QueryFilter{Search: "097"}, want: []student.Student{bilal}},
		{name: "search name", filter: &student.QueryFilter{Search: "CHI"}, want: []student.Student{chidi}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Students.QueryStudents(ctx, tt.filter, tt.ordering)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	count, err := store.Students.CountActiveStudents(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestStudentRepository_DeleteStudent(t *testing.T) {
	store := testutil.NewStore()
	ctx := context.Background()
	std := testutil.CreateStudent(t, store.Students, student.Student{Name: "Amina"})
	tx := testutil.CreateTransaction(t, store.Transactions, finance.Transaction{
		Type: finance.Income, Category: finance.CategorySubscription, Amount: 4000, StudentID: null.StringFrom(std.ID),
	})

	require.NoError(t, store.Students.DeleteStudent(ctx, std.ID))
	_, err := store.Students.GetStudent(ctx, std.ID)
	assert.Equal(t, student.ErrNotFound, err)

	tx, err = store.Transactions.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.False(t, tx.StudentID.Valid)
}

func TestTransactionRepository_Aggregates(t *testing.T) {
	store := testutil.NewStore()
	ctx := context.Background()
	teacherID := null.StringFrom("5c1a3b2d-4e6f-4a8b-9c0d-1e2f3a4b5c6d")
	payouts := &finance.QueryFilter{Type: finance.Expense, Category: finance.CategoryTeacherPayout, TeacherID: teacherID.String}

	_, err := store.Transactions.LatestTransaction(ctx, payouts)
	assert.Equal(t, finance.ErrNotFound, err)
	total, err := store.Transactions.SumTransactions(ctx, payouts)
	require.NoError(t, err)
	assert.Zero(t, total)

	for _, tx := range []finance.Transaction{
		{Type: finance.Expense, Category: finance.CategoryTeacherPayout, Amount: 1000, TeacherID: teacherID, Date: testutil.Date(2024, 1, 3)},
		{Type: finance.Expense, Category: finance.CategoryTeacherPayout, Amount: 700, TeacherID: teacherID, Date: testutil.Date(2024, 1, 1)},
		{Type: finance.Expense, Category: finance.CategoryTeacherPayout, Amount: 300, TeacherID: teacherID, Date: testutil.Date(2024, 1, 3)},
		{Type: finance.Expense, Category: finance.CategoryAds, Amount: 50, TeacherID: teacherID, Date: testutil.Date(2024, 1, 4)},
	} {
		testutil.CreateTransaction(t, store.Transactions, tx)
	}

	latest, err := store.Transactions.LatestTransaction(ctx, payouts)
	require.NoError(t, err)
	assert.Equal(t, int64(300), latest.Amount)

	total, err = store.Transactions.SumTransactions(ctx, payouts)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), total)
}
