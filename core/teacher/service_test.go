package teacher_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/madrasa/core"
	"github.com/trezcool/madrasa/core/finance"
	"github.com/trezcool/madrasa/core/student"
	"github.com/trezcool/madrasa/core/teacher"
	"github.com/trezcool/madrasa/tests"
)

func TestService(t *testing.T) {
	store := testutil.NewStore()
	svc := teacher.NewService(store.Teachers, core.FixedClock(testutil.Now))
	ctx := context.Background()

	musa, err := svc.Create(ctx, teacher.NewTeacher{Name: "Musa", Percentage: 40})
	require.NoError(t, err)
	assert.True(t, musa.Active)
	assert.Equal(t, testutil.Now, musa.CreatedAt)

	inactive := false
	aisha, err := svc.Create(ctx, teacher.NewTeacher{Name: "Aisha", Phone: "0810000000", Percentage: 55.5, Active: &inactive})
	require.NoError(t, err)
	assert.False(t, aisha.Active)

	t.Run("query", func(t *testing.T) {
		all, err := svc.Query(ctx, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, []teacher.Teacher{aisha, musa}, all)

		active := true
		got, err := svc.Query(ctx, &teacher.QueryFilter{Active: &active}, nil)
		require.NoError(t, err)
		assert.Equal(t, []teacher.Teacher{musa}, got)

		got, err = svc.Query(ctx, &teacher.QueryFilter{Search: "081"}, nil)
		require.NoError(t, err)
		assert.Equal(t, []teacher.Teacher{aisha}, got)
	})

	t.Run("update", func(t *testing.T) {
		pct := 45.0
		got, err := svc.Update(ctx, musa.ID, teacher.UpdateTeacher{Percentage: &pct}.Merge(musa))
		require.NoError(t, err)
		assert.Equal(t, 45.0, got.Percentage)
		assert.Equal(t, "Musa", got.Name)
		assert.True(t, got.Active)

		_, err = svc.Update(ctx, uuid.New().String(), teacher.NewTeacher{Name: "Nobody"})
		assert.Equal(t, teacher.ErrNotFound, err)
	})

	t.Run("delete unassigns", func(t *testing.T) {
		std := testutil.CreateStudent(t, store.Students, student.Student{Name: "Amina", TeacherID: null.StringFrom(aisha.ID)})
		tx := testutil.CreateTransaction(t, store.Transactions, finance.Transaction{
			Type: finance.Expense, Category: finance.CategoryTeacherPayout, Amount: 1000, TeacherID: null.StringFrom(aisha.ID),
		})

		require.NoError(t, svc.Delete(ctx, aisha.ID))
		_, err := svc.Get(ctx, aisha.ID)
		assert.Equal(t, teacher.ErrNotFound, err)

		std, err = store.Students.GetStudent(ctx, std.ID)
		require.NoError(t, err)
		assert.False(t, std.TeacherID.Valid)
		tx, err = store.Transactions.GetTransaction(ctx, tx.ID)
		require.NoError(t, err)
		assert.False(t, tx.TeacherID.Valid)
		assert.Equal(t, int64(1000), tx.Amount)

		assert.Equal(t, teacher.ErrNotFound, svc.Delete(ctx, aisha.ID))
	})
}
