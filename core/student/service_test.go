package student_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/madrasa/core"
	"github.com/trezcool/madrasa/core/student"
	"github.com/trezcool/madrasa/tests"
)

func setup() (*testutil.Store, *student.Service) {
	store := testutil.NewStore()
	svc := student.NewService(store.Students, store.Teachers, core.FixedClock(testutil.Now), student.DefaultEvaluator)
	return store, svc
}

func TestService_Create(t *testing.T) {
	store, svc := setup()
	ctx := context.Background()
	tch := testutil.CreateTeacher(t, store.Teachers, "Musa", 40, true)

	std, err := svc.Create(ctx, student.NewStudent{
		Name:             "Amina",
		Category:         student.CategoryAutism,
		Age:              9,
		Phone:            "0810000000",
		TeacherID:        tch.ID,
		SubscriptionType: student.Monthly,
		SubscriptionFee:  4000,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, std.ID)
	assert.True(t, std.Active)
	assert.Equal(t, null.StringFrom(tch.ID), std.TeacherID)
	assert.Equal(t, testutil.Now, std.CreatedAt)

	_, err = svc.Create(ctx, student.NewStudent{Name: "Yusuf", TeacherID: uuid.New().String()})
	var vErr *core.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "teacher_id", vErr.Fields[0].Field)
}

func TestService_UpdateAndDelete(t *testing.T) {
	store, svc := setup()
	ctx := context.Background()
	std := testutil.CreateStudent(t, store.Students, student.Student{Name: "Amina", SubscriptionFee: 4000, Active: true})

	fee := int64(5000)
	updated, err := svc.Update(ctx, std.ID, student.UpdateStudent{SubscriptionFee: &fee}.Merge(std))
	require.NoError(t, err)
	assert.Equal(t, int64(5000), updated.SubscriptionFee)
	assert.Equal(t, "Amina", updated.Name)

	_, err = svc.Update(ctx, uuid.New().String(), student.NewStudent{})
	assert.True(t, core.IsNotFound(err))

	require.NoError(t, svc.Delete(ctx, std.ID))
	_, err = svc.Get(ctx, std.ID)
	assert.Equal(t, student.ErrNotFound, err)
	assert.True(t, core.IsNotFound(svc.Delete(ctx, std.ID)))
}

func TestService_Expiring(t *testing.T) {
	store, svc := setup()
	now := testutil.Now
	create := func(name string, typ student.SubscriptionType, endInDays, sessions int, active bool) student.Student {
		std := student.Student{Name: name, SubscriptionType: typ, SessionsRemaining: sessions, Active: active, SubscriptionFee: 1000}
		if typ != student.PerSession && endInDays != 0 {
			std.SubscriptionEndDate = null.TimeFrom(now.AddDate(0, 0, endInDays))
		}
		return testutil.CreateStudent(t, store.Students, std)
	}

	expired := create("Expired", student.Monthly, -3, 0, true)
	noSessions := create("No sessions", student.PerSession, 0, 0, true)
	warning := create("Warning", student.Weekly, 2, 0, true)
	oneSession := create("One session", student.PerSession, 0, 1, true)
	soon := create("Soon", student.Monthly, 7, 0, true)
	create("Later", student.Monthly, 20, 0, true)
	create("Plenty", student.PerSession, 0, 10, true)
	create("Unknown", student.Monthly, 0, 0, true)
	create("Inactive", student.Monthly, -3, 0, false)

	snaps, err := svc.Expiring(context.Background(), 7)
	require.NoError(t, err)

	names := make([]string, 0, len(snaps))
	for _, s := range snaps {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{expired.Name, noSessions.Name, oneSession.Name, warning.Name, soon.Name}, names)
	assert.Equal(t, student.StatusExpired, snaps[0].Status)
	require.NotNil(t, snaps[0].DaysRemaining)
	assert.Equal(t, -3, *snaps[0].DaysRemaining)
	assert.Equal(t, student.StatusActive, snaps[4].Status)
}

func TestService_CountActive(t *testing.T) {
	store, svc := setup()
	testutil.CreateStudent(t, store.Students, student.Student{Name: "A", Active: true})
	testutil.CreateStudent(t, store.Students, student.Student{Name: "B", Active: true})
	testutil.CreateStudent(t, store.Students, student.Student{Name: "C", Active: false})

	count, err := svc.CountActive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
