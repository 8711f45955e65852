package billing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/trezcool/madrasa/core"
	"github.com/trezcool/madrasa/core/student"
	"github.com/trezcool/madrasa/tests"
)

type fixture struct {
	store *testutil.Store
	svc   *Service
	now   time.Time
}

func setup(t *testing.T, now time.Time) *fixture {
	t.Helper()
	store := testutil.NewStore()
	svc := NewService(
		store.Students, store.Teachers, store.Transactions, store.Transactor,
		core.FixedClock(now), core.DefaultBillingConfig(), core.NopLogger,
	)
	return &fixture{store: store, svc: svc, now: now}
}

func (f *fixture) student(t *testing.T, std student.Student) student.Student {
	t.Helper()
	std.Active = true
	return testutil.CreateStudent(t, f.store.Students, std)
}

func (f *fixture) reload(t *testing.T, id string) student.Student {
	t.Helper()
	std, err := f.store.Students.GetStudent(context.Background(), id)
	require.NoError(t, err)
	return std
}
