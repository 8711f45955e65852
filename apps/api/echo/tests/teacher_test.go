package tests

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/madrasa/core/billing"
	"github.com/trezcool/madrasa/core/finance"
	"github.com/trezcool/madrasa/core/student"
	"github.com/trezcool/madrasa/core/teacher"
	"github.com/trezcool/madrasa/tests"
)

func Test_teacherApi(t *testing.T) {
	app, store := setup(t)
	musa := testutil.CreateTeacher(t, store.Teachers, "Musa", 40, true)
	aisha := testutil.CreateTeacher(t, store.Teachers, "Aisha", 50, false)
	std := testutil.CreateStudent(t, store.Students, student.Student{
		Name: "Amina", TeacherID: null.StringFrom(musa.ID), Active: true, SubscriptionFee: 4000,
		SubscriptionEndDate: null.TimeFrom(testutil.Date(2024, 2, 1)),
	})
	unknown := "/v1/teachers/" + uuid.New().String()
	notFound := marchallObj(t, httpErr{Error: "teacher not found"})

	runTests(t, app, []httpTest{
		{name: "all, by name", path: "/v1/teachers", wantCode: http.StatusOK, wantData: marchallList(t, aisha, musa)},
		{name: "active", path: "/v1/teachers?active=true", wantCode: http.StatusOK, wantData: marchallList(t, musa)},
		{name: "search", path: "/v1/teachers?search=AIS", wantCode: http.StatusOK, wantData: marchallList(t, aisha)},
		{name: "retrieve", path: "/v1/teachers/" + musa.ID, wantCode: http.StatusOK, wantData: marchallObj(t, musa)},
		{name: "retrieve (unknown)", path: unknown, wantCode: http.StatusNotFound, wantData: notFound},
		{
			name: "students", path: "/v1/teachers/" + musa.ID + "/students", wantCode: http.StatusOK,
			wantData: marchallList(t, snapshot(std)),
		},
		{name: "students (unknown)", path: unknown + "/students", wantCode: http.StatusNotFound, wantData: notFound},
		{name: "earnings (unknown)", path: unknown + "/earnings", wantCode: http.StatusNotFound, wantData: notFound},
		{
			name: "invalid create", method: http.MethodPost, path: "/v1/teachers", body: []byte(`{"name": "Zainab", "percentage": 120}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"percentage": "percentage must be 100 or less"}),
		},
		{
			name: "invalid update", method: http.MethodPut, path: "/v1/teachers/" + musa.ID, body: []byte(`{"name": ""}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"name": "this field is required"}),
		},
		{
			name: "payout (zero)", method: http.MethodPost, path: "/v1/teachers/" + musa.ID + "/payouts", body: []byte(`{"amount": 0}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"amount": "amount must be greater than 0"}),
		},
		{
			name: "payout (unknown)", method: http.MethodPost, path: unknown + "/payouts", body: []byte(`{"amount": 100}`),
			wantCode: http.StatusNotFound, wantData: notFound,
		},
	})

	t.Run("create", func(t *testing.T) {
		rec := serve(app, httpTest{method: http.MethodPost, path: "/v1/teachers", body: []byte(`{"name": " Zainab ", "percentage": 35.5}`)})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var tch teacher.Teacher
		unmarshal(t, rec, &tch)
		assert.Equal(t, "Zainab", tch.Name)
		assert.Equal(t, 35.5, tch.Percentage)
		assert.True(t, tch.Active)
	})

	t.Run("update", func(t *testing.T) {
		rec := serve(app, httpTest{method: http.MethodPut, path: "/v1/teachers/" + aisha.ID, body: []byte(`{"active": true}`)})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var tch teacher.Teacher
		unmarshal(t, rec, &tch)
		assert.True(t, tch.Active)
		assert.Equal(t, float64(50), tch.Percentage)
	})

	t.Run("payout & earnings", func(t *testing.T) {
		pay := serve(app, httpTest{method: http.MethodPost, path: "/v1/students/" + std.ID + "/payments", body: []byte(`{"amount": 4000}`)})
		require.Equal(t, http.StatusCreated, pay.Code, pay.Body.String())

		rec := serve(app, httpTest{method: http.MethodPost, path: "/v1/teachers/" + musa.ID + "/payouts", body: []byte(`{"amount": 1000}`)})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var tx finance.Transaction
		unmarshal(t, rec, &tx)
		assert.Equal(t, finance.Expense, tx.Type)
		assert.Equal(t, finance.CategoryTeacherPayout, tx.Category)
		assert.Equal(t, "Teacher payout - Musa", tx.Description)

		rec = serve(app, httpTest{path: "/v1/teachers/" + musa.ID + "/earnings"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var earn billing.Earnings
		unmarshal(t, rec, &earn)
		assert.Equal(t, int64(1600), earn.TotalCurrentEarnings)
		assert.Equal(t, int64(1600), earn.LifetimeEarnings)
		assert.Equal(t, int64(1000), earn.TotalPaid)
		assert.Equal(t, int64(600), earn.AmountOwed)
		require.NotNil(t, earn.LastPayment)
		assert.Equal(t, int64(1000), earn.LastPayment.Amount)
		require.Len(t, earn.Students, 1)
		assert.True(t, earn.Students[0].IsActive)

		rec = serve(app, httpTest{path: "/v1/teachers/" + musa.ID + "/transactions?ordering=amount"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var txs []finance.Transaction
		unmarshal(t, rec, &txs)
		require.Len(t, txs, 2)
		assert.Equal(t, int64(1000), txs[0].Amount)
		assert.Equal(t, int64(4000), txs[1].Amount)
	})

	t.Run("destroy", func(t *testing.T) {
		rec := serve(app, httpTest{method: http.MethodDelete, path: "/v1/teachers/" + musa.ID})
		assert.Equal(t, http.StatusNoContent, rec.Code)
		rec = serve(app, httpTest{path: "/v1/students/" + std.ID})
		var snap student.Snapshot
		unmarshal(t, rec, &snap)
		assert.False(t, snap.TeacherID.Valid)
	})
}
