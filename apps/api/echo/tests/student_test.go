package tests

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/madrasa/core/billing"
	"github.com/trezcool/madrasa/core/finance"
	"github.com/trezcool/madrasa/core/student"
	"github.com/trezcool/madrasa/tests"
)

func snapshot(std student.Student) student.Snapshot {
	return student.DefaultEvaluator.Snapshot(std, testutil.Now)
}

func TestHome(t *testing.T) {
	app, _ := setup(t)
	rec := serve(app, httpTest{path: "/"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to Madrasa API!", rec.Body.String())
}

func Test_studentApi_query(t *testing.T) {
	app, store := setup(t)
	tch := testutil.CreateTeacher(t, store.Teachers, "Musa", 40, true)

	amina := testutil.CreateStudent(t, store.Students, student.Student{
		Name: "Amina", TeacherID: null.StringFrom(tch.ID), Active: true, SubscriptionFee: 4000,
		SubscriptionEndDate: null.TimeFrom(testutil.Date(2024, 2, 1)),
	})
	bilal := testutil.CreateStudent(t, store.Students, student.Student{
		Name: "Bilal", SubscriptionType: student.PerSession, SubscriptionFee: 1000, SessionsRemaining: 1, Active: true,
	})
	chidi := testutil.CreateStudent(t, store.Students, student.Student{Name: "Chidi", Phone: "0971234567", SubscriptionFee: 4000})

	runTests(t, app, []httpTest{
		{
			name: "all, by name", path: "/v1/students", wantCode: http.StatusOK,
			wantData: marchallList(t, snapshot(amina), snapshot(bilal), snapshot(chidi)),
		},
		{
			name: "ordering", path: "/v1/students?ordering=-name", wantCode: http.StatusOK,
			wantData: marchallList(t, snapshot(chidi), snapshot(bilal), snapshot(amina)),
		},
		{
			name: "active", path: "/v1/students?active=true", wantCode: http.StatusOK,
			wantData: marchallList(t, snapshot(amina), snapshot(bilal)),
		},
		{
			name: "teacher", path: "/v1/students?teacher_id=" + tch.ID, wantCode: http.StatusOK,
			wantData: marchallList(t, snapshot(amina)),
		},
		{
			name: "type", path: "/v1/students?subscription_type=PER_SESSION", wantCode: http.StatusOK,
			wantData: marchallList(t, snapshot(bilal)),
		},
		{
			name: "search", path: "/v1/students?search=0971", wantCode: http.StatusOK,
			wantData: marchallList(t, snapshot(chidi)),
		},
		{name: "search (unknown)", path: "/v1/students?search=lol", wantCode: http.StatusOK, wantData: marchallList(t)},
		{
			name: "bad active", path: "/v1/students?active=maybe", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"active": "must be one of true or false"}),
		},
		{
			name: "retrieve", path: "/v1/students/" + amina.ID, wantCode: http.StatusOK,
			wantData: marchallObj(t, snapshot(amina)),
		},
		{
			name: "retrieve (unknown)", path: "/v1/students/" + uuid.New().String(), wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "student not found"}),
		},
	})
}

func Test_studentApi_create(t *testing.T) {
	app, store := setup(t)
	tch := testutil.CreateTeacher(t, store.Teachers, "Musa", 40, true)

	body := func(name, teacherID string) []byte {
		return []byte(fmt.Sprintf(`{
			"name": %q, "category": "autism", "age": 9, "phone": "0810000000", "teacher_id": %q,
			"subscription_type": "monthly", "subscription_fee": 4000, "subscription_end_date": "2024-02-05T00:00:00Z"
		}`, name, teacherID))
	}

	runTests(t, app, []httpTest{
		{
			name: "short name", method: http.MethodPost, path: "/v1/students", body: body("A", ""),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"name": "name must be at least 2 characters in length"}),
		},
		{
			name: "unknown teacher", method: http.MethodPost, path: "/v1/students", body: body("Amina", uuid.New().String()),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"teacher_id": "teacher not found"}),
		},
	})

	rec := serve(app, httpTest{method: http.MethodPost, path: "/v1/students", body: body(" Amina ", tch.ID)})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var snap student.Snapshot
	unmarshal(t, rec, &snap)
	assert.Equal(t, "Amina", snap.Name)
	assert.Equal(t, null.StringFrom(tch.ID), snap.TeacherID)
	assert.True(t, snap.Active)
	assert.Equal(t, student.StatusActive, snap.Status)
	require.NotNil(t, snap.DaysRemaining)
	assert.Equal(t, 31, *snap.DaysRemaining)

	std, err := store.Students.GetStudent(context.Background(), snap.ID)
	require.NoError(t, err)
	assert.Equal(t, "Amina", std.Name)
}

func Test_studentApi_updateAndDestroy(t *testing.T) {
	app, store := setup(t)
	std := testutil.CreateStudent(t, store.Students, student.Student{Name: "Amina", SubscriptionFee: 4000, Active: true})

	rec := serve(app, httpTest{method: http.MethodPut, path: "/v1/students/" + std.ID, body: []byte(`{"subscription_fee": 5000, "active": false}`)})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var snap student.Snapshot
	unmarshal(t, rec, &snap)
	assert.Equal(t, int64(5000), snap.SubscriptionFee)
	assert.False(t, snap.Active)
	assert.Equal(t, "Amina", snap.Name)

	runTests(t, app, []httpTest{
		{
			name: "invalid update", method: http.MethodPut, path: "/v1/students/" + std.ID, body: []byte(`{"age": 40}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"age": "age must be 18 or less"}),
		},
		{
			name: "update (unknown)", method: http.MethodPut, path: "/v1/students/" + uuid.New().String(), body: []byte(`{}`),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "student not found"}),
		},
		{name: "destroy", method: http.MethodDelete, path: "/v1/students/" + std.ID, wantCode: http.StatusNoContent},
		{
			name: "destroy (again)", method: http.MethodDelete, path: "/v1/students/" + std.ID,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "student not found"}),
		},
	})
}

func Test_studentApi_expiring(t *testing.T) {
	app, store := setup(t)

	expired := testutil.CreateStudent(t, store.Students, student.Student{
		Name: "Expired", Active: true, SubscriptionFee: 4000, SubscriptionEndDate: null.TimeFrom(testutil.Date(2024, 1, 2)),
	})
	soon := testutil.CreateStudent(t, store.Students, student.Student{
		Name: "Soon", Active: true, SubscriptionFee: 4000, SubscriptionEndDate: null.TimeFrom(testutil.Date(2024, 1, 12)),
	})
	testutil.CreateStudent(t, store.Students, student.Student{
		Name: "Later", Active: true, SubscriptionFee: 4000, SubscriptionEndDate: null.TimeFrom(testutil.Date(2024, 1, 25)),
	})

	runTests(t, app, []httpTest{
		{
			name: "default days", path: "/v1/students/expiring", wantCode: http.StatusOK,
			wantData: marchallList(t, snapshot(expired), snapshot(soon)),
		},
		{
			name: "days=1", path: "/v1/students/expiring?days=1", wantCode: http.StatusOK,
			wantData: marchallList(t, snapshot(expired)),
		},
		{
			name: "bad days", path: "/v1/students/expiring?days=-2", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"days": "must be a positive integer"}),
		},
		{
			name: "non-numeric days", path: "/v1/students/expiring?days=soon", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"days": "must be a positive integer"}),
		},
	})
}

func Test_studentApi_notifyExpiring(t *testing.T) {
	app, store, mailSvc := setupWithMail(t)

	testutil.CreateStudent(t, store.Students, student.Student{
		Name: "Soon", Active: true, SubscriptionFee: 4000, SubscriptionEndDate: null.TimeFrom(testutil.Date(2024, 1, 12)),
	})

	runTests(t, app, []httpTest{
		{
			name: "nothing within a day", method: http.MethodPost, path: "/v1/students/expiring/notify?days=1",
			wantCode: http.StatusOK, wantData: marchallObj(t, map[string]int{"students": 0}),
		},
		{
			name: "default days", method: http.MethodPost, path: "/v1/students/expiring/notify",
			wantCode: http.StatusOK, wantData: marchallObj(t, map[string]int{"students": 1}),
		},
	})

	sent := mailSvc.Messages()
	require.Len(t, sent, 1)
	assert.Equal(t, staff, sent[0].To)
	assert.Contains(t, sent[0].TextContent, "- Soon [monthly]")
}

func Test_studentApi_pay(t *testing.T) {
	app, store := setup(t)
	std := testutil.CreateStudent(t, store.Students, student.Student{
		Name: "S", Active: true, SubscriptionFee: 4000, SubscriptionEndDate: null.TimeFrom(testutil.Date(2024, 1, 10)),
	})
	path := "/v1/students/" + std.ID + "/payments"
	key := map[string]string{"Idempotency-Key": "4f1c"}

	runTests(t, app, []httpTest{
		{
			name: "zero amount", method: http.MethodPost, path: path, body: []byte(`{"amount": 0}`), header: key,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"amount": "amount must be greater than 0"}),
		},
		{
			name: "unknown student", method: http.MethodPost, path: "/v1/students/" + uuid.New().String() + "/payments",
			body: []byte(`{"amount": 4000}`), wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "student not found"}),
		},
	})

	// the key of the rejected request is free again
	rec := serve(app, httpTest{method: http.MethodPost, path: path, body: []byte(`{"amount": 8000}`), header: key})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var res billing.PaymentResult
	unmarshal(t, rec, &res)
	assert.Equal(t, 2, res.PeriodsAdded)
	assert.True(t, res.Student.SubscriptionEndDate.Time.Equal(testutil.Date(2024, 3, 10)))
	assert.True(t, res.Student.LastPaymentDate.Time.Equal(testutil.Now))
	assert.Equal(t, student.StatusActive, res.Status)
	assert.Equal(t, finance.Income, res.Transaction.Type)
	assert.Equal(t, finance.CategorySubscription, res.Transaction.Category)
	assert.Equal(t, int64(8000), res.Transaction.Amount)

	runTests(t, app, []httpTest{
		{
			name: "replayed key", method: http.MethodPost, path: path, body: []byte(`{"amount": 8000}`), header: key,
			wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: "payment already submitted"}),
		},
		{
			name: "transactions", path: "/v1/students/" + std.ID + "/transactions", wantCode: http.StatusOK,
			wantData: marchallList(t, res.Transaction),
		},
	})

	total, err := store.Transactions.SumTransactions(context.Background(), &finance.QueryFilter{StudentID: std.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(8000), total)
}
