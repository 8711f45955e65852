package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	. "github.com/trezcool/madrasa/apps/api/echo"
	"github.com/trezcool/madrasa/core"
	"github.com/trezcool/madrasa/core/billing"
	"github.com/trezcool/madrasa/core/finance"
	"github.com/trezcool/madrasa/core/student"
	"github.com/trezcool/madrasa/core/teacher"
	appfs "github.com/trezcool/madrasa/fs"
	"github.com/trezcool/madrasa/services/email"
	"github.com/trezcool/madrasa/services/idempotency"
	"github.com/trezcool/madrasa/tests"
)

var staff = []mail.Address{{Name: "Office", Address: "office@madrasa.test"}}

func init() {
	core.ParseEmailTemplates(appfs.FS, appfs.EmailTemplatesDir, core.NopLogger)
}

func setup(t *testing.T) (*Server, *testutil.Store) {
	server, store, _ := setupWithMail(t)
	return server, store
}

func setupWithMail(t *testing.T) (*Server, *testutil.Store, *emailsvc.ConsoleServiceMock) {
	store := testutil.NewStore()
	clock := core.FixedClock(testutil.Now)
	conf := &core.Config{AppName: "Madrasa", TestMode: true, Billing: core.DefaultBillingConfig()}

	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	student.InitValidators(validate, translator)
	finance.InitValidators(validate, translator)

	mailSvc := emailsvc.NewConsoleServiceMock(conf.AppName)
	students := student.NewService(store.Students, store.Teachers, clock, student.NewEvaluator(conf.Billing))

	server := NewServer(ServerDeps{
		Conf:        conf,
		Logger:      core.NopLogger,
		Validate:    validate,
		Translator:  translator,
		StudentSvc:  students,
		TeacherSvc:  teacher.NewService(store.Teachers, clock),
		FinanceSvc:  finance.NewService(store.Transactions, clock),
		BillingSvc:  billing.NewService(store.Students, store.Teachers, store.Transactions, store.Transactor, clock, conf.Billing, core.NopLogger),
		Notifier:    billing.NewNotifier(students, mailSvc, staff, clock, core.NopLogger),
		Idempotency: idempotency.NewMemoryStore(time.Hour, clock),
	})
	return server, store, mailSvc
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	header   map[string]string
	wantCode int
	wantData []byte
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	return req, rec
}

func serve(app http.Handler, tt httpTest) *httptest.ResponseRecorder {
	method := tt.method
	if method == "" {
		method = http.MethodGet
	}
	req, rec := newRequest(method, tt.path, tt.body)
	for k, v := range tt.header {
		req.Header.Set(k, v)
	}
	app.ServeHTTP(rec, req)
	return rec
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func unmarshal(t *testing.T, rec *httptest.ResponseRecorder, obj interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), obj); err != nil {
		t.Fatalf("unmarshal() failed: %v; body %s", err, rec.Body.String())
	}
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runTests(t *testing.T, app http.Handler, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, serve(app, tt))
		})
	}
}
