package echoapi

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/madrasa/core"
	"github.com/trezcool/madrasa/core/finance"
	"github.com/trezcool/madrasa/core/student"
	"github.com/trezcool/madrasa/core/teacher"
)

var (
	orderingParam = "ordering"

	errInvalidBool = "must be one of true or false"
	errInvalidDate = "must be a date (YYYY-MM-DD) or an RFC 3339 timestamp"
	errInvalidInt  = "must be a positive integer"
)

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

func bindOrdering(ctx echo.Context) []core.DBOrdering {
	var ord Ordering
	ord.Bind(ctx)
	return ord.Orderings
}

func paramError(name, msg string) error {
	return core.NewValidationError(nil, core.FieldError{Field: name, Error: msg})
}

func boolParam(ctx echo.Context, name string) (*bool, error) {
	if ctx.QueryParam(name) == "" {
		return nil, nil
	}
	var b bool
	if err := echo.QueryParamsBinder(ctx).Bool(name, &b).BindError(); err != nil {
		return nil, paramError(name, errInvalidBool)
	}
	return &b, nil
}

// intParam returns def when the parameter is absent.
func intParam(ctx echo.Context, name string, def int) (int, error) {
	n := def
	if err := echo.QueryParamsBinder(ctx).Int(name, &n).BindError(); err != nil || n < 0 {
		return 0, paramError(name, errInvalidInt)
	}
	return n, nil
}

// dateParam parses an RFC 3339 timestamp or a date.
// A date bounding the end of a period includes the whole day.
func dateParam(ctx echo.Context, name string, end bool) (time.Time, error) {
	raw := strings.TrimSpace(ctx.QueryParam(name))
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, paramError(name, errInvalidDate)
	}
	if end {
		t = t.AddDate(0, 0, 1)
	}
	return t, nil
}

func bindPeriod(ctx echo.Context) (from, to time.Time, err error) {
	if from, err = dateParam(ctx, "from", false); err != nil {
		return
	}
	to, err = dateParam(ctx, "to", true)
	return
}

func bindStudentFilter(ctx echo.Context) (*student.QueryFilter, error) {
	filter := new(student.QueryFilter)
	err := echo.QueryParamsBinder(ctx).
		String("search", &filter.Search).
		String("teacher_id", &filter.TeacherID).
		String("subscription_type", (*string)(&filter.SubscriptionType)).
		BindError()
	if err != nil {
		return nil, err
	}
	if filter.Active, err = boolParam(ctx, "active"); err != nil {
		return nil, err
	}
	filter.Clean()
	return filter, nil
}

func bindTeacherFilter(ctx echo.Context) (*teacher.QueryFilter, error) {
	filter := &teacher.QueryFilter{Search: ctx.QueryParam("search")}
	var err error
	if filter.Active, err = boolParam(ctx, "active"); err != nil {
		return nil, err
	}
	filter.Clean()
	return filter, nil
}

func bindTransactionFilter(ctx echo.Context) (*finance.QueryFilter, error) {
	filter := new(finance.QueryFilter)
	err := echo.QueryParamsBinder(ctx).
		String("search", &filter.Search).
		String("type", (*string)(&filter.Type)).
		String("category", (*string)(&filter.Category)).
		String("student_id", &filter.StudentID).
		String("teacher_id", &filter.TeacherID).
		BindError()
	if err != nil {
		return nil, err
	}
	if filter.DateFrom, filter.DateTo, err = bindPeriod(ctx); err != nil {
		return nil, err
	}
	filter.Clean()
	return filter, nil
}
