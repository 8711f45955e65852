package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/madrasa/core/billing"
	"github.com/trezcool/madrasa/core/finance"
	"github.com/trezcool/madrasa/core/student"
	"github.com/trezcool/madrasa/core/teacher"
)

type (
	teacherApi struct {
		svc      *teacher.Service
		students *student.Service
		billing  *billing.Service
		ledger   *finance.Service
		validate *validator.Validate
	}

	payoutRequest struct {
		Amount      int64  `json:"amount"`
		Description string `json:"description"`
	}
)

func registerTeacherAPI(g *echo.Group, api *teacherApi) {
	tg := g.Group("/teachers")
	tg.GET("", api.query)
	tg.POST("", api.create)

	// detail endpoints
	dg := tg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
	dg.GET("/students", api.listStudents)
	dg.GET("/transactions", api.transactions)
	dg.GET("/earnings", api.earnings)
	dg.POST("/payouts", api.payout)
}

// Handlers

func (api *teacherApi) query(ctx echo.Context) error {
	filter, err := bindTeacherFilter(ctx)
	if err != nil {
		return err
	}
	teachers, err := api.svc.Query(ctx.Request().Context(), filter, bindOrdering(ctx))
	if err != nil {
		return errors.Wrap(err, "querying teachers")
	}
	return ctx.JSON(http.StatusOK, teachers)
}

func (api *teacherApi) create(ctx echo.Context) error {
	var data teacher.NewTeacher
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTeacher")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	t, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, t)
}

func (api *teacherApi) retrieve(ctx echo.Context) error {
	t, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting teacher")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *teacherApi) update(ctx echo.Context) error {
	c := ctx.Request().Context()
	orig, err := api.svc.Get(c, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting teacher")
	}

	var data teacher.UpdateTeacher
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateTeacher")
	}
	nt := data.Merge(orig)
	if err = nt.Validate(api.validate); err != nil {
		return err
	}

	t, err := api.svc.Update(c, orig.ID, nt)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *teacherApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting teacher")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *teacherApi) listStudents(ctx echo.Context) error {
	c := ctx.Request().Context()
	t, err := api.svc.Get(c, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting teacher")
	}
	students, err := api.students.Query(c, &student.QueryFilter{TeacherID: t.ID}, bindOrdering(ctx))
	if err != nil {
		return errors.Wrap(err, "querying teacher students")
	}
	return ctx.JSON(http.StatusOK, api.students.Snapshots(students))
}

func (api *teacherApi) transactions(ctx echo.Context) error {
	c := ctx.Request().Context()
	t, err := api.svc.Get(c, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting teacher")
	}
	txs, err := api.ledger.Query(c, &finance.QueryFilter{TeacherID: t.ID}, bindOrdering(ctx))
	if err != nil {
		return errors.Wrap(err, "querying teacher transactions")
	}
	return ctx.JSON(http.StatusOK, txs)
}

func (api *teacherApi) earnings(ctx echo.Context) error {
	earn, err := api.billing.TeacherEarnings(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "reconciling teacher earnings")
	}
	return ctx.JSON(http.StatusOK, earn)
}

func (api *teacherApi) payout(ctx echo.Context) error {
	var data payoutRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to payoutRequest")
	}

	tx, err := api.billing.RecordPayout(ctx.Request().Context(), ctx.Param("id"), data.Amount, data.Description)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, tx)
}
