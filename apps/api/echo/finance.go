package echoapi

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/madrasa/core"
	"github.com/trezcool/madrasa/core/billing"
	"github.com/trezcool/madrasa/core/finance"
	"github.com/trezcool/madrasa/services/report"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type financeApi struct {
	svc      *finance.Service
	billing  *billing.Service
	validate *validator.Validate
}

func registerFinanceAPI(g *echo.Group, api *financeApi) {
	tg := g.Group("/transactions")
	tg.GET("", api.query)
	tg.POST("", api.create)
	tg.GET("/export", api.export)

	// detail endpoints
	dg := tg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)

	g.GET("/finance/summary", api.summary)
	g.GET("/dashboard", api.dashboard)
}

// Handlers

func (api *financeApi) query(ctx echo.Context) error {
	filter, err := bindTransactionFilter(ctx)
	if err != nil {
		return err
	}
	txs, err := api.svc.Query(ctx.Request().Context(), filter, bindOrdering(ctx))
	if err != nil {
		return errors.Wrap(err, "querying transactions")
	}
	return ctx.JSON(http.StatusOK, txs)
}

func (api *financeApi) create(ctx echo.Context) error {
	var data finance.NewTransaction
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTransaction")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	tx, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, tx)
}

// export downloads the filtered ledger as a spreadsheet, oldest first.
func (api *financeApi) export(ctx echo.Context) error {
	filter, err := bindTransactionFilter(ctx)
	if err != nil {
		return err
	}
	txs, err := api.svc.Query(ctx.Request().Context(), filter, []core.DBOrdering{{Field: "date", Ascending: true}})
	if err != nil {
		return errors.Wrap(err, "querying transactions")
	}

	var buf bytes.Buffer
	period := report.Period{From: filter.DateFrom, To: filter.DateTo}
	if err = report.WriteTransactionsXLSX(&buf, txs, period); err != nil {
		return errors.Wrap(err, "exporting transactions")
	}

	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", "transactions.xlsx"))
	return ctx.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (api *financeApi) retrieve(ctx echo.Context) error {
	tx, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting transaction")
	}
	return ctx.JSON(http.StatusOK, tx)
}

func (api *financeApi) update(ctx echo.Context) error {
	c := ctx.Request().Context()
	orig, err := api.svc.Get(c, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting transaction")
	}

	var data finance.UpdateTransaction
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateTransaction")
	}
	nt := data.Merge(orig)
	if err = nt.Validate(api.validate); err != nil {
		return err
	}

	tx, err := api.svc.Update(c, orig.ID, nt)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, tx)
}

func (api *financeApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting transaction")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// summary sums the ledger over ?from&to, the current month by default.
func (api *financeApi) summary(ctx echo.Context) error {
	c := ctx.Request().Context()
	from, to, err := bindPeriod(ctx)
	if err != nil {
		return err
	}

	var sum finance.Summary
	if from.IsZero() && to.IsZero() {
		sum, err = api.svc.CurrentMonthSummary(c)
	} else {
		sum, err = api.svc.Summary(c, from, to)
	}
	if err != nil {
		return errors.Wrap(err, "summing transactions")
	}
	return ctx.JSON(http.StatusOK, sum)
}

func (api *financeApi) dashboard(ctx echo.Context) error {
	dash, err := api.billing.Dashboard(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "building dashboard")
	}
	return ctx.JSON(http.StatusOK, dash)
}
