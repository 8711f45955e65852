package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/madrasa/core"
	"github.com/trezcool/madrasa/core/billing"
	"github.com/trezcool/madrasa/core/finance"
	"github.com/trezcool/madrasa/core/student"
	"github.com/trezcool/madrasa/services/idempotency"
)

const idempotencyHeader = "Idempotency-Key"

type (
	studentApi struct {
		svc         *student.Service
		billing     *billing.Service
		ledger      *finance.Service
		notifier    *billing.Notifier
		idempotency idempotency.Store
		validate    *validator.Validate
		days        int // default look-ahead of /expiring
	}

	paymentRequest struct {
		Amount int64 `json:"amount"`
	}
)

func registerStudentAPI(g *echo.Group, api *studentApi) {
	sg := g.Group("/students")
	sg.GET("", api.query)
	sg.POST("", api.create)
	sg.GET("/expiring", api.expiring)
	sg.POST("/expiring/notify", api.notifyExpiring)

	// detail endpoints
	dg := sg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
	dg.GET("/transactions", api.transactions)
	dg.POST("/payments", api.pay)
}

// Handlers

func (api *studentApi) query(ctx echo.Context) error {
	filter, err := bindStudentFilter(ctx)
	if err != nil {
		return err
	}
	students, err := api.svc.Query(ctx.Request().Context(), filter, bindOrdering(ctx))
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	return ctx.JSON(http.StatusOK, api.svc.Snapshots(students))
}

func (api *studentApi) create(ctx echo.Context) error {
	var data student.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	std, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, api.svc.Snapshot(std))
}

func (api *studentApi) expiring(ctx echo.Context) error {
	days, err := intParam(ctx, "days", api.days)
	if err != nil {
		return err
	}
	snaps, err := api.svc.Expiring(ctx.Request().Context(), days)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, snaps)
}

// notifyExpiring emails the staff the digest of subscriptions expiring soon.
func (api *studentApi) notifyExpiring(ctx echo.Context) error {
	days, err := intParam(ctx, "days", api.days)
	if err != nil {
		return err
	}
	n, err := api.notifier.SendExpiringDigest(ctx.Request().Context(), days)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, map[string]int{"students": n})
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	std, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting student")
	}
	return ctx.JSON(http.StatusOK, api.svc.Snapshot(std))
}

func (api *studentApi) update(ctx echo.Context) error {
	c := ctx.Request().Context()
	orig, err := api.svc.Get(c, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting student")
	}

	var data student.UpdateStudent
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}
	ns := data.Merge(orig)
	if err = ns.Validate(api.validate); err != nil {
		return err
	}

	std, err := api.svc.Update(c, orig.ID, ns)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, api.svc.Snapshot(std))
}

func (api *studentApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *studentApi) transactions(ctx echo.Context) error {
	c := ctx.Request().Context()
	std, err := api.svc.Get(c, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting student")
	}
	txs, err := api.ledger.Query(c, &finance.QueryFilter{StudentID: std.ID}, bindOrdering(ctx))
	if err != nil {
		return errors.Wrap(err, "querying student transactions")
	}
	return ctx.JSON(http.StatusOK, txs)
}

// pay records a subscription payment. A request replaying the Idempotency-Key of a processed one is rejected.
func (api *studentApi) pay(ctx echo.Context) error {
	c := ctx.Request().Context()
	studentID := ctx.Param("id")

	var data paymentRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to paymentRequest")
	}

	key := core.CleanString(ctx.Request().Header.Get(idempotencyHeader))
	if key != "" {
		key = "payment:" + studentID + ":" + key
		claimed, err := api.idempotency.Claim(c, key)
		if err != nil {
			return errors.Wrap(err, "claiming idempotency key")
		}
		if !claimed {
			return errDuplicatePayment
		}
	}

	res, err := api.billing.RecordPayment(c, studentID, data.Amount)
	if err != nil {
		if key != "" {
			if rErr := api.idempotency.Release(c, key); rErr != nil {
				ctx.Logger().Errorf("%+v", errors.Wrap(rErr, "releasing idempotency key"))
			}
		}
		return err
	}
	return ctx.JSON(http.StatusCreated, res)
}
