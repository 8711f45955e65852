package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/madrasa/core"
	"github.com/trezcool/madrasa/core/billing"
	"github.com/trezcool/madrasa/core/finance"
	"github.com/trezcool/madrasa/core/student"
	"github.com/trezcool/madrasa/core/teacher"
	"github.com/trezcool/madrasa/services/idempotency"
)

type (
	ServerDeps struct {
		Conf        *core.Config
		Logger      core.Logger
		Validate    *validator.Validate
		Translator  ut.Translator
		StudentSvc  *student.Service
		TeacherSvc  *teacher.Service
		FinanceSvc  *finance.Service
		BillingSvc  *billing.Service
		Notifier    *billing.Notifier
		Idempotency idempotency.Store
	}

	Server struct {
		conf     *core.Config
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		conf:     deps.Conf,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup(deps)
	return s
}

func (s *Server) setup(deps ServerDeps) {
	conf := deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.TestMode {
		s.app.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
			LogMethod:  true,
			LogURI:     true,
			LogStatus:  true,
			LogLatency: true,
			LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
				deps.Logger.Info("request", map[string]interface{}{
					"method":  v.Method,
					"uri":     v.URI,
					"status":  v.Status,
					"latency": v.Latency.String(),
				})
				return nil
			},
		}))
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(deps.Logger, deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", s.home)

	v1 := s.app.Group("/v1")
	registerStudentAPI(v1, &studentApi{
		svc:         deps.StudentSvc,
		billing:     deps.BillingSvc,
		ledger:      deps.FinanceSvc,
		notifier:    deps.Notifier,
		idempotency: deps.Idempotency,
		validate:    deps.Validate,
		days:        conf.Billing.ExpiringDays,
	})
	registerTeacherAPI(v1, &teacherApi{
		svc:      deps.TeacherSvc,
		students: deps.StudentSvc,
		billing:  deps.BillingSvc,
		ledger:   deps.FinanceSvc,
		validate: deps.Validate,
	})
	registerFinanceAPI(v1, &financeApi{
		svc:      deps.FinanceSvc,
		billing:  deps.BillingSvc,
		validate: deps.Validate,
	})
}

// Start blocks until the server stops. Errors other than a graceful close are sent to Errors.
func (s *Server) Start() {
	if err := s.app.Start(s.conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already shutting down
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.conf.AppName+" API!")
}
