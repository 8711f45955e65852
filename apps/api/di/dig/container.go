package dig_container

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/mail"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"
	"go.uber.org/zap"

	echoapi "github.com/trezcool/madrasa/apps/api/echo"
	"github.com/trezcool/madrasa/core"
	"github.com/trezcool/madrasa/core/billing"
	"github.com/trezcool/madrasa/core/finance"
	"github.com/trezcool/madrasa/core/student"
	"github.com/trezcool/madrasa/core/teacher"
	emailsvc "github.com/trezcool/madrasa/services/email"
	"github.com/trezcool/madrasa/services/idempotency"
	logsvc "github.com/trezcool/madrasa/services/logger"
	"github.com/trezcool/madrasa/storage/database"
	sqlxrepos "github.com/trezcool/madrasa/storage/database/sqlx"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

type serverParams struct {
	dig.In

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

func newZapLogger(conf *core.Config) *zap.Logger {
	zl, err := logsvc.NewZapLogger(conf.Log, conf.Debug)
	if err != nil {
		log.Fatalf("building zap logger: %v", err)
	}
	return zl
}

func newLogger(conf *core.Config, zl *zap.Logger) core.Logger {
	return logsvc.NewRollbarLogger(zl.Named("api"), conf)
}

func newDBLogger(conf *core.Config, zl *zap.Logger) core.Logger {
	return logsvc.NewRollbarLogger(zl.Named("db"), conf)
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) (*sql.DB, core.DB, core.DBExecutor) {
	setUp := func() (*sql.DB, error) {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db); err != nil {
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db, db, db
}

func newIdempotencyStore(conf *core.Config, logger core.Logger) idempotency.Store {
	if conf.Redis.Addr == "" {
		logger.Warn("redis not configured: idempotency keys are kept in memory")
		return idempotency.NewMemoryStore(conf.Redis.IdempotencyTTL, core.SystemClock)
	}

	rdb, err := idempotency.NewRedisClient(context.Background(), conf.Redis)
	if err != nil {
		logger.Fatal(fmt.Sprintf("connecting to redis: %v", err), err)
	}
	return idempotency.NewRedisStore(rdb, conf.Redis.IdempotencyTTL)
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

func newClock() core.Clock {
	return core.SystemClock
}

func billingConfig(conf *core.Config) core.BillingConfig {
	return conf.Billing
}

func adminEmails(conf *core.Config) []mail.Address {
	return conf.AdminEmails
}

func newServer(p serverParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:        p.Conf,
		Logger:      p.Logger,
		Validate:    p.Validate,
		Translator:  p.Translator,
		StudentSvc:  p.StudentSvc,
		TeacherSvc:  p.TeacherSvc,
		FinanceSvc:  p.FinanceSvc,
		BillingSvc:  p.BillingSvc,
		Notifier:    p.Notifier,
		Idempotency: p.Idempotency,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	// ambient
	must(c.Provide(core.NewConfig))
	must(c.Provide(newZapLogger))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newClock))
	must(c.Provide(billingConfig))
	must(c.Provide(adminEmails))
	must(c.Provide(validator.New))
	must(c.Provide(newTranslator))

	// storage
	must(c.Provide(newDB))
	must(c.Provide(database.NewTransactor))
	must(c.Provide(sqlxrepos.NewStudentRepository))
	must(c.Provide(sqlxrepos.NewTeacherRepository))
	must(c.Provide(sqlxrepos.NewTransactionRepository))
	must(c.Provide(newIdempotencyStore))
	must(c.Provide(newEmailService))

	// services
	must(c.Provide(student.NewEvaluator))
	must(c.Provide(student.NewService))
	must(c.Provide(teacher.NewService))
	must(c.Provide(finance.NewService))
	must(c.Provide(billing.NewService))
	must(c.Provide(billing.NewNotifier))

	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
