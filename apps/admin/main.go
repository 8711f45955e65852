package main

import (
	"fmt"
	"log"
	"os"

	"github.com/trezcool/madrasa/core"
	"github.com/trezcool/madrasa/core/billing"
	"github.com/trezcool/madrasa/core/student"
	appfs "github.com/trezcool/madrasa/fs"
	emailsvc "github.com/trezcool/madrasa/services/email"
	logsvc "github.com/trezcool/madrasa/services/logger"
	"github.com/trezcool/madrasa/storage/database"
	sqlxrepos "github.com/trezcool/madrasa/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()

	zl, err := logsvc.NewZapLogger(conf.Log, conf.Debug)
	if err != nil {
		log.Fatalf("building zap logger: %v", err)
	}
	logger := logsvc.NewRollbarLogger(zl.Named("admin"), conf)
	defer logger.Sync()

	// set up DB
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}
	defer db.Close()

	core.ParseEmailTemplates(appfs.FS, appfs.EmailTemplatesDir, logger)

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	clock := core.SystemClock
	studentRepo := sqlxrepos.NewStudentRepository(db)
	teacherRepo := sqlxrepos.NewTeacherRepository(db)
	students := student.NewService(studentRepo, teacherRepo, clock, student.NewEvaluator(conf.Billing))

	// start CLI
	cli := commandLine{
		db:       db,
		students: students,
		billing: billing.NewService(
			studentRepo, teacherRepo, sqlxrepos.NewTransactionRepository(db),
			database.NewTransactor(db), clock, conf.Billing, logger,
		),
		notifier: billing.NewNotifier(students, mailSvc, conf.AdminEmails, clock, logger),
		mailSvc:  mailSvc,
		days:     conf.Billing.ExpiringDays,
		out:      os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("admin: %v", err), err)
		}
		logger.Sync()
		os.Exit(1)
	}
}
