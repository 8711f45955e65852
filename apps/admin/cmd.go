package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/trezcool/madrasa/core"
	"github.com/trezcool/madrasa/core/billing"
	"github.com/trezcool/madrasa/core/student"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db       *sql.DB
	students *student.Service
	billing  *billing.Service
	notifier *billing.Notifier
	mailSvc  core.EmailService
	days     int // default look-ahead of expiring
	out      io.Writer
}

func (cli *commandLine) printUsage() {
	_, _ = fmt.Fprintln(cli.out, "Usage:")
	_, _ = fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]                                   - run a goose command (up, down, status, ...)")
	_, _ = fmt.Fprintln(cli.out, "  pay -student ID -amount AMOUNT                           - record a subscription payment")
	_, _ = fmt.Fprintln(cli.out, "  payout -teacher ID -amount AMOUNT [-description TEXT]    - record a teacher payout")
	_, _ = fmt.Fprintln(cli.out, "  earnings -teacher ID                                     - print a teacher's earnings")
	_, _ = fmt.Fprintln(cli.out, "  expiring [-days N] [-notify]                             - list (or email) the subscriptions expiring soon")
}

func (cli *commandLine) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}
	ctx := context.Background()

	switch args[1] {
	case "migrate":
		return cli.migrate(args[2:])

	case "pay":
		payCmd := cli.newFlagSet("pay")
		studentID := payCmd.String("student", "", "The student's ID.")
		amount := payCmd.Int64("amount", 0, "The amount paid.")
		if err := payCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *studentID == "" || *amount == 0 {
			payCmd.Usage()
			return errHelp
		}
		res, err := cli.billing.RecordPayment(ctx, *studentID, *amount)
		if err != nil {
			return err
		}
		return cli.print(res)

	case "payout":
		payoutCmd := cli.newFlagSet("payout")
		teacherID := payoutCmd.String("teacher", "", "The teacher's ID.")
		amount := payoutCmd.Int64("amount", 0, "The amount paid out.")
		description := payoutCmd.String("description", "", "Optional ledger description.")
		if err := payoutCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *teacherID == "" || *amount == 0 {
			payoutCmd.Usage()
			return errHelp
		}
		tx, err := cli.billing.RecordPayout(ctx, *teacherID, *amount, *description)
		if err != nil {
			return err
		}
		return cli.print(tx)

	case "earnings":
		earningsCmd := cli.newFlagSet("earnings")
		teacherID := earningsCmd.String("teacher", "", "The teacher's ID.")
		if err := earningsCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *teacherID == "" {
			earningsCmd.Usage()
			return errHelp
		}
		earn, err := cli.billing.TeacherEarnings(ctx, *teacherID)
		if err != nil {
			return err
		}
		return cli.print(earn)

	case "expiring":
		expiringCmd := cli.newFlagSet("expiring")
		days := expiringCmd.Int("days", cli.days, "Look-ahead in days.")
		notify := expiringCmd.Bool("notify", false, "Email the list to the staff instead of printing it.")
		if err := expiringCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *days <= 0 {
			expiringCmd.Usage()
			return errHelp
		}
		if *notify {
			n, err := cli.notifier.SendExpiringDigest(ctx, *days)
			if err != nil {
				return err
			}
			// the process exits right after run returns
			cli.mailSvc.Wait()
			_, _ = fmt.Fprintf(cli.out, "%d student(s) listed\n", n)
			return nil
		}
		snaps, err := cli.students.Expiring(ctx, *days)
		if err != nil {
			return err
		}
		return cli.print(snaps)

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) print(v interface{}) error {
	enc := json.NewEncoder(cli.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
