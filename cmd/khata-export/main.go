// Command khata-export writes one statement and exits.
//
//	khata-export -account acc-1 -month 2024-03
//	khata-export -account acc-1 -person <id> -month 2024-03
//	khata-export -account acc-1 -commodity tori
//	khata-export -account acc-1 -day 2024-03-15 -side income
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"khata/internal/cli"
	"khata/internal/core"
	"khata/internal/log"
	"khata/internal/report"
	"khata/internal/services"
	"khata/internal/store"
)

type options struct {
	account   string
	month     string
	person    string
	commodity string
	day       string
	side      string
}

func main() {
	var opts options
	flag.StringVar(&opts.account, "account", "", "account id (required)")
	flag.StringVar(&opts.month, "month", "", "month as YYYY-MM; defaults to the current month")
	flag.StringVar(&opts.person, "person", "", "export the ledger of this person id")
	flag.StringVar(&opts.commodity, "commodity", "", "export a commodity book (tori or wanda)")
	flag.StringVar(&opts.day, "day", "", "export one day as YYYY-MM-DD")
	flag.StringVar(&opts.side, "side", string(core.SideExpense), "side of the daily report (income or expense)")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentReport)
	cfg := cli.LoadAndValidateConfig(logger)

	if opts.account == "" {
		fmt.Fprintln(os.Stderr, "khata-export: -account is required")
		flag.Usage()
		os.Exit(2)
	}

	ctx := context.Background()
	res := cli.InitStore(ctx, logger, cfg)
	svc := services.NewLedgerService(res.Store, nil)
	defer svc.Close()

	exporter, err := cli.NewExporter(ctx, logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize statement exporter", log.FieldError, err)
		os.Exit(1)
	}

	st, err := build(ctx, svc, opts, time.Now())
	if err != nil {
		logger.Error("Failed to build statement", log.FieldAccount, opts.account, log.FieldError, err)
		os.Exit(1)
	}
	st.Account = opts.account
	if err := exporter.Export(ctx, st); err != nil {
		logger.Error("Export failed", log.FieldError, err)
		os.Exit(1)
	}
}

// build picks the statement named by the flags. The monthly statement is
// the default.
func build(ctx context.Context, svc *services.LedgerService, opts options, now time.Time) (report.Statement, error) {
	sess := store.NewSession(opts.account)

	month := core.CurrentMonth(now)
	if opts.month != "" {
		m, err := core.ParseMonthKey(opts.month)
		if err != nil {
			return report.Statement{}, err
		}
		month = m
	}

	switch {
	case opts.commodity != "":
		book, err := svc.Commodity(ctx, sess, opts.commodity)
		if err != nil {
			return report.Statement{}, err
		}
		return report.CommodityStatement(book.Summary, book.Records, now), nil
	case opts.person != "":
		pl, err := svc.PersonLedger(ctx, sess, opts.person, month)
		if err != nil {
			return report.Statement{}, err
		}
		return report.PersonStatement(pl.Standing, pl.Entries, now), nil
	case opts.day != "":
		date, err := core.ParseDate(opts.day)
		if err != nil {
			return report.Statement{}, err
		}
		side, err := core.ParseSide(opts.side)
		if err != nil {
			return report.Statement{}, err
		}
		d, err := svc.DayDetail(ctx, sess, date, side)
		if err != nil {
			return report.Statement{}, err
		}
		return report.DailyStatement(d, now), nil
	default:
		ms, err := svc.Statement(ctx, sess, month)
		if err != nil {
			return report.Statement{}, err
		}
		return report.MonthlyStatement(ms.Dashboard, ms.Lines, now), nil
	}
}
