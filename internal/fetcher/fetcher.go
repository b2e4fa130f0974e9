package fetcher

import (
	"context"
	"errors"
	"fmt"
	"playconsole-backend/internal/components/alert"
	"playconsole-backend/internal/components/assert"
	"playconsole-backend/internal/components/chrono"
	"playconsole-backend/internal/components/telemetry"
	"playconsole-backend/internal/reportstore"
	"playconsole-backend/internal/scrapers/console"
	"strings"
	"time"
)

const (
	report_fetcher_fetch   = "fetcher.fetch"
	report_fetcher_store   = "fetcher.store"
	report_fetcher_alert   = "fetcher.alert"
	report_fetcher_fetched = "fetcher.fetched"
)

var (
	kindSalesReport          = console.KindOf(console.SalesReport{})
	kindEstimatedSalesReport = console.KindOf(console.EstimatedSalesReport{})
	kindAppStats             = console.KindOf(console.AppStats{})
)

// Reporter is the part of the console client the fetcher uses.
//
// note: fault injection point
type Reporter interface {
	GetSalesReport(ctx context.Context, year, month int, accountID string) (string, error)
	GetEstimatedSalesReport(ctx context.Context, year, month int, accountID string) (string, error)
	GetAppStats(ctx context.Context, pkg string, startDay, endDay time.Time) ([]byte, error)
}

type Options struct {
	// MonthsBack is the number of finished months whose reports are fetched.
	MonthsBack int
	// Packages are the applications whose statistics are fetched.
	Packages []string
	// StatsDays is the number of days of statistics fetched, ending yesterday.
	StatsDays int
	// Keep is the number of versions kept of reports that are fetched again
	// on every run, 0 keeps all of them.
	Keep int
}

// Fetcher periodically copies reports from the console into the store.
type Fetcher struct {
	reporter Reporter
	store    reportstore.Store
	clock    chrono.API
	alert    alert.API
	tel      telemetry.API
	opts     Options
}

func NewFetcher(
	reporter Reporter,
	store reportstore.Store,
	clock chrono.API,
	alerter alert.API,
	opts Options,
	tel telemetry.API,
) Fetcher {
	assert.NotNil(reporter)
	assert.NotNil(clock)
	assert.NotNil(alerter)
	assert.NotNil(tel)

	if opts.MonthsBack <= 0 {
		opts.MonthsBack = 1
	}
	if opts.StatsDays <= 0 {
		opts.StatsDays = 7
	}

	return Fetcher{
		reporter: reporter,
		store:    store,
		clock:    clock,
		alert:    alerter,
		tel:      telemetry.NewScopedAPI("fetcher", tel),
		opts:     opts,
	}
}

func monthKey(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

// needsHuman reports whether an error cannot go away by itself.
func needsHuman(err error) bool {
	var mismatch *console.TemplateMismatchError
	var auth *console.AuthRequiredError
	return errors.As(err, &mismatch) || errors.As(err, &auth)
}

func (f Fetcher) save(ctx context.Context, kind, key, contentKind string, body []byte, fetchedAt time.Time) error {
	err := f.store.Save(ctx, reportstore.Report{
		Kind:        kind,
		Key:         key,
		FetchedAt:   fetchedAt,
		ContentKind: contentKind,
		Body:        body,
	})
	if err != nil {
		f.tel.ReportBroken(report_fetcher_store, err, kind, key)
		return err
	}
	if f.opts.Keep > 0 {
		_, err = f.store.Prune(ctx, kind, key, f.opts.Keep)
		if err != nil {
			f.tel.ReportWarning(report_fetcher_store, err, kind, key)
		}
	}
	return nil
}

// Run fetches one round of reports. Failures of single reports do not stop
// the round, they are joined into the returned error.
func (f Fetcher) Run(ctx context.Context) error {
	now := f.clock.Now()
	var errs []error
	fetched := 0

	fail := func(kind, key string, err error) {
		f.tel.ReportWarning(report_fetcher_fetch, err, kind, key)
		errs = append(errs, fmt.Errorf("%s %s: %w", kind, key, err))
	}

	months := chrono.PreviousMonths(now, f.opts.MonthsBack)

	for _, ym := range months {
		key := monthKey(ym[0], ym[1])
		// payout reports of finished months never change
		_, err := f.store.Latest(ctx, kindSalesReport, key)
		if err == nil {
			continue
		}
		if !errors.Is(err, reportstore.ErrNotFound) {
			fail(kindSalesReport, key, err)
			continue
		}

		text, err := f.reporter.GetSalesReport(ctx, ym[0], ym[1], "")
		if err != nil {
			fail(kindSalesReport, key, err)
			continue
		}
		err = f.save(ctx, kindSalesReport, key, "csv", []byte(text), now)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		fetched++
	}

	estimatedMonths := append([][2]int{{now.Year(), int(now.Month())}}, months...)
	for _, ym := range estimatedMonths {
		key := monthKey(ym[0], ym[1])
		text, err := f.reporter.GetEstimatedSalesReport(ctx, ym[0], ym[1], "")
		if err != nil {
			fail(kindEstimatedSalesReport, key, err)
			continue
		}
		err = f.save(ctx, kindEstimatedSalesReport, key, "csv", []byte(text), now)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		fetched++
	}

	yesterday := time.Date(now.Year(), now.Month(), now.Day()-1, 0, 0, 0, 0, now.Location())
	start := yesterday.AddDate(0, 0, -(f.opts.StatsDays - 1))
	for _, pkg := range f.opts.Packages {
		archive, err := f.reporter.GetAppStats(ctx, pkg, start, yesterday)
		if err != nil {
			fail(kindAppStats, pkg, err)
			continue
		}
		err = f.save(ctx, kindAppStats, pkg, "zip", archive, now)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		fetched++
	}

	f.tel.ReportCount(report_fetcher_fetched, int64(fetched))

	err := errors.Join(errs...)
	if err != nil && needsHuman(err) {
		f.notify(ctx, errs)
	}
	return err
}

func (f Fetcher) notify(ctx context.Context, errs []error) {
	var body strings.Builder
	body.WriteString("The play console scraper needs attention, the following reports failed:\n\n")
	for _, err := range errs {
		body.WriteString("- ")
		body.WriteString(err.Error())
		body.WriteString("\n")
	}
	err := f.alert.Alert(ctx, "play console scraper needs attention", body.String())
	if err != nil {
		f.tel.ReportWarning(report_fetcher_alert, err)
	}
}
