// Package jobs runs background work on a cron schedule.
package jobs

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"agropulse/internal/services/market"

	"github.com/robfig/cron/v3"
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// MarketReport writes the mandi price workbook into Dir.
type MarketReport struct {
	Table       *market.Table
	Dir         string
	Commodities []string
	Options     market.Options
	Now         func() time.Time
}

// Run writes one report and returns its path.
func (j *MarketReport) Run() (string, error) {
	if err := j.Table.SchemaErr(); err != nil {
		return "", fmt.Errorf("market report: %w", err)
	}
	now := time.Now
	if j.Now != nil {
		now = j.Now
	}
	path, err := market.WriteReportFile(j.Dir, j.Table, j.Commodities, j.Options, now())
	if err != nil {
		return "", fmt.Errorf("market report: %w", err)
	}
	return path, nil
}

// Schedule parses a standard 5-field cron expression or a descriptor such
// as @daily.
func Schedule(spec string) (cron.Schedule, error) {
	sched, err := parser.Parse(strings.TrimSpace(spec))
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return sched, nil
}

// StartMarketReports runs job on spec until ctx is done. An empty spec
// disables the scheduler.
func StartMarketReports(ctx context.Context, spec string, job *MarketReport) error {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		log.Println("[jobs] market report disabled (report_schedule not set)")
		return nil
	}
	sched, err := Schedule(spec)
	if err != nil {
		return err
	}
	log.Printf("[jobs] market report scheduled (cron: %s) into %s", spec, job.Dir)

	go loop(ctx, sched, func() {
		path, err := job.Run()
		if err != nil {
			log.Printf("[jobs] %v", err)
			return
		}
		log.Printf("[jobs] market report written to %s", path)
	})
	return nil
}

func loop(ctx context.Context, sched cron.Schedule, run func()) {
	for {
		now := time.Now()
		next := sched.Next(now)
		wait := next.Sub(now)
		log.Printf("[jobs] next market report at %s (in %s)", next.Format("Mon Jan 2 15:04"), wait.Round(time.Minute))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		run()
	}
}
