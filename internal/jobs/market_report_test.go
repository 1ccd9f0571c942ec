package jobs

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"agropulse/internal/services/market"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func table() *market.Table {
	d := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return market.NewTable([]market.Record{
		{Date: d, State: "Punjab", District: "Ludhiana", Market: "Khanna", Commodity: "Wheat", MinPrice: 1900, MaxPrice: 2100, ModalPrice: 2000},
		{Date: d, State: "Gujarat", District: "Rajkot", Market: "Gondal", Commodity: "Groundnut", MinPrice: 5200, MaxPrice: 6100, ModalPrice: 5800},
	})
}

func TestMarketReportRun(t *testing.T) {
	dir := t.TempDir()
	job := &MarketReport{
		Table:   table(),
		Dir:     dir,
		Options: market.DefaultOptions(),
		Now:     func() time.Time { return time.Date(2024, 3, 5, 6, 30, 0, 0, time.UTC) },
	}
	path, err := job.Run()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "market_report_20240305_0630.xlsx"), path)
	st, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, st.Size())
}

func TestMarketReportRejectsBrokenTable(t *testing.T) {
	job := &MarketReport{Dir: t.TempDir()}
	_, err := job.Run()
	assert.Error(t, err)
}

func TestSchedule(t *testing.T) {
	sched, err := Schedule("0 6 * * *")
	require.NoError(t, err)
	from := time.Date(2024, 3, 5, 7, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 6, 6, 0, 0, 0, time.UTC), sched.Next(from))

	_, err = Schedule("@daily")
	assert.NoError(t, err)
	_, err = Schedule("0 0 6 * * *")
	assert.Error(t, err)
}

func TestStartMarketReports(t *testing.T) {
	job := &MarketReport{Table: table(), Dir: t.TempDir()}
	assert.NoError(t, StartMarketReports(context.Background(), "", job))
	assert.Error(t, StartMarketReports(context.Background(), "whenever", job))
}

type everyTick struct{ d time.Duration }

func (e everyTick) Next(t time.Time) time.Time { return t.Add(e.d) }

func TestLoopStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var runs atomic.Int32
	done := make(chan struct{})
	go func() {
		loop(ctx, everyTick{5 * time.Millisecond}, func() {
			if runs.Add(1) == 3 {
				cancel()
			}
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop after cancel")
	}
	assert.GreaterOrEqual(t, runs.Load(), int32(3))
}
