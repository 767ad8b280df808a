package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rs/zerolog"

	"github.com/aristath/setuptrader/internal/config"
	"github.com/aristath/setuptrader/internal/domain"
	"github.com/aristath/setuptrader/internal/hostmetrics"
	"github.com/aristath/setuptrader/internal/pipeline"
	"github.com/aristath/setuptrader/internal/postprocess"
	"github.com/aristath/setuptrader/internal/pricesource"
	"github.com/aristath/setuptrader/internal/progress"
	"github.com/aristath/setuptrader/internal/scheduler"
	"github.com/aristath/setuptrader/internal/server"
	"github.com/aristath/setuptrader/internal/snapshot"
	"github.com/aristath/setuptrader/internal/universe"

	"github.com/aristath/setuptrader/pkg/logger"
)

var (
	runDataDir   string
	runServe     bool
	runAddr      string
	runCron      string
	runJSON      bool
	runBreadth   float64
	runYield     float64
	runSpread    float64
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one screening pass over the instrument universe",
	RunE:  runRun,
}

func init() {
	runCmd.Flags().StringVar(&runDataDir, "data-dir", "data/prices", "directory of per-ticker OHLCV CSV fixtures")
	runCmd.Flags().BoolVar(&runServe, "serve", false, "after the initial run, keep the HTTP server (and any --cron schedule) running")
	runCmd.Flags().StringVar(&runAddr, "addr", ":8080", "HTTP listen address when --serve is set")
	runCmd.Flags().StringVar(&runCron, "cron", "", "6-field cron expression for periodic runs when --serve is set")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "print the run report as JSON instead of text")
	runCmd.Flags().Float64Var(&runBreadth, "breadth-pct", 0.65, "fraction of the universe trading above its 200-bar EMA, for regime detection")
	runCmd.Flags().Float64Var(&runYield, "yield-curve-bps", 50, "10y-2y yield curve spread in basis points, for regime detection")
	runCmd.Flags().Float64Var(&runSpread, "credit-spread-bps", 100, "high-yield credit spread in basis points, for regime detection")
	rootCmd.AddCommand(runCmd)
}

type runner struct {
	cfg      config.Config
	universe universe.Universe
	source   pricesource.Source
	store    *snapshot.Store
	hub      *progress.Hub
	regime   domain.Regime
}

func (r *runner) TriggerRun(ctx context.Context) error {
	started := time.Now()
	workers := r.cfg.WorkerCount
	if workers <= 0 {
		snap, err := hostmetrics.Sample(ctx)
		if err == nil {
			workers = hostmetrics.DefaultWorkerCount(snap)
		} else {
			workers = 1
		}
	}

	result := pipeline.Run(ctx, r.cfg, r.universe, r.source, r.regime, workers, logger.New(logger.Config{Level: r.cfg.LogLevel, Pretty: r.cfg.LogPretty}))
	setups := pipeline.RankResult(result, r.cfg.TopN)

	rec, err := r.store.Write(started, time.Now(), result.Partial, setups, result.Rejections)
	if err != nil {
		return err
	}

	if r.hub != nil {
		r.hub.Publish(progress.Event{RunID: rec.RunID, Done: len(result.Setups) + len(result.Rejections), Total: len(r.universe.Instruments), Completed: true})
	}
	return nil
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return withExitCode(1, err)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})

	u, err := universe.Load(cfg.UniversePath)
	if err != nil {
		return withExitCode(1, err)
	}
	if len(u.Instruments) == 0 {
		return withExitCode(2, fmt.Errorf("universe %s contains no instruments", cfg.UniversePath))
	}

	store, err := snapshot.Open(cfg.SnapshotDir)
	if err != nil {
		return withExitCode(4, err)
	}
	defer store.Close()

	regime := deriveRegimeFromFlags()

	r := &runner{
		cfg:      cfg,
		universe: u,
		source:   pricesource.NewFixtureSource(runDataDir),
		store:    store,
		hub:      progress.NewHub(),
		regime:   regime,
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Warn().Msg("cancellation requested, letting in-flight instruments finish")
		cancel()
	}()

	if err := r.TriggerRun(ctx); err != nil {
		return withExitCode(4, err)
	}

	if err := ctx.Err(); err != nil {
		return withExitCode(3, &domain.CancellationRequested{})
	}

	runID, ok, err := store.Latest()
	if err != nil {
		return withExitCode(4, err)
	}
	if ok {
		rec, err := store.Read(runID)
		if err != nil {
			return withExitCode(4, err)
		}
		printReport(rec)
	}

	if runServe {
		return serveForever(ctx, r, log)
	}
	return nil
}

func deriveRegimeFromFlags() domain.Regime {
	return postprocess.DeriveRegime(domain.RegimeInputs{
		BreadthPct:      runBreadth,
		YieldCurveBps:   runYield,
		CreditSpreadBps: runSpread,
	})
}

// serveForever keeps the HTTP API (and, if --cron is set, a periodic
// scheduler) running until the process receives a termination signal.
func serveForever(ctx context.Context, r *runner, log zerolog.Logger) error {
	srv := server.New(r.store, r.hub, r, log)
	httpServer := &http.Server{Addr: runAddr, Handler: srv}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	var sched *scheduler.Scheduler
	if runCron != "" {
		sched = scheduler.New(r, log)
		if _, err := sched.Schedule(runCron); err != nil {
			return withExitCode(1, err)
		}
		sched.Start()
		defer sched.Stop()
	}

	log.Info().Str("addr", runAddr).Msg("serving HTTP API")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return withExitCode(4, err)
	}
	return nil
}

func printReport(rec snapshot.Record) {
	if runJSON {
		body, _ := json.MarshalIndent(rec, "", "  ")
		fmt.Println(string(body))
		return
	}

	fmt.Printf("run %s (partial=%v): %d setups, %d rejections\n", rec.RunID, rec.Partial, len(rec.Setups), len(rec.Rejections))
	for _, s := range rec.Setups {
		fmt.Printf("  %-10s %-8s score=%.1f ev=%.4f pos=%.2f%% (%.0f)\n", s.Ticker, s.Tier, s.Score, s.ExpectedValue, s.PositionPct*100, s.PositionCurrency)
	}
}
