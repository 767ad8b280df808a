// Package pipeline runs the full per-instrument analysis (detection,
// evaluation, screening, post-processing) across the universe with a
// bounded worker pool, then hands the survivors to the ranker. It owns
// the per-instrument timeout and cooperative cancellation contract from
// spec §5/§7: an in-flight instrument is allowed to finish, no new
// instrument starts once the run is stopped, and the result is marked
// partial rather than discarded.
//
// Screening (data fetch through screener.Screen) is embarrassingly
// parallel and runs across the worker pool. Post-processing is not: the
// sector cap tracker is a shared, order-sensitive accumulator, so it
// must see candidates in one fixed, deterministic order regardless of
// which worker finished screening first or how many workers ran (spec
// §8's "worker_count=1 and worker_count=8 ... byte-identical" scenario).
// Run therefore collects every screened candidate first, sorts them by
// the same (tier, robust_score, ticker) key the ranker uses, and only
// then walks that fixed order through post-processing single-threaded.
package pipeline

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/setuptrader/internal/config"
	"github.com/aristath/setuptrader/internal/domain"
	"github.com/aristath/setuptrader/internal/marketdata"
	"github.com/aristath/setuptrader/internal/patterns"
	"github.com/aristath/setuptrader/internal/postprocess"
	"github.com/aristath/setuptrader/internal/pricesource"
	"github.com/aristath/setuptrader/internal/ranker"
	"github.com/aristath/setuptrader/internal/screener"
	"github.com/aristath/setuptrader/internal/universe"
)

// Result is the full output of one pipeline run, before ranking truncates
// it to the top N.
type Result struct {
	Setups     []domain.Setup
	Rejections []domain.Rejection
	Partial    bool
}

// Run screens every instrument in u concurrently across cfg.WorkerCount
// workers (falling back to the caller-supplied default when 0), then
// post-processes every screened candidate in a single deterministic
// pass, and returns every surviving Setup plus every Rejection. ctx
// cancellation stops new instrument starts but lets in-flight
// instruments finish; the result is marked Partial in that case.
func Run(ctx context.Context, cfg config.Config, u universe.Universe, source pricesource.Source, regime domain.Regime, workerCount int, log zerolog.Logger) Result {
	if workerCount <= 0 {
		workerCount = 1
	}

	instruments := u.Instruments
	jobs := make(chan universe.Instrument)
	results := make(chan scoreOutcome, len(instruments))

	var wg sync.WaitGroup
	for w := 0; w < workerCount; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for inst := range jobs {
				results <- processOne(ctx, cfg, inst, source, log)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, inst := range instruments {
			if ctx.Err() != nil {
				return
			}
			select {
			case <-ctx.Done():
				return
			case jobs <- inst:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var scored []scoreOutcome
	var rejections []domain.Rejection
	processed := 0
	for outcome := range results {
		processed++
		if outcome.rejection != nil {
			rejections = append(rejections, *outcome.rejection)
			continue
		}
		scored = append(scored, outcome)
	}

	setups, postRejections := postProcessSequential(cfg, scored, regime)
	rejections = append(rejections, postRejections...)

	return Result{
		Setups:     setups,
		Rejections: rejections,
		Partial:    processed < len(instruments),
	}
}

// sortScored orders screened candidates by the same (tier desc,
// robust_score desc, ticker asc) key the ranker uses, so the fixed order
// post-processing walks is independent of worker count or completion
// order.
func sortScored(scored []scoreOutcome) {
	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i].score, scored[j].score
		if a.BestPattern.Tier.Rank() != b.BestPattern.Tier.Rank() {
			return a.BestPattern.Tier.Rank() > b.BestPattern.Tier.Rank()
		}
		if a.Robust.RobustScore != b.Robust.RobustScore {
			return a.Robust.RobustScore > b.Robust.RobustScore
		}
		return a.Ticker < b.Ticker
	})
}

// postProcessSequential sorts scored into its fixed deterministic order
// and walks it single-threaded through post-processing, so the shared
// SectorCapTracker sees candidates in the same order no matter how many
// workers screened them or in what order they finished.
func postProcessSequential(cfg config.Config, scored []scoreOutcome, regime domain.Regime) ([]domain.Setup, []domain.Rejection) {
	ordered := make([]scoreOutcome, len(scored))
	copy(ordered, scored)
	sortScored(ordered)

	sectorCap := postprocess.NewSectorCapTracker(cfg.SectorCapPct)
	var setups []domain.Setup
	var rejections []domain.Rejection
	for _, o := range ordered {
		setup, rejection := postprocess.Run(cfg, o.score, o.instCtx, regime, sectorCap)
		if rejection != nil {
			rejections = append(rejections, *rejection)
			continue
		}
		setups = append(setups, setup)
	}
	return setups, rejections
}

// scoreOutcome is the parallel-safe output of screening one instrument:
// either a candidate ready for the deterministic post-processing pass, or
// a rejection.
type scoreOutcome struct {
	score     domain.PositionTradingScore
	instCtx   postprocess.InstrumentContext
	rejection *domain.Rejection
}

// processOne runs one instrument's screening under a bounded timeout. The
// timeout is detached from the run's cancellation, so an instrument that
// has already started is allowed to finish after the run is cancelled.
func processOne(ctx context.Context, cfg config.Config, inst universe.Instrument, source pricesource.Source, log zerolog.Logger) scoreOutcome {
	timeout := time.Duration(cfg.InstrumentTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	instCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	done := make(chan scoreOutcome, 1)
	go func() {
		done <- screenOne(cfg, inst, source)
	}()

	select {
	case out := <-done:
		return out
	case <-instCtx.Done():
		log.Warn().Str("ticker", inst.Ticker).Msg("instrument timed out")
		return scoreOutcome{rejection: &domain.Rejection{
			Ticker: inst.Ticker, Stage: "pipeline", Reason: "timeout",
			Detail: instCtx.Err().Error(),
		}}
	}
}

func screenOne(cfg config.Config, inst universe.Instrument, source pricesource.Source) scoreOutcome {
	history, err := source.Fetch(inst.Ticker, time.Now(), 10)
	if err != nil {
		return scoreOutcome{rejection: &domain.Rejection{Ticker: inst.Ticker, Stage: "data", Reason: "fetch_failed", Detail: err.Error()}}
	}
	if err := history.Validate(); err != nil {
		return scoreOutcome{rejection: &domain.Rejection{Ticker: inst.Ticker, Stage: "data", Reason: "invalid_history", Detail: err.Error()}}
	}

	md := marketdata.New(domain.MarketDataID(inst.Ticker), history)

	earningsRisk := screener.EarningsRisk(inst.EarningsRisk)
	score, rejection := screener.Screen(md, patterns.Default(), cfg, cfg.RandomSeed, earningsRisk)
	if rejection != nil {
		return scoreOutcome{rejection: rejection}
	}

	closes := md.Closes()
	last := len(closes) - 1
	ema200 := md.EMA(200)
	atr := md.ATR(14)

	instCtx := postprocess.InstrumentContext{
		Sector:     inst.Sector,
		Geography:  inst.Geography,
		Liquidity:  inst.Liquidity,
		AllWeather: inst.IsAllWeather,
		Defensive:  inst.Defensive,
		Close:      closes[last],
	}
	if !marketdata.Is(ema200[last]) {
		instCtx.EMA200 = ema200[last]
	}
	if !marketdata.Is(atr[last]) {
		instCtx.ATR = atr[last]
		if instCtx.Close != 0 {
			instCtx.ATRPct = instCtx.ATR / instCtx.Close
		}
	}
	var atrPctSum float64
	atrPctCount := 0
	for i := last; i >= 0 && i > last-20; i-- {
		if marketdata.Is(atr[i]) || closes[i] == 0 {
			continue
		}
		atrPctSum += atr[i] / closes[i]
		atrPctCount++
	}
	if atrPctCount > 0 {
		instCtx.ATRPctRollingMean = atrPctSum / float64(atrPctCount)
	}

	return scoreOutcome{score: score, instCtx: instCtx}
}

// RankResult applies the deterministic ranker to a pipeline Result.
func RankResult(result Result, topN int) []domain.Setup {
	return ranker.Rank(result.Setups, topN, result.Partial)
}
