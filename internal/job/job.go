package job

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Armin-kho/fx-crossrates/internal/crossrate"
	"github.com/Armin-kho/fx-crossrates/internal/db"
	"github.com/Armin-kho/fx-crossrates/internal/metrics"
	"github.com/Armin-kho/fx-crossrates/internal/notify"
	"github.com/Armin-kho/fx-crossrates/internal/render"
	"github.com/Armin-kho/fx-crossrates/internal/utils"
)

const successBody = "Successfully updated exchange rates"

// reportTimeout bounds notification and metrics push after the run itself.
const reportTimeout = 30 * time.Second

type RateSource interface {
	Latest(ctx context.Context) (crossrate.RateMap, error)
}

type Store interface {
	PutRecord(ctx context.Context, r db.Record) error
}

type Settings struct {
	RecordKey string
	UpdatedBy string
	Location  *time.Location
	Jalali    bool
	Debug     bool
}

// Result mirrors what the external trigger gets back from one invocation.
type Result struct {
	StatusCode int
	Body       string
	RunID      string
	Bundle     *crossrate.Bundle
}

func (r Result) OK() bool { return r.StatusCode == http.StatusOK }

// Runner performs one fetch -> compute -> store -> notify cycle per Run.
// Runs are expected to be serialized by the caller.
type Runner struct {
	src     RateSource
	calc    *crossrate.Calculator
	store   Store
	notify  notify.Notifier
	metrics *metrics.RunMetrics
	clock   utils.Clock
	cfg     Settings
}

func New(src RateSource, calc *crossrate.Calculator, store Store, notifier notify.Notifier, m *metrics.RunMetrics, clock utils.Clock, cfg Settings) *Runner {
	if clock == nil {
		clock = utils.SystemClock{}
	}
	if notifier == nil {
		notifier = notify.Log{}
	}
	if cfg.Location == nil {
		cfg.Location = calc.Location
	}
	return &Runner{
		src:     src,
		calc:    calc,
		store:   store,
		notify:  notifier,
		metrics: m,
		clock:   clock,
		cfg:     cfg,
	}
}

func (r *Runner) Run(ctx context.Context) Result {
	runID := uuid.NewString()
	started := time.Now()
	opts := render.Options{RunID: runID, Location: r.cfg.Location, Jalali: r.cfg.Jalali}

	bundle, at, err := r.update(ctx, runID)

	// Reporting outlives a cancelled run so the operator still hears about it.
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), reportTimeout)
	defer cancel()

	if err != nil {
		msg := fmt.Sprintf("execution failed: %v", err)
		log.Printf("[job] run %s: %s", runID, msg)
		if nerr := r.notify.Notify(rctx, render.Failure(err, opts)); nerr != nil {
			log.Printf("[job] run %s: failure notification: %v", runID, nerr)
		}
		r.finish(rctx, "failure", started, r.clock.Now())
		return Result{StatusCode: http.StatusInternalServerError, Body: msg, RunID: runID}
	}

	log.Printf("[job] run %s: stored %q", runID, r.cfg.RecordKey)
	if nerr := r.notify.Notify(rctx, render.Success(bundle, opts)); nerr != nil {
		log.Printf("[job] run %s: success notification: %v", runID, nerr)
	}
	r.metrics.ObserveBundle(bundle)
	r.finish(rctx, "success", started, at)
	return Result{StatusCode: http.StatusOK, Body: successBody, RunID: runID, Bundle: &bundle}
}

// update captures one instant and uses it for the bundle and the record.
func (r *Runner) update(ctx context.Context, runID string) (crossrate.Bundle, time.Time, error) {
	rates, err := r.src.Latest(ctx)
	if err != nil {
		return crossrate.Bundle{}, time.Time{}, err
	}
	if r.cfg.Debug {
		log.Printf("[job] run %s: provider rates %v", runID, rates)
	}

	at := r.clock.Now()
	bundle, err := r.calc.ComputeAt(rates, at)
	if err != nil {
		return crossrate.Bundle{}, time.Time{}, err
	}

	value, err := json.Marshal(bundle)
	if err != nil {
		return crossrate.Bundle{}, time.Time{}, fmt.Errorf("encode bundle: %w", err)
	}
	err = r.store.PutRecord(ctx, db.Record{
		Key:       r.cfg.RecordKey,
		Value:     value,
		UpdatedAt: at,
		UpdatedBy: r.cfg.UpdatedBy,
		RunID:     runID,
	})
	if err != nil {
		return crossrate.Bundle{}, time.Time{}, fmt.Errorf("store rates: %w", err)
	}
	return bundle, at, nil
}

func (r *Runner) finish(ctx context.Context, status string, started, at time.Time) {
	r.metrics.ObserveRun(status, time.Since(started), at)
	if err := r.metrics.Push(ctx); err != nil {
		log.Printf("[job] push metrics: %v", err)
	}
}
