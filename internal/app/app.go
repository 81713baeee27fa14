package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/Armin-kho/fx-crossrates/internal/config"
	"github.com/Armin-kho/fx-crossrates/internal/crossrate"
	"github.com/Armin-kho/fx-crossrates/internal/db"
	"github.com/Armin-kho/fx-crossrates/internal/job"
	"github.com/Armin-kho/fx-crossrates/internal/metrics"
	"github.com/Armin-kho/fx-crossrates/internal/notify"
	"github.com/Armin-kho/fx-crossrates/internal/sources"
	"github.com/Armin-kho/fx-crossrates/internal/utils"
)

type App struct {
	cfg config.Config
	db  *db.DB

	runner *job.Runner
}

// New opens the store and wires the job. The notifier is built lazily by
// NewNotifier so that show/backup work without network access.
func New(cfg config.Config, notifier notify.Notifier) (*App, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o750); err != nil {
		return nil, err
	}
	loc, err := utils.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, err
	}
	database, err := db.Open(cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	clock := utils.SystemClock{}
	src := sources.NewClient(cfg.APIBaseURL, cfg.APIKey, cfg.HTTPTimeout, cfg.FetchRetries, cfg.Debug)
	calc := crossrate.NewCalculator(clock, loc, cfg.DivisionPrecision)
	runner := job.New(src, calc, database, notifier, metrics.New(cfg.PushgatewayURL), clock, job.Settings{
		RecordKey: cfg.RecordKey,
		UpdatedBy: cfg.UpdatedBy,
		Location:  loc,
		Jalali:    cfg.JalaliDates,
		Debug:     cfg.Debug,
	})

	return &App{cfg: cfg, db: database, runner: runner}, nil
}

// NewNotifier picks Telegram when a bot token is configured, the log otherwise.
func NewNotifier(cfg config.Config) (notify.Notifier, error) {
	if cfg.BotToken == "" {
		log.Printf("[app] no bot_token configured, operator messages go to the log")
		return notify.Log{}, nil
	}
	tg, err := notify.NewTelegram(cfg.BotToken, cfg.OperatorChatIDs, cfg.Debug)
	if err != nil {
		return nil, err
	}
	return tg, nil
}

func (a *App) Close() {
	_ = a.db.Close()
}

// RunOnce performs one update; the trigger decides when.
func (a *App) RunOnce(ctx context.Context) job.Result {
	return a.runner.Run(ctx)
}

type storedRecord struct {
	Key       string           `json:"key"`
	Value     crossrate.Bundle `json:"value"`
	UpdatedAt time.Time        `json:"updatedAt"`
	UpdatedBy string           `json:"updatedBy"`
	RunID     string           `json:"runId,omitempty"`
}

// Show writes the stored record as indented JSON.
func (a *App) Show(ctx context.Context, w io.Writer) error {
	r, ok, err := a.db.GetRecord(ctx, a.cfg.RecordKey)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no record stored under %q yet", a.cfg.RecordKey)
	}
	out := storedRecord{Key: r.Key, UpdatedAt: r.UpdatedAt, UpdatedBy: r.UpdatedBy, RunID: r.RunID}
	if err := json.Unmarshal(r.Value, &out.Value); err != nil {
		return fmt.Errorf("decode stored bundle: %w", err)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func (a *App) Backup(ctx context.Context, dst string) error {
	return a.db.BackupTo(ctx, dst)
}
