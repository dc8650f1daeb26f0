package providers

import (
	"context"
	"time"

	"github.com/samber/do/v2"
	"golang.org/x/time/rate"

	"github.com/earconlabs/earcon/internal/catalog"
	"github.com/earconlabs/earcon/internal/config"
	"github.com/earconlabs/earcon/internal/history"
	"github.com/earconlabs/earcon/internal/logger"
	"github.com/earconlabs/earcon/internal/sse"
	"github.com/earconlabs/earcon/pkg/earcon"
)

// cueSource tags ledger rows and events from the daemon's engine. Every
// play request enters through the control API.
const cueSource = "api"

// outcomeWriteTimeout bounds the ledger write made for each playback outcome.
const outcomeWriteTimeout = 5 * time.Second

// EngineHandle wraps the playback engine with shutdown capability.
type EngineHandle struct {
	*earcon.Feedback
}

// Shutdown implements do.Shutdownable.
func (h *EngineHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Close(ctx)
}

// ProvideEngine provides the playback engine. Outcomes are observed once
// here: each attempt lands in the ledger and on the event stream whether it
// played or not.
func ProvideEngine(i do.Injector) (*EngineHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	prefsHandle := do.MustInvoke[*PrefStoreHandle](i)
	historyHandle := do.MustInvoke[*HistoryHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)

	engine := earcon.New(earcon.Options{
		Provider:  prefsHandle.Store,
		SystemDir: cfg.Sounds.SystemDir,
		PackDir:   cfg.Sounds.PackDir,
		Logger:    log,
		Prober:    catalog.MetaProber{},
		Rate:      rate.Limit(cfg.Playback.Rate),
		Burst:     cfg.Playback.Burst,
		OnOutcome: func(out earcon.Outcome) {
			ctx, cancel := context.WithTimeout(context.Background(), outcomeWriteTimeout)
			defer cancel()
			if err := historyHandle.Append(ctx, history.FromOutcome(out, cueSource)); err != nil {
				log.Warn("Failed to record playback outcome", "error", err)
			}
			sseHandle.Emit(sse.NewCueEvent(out, cueSource))
		},
	})

	// Prime the settings cache so the first read reflects stored
	// preferences instead of defaults.
	if err := engine.Refresh(context.Background()); err != nil {
		log.Warn("Initial settings refresh failed", "error", err)
	}

	log.Info("Playback engine ready",
		"rate", cfg.Playback.Rate,
		"burst", cfg.Playback.Burst,
	)

	return &EngineHandle{Feedback: engine}, nil
}
