package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/courtbot/internal/domain"
	"github.com/alejandrodnm/courtbot/internal/notify"
	"github.com/alejandrodnm/courtbot/internal/ports"
	"github.com/alejandrodnm/courtbot/internal/registry"
)

// tickStep es la resolución del loop: lo bastante fina para reaccionar
// rápido a pause/stop sin quemar CPU.
const tickStep = 250 * time.Millisecond

// Config contiene la configuración del watcher.
type Config struct {
	ScanInterval    time.Duration // ciclo completo: señales + scoring + entrega
	RefreshInterval time.Duration // ciclo barato: solo marcador en vivo
	StaleAfter      time.Duration // ausencia tras la cual un partido se da por terminado
	HidePass        bool
	Once            bool // ejecutar un solo ciclo y salir
	Thresholds      domain.Thresholds
}

// Watcher es el orquestador principal del loop de vigilancia.
type Watcher struct {
	cfg        Config
	provider   ports.SignalProvider
	reg        *registry.Registry
	sink       *notify.Sink
	verdictLog ports.VerdictLog
	console    ports.CycleNotifier
	control    *Control

	scanning      atomic.Bool // suprime ciclos solapados
	previousGoIDs map[string]bool
}

// New crea un Watcher con todas las dependencias inyectadas.
// verdictLog y console pueden ser nil.
func New(
	cfg Config,
	provider ports.SignalProvider,
	reg *registry.Registry,
	sink *notify.Sink,
	verdictLog ports.VerdictLog,
	console ports.CycleNotifier,
	control *Control,
) *Watcher {
	if control == nil {
		control = NewControl(cfg.HidePass)
	}
	return &Watcher{
		cfg:           cfg,
		provider:      provider,
		reg:           reg,
		sink:          sink,
		verdictLog:    verdictLog,
		console:       console,
		control:       control,
		previousGoIDs: make(map[string]bool),
	}
}

// Control devuelve los mandos del operador.
func (w *Watcher) Control() *Control {
	return w.control
}

// Run ejecuta el loop de vigilancia hasta que el contexto se cancele.
// Si cfg.Once está activo, solo ejecuta un ciclo.
func (w *Watcher) Run(ctx context.Context) error {
	slog.Info("watcher starting",
		"scan_interval", w.cfg.ScanInterval,
		"refresh_interval", w.cfg.RefreshInterval,
		"once", w.cfg.Once,
	)

	if err := w.runScan(ctx); err != nil {
		slog.Error("scan cycle failed", "err", err)
		if w.cfg.Once {
			return err
		}
	}
	if w.cfg.Once {
		return nil
	}

	nextScan := time.Now().Add(w.cfg.ScanInterval)
	nextRefresh := time.Now().Add(w.cfg.RefreshInterval)

	ticker := time.NewTicker(tickStep)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("watcher stopped")
			return nil

		case <-w.control.ScanRequests():
			if err := w.runScan(ctx); err != nil {
				slog.Error("scan cycle failed", "err", err)
			}
			nextScan = time.Now().Add(w.cfg.ScanInterval)
			nextRefresh = time.Now().Add(w.cfg.RefreshInterval)

		case now := <-ticker.C:
			if w.control.ConsumeIgnoreHistory() {
				w.reg.Reset()
				w.sink.Reset()
				slog.Info("history cleared, all matches treated as new")
				nextScan = now // forzar scan inmediato
			}
			if w.control.Paused() {
				continue
			}

			switch {
			case !now.Before(nextScan):
				if err := w.runScan(ctx); err != nil {
					slog.Error("scan cycle failed", "err", err)
				}
				nextScan = time.Now().Add(w.cfg.ScanInterval)
				nextRefresh = time.Now().Add(w.cfg.RefreshInterval)
			case !now.Before(nextRefresh):
				w.runRefresh(ctx)
				nextRefresh = time.Now().Add(w.cfg.RefreshInterval)
			}
		}
	}
}

// RunOnce ejecuta exactamente un ciclo de scan y devuelve los veredictos.
func (w *Watcher) RunOnce(ctx context.Context) ([]domain.MatchVerdict, error) {
	return w.scanCycle(ctx)
}

// runScan ejecuta un ciclo completo y notifica/persiste los resultados.
// Si el ciclo anterior sigue en vuelo, este se salta.
func (w *Watcher) runScan(ctx context.Context) error {
	if !w.scanning.CompareAndSwap(false, true) {
		slog.Warn("previous scan still running, skipping cycle")
		return nil
	}
	defer w.scanning.Store(false)

	start := time.Now()

	verdicts, err := w.scanCycle(ctx)
	if err != nil {
		return err
	}

	w.emitGoAlerts(verdicts)

	if w.console != nil {
		if err := w.console.Notify(ctx, verdicts); err != nil {
			slog.Warn("console notifier error", "err", err)
		}
	}
	if w.verdictLog != nil {
		if err := w.verdictLog.SaveCycle(ctx, uuid.NewString(), verdicts); err != nil {
			slog.Warn("verdict log error", "err", err)
		}
	}

	goCount, midCount := countActionable(verdicts)
	slog.Info("scan cycle complete",
		"matches", len(verdicts),
		"go", goCount,
		"mid", midCount,
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return nil
}

// scanCycle hace fetch → score → entrega y devuelve los veredictos del
// ciclo, ordenados de mejor a peor.
func (w *Watcher) scanCycle(ctx context.Context) ([]domain.MatchVerdict, error) {
	candidates, err := w.provider.FetchCandidates(ctx)
	if err != nil {
		return nil, fmt.Errorf("watcher.scanCycle: fetch candidates: %w", err)
	}

	now := time.Now()
	observed := make(map[string]bool, len(candidates))
	var verdicts []domain.MatchVerdict

	for _, signals := range candidates {
		id := signals.ID()

		// Un partido sin señales suficientes se salta el tick entero, sin
		// tocar el registro: el umbral de staleness decide si sigue vivo.
		verdict, err := domain.ComputeCompositeScore(signals, w.cfg.Thresholds)
		if err != nil {
			if errors.Is(err, domain.ErrScoringUnavailable) {
				slog.Debug("match skipped, not enough signals", "match", id)
				continue
			}
			slog.Warn("scoring failed", "match", id, "err", err)
			continue
		}

		observed[id] = true
		st := w.reg.Upsert(id, signals)
		w.reg.SetVerdict(id, verdict)
		verdicts = append(verdicts, domain.MatchVerdict{
			Signals:   signals,
			Verdict:   verdict,
			ScannedAt: now,
		})

		w.deliver(ctx, id, signals, verdict, st.LiveScore, st.Finished)
	}

	w.closeStaleMatches(ctx, observed)

	sort.Slice(verdicts, func(i, j int) bool {
		return verdicts[i].Verdict.Score > verdicts[j].Verdict.Score
	})
	return verdicts, nil
}

// deliver empuja el veredicto de un partido al sink. Un fallo de entrega
// se loguea y no afecta al resto del ciclo; el error se devuelve para que
// el caller pueda reintentarlo si le importa.
func (w *Watcher) deliver(ctx context.Context, id string, signals domain.MatchSignals, verdict domain.Verdict, liveScore string, finished bool) error {
	if verdict.IsPass() && w.control.HidePass() {
		return nil
	}
	text := notify.RenderVerdict(signals, verdict, liveScore)
	if err := w.sink.Upsert(ctx, id, text, finished); err != nil {
		slog.Warn("delivery failed", "match", id, "err", err)
		return err
	}
	return nil
}

// closeStaleMatches marca como terminados los partidos que desaparecieron
// del feed y entrega su edición final. Marcar Finished no confirma nada:
// la edición final se reintenta en cada ciclo hasta que el sink la acepte.
func (w *Watcher) closeStaleMatches(ctx context.Context, observed map[string]bool) {
	for _, id := range w.reg.MarkFinishedIfAbsent(observed, w.cfg.StaleAfter) {
		if st, ok := w.reg.Get(id); ok {
			slog.Info("match finished", "match", id, "live_score", st.LiveScore)
		}
	}

	for _, st := range w.reg.All() {
		if !st.Finished || st.FinalDelivered {
			continue
		}
		if !st.HasVerdict {
			// nunca hubo veredicto, no hay mensaje que cerrar
			w.reg.SetFinalDelivered(st.ID)
			continue
		}
		if w.deliver(ctx, st.ID, st.Signals, st.Verdict, st.LiveScore, true) == nil {
			w.reg.SetFinalDelivered(st.ID)
		}
	}
}

// runRefresh actualiza solo el marcador en vivo de los partidos activos,
// sin recalcular veredictos. Es la pasada barata entre scans.
func (w *Watcher) runRefresh(ctx context.Context) {
	var ids []string
	for _, st := range w.reg.All() {
		if !st.Finished && st.HasVerdict && st.MessageID != "" {
			ids = append(ids, st.ID)
		}
	}
	if len(ids) == 0 {
		return
	}

	scores, err := w.provider.FetchLiveScores(ctx, ids)
	if err != nil {
		slog.Warn("live score refresh failed", "err", err)
		return
	}

	for id, score := range scores {
		st, ok := w.reg.Get(id)
		if !ok || st.LiveScore == score {
			continue
		}
		w.reg.SetLiveScore(id, score)
		w.deliver(ctx, id, st.Signals, st.Verdict, score, false)
	}
}

// emitGoAlerts registra alertas para partidos GO nuevos (no vistos como GO
// en el ciclo anterior).
func (w *Watcher) emitGoAlerts(verdicts []domain.MatchVerdict) {
	newGoIDs := make(map[string]bool)

	for _, mv := range verdicts {
		if mv.Verdict.Badge != domain.BadgeGo {
			continue
		}
		id := mv.Signals.ID()
		newGoIDs[id] = true

		if w.previousGoIDs[id] {
			continue // ya conocido
		}

		slog.Warn("NEW GO",
			"match", mv.Signals.Favorite+" vs "+mv.Signals.Underdog,
			"tournament", mv.Signals.Tournament,
			"score", fmt.Sprintf("%.2f", mv.Verdict.Score),
			"stake", mv.Verdict.Stake,
			"predicted", string(mv.Verdict.Predicted),
		)
	}

	w.previousGoIDs = newGoIDs
}

// countActionable cuenta veredictos GO y MID.
func countActionable(verdicts []domain.MatchVerdict) (goCount, midCount int) {
	for _, mv := range verdicts {
		switch mv.Verdict.Badge {
		case domain.BadgeGo:
			goCount++
		case domain.BadgeMid:
			midCount++
		}
	}
	return
}
