package storage

// sqlite.go — log de veredictos eficiente y sin ruido.
//
// Estrategia:
//   - `cycles`: resumen ligero por ciclo (conteos por badge, mejor score).
//     Siempre 1 fila.
//   - `verdicts`: UNA fila por partido (UPSERT). Solo GO/MID/RISK.
//     Los PASS no se persisten — no aportan señal útil como histórico.
//   - Cache en memoria: evita writes si el veredicto no cambió (> 5% en
//     score o cambio de badge). En un ciclo normal la mayoría de partidos
//     no cambia → reducción drástica de escrituras a disco.
//   - Prune automático al arrancar: cycles > 30d, verdicts no vistos en 14d.

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/alejandrodnm/courtbot/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
-- Resumen ligero por ciclo de scan
CREATE TABLE IF NOT EXISTS cycles (
    id         TEXT PRIMARY KEY,
    scanned_at DATETIME NOT NULL,
    total      INTEGER  NOT NULL DEFAULT 0,
    go_count   INTEGER  NOT NULL DEFAULT 0,
    mid_count  INTEGER  NOT NULL DEFAULT 0,
    risk_count INTEGER  NOT NULL DEFAULT 0,
    best_score REAL     NOT NULL DEFAULT 0
);

-- Una fila por partido GO/MID/RISK, sin duplicados
CREATE TABLE IF NOT EXISTS verdicts (
    match_id   TEXT PRIMARY KEY,
    favorite   TEXT NOT NULL,
    underdog   TEXT NOT NULL,
    tournament TEXT,
    badge      TEXT NOT NULL,
    score      REAL NOT NULL DEFAULT 0,
    stake      TEXT,
    predicted  TEXT,
    notes      TEXT,
    live_score TEXT,
    first_seen DATETIME NOT NULL,
    last_seen  DATETIME NOT NULL,
    peak_score REAL NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_cycles_at     ON cycles(scanned_at DESC);
CREATE INDEX IF NOT EXISTS idx_verdict_badge ON verdicts(badge);
CREATE INDEX IF NOT EXISTS idx_verdict_last  ON verdicts(last_seen DESC);
CREATE INDEX IF NOT EXISTS idx_verdict_score ON verdicts(score DESC);
`

const (
	retentionCycles   = 30 * 24 * time.Hour // ciclos: 30 días
	retentionVerdicts = 14 * 24 * time.Hour // veredictos: 14 días (los partidos duran minutos)
	scoreChangePct    = 0.05                // 5% de cambio en score → reescribir
)

// cachedState es el snapshot del último veredicto guardado de un partido.
type cachedState struct {
	badge string
	score float64
}

// SQLiteVerdictLog implementa ports.VerdictLog usando SQLite (pure Go, sin CGo).
type SQLiteVerdictLog struct {
	db    *sql.DB
	cache map[string]cachedState // match_id → estado guardado
	mu    sync.Mutex
}

// NewSQLiteVerdictLog abre (o crea) la base de datos en la ruta dada.
// Aplica el schema, limpia datos antiguos y precarga la cache.
func NewSQLiteVerdictLog(path string) (*SQLiteVerdictLog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteVerdictLog: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteVerdictLog: apply schema: %w", err)
	}

	s := &SQLiteVerdictLog{
		db:    db,
		cache: make(map[string]cachedState),
	}
	s.pruneOld(context.Background())
	s.warmCache(context.Background())
	return s, nil
}

// SaveCycle persiste el resumen del ciclo y hace upsert de los veredictos
// GO/MID/RISK que cambiaron respecto al ciclo anterior.
func (s *SQLiteVerdictLog) SaveCycle(ctx context.Context, cycleID string, verdicts []domain.MatchVerdict) error {
	if len(verdicts) == 0 {
		return nil
	}

	now := time.Now().UTC()

	// 1. Resumen del ciclo — siempre una fila, pesa ~60 bytes
	goCount, midCount, riskCount, bestScore := cycleSummary(verdicts)
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO cycles (id, scanned_at, total, go_count, mid_count, risk_count, best_score)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		cycleID, now, len(verdicts), goCount, midCount, riskCount, bestScore,
	); err != nil {
		return fmt.Errorf("storage.SaveCycle: insert cycle: %w", err)
	}

	// 2. Upsert de los veredictos que cambiaron
	toWrite := s.filterChanged(verdicts)
	if len(toWrite) == 0 {
		return nil // nada nuevo — la gran mayoría de ciclos terminan aquí
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveCycle: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO verdicts
			(match_id, favorite, underdog, tournament, badge, score, stake,
			 predicted, notes, live_score, first_seen, last_seen, peak_score)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(match_id) DO UPDATE SET
			badge      = excluded.badge,
			score      = excluded.score,
			stake      = excluded.stake,
			predicted  = excluded.predicted,
			notes      = excluded.notes,
			live_score = excluded.live_score,
			last_seen  = excluded.last_seen,
			peak_score = MAX(peak_score, excluded.score)
	`)
	if err != nil {
		return fmt.Errorf("storage.SaveCycle: prepare: %w", err)
	}
	defer stmt.Close()

	for _, mv := range toWrite {
		if _, err := stmt.ExecContext(ctx,
			mv.Signals.ID(),
			mv.Signals.Favorite,
			mv.Signals.Underdog,
			mv.Signals.Tournament,
			string(mv.Verdict.Badge),
			mv.Verdict.Score,
			mv.Verdict.Stake,
			string(mv.Verdict.Predicted),
			strings.Join(mv.Verdict.Notes, "; "),
			mv.Signals.LiveScore,
			now, // first_seen: ignorado en ON CONFLICT (no se sobreescribe)
			now, // last_seen
			mv.Verdict.Score,
		); err != nil {
			return fmt.Errorf("storage.SaveCycle: upsert %s: %w", mv.Signals.ID(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveCycle: commit: %w", err)
	}
	return nil
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteVerdictLog) Close() error {
	return s.db.Close()
}

// --- helpers internos ---

// filterChanged devuelve los veredictos GO/MID/RISK que cambiaron respecto
// al estado en caché, y actualiza la caché con el nuevo estado.
func (s *SQLiteVerdictLog) filterChanged(verdicts []domain.MatchVerdict) []domain.MatchVerdict {
	s.mu.Lock()
	defer s.mu.Unlock()

	var toWrite []domain.MatchVerdict
	for _, mv := range verdicts {
		// Solo persistir señal útil
		if mv.Verdict.IsPass() {
			continue
		}

		id := mv.Signals.ID()
		badge := string(mv.Verdict.Badge)

		if prev, ok := s.cache[id]; ok {
			unchanged := prev.badge == badge &&
				relChange(prev.score, mv.Verdict.Score) < scoreChangePct
			if unchanged {
				continue
			}
		}

		toWrite = append(toWrite, mv)
		s.cache[id] = cachedState{badge: badge, score: mv.Verdict.Score}
	}
	return toWrite
}

// pruneOld elimina datos antiguos para mantener la DB ligera.
func (s *SQLiteVerdictLog) pruneOld(ctx context.Context) {
	cutoffCycles := time.Now().UTC().Add(-retentionCycles)
	cutoffVerdicts := time.Now().UTC().Add(-retentionVerdicts)
	s.db.ExecContext(ctx, `DELETE FROM cycles WHERE scanned_at < ?`, cutoffCycles)
	s.db.ExecContext(ctx, `DELETE FROM verdicts WHERE last_seen < ?`, cutoffVerdicts)
}

// warmCache precarga la caché desde la DB al arrancar, evitando escrituras
// redundantes en el primer ciclo tras un reinicio.
func (s *SQLiteVerdictLog) warmCache(ctx context.Context) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT match_id, badge, score FROM verdicts`,
	)
	if err != nil {
		return
	}
	defer rows.Close()

	s.mu.Lock()
	defer s.mu.Unlock()
	for rows.Next() {
		var id, badge string
		var score float64
		if rows.Scan(&id, &badge, &score) == nil {
			s.cache[id] = cachedState{badge: badge, score: score}
		}
	}
}

// cycleSummary extrae conteos por badge y el mejor score del ciclo.
func cycleSummary(verdicts []domain.MatchVerdict) (goCount, midCount, riskCount int, best float64) {
	for _, mv := range verdicts {
		switch mv.Verdict.Badge {
		case domain.BadgeGo:
			goCount++
		case domain.BadgeMid:
			midCount++
		case domain.BadgeRisk:
			riskCount++
		}
		if mv.Verdict.Score > best {
			best = mv.Verdict.Score
		}
	}
	return
}

// relChange devuelve el cambio relativo entre dos valores (0.0 – ∞).
func relChange(old, new float64) float64 {
	if old == 0 {
		return 1.0 // forzar escritura si antes era 0
	}
	return math.Abs(new-old) / math.Abs(old)
}
