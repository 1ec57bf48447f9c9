package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/courtbot/internal/domain"
)

// Console implementa ports.CycleNotifier.
type Console struct {
	out      io.Writer
	table    bool
	hidePass bool
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole(table, hidePass bool) *Console {
	return &Console{out: os.Stdout, table: table, hidePass: hidePass}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, table, hidePass bool) *Console {
	return &Console{out: w, table: table, hidePass: hidePass}
}

// Notify imprime el resumen del ciclo en el modo configurado.
func (c *Console) Notify(_ context.Context, verdicts []domain.MatchVerdict) error {
	if len(verdicts) == 0 {
		fmt.Fprintf(c.out, "[%s] no live matches\n", time.Now().Format("15:04:05"))
		return nil
	}

	if c.table {
		c.printFull(verdicts)
	} else {
		c.printCompact(verdicts)
	}
	return nil
}

// printCompact imprime lo esencial en una línea.
func (c *Console) printCompact(verdicts []domain.MatchVerdict) {
	now := time.Now().Format("15:04:05")
	goCount, midCount, riskCount, passCount := countByBadge(verdicts)

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %d matches → GO:%d MID:%d RISK:%d PASS:%d",
		now, len(verdicts), goCount, midCount, riskCount, passCount)

	shown := 0
	for _, mv := range verdicts {
		if shown >= 4 {
			break
		}
		if mv.Verdict.IsPass() {
			continue
		}
		fmt.Fprintf(&sb, " | %s %s %.2f",
			mv.Verdict.Badge.Icon(),
			compactName(matchLabel(mv.Signals), 25),
			mv.Verdict.Score)
		shown++
	}

	fmt.Fprintln(c.out, sb.String())
}

// printFull imprime la tabla completa del ciclo.
func (c *Console) printFull(verdicts []domain.MatchVerdict) {
	now := time.Now().Format("15:04:05")
	goCount, midCount, riskCount, passCount := countByBadge(verdicts)

	fmt.Fprintf(c.out, "\n[%s] %d matches — GO:%d MID:%d RISK:%d PASS:%d\n",
		now, len(verdicts), goCount, midCount, riskCount, passCount)

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "", "Match", "Tournament", "Score", "Stake", "Pred", "Live", "Notes")

	i := 0
	for _, mv := range verdicts {
		if c.hidePass && mv.Verdict.IsPass() {
			continue
		}
		i++
		table.Append(
			fmt.Sprintf("%d", i),
			mv.Verdict.Badge.Icon(),
			truncate(matchLabel(mv.Signals), 34),
			truncate(mv.Signals.Tournament, 20),
			fmt.Sprintf("%.2f", mv.Verdict.Score),
			mv.Verdict.Stake,
			string(mv.Verdict.Predicted),
			mv.Signals.LiveScore,
			truncate(strings.Join(mv.Verdict.Notes, "; "), 40),
		)
	}
	table.Render()

	fmt.Fprintln(c.out, "  Score ∈ [0.20, 0.85] | GO > MID > RISK > PASS")
}

// --- helpers ---

func countByBadge(verdicts []domain.MatchVerdict) (goCount, midCount, riskCount, passCount int) {
	for _, mv := range verdicts {
		switch mv.Verdict.Badge {
		case domain.BadgeGo:
			goCount++
		case domain.BadgeMid:
			midCount++
		case domain.BadgeRisk:
			riskCount++
		case domain.BadgePass:
			passCount++
		}
	}
	return
}

func matchLabel(s domain.MatchSignals) string {
	return s.Favorite + " vs " + s.Underdog
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func compactName(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := s[:maxLen]
	if idx := strings.LastIndex(cut, " "); idx > maxLen/2 {
		cut = cut[:idx]
	}
	return cut + "…"
}
