package notify

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/courtbot/internal/domain"
)

func cycleVerdicts() []domain.MatchVerdict {
	return []domain.MatchVerdict{
		{
			Signals: domain.MatchSignals{
				Favorite: "Ivanov D.", Underdog: "Petrov K.",
				Tournament: "Liga Pro", LiveScore: "1:0 (7:4)",
			},
			Verdict: domain.Verdict{
				Score: 0.78, Badge: domain.BadgeGo, Stake: "Ivanov D.",
				Predicted: domain.Outcome30, Notes: []string{"consistent pillars"},
			},
		},
		{
			Signals: domain.MatchSignals{Favorite: "Novak P.", Underdog: "Stepanek R."},
			Verdict: domain.Verdict{Score: 0.40, Badge: domain.BadgePass},
		},
	}
}

func TestConsole_Compact(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, false, false)

	require.NoError(t, c.Notify(context.Background(), cycleVerdicts()))

	out := buf.String()
	assert.Contains(t, out, "GO:1")
	assert.Contains(t, out, "PASS:1")
	assert.Contains(t, out, "Ivanov D.")
	// el PASS no aparece en el detalle compacto
	assert.NotContains(t, out, "Novak P.")
}

func TestConsole_Table(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, true, false)

	require.NoError(t, c.Notify(context.Background(), cycleVerdicts()))

	out := buf.String()
	assert.Contains(t, out, "Ivanov D. vs Petrov K.")
	assert.Contains(t, out, "Novak P. vs Stepanek R.")
	assert.Contains(t, out, "0.78")
	assert.Contains(t, out, "3:0")
}

func TestConsole_TableHidePass(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, true, true)

	require.NoError(t, c.Notify(context.Background(), cycleVerdicts()))
	assert.NotContains(t, buf.String(), "Novak P.")
}

func TestConsole_EmptyCycle(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, false, false)

	require.NoError(t, c.Notify(context.Background(), nil))
	assert.Contains(t, buf.String(), "no live matches")
}
