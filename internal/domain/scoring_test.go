package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// strongFavorite es un bundle con todas las señales alineadas a favor.
func strongFavorite() MatchSignals {
	return MatchSignals{
		Favorite:     "Ivanov D.",
		Underdog:     "Petrov K.",
		PNoHistory:   Pct(78),
		PHistory:     Pct(80),
		PLogistic:    Pct(76),
		PStrength:    Pct(79),
		TrendShort:   Pct(12),
		TrendMedium:  Pct(9),
		FCI:          Pct(72),
		Sum:          Pct(74),
		FormFavorite: []FormToken{FormWin, FormWin, FormWin, FormWin, FormWin},
		FormUnderdog: []FormToken{FormWin, FormWin, FormLoss, FormLoss, FormLoss},
	}
}

func TestComputeCompositeScore_Go(t *testing.T) {
	v, err := ComputeCompositeScore(strongFavorite(), DefaultThresholds())
	require.NoError(t, err)
	assert.Equal(t, BadgeGo, v.Badge)
	assert.Equal(t, "Ivanov D.", v.Stake)
	assert.GreaterOrEqual(t, v.Score, 0.72)
	assert.Contains(t, v.Notes, "consistent pillars")
	assert.Equal(t, Outcome30, v.Predicted)
}

func TestComputeCompositeScore_MidWhenFCIBelowGo(t *testing.T) {
	s := strongFavorite()
	s.FCI = Pct(62) // por debajo del mínimo GO, por encima del MID
	v, err := ComputeCompositeScore(s, DefaultThresholds())
	require.NoError(t, err)
	assert.Equal(t, BadgeMid, v.Badge)
	assert.Equal(t, s.Favorite, v.Stake)
}

func TestComputeCompositeScore_Risk(t *testing.T) {
	s := MatchSignals{
		Favorite:     "Novak P.",
		Underdog:     "Stepanek R.",
		PNoHistory:   Pct(60),
		PLogistic:    Pct(55),
		TrendShort:   Pct(2),
		TrendMedium:  Pct(1),
		FCI:          Pct(56),
		Sum:          Pct(49), // dispara la penalización de consenso extremo
		FormFavorite: []FormToken{FormWin, FormLoss, FormWin, FormLoss, FormWin},
		FormUnderdog: []FormToken{FormLoss, FormWin, FormLoss, FormWin, FormLoss},
	}
	v, err := ComputeCompositeScore(s, DefaultThresholds())
	require.NoError(t, err)
	assert.Equal(t, BadgeRisk, v.Badge)
	assert.Equal(t, "Novak P.", v.Stake)
	assert.GreaterOrEqual(t, v.Score, 0.55)
	assert.Less(t, v.Score, 0.60)
	assert.Contains(t, v.Notes, "extreme consensus")
}

func TestComputeCompositeScore_StopFlagOverridesEverything(t *testing.T) {
	s := strongFavorite()
	s.FCI = Pct(40) // el resto de pilares sigue en ~90
	s.PNoHistory = Pct(90)
	s.PHistory = Pct(90)
	s.PLogistic = Pct(90)
	s.PStrength = Pct(90)
	v, err := ComputeCompositeScore(s, DefaultThresholds())
	require.NoError(t, err)
	assert.Equal(t, BadgePass, v.Badge)
	assert.Empty(t, v.Stake, "PASS no designa stake")
	assert.Contains(t, v.Notes, "stop: low FCI")
}

func TestComputeCompositeScore_StopWeakPillars(t *testing.T) {
	s := strongFavorite()
	s.PNoHistory = Pct(45)
	s.PLogistic = Pct(42)
	v, err := ComputeCompositeScore(s, DefaultThresholds())
	require.NoError(t, err)
	assert.Equal(t, BadgePass, v.Badge)
	assert.Contains(t, v.Notes, "stop: weak pillars")
}

func TestComputeCompositeScore_StopNegativeTrend(t *testing.T) {
	s := strongFavorite()
	s.TrendShort = Pct(-12)
	s.TrendMedium = Pct(-15)
	v, err := ComputeCompositeScore(s, DefaultThresholds())
	require.NoError(t, err)
	assert.Equal(t, BadgePass, v.Badge)
	assert.Contains(t, v.Notes, "stop: negative trend")
}

func TestComputeCompositeScore_UnderdogOverride(t *testing.T) {
	// Favorito débil (score < 0.45) con underdog activado:
	// p propia del underdog = 100 - 35 = 65 ≥ 60.
	s := MatchSignals{
		Favorite:     "Kovac M.",
		Underdog:     "Horak T.",
		PNoHistory:   Pct(35),
		PLogistic:    Pct(52), // evita el stop de pilares débiles
		TrendShort:   Pct(-8),
		TrendMedium:  Pct(-5),
		FCI:          Pct(58),
		Sum:          Pct(55),
		FormFavorite: []FormToken{FormWin, FormLoss, FormWin, FormLoss, FormLoss},
		FormUnderdog: []FormToken{FormWin, FormWin, FormLoss, FormWin, FormWin},
	}
	v, err := ComputeCompositeScore(s, DefaultThresholds())
	require.NoError(t, err)
	assert.Less(t, v.Score, 0.45)
	assert.Equal(t, BadgeGo, v.Badge)
	assert.Equal(t, "Horak T.", v.Stake)
	assert.Contains(t, v.Notes, "underdog activation")
}

func TestComputeCompositeScore_ScoreAlwaysClamped(t *testing.T) {
	bundles := []MatchSignals{
		strongFavorite(),
		{
			Favorite:    "A",
			Underdog:    "B",
			PNoHistory:  Pct(99),
			PHistory:    Pct(99),
			PLogistic:   Pct(99),
			PStrength:   Pct(99),
			TrendShort:  Pct(25),
			TrendMedium: Pct(25),
			FCI:         Pct(99),
			Sum:         Pct(75),
		},
		{
			Favorite:    "A",
			Underdog:    "B",
			PNoHistory:  Pct(1),
			PLogistic:   Pct(60),
			TrendShort:  Pct(-25),
			TrendMedium: Pct(-25),
			FCI:         Pct(1),
			Sum:         Pct(1),
			FormFavorite: []FormToken{
				FormLoss, FormLoss, FormLoss, FormLoss, FormLoss,
			},
		},
	}
	for i, s := range bundles {
		v, err := ComputeCompositeScore(s, DefaultThresholds())
		require.NoError(t, err, "bundle %d", i)
		assert.GreaterOrEqual(t, v.Score, 0.20, "bundle %d", i)
		assert.LessOrEqual(t, v.Score, 0.85, "bundle %d", i)
	}
}

func TestComputeCompositeScore_PassInvariant(t *testing.T) {
	// stake vacío ⇔ PASS, sobre una variedad de bundles
	cases := []MatchSignals{strongFavorite(), {
		Favorite:   "A",
		Underdog:   "B",
		PNoHistory: Pct(50),
		PLogistic:  Pct(50),
		FCI:        Pct(61),
		Sum:        Pct(60),
		TrendShort: Pct(0),
	}}
	for _, s := range cases {
		v, err := ComputeCompositeScore(s, DefaultThresholds())
		require.NoError(t, err)
		if v.Badge == BadgePass {
			assert.Empty(t, v.Stake)
		} else {
			assert.NotEmpty(t, v.Stake)
		}
	}
}

func TestComputeCompositeScore_UnavailableWithoutShortPillars(t *testing.T) {
	s := MatchSignals{Favorite: "A", Underdog: "B", FCI: Pct(70)}
	_, err := ComputeCompositeScore(s, DefaultThresholds())
	assert.ErrorIs(t, err, ErrScoringUnavailable)
}

func TestComputeCompositeScore_UnavailableWithTooFewComponents(t *testing.T) {
	// solo pilar corto + forma por defecto: dos componentes, no alcanza
	s := MatchSignals{Favorite: "A", Underdog: "B", PNoHistory: Pct(70)}
	_, err := ComputeCompositeScore(s, DefaultThresholds())
	assert.ErrorIs(t, err, ErrScoringUnavailable)
}

func TestComputeCompositeScore_OverheatedFavoritePenalty(t *testing.T) {
	s := strongFavorite()
	s.FCI = Pct(75)
	s.Sum = Pct(55)
	v, err := ComputeCompositeScore(s, DefaultThresholds())
	require.NoError(t, err)
	assert.Contains(t, v.Notes, "overheated favorite")
}

func TestComputeCompositeScore_FormPatternNotes(t *testing.T) {
	s := strongFavorite()
	s.PredictedScore = Outcome31 // fija el marcador para no depender de la forma
	s.FormFavorite = []FormToken{FormWin, FormWin, FormWin, FormLoss, FormLoss}
	s.FormUnderdog = []FormToken{FormLoss, FormLoss, FormWin, FormWin, FormWin}
	v, err := ComputeCompositeScore(s, DefaultThresholds())
	require.NoError(t, err)
	assert.Contains(t, v.Notes, "overrate decline")
	assert.Contains(t, v.Notes, "underdog upswing")
}

func TestComputeCompositeScore_ProlongedSlump(t *testing.T) {
	s := strongFavorite()
	s.PredictedScore = Outcome32
	s.FormFavorite = []FormToken{FormWin, FormLoss, FormLoss, FormLoss, FormLoss}
	v, err := ComputeCompositeScore(s, DefaultThresholds())
	require.NoError(t, err)
	assert.Contains(t, v.Notes, "prolonged slump")
}

func TestComputeCompositeScore_MissingSumRenormalizes(t *testing.T) {
	a := strongFavorite()
	b := strongFavorite()
	b.Sum = nil
	va, err := ComputeCompositeScore(a, DefaultThresholds())
	require.NoError(t, err)
	vb, err := ComputeCompositeScore(b, DefaultThresholds())
	require.NoError(t, err)
	// sin Sum el acuerdo colapsa al FCI; el veredicto sigue siendo válido
	assert.Equal(t, BadgeGo, va.Badge)
	assert.Equal(t, BadgeGo, vb.Badge)
}

func TestMarkovAdjustment(t *testing.T) {
	th := DefaultThresholds()
	assert.Equal(t, 0.05, markovAdjustment(Outcome30, th))
	assert.Equal(t, 0.05, markovAdjustment(Outcome31, th))
	assert.Equal(t, 0.02, markovAdjustment(Outcome32, th))
	assert.Equal(t, -0.02, markovAdjustment(Outcome23, th))
	assert.Equal(t, -0.05, markovAdjustment(Outcome13, th))
	assert.Equal(t, -0.05, markovAdjustment(Outcome03, th))
	assert.Equal(t, 0.0, markovAdjustment(Outcome(""), th))
}

func TestMarkovAdjustment_ConfigurableMagnitudes(t *testing.T) {
	th := DefaultThresholds()
	th.MarkovDominant = 0.08
	th.MarkovTight = 0.03
	assert.Equal(t, 0.08, markovAdjustment(Outcome30, th))
	assert.Equal(t, -0.08, markovAdjustment(Outcome03, th))
	assert.Equal(t, 0.03, markovAdjustment(Outcome32, th))
	assert.Equal(t, -0.03, markovAdjustment(Outcome23, th))
}

func TestComputeCompositeScore_FalseConfidenceGateConfigurable(t *testing.T) {
	s := strongFavorite()
	s.PredictedScore = Outcome30

	th := DefaultThresholds()
	v, err := ComputeCompositeScore(s, th)
	require.NoError(t, err)
	assert.NotContains(t, v.Notes, "false confidence")

	// subiendo el umbral por encima del score, la heurística dispara
	th.FalseConfidenceScore = 0.99
	v, err = ComputeCompositeScore(s, th)
	require.NoError(t, err)
	assert.Contains(t, v.Notes, "false confidence")
}
