package domain

// scoring.go — modelo de score compuesto y clasificación del veredicto.
//
// El pipeline es determinista: normaliza tendencias, combina los pilares en
// un score base ponderado, aplica el ajuste Markov del marcador Bo5 previsto
// y una serie de heurísticas de corrección, recorta a [0.20, 0.85] y
// clasifica en GO/MID/RISK/PASS. Cada heurística que se dispara añade una
// nota diagnóstica legible al veredicto.
//
// Cualquier pilar ausente degrada con gracia: las sumas ponderadas
// renormalizan sobre los componentes presentes. Si faltan demasiados
// componentes, la función devuelve ErrScoringUnavailable — el caller debe
// tratarlo como "saltar este ciclo", nunca como PASS.

import (
	"errors"
	"math"
)

// ErrScoringUnavailable indica que no hay pilares suficientes para formar
// un score base. No es un veredicto PASS.
var ErrScoringUnavailable = errors.New("scoring: not enough signal components for a verdict")

// Thresholds agrupa los umbrales de clasificación y las magnitudes de
// penalización. Son constantes empíricas, no derivadas de un modelo
// ajustado: por eso viven en un struct configurable y no como invariantes.
type Thresholds struct {
	// Clasificación por score.
	GoScore       float64 // score mínimo para GO del favorito
	MidScore      float64 // score mínimo para MID
	RiskScore     float64 // score mínimo para RISK
	UnderdogScore float64 // score máximo para activar el camino underdog

	// Pilares mínimos que acompañan a cada clasificación.
	GoNoHistory float64
	GoLogistic  float64
	GoFCI       float64
	MidFCI      float64

	// Stop-flags: cualquiera fuerza PASS.
	StopFCI    float64
	StopPillar float64
	StopTrend  float64

	// Activación del underdog (valores desde la perspectiva del underdog).
	UnderdogNoHistory float64
	UnderdogLogistic  float64
	UnderdogTrend     float64
	UnderdogSum       float64

	// Heurísticas de corrección (magnitudes, el signo se aplica al usarlas).
	PenaltyExtremeSum      float64
	PenaltyOverheated      float64
	PenaltyFalseConfidence float64
	PenaltyDissonance      float64
	BonusStableWinner      float64
	BonusConsistency       float64
	PenaltyOverrateDecline float64
	PenaltyProlongedSlump  float64
	BonusUnderdogUpswing   float64

	// Ajuste Markov del marcador Bo5 previsto (magnitudes; el signo se
	// invierte para los marcadores favorables al underdog).
	MarkovDominant float64 // 3:0 y 3:1
	MarkovTight    float64 // 3:2

	// Score bajo el cual un 3:0 previsto se trata como exceso de confianza.
	FalseConfidenceScore float64

	// Recorte final del score.
	ClampMin float64
	ClampMax float64
}

// DefaultThresholds devuelve los umbrales empíricos de referencia.
func DefaultThresholds() Thresholds {
	return Thresholds{
		GoScore:       0.72,
		MidScore:      0.60,
		RiskScore:     0.55,
		UnderdogScore: 0.45,

		GoNoHistory: 55,
		GoLogistic:  50,
		GoFCI:       65,
		MidFCI:      60,

		StopFCI:    55,
		StopPillar: 50,
		StopTrend:  -10,

		UnderdogNoHistory: 60,
		UnderdogLogistic:  55,
		UnderdogTrend:     10,
		UnderdogSum:       70,

		PenaltyExtremeSum:      0.04,
		PenaltyOverheated:      0.06,
		PenaltyFalseConfidence: 0.05,
		PenaltyDissonance:      0.04,
		BonusStableWinner:      0.03,
		BonusConsistency:       0.02,
		PenaltyOverrateDecline: 0.05,
		PenaltyProlongedSlump:  0.06,
		BonusUnderdogUpswing:   0.05,

		MarkovDominant: 0.05,
		MarkovTight:    0.02,

		FalseConfidenceScore: 0.70,

		ClampMin: 0.20,
		ClampMax: 0.85,
	}
}

// ComputeCompositeScore ejecuta el pipeline completo sobre un bundle de
// señales y devuelve el veredicto. Es una función pura: sin I/O, sin estado.
func ComputeCompositeScore(s MatchSignals, th Thresholds) (Verdict, error) {
	var notes []string

	// 1. Normalización de tendencias a [0,1]. Si solo hay un delta, se usa solo.
	trend := normalizeTrend(s.TrendShort, s.TrendMedium)

	// 2-3. Score corto y mezcla con historial.
	short := blend(part{s.PNoHistory, 0.6}, part{s.PLogistic, 0.4})
	shortWithHistory := short
	if s.PHistory != nil && short != nil {
		hist := blend(part{s.PHistory, 0.5}, part{s.PNoHistory, 0.5})
		v := 0.8*(*short) + 0.2*(*hist)
		shortWithHistory = &v
	}

	// 4. Score de contexto: índice de fuerza tal cual.
	var context *float64
	if s.PStrength != nil {
		v := *s.PStrength / 100
		context = &v
	}

	// 5. Score de acuerdo entre consensos. Sin Sum, el peso renormaliza a FCI.
	agreement := blend(part{s.FCI, 0.7}, part{s.Sum, 0.3})

	// 6. Forma reciente del favorito (últimos 10); 0.5 si no hay datos.
	recentForm := 0.5
	if r, ok := winRate(lastN(s.FormFavorite, 10)); ok {
		recentForm = r
	}

	// 7. Score base ponderado, renormalizado sobre los componentes presentes.
	// Exigimos el componente corto y al menos tres en total: con menos no hay
	// veredicto honesto que dar.
	if shortWithHistory == nil {
		return Verdict{}, ErrScoringUnavailable
	}
	base, present := weightedBase(trend, shortWithHistory, agreement, context, recentForm)
	if present < 3 {
		return Verdict{}, ErrScoringUnavailable
	}
	score := base

	// 8. Ajuste Markov según el marcador Bo5 previsto.
	predicted := s.PredictedScore
	if predicted == "" {
		if p, ok := DeriveSetWinProbability(s.FormFavorite, s.FormUnderdog); ok {
			predicted = BestOfFiveDistribution(p).Best()
		}
	}
	score += markovAdjustment(predicted, th)

	// 9. Heurísticas de corrección, cada una disparable por separado.
	if s.Sum != nil && (*s.Sum < 50 || *s.Sum > 80) {
		score -= th.PenaltyExtremeSum
		notes = append(notes, "extreme consensus")
	}
	if s.FCI != nil && s.Sum != nil && *s.FCI > 70 && *s.Sum < 60 {
		score -= th.PenaltyOverheated
		notes = append(notes, "overheated favorite")
	}
	if predicted == Outcome30 && score < th.FalseConfidenceScore {
		score -= th.PenaltyFalseConfidence
		notes = append(notes, "false confidence")
	}
	if pillarSpread(s) > 15 {
		score -= th.PenaltyDissonance
		notes = append(notes, "pillar dissonance")
	}
	if s.Sum != nil && s.FCI != nil &&
		*s.Sum >= 70 && *s.Sum <= 80 &&
		*s.FCI >= 55 && *s.FCI <= 65 &&
		(predicted == Outcome31 || predicted == Outcome32) {
		score += th.BonusStableWinner
		notes = append(notes, "stable winner")
	}
	if pillarsConsistent(s, 5) {
		score += th.BonusConsistency
		notes = append(notes, "consistent pillars")
	}

	// 10. Patrones en la forma reciente (últimos 5, el más reciente al final).
	favForm := lastN(s.FormFavorite, 5)
	undForm := lastN(s.FormUnderdog, 5)
	if matchesTail(favForm, FormWin, FormWin, FormWin, FormLoss, FormLoss) ||
		matchesTail(favForm, FormWin, FormWin, FormLoss, FormLoss, FormLoss) {
		score -= th.PenaltyOverrateDecline
		notes = append(notes, "overrate decline")
	}
	if consecutiveLosses(favForm) >= 4 {
		score -= th.PenaltyProlongedSlump
		notes = append(notes, "prolonged slump")
	}
	if matchesTail(undForm, FormLoss, FormLoss, FormWin, FormWin, FormWin) ||
		matchesTail(undForm, FormLoss, FormWin, FormWin, FormWin, FormWin) {
		score += th.BonusUnderdogUpswing
		notes = append(notes, "underdog upswing")
	}

	// 11. Recorte final.
	score = math.Min(th.ClampMax, math.Max(th.ClampMin, score))

	// 12. Stop-flags: pisan cualquier clasificación de abajo.
	if reason := stopFlag(s, th); reason != "" {
		notes = append(notes, reason)
		return Verdict{Score: score, Badge: BadgePass, Notes: notes, Predicted: predicted}, nil
	}

	// 13. Clasificación.
	v := Verdict{Score: score, Notes: notes, Predicted: predicted}
	switch {
	case score >= th.GoScore &&
		atLeast(s.PNoHistory, th.GoNoHistory) &&
		atLeast(s.PLogistic, th.GoLogistic) &&
		atLeast(s.FCI, th.GoFCI):
		v.Badge, v.Stake = BadgeGo, s.Favorite
	case score >= th.MidScore && atLeast(s.FCI, th.MidFCI):
		v.Badge, v.Stake = BadgeMid, s.Favorite
	case score >= th.RiskScore && score < th.MidScore:
		v.Badge, v.Stake = BadgeRisk, s.Favorite
	case score < th.UnderdogScore && underdogActive(s, th):
		v.Badge, v.Stake = BadgeGo, s.Underdog
		v.Notes = append(v.Notes, "underdog activation")
	default:
		v.Badge = BadgePass
	}
	return v, nil
}

// normalizeTrend recorta el mínimo de los dos deltas a [-25,25] y lo mapea
// a [0,1]. Con un solo delta presente, ese delta se usa solo.
func normalizeTrend(short, medium *float64) *float64 {
	d := minTrend(short, medium)
	if d == nil {
		return nil
	}
	v := math.Min(25, math.Max(-25, *d))
	n := (v + 25) / 50
	return &n
}

// markovAdjustment devuelve la corrección de score para el marcador previsto.
func markovAdjustment(predicted Outcome, th Thresholds) float64 {
	switch predicted {
	case Outcome30, Outcome31:
		return th.MarkovDominant
	case Outcome32:
		return th.MarkovTight
	case Outcome23:
		return -th.MarkovTight
	case Outcome13, Outcome03:
		return -th.MarkovDominant
	}
	return 0
}

// stopFlag evalúa las condiciones de parada. Devuelve la razón, o "" si
// ninguna aplica. Cada condición solo se evalúa con sus señales presentes.
func stopFlag(s MatchSignals, th Thresholds) string {
	if s.FCI != nil && *s.FCI < th.StopFCI {
		return "stop: low FCI"
	}
	if s.PNoHistory != nil && s.PLogistic != nil &&
		*s.PNoHistory < th.StopPillar && *s.PLogistic < th.StopPillar {
		return "stop: weak pillars"
	}
	if s.TrendShort != nil && s.TrendMedium != nil &&
		*s.TrendShort <= th.StopTrend && *s.TrendMedium <= th.StopTrend {
		return "stop: negative trend"
	}
	return ""
}

// underdogActive decide si el camino GO-underdog está habilitado. Los
// pilares del bundle miran al favorito, así que el valor propio del
// underdog es el complemento a 100; su tendencia es la negación.
func underdogActive(s MatchSignals, th Thresholds) bool {
	if s.PNoHistory != nil && 100-*s.PNoHistory >= th.UnderdogNoHistory {
		return true
	}
	if s.PLogistic != nil && 100-*s.PLogistic >= th.UnderdogLogistic {
		return true
	}
	if trend := minTrend(s.TrendShort, s.TrendMedium); trend != nil && s.Sum != nil {
		if -*trend >= th.UnderdogTrend && *s.Sum > th.UnderdogSum {
			return true
		}
	}
	return false
}

// --- helpers ---

// part es un componente opcional de una suma ponderada.
type part struct {
	v *float64 // porcentaje [0,100], nil = ausente
	w float64
}

// blend hace la suma ponderada de los componentes presentes, renormalizando
// los pesos. Devuelve nil si ninguno está presente. Valores escalados a [0,1].
func blend(parts ...part) *float64 {
	var sum, weight float64
	for _, p := range parts {
		if p.v == nil {
			continue
		}
		sum += p.w * (*p.v / 100)
		weight += p.w
	}
	if weight == 0 {
		return nil
	}
	v := sum / weight
	return &v
}

// weightedBase combina los cinco componentes del score base con pesos
// 0.30/0.30/0.20/0.10/0.10, renormalizando sobre los presentes.
// recentForm siempre está presente (default 0.5).
func weightedBase(trend, shortHist, agreement, context *float64, recentForm float64) (score float64, present int) {
	var sum, weight float64
	add := func(v *float64, w float64) {
		if v == nil {
			return
		}
		sum += w * *v
		weight += w
		present++
	}
	add(trend, 0.30)
	add(shortHist, 0.30)
	add(agreement, 0.20)
	add(context, 0.10)
	add(&recentForm, 0.10)
	if weight == 0 {
		return 0, 0
	}
	return sum / weight, present
}

// pillarValues devuelve los valores de los pilares presentes.
func pillarValues(s MatchSignals) []float64 {
	var ps []float64
	for _, p := range []*float64{s.PNoHistory, s.PHistory, s.PLogistic, s.PStrength} {
		if p != nil {
			ps = append(ps, *p)
		}
	}
	return ps
}

// pillarSpread devuelve la dispersión (max-min) entre los pilares presentes,
// en puntos porcentuales. 0 con menos de dos pilares.
func pillarSpread(s MatchSignals) float64 {
	ps := pillarValues(s)
	if len(ps) < 2 {
		return 0
	}
	lo, hi := ps[0], ps[0]
	for _, p := range ps[1:] {
		lo = math.Min(lo, p)
		hi = math.Max(hi, p)
	}
	return hi - lo
}

// pillarsConsistent devuelve true si al menos tres pilares están a menos de
// tol puntos porcentuales entre sí.
func pillarsConsistent(s MatchSignals, tol float64) bool {
	ps := pillarValues(s)
	if len(ps) < 3 {
		return false
	}
	for i := 0; i < len(ps); i++ {
		for j := i + 1; j < len(ps); j++ {
			for k := j + 1; k < len(ps); k++ {
				lo := math.Min(ps[i], math.Min(ps[j], ps[k]))
				hi := math.Max(ps[i], math.Max(ps[j], ps[k]))
				if hi-lo <= tol {
					return true
				}
			}
		}
	}
	return false
}

// matchesTail compara la cola de la secuencia con el patrón dado.
func matchesTail(form []FormToken, pattern ...FormToken) bool {
	if len(form) < len(pattern) {
		return false
	}
	tail := form[len(form)-len(pattern):]
	for i, want := range pattern {
		if tail[i] != want {
			return false
		}
	}
	return true
}

// consecutiveLosses devuelve la racha máxima de derrotas consecutivas.
func consecutiveLosses(form []FormToken) int {
	best, run := 0, 0
	for _, t := range form {
		if t == FormLoss {
			run++
			if run > best {
				best = run
			}
		} else {
			run = 0
		}
	}
	return best
}

// minTrend devuelve el mínimo de los deltas presentes, o nil.
func minTrend(short, medium *float64) *float64 {
	switch {
	case short != nil && medium != nil:
		m := math.Min(*short, *medium)
		return &m
	case short != nil:
		return short
	case medium != nil:
		return medium
	}
	return nil
}

// atLeast devuelve true si el valor está presente y alcanza el mínimo.
func atLeast(v *float64, min float64) bool {
	return v != nil && *v >= min
}
