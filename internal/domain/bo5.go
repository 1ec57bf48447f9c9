package domain

// bo5.go — modelo de distribución de marcadores best-of-five.
//
// Cada set se trata como un ensayo de Bernoulli independiente con
// probabilidad p de que el lado A gane el set. Es una simplificación de
// modelado, no una afirmación de que los sets reales sean independientes.

// Outcome es uno de los seis marcadores posibles de un partido Bo5.
type Outcome string

const (
	Outcome30 Outcome = "3:0"
	Outcome31 Outcome = "3:1"
	Outcome32 Outcome = "3:2"
	Outcome03 Outcome = "0:3"
	Outcome13 Outcome = "1:3"
	Outcome23 Outcome = "2:3"
)

// Outcomes lista los seis marcadores en orden estable.
var Outcomes = []Outcome{Outcome30, Outcome31, Outcome32, Outcome03, Outcome13, Outcome23}

// ScoreDistribution es la distribución de probabilidad sobre los seis
// marcadores Bo5, más las probabilidades agregadas de victoria por lado.
//
// Invariante: las seis probabilidades suman 1 (salvo tolerancia float);
// WinA y WinB son las sumas de los tres patrones de cada lado.
type ScoreDistribution struct {
	Probs map[Outcome]float64
	WinA  float64
	WinB  float64
}

// BestOfFiveDistribution calcula la distribución Bo5 para una probabilidad
// de set p del lado A. p se recorta a [0.01, 0.99] antes de usarse.
func BestOfFiveDistribution(p float64) ScoreDistribution {
	if p < 0.01 {
		p = 0.01
	}
	if p > 0.99 {
		p = 0.99
	}
	q := 1 - p

	probs := map[Outcome]float64{
		Outcome30: p * p * p,
		Outcome31: 3 * p * p * p * q,
		Outcome32: 6 * p * p * p * q * q,
		Outcome03: q * q * q,
		Outcome13: 3 * q * q * q * p,
		Outcome23: 6 * q * q * q * p * p,
	}

	winA := probs[Outcome30] + probs[Outcome31] + probs[Outcome32]
	return ScoreDistribution{
		Probs: probs,
		WinA:  winA,
		WinB:  1 - winA,
	}
}

// Best devuelve el marcador más probable de la distribución.
func (d ScoreDistribution) Best() Outcome {
	best := Outcome30
	bestP := -1.0
	for _, o := range Outcomes {
		if p := d.Probs[o]; p > bestP {
			best, bestP = o, p
		}
	}
	return best
}

// NormalizedWinA devuelve WinA / (WinA + WinB). Protege contra deriva de
// punto flotante aunque los seis términos ya sumen 1.
func (d ScoreDistribution) NormalizedWinA() float64 {
	total := d.WinA + d.WinB
	if total <= 0 {
		return 0.5
	}
	return d.WinA / total
}

// DeriveSetWinProbability estima la probabilidad de set del lado A a partir
// de las secuencias de forma propia de cada lado (ventana de últimos 5,
// no head-to-head). Devuelve ok=false si algún lado no tiene resultados
// decididos en la ventana: mejor "no disponible" que inventar.
func DeriveSetWinProbability(formA, formB []FormToken) (p float64, ok bool) {
	rateA, okA := winRate(lastN(formA, 5))
	rateB, okB := winRate(lastN(formB, 5))
	if !okA || !okB {
		return 0, false
	}
	// Normalizamos las dos tasas a una probabilidad relativa de set.
	total := rateA + rateB
	if total <= 0 {
		return 0.5, true
	}
	return rateA / total, true
}

// winRate devuelve la fracción de victorias entre los resultados decididos.
func winRate(form []FormToken) (rate float64, ok bool) {
	wins, decided := 0, 0
	for _, t := range form {
		switch t {
		case FormWin:
			wins++
			decided++
		case FormLoss:
			decided++
		}
	}
	if decided == 0 {
		return 0, false
	}
	return float64(wins) / float64(decided), true
}

// lastN devuelve los últimos n elementos de la secuencia (más recientes).
func lastN(form []FormToken, n int) []FormToken {
	if len(form) <= n {
		return form
	}
	return form[len(form)-n:]
}
