package domain

import (
	"sort"
	"strings"
	"time"
)

// FormToken es un resultado individual en la secuencia de forma reciente
// de un jugador (el más reciente al final).
type FormToken int8

const (
	FormUnknown FormToken = iota
	FormWin
	FormLoss
)

// ParseFormToken convierte un token textual ("W"/"L", "В"/"П") en FormToken.
func ParseFormToken(s string) FormToken {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "W", "В", "1":
		return FormWin
	case "L", "П", "0":
		return FormLoss
	}
	return FormUnknown
}

// MatchSignals es el bundle de señales extraídas para un partido en vivo.
// Lo produce el extractor externo; el core solo lo consume.
//
// Los cuatro pilares y los agregados son porcentajes en [0,100] desde la
// perspectiva del favorito. Un puntero nil significa "señal no disponible"
// — el modelo de scoring renormaliza sobre los componentes presentes.
type MatchSignals struct {
	Favorite   string
	Underdog   string
	Tournament string
	StatsURL   string // página de detalle del partido

	PNoHistory *float64 // probabilidad sin ajuste por historial
	PHistory   *float64 // probabilidad ajustada por historial
	PLogistic  *float64 // modelo logístico
	PStrength  *float64 // índice de fuerza

	TrendShort  *float64 // delta de tendencia, ventana corta (%, con signo)
	TrendMedium *float64 // delta de tendencia, ventana media

	FCI *float64 // consenso agregado
	Sum *float64 // consenso de comité (cross-check del FCI)

	FormFavorite []FormToken // últimos resultados del favorito
	FormUnderdog []FormToken

	PredictedScore Outcome // marcador Bo5 previsto por el extractor (opcional)
	LiveScore      string  // marcador en vivo "2:1 (8:5)" (opcional)
	Finished       bool    // señal explícita de partido terminado
}

// MatchID deriva el identificador canónico de un partido a partir de los
// dos jugadores. Es estable ante el orden de los lados.
func MatchID(sideA, sideB string) string {
	a := strings.ToLower(strings.TrimSpace(sideA))
	b := strings.ToLower(strings.TrimSpace(sideB))
	pair := []string{a, b}
	sort.Strings(pair)
	return pair[0] + "|" + pair[1]
}

// ID devuelve el identificador canónico del partido.
func (s MatchSignals) ID() string {
	return MatchID(s.Favorite, s.Underdog)
}

// Pct construye un puntero a porcentaje. Azúcar para literales y tests.
func Pct(v float64) *float64 {
	return &v
}

// MatchVerdict empareja las señales de un partido con el veredicto calculado
// en un ciclo de scan. Es lo que consumen el log de veredictos y la consola.
type MatchVerdict struct {
	Signals   MatchSignals
	Verdict   Verdict
	ScannedAt time.Time
}
