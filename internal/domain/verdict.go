package domain

// Badge es la clasificación final de un veredicto.
type Badge string

const (
	BadgeGo   Badge = "GO"   // señal fuerte, apostar al lado designado
	BadgeMid  Badge = "MID"  // señal moderada
	BadgeRisk Badge = "RISK" // señal débil, solo para perfiles agresivos
	BadgePass Badge = "PASS" // sin apuesta
)

// Icon devuelve el emoji asociado al badge para el render de notificaciones.
func (b Badge) Icon() string {
	switch b {
	case BadgeGo:
		return "🟢"
	case BadgeMid:
		return "🟡"
	case BadgeRisk:
		return "🟠"
	default:
		return "⚪"
	}
}

// Verdict es el resultado del modelo de scoring para un partido.
//
// Invariante: Stake == "" si y solo si Badge == BadgePass.
type Verdict struct {
	Score     float64  // score compuesto recortado a [0.20, 0.85]
	Badge     Badge
	Stake     string   // jugador recomendado; vacío para PASS
	Notes     []string // diagnósticos de las heurísticas de corrección
	Predicted Outcome  // marcador Bo5 usado en el ajuste Markov
}

// IsPass devuelve true si el veredicto no recomienda apuesta.
func (v Verdict) IsPass() bool {
	return v.Badge == BadgePass
}
