package tennisscore

import (
	"fmt"
	"strings"

	"github.com/alejandrodnm/courtbot/internal/domain"
)

// mapMatch convierte el DTO del endpoint en señales de dominio.
// Valida lo mínimo imprescindible; las señales ausentes quedan en nil y
// el modelo de scoring decide si alcanzan.
func mapMatch(m apiMatch) (domain.MatchSignals, error) {
	fav := strings.TrimSpace(m.Favorite)
	und := strings.TrimSpace(m.Underdog)
	if fav == "" || und == "" {
		return domain.MatchSignals{}, fmt.Errorf("tennisscore.mapMatch: jugadores incompletos (%q vs %q)", m.Favorite, m.Underdog)
	}

	return domain.MatchSignals{
		Favorite:   fav,
		Underdog:   und,
		Tournament: strings.TrimSpace(m.Tournament),
		StatsURL:   m.StatsURL,

		PNoHistory:  m.Signals.PNoHistory,
		PHistory:    m.Signals.PHistory,
		PLogistic:   m.Signals.PLogistic,
		PStrength:   m.Signals.PStrength,
		TrendShort:  m.Signals.TrendShort,
		TrendMedium: m.Signals.TrendMedium,
		FCI:         m.Signals.FCI,
		Sum:         m.Signals.Sum,

		FormFavorite: parseForm(m.FormFavorite),
		FormUnderdog: parseForm(m.FormUnderdog),

		PredictedScore: parseOutcome(m.PredictedScore),
		LiveScore:      composeLiveScore(m.Score),
		Finished:       m.Finished,
	}, nil
}

// parseForm convierte la cadena de forma del panel ("WWLWW" o "ВВПВВ") en
// tokens. Los separadores se ignoran; un carácter no reconocido se conserva
// como desconocido para no desplazar la ventana.
func parseForm(raw string) []domain.FormToken {
	var tokens []domain.FormToken
	for _, r := range raw {
		switch r {
		case ' ', ',', '-', '/':
			continue
		}
		tokens = append(tokens, domain.ParseFormToken(string(r)))
	}
	return tokens
}

// parseOutcome normaliza el marcador previsto del panel ("3:1", "3-1") a
// un Outcome válido. Cualquier otra cosa queda vacía.
func parseOutcome(raw string) domain.Outcome {
	normalized := domain.Outcome(strings.ReplaceAll(strings.TrimSpace(raw), "-", ":"))
	for _, o := range domain.Outcomes {
		if normalized == o {
			return o
		}
	}
	return ""
}

// composeLiveScore junta sets y puntos en el formato "2:1 (8:5)".
func composeLiveScore(sc apiScore) string {
	sets := strings.TrimSpace(sc.Sets)
	points := strings.TrimSpace(sc.Points)
	switch {
	case sets == "" && points == "":
		return ""
	case points == "":
		return sets
	case sets == "":
		return "(" + points + ")"
	}
	return sets + " (" + points + ")"
}
