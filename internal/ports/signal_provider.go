package ports

import (
	"context"

	"github.com/alejandrodnm/courtbot/internal/domain"
)

// SignalProvider obtiene los bundles de señales de los partidos en vivo.
type SignalProvider interface {
	// FetchCandidates devuelve las señales de todos los partidos en vivo
	// visibles, ya filtrados por torneo. Un partido que no se pudo mapear
	// se omite del resultado, no tumba el ciclo.
	FetchCandidates(ctx context.Context) ([]domain.MatchSignals, error)

	// FetchLiveScores devuelve el marcador compuesto actual por id de
	// partido. Es la consulta barata del refresh: no trae pilares ni forma.
	FetchLiveScores(ctx context.Context, ids []string) (map[string]string, error)
}
