package ports

import (
	"context"

	"github.com/alejandrodnm/courtbot/internal/domain"
)

// VerdictLog persiste los veredictos de cada ciclo de escaneo para
// análisis posterior.
type VerdictLog interface {
	// SaveCycle persiste los veredictos producidos en un ciclo completo.
	SaveCycle(ctx context.Context, cycleID string, verdicts []domain.MatchVerdict) error

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
