package ports

import (
	"context"

	"github.com/alejandrodnm/courtbot/internal/domain"
)

// CycleNotifier presenta el resumen de un ciclo de escaneo al operador.
type CycleNotifier interface {
	// Notify muestra los veredictos del ciclo ordenados por score.
	// En la implementación de consola, imprime una tabla formateada.
	Notify(ctx context.Context, verdicts []domain.MatchVerdict) error
}
