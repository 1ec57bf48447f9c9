package ports

import (
	"context"
	"errors"
)

// ErrEditRejected señala que el proveedor rechazó editar un mensaje
// existente. El sink responde publicando un mensaje nuevo.
var ErrEditRejected = errors.New("messenger: edit rejected")

// Messenger envía y edita mensajes en el canal de notificaciones.
type Messenger interface {
	// Send publica un mensaje nuevo y devuelve el id asignado por el
	// proveedor, necesario para editarlo después.
	Send(ctx context.Context, text string) (messageID string, err error)

	// Edit reemplaza el texto de un mensaje ya publicado. Si el proveedor
	// rechaza la edición (mensaje borrado, demasiado viejo), devuelve un
	// error que envuelve ErrEditRejected para que el sink haga fallback
	// a un mensaje nuevo.
	Edit(ctx context.Context, messageID, text string) error
}
