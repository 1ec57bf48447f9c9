package watcher

import "sync/atomic"

// Control agrupa los mandos del operador sobre el loop. Todos los campos
// son seguros para tocar desde otra goroutine (el listener de stdin).
type Control struct {
	paused        atomic.Bool
	hidePass      atomic.Bool
	ignoreHistory atomic.Bool // one-shot: se consume en el siguiente tick
	scanRequests  chan struct{}
}

// NewControl crea los mandos con el estado inicial dado.
func NewControl(hidePass bool) *Control {
	c := &Control{scanRequests: make(chan struct{}, 1)}
	c.hidePass.Store(hidePass)
	return c
}

// TogglePause invierte la pausa y devuelve el estado resultante.
func (c *Control) TogglePause() bool {
	for {
		old := c.paused.Load()
		if c.paused.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

// Paused indica si el loop está en pausa.
func (c *Control) Paused() bool {
	return c.paused.Load()
}

// ToggleHidePass invierte el filtro de PASS y devuelve el estado resultante.
func (c *Control) ToggleHidePass() bool {
	for {
		old := c.hidePass.Load()
		if c.hidePass.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

// HidePass indica si los PASS se ocultan de la entrega.
func (c *Control) HidePass() bool {
	return c.hidePass.Load()
}

// RequestIgnoreHistory pide un borrado one-shot del historial: el registro
// y el sink se resetean en el siguiente tick del loop.
func (c *Control) RequestIgnoreHistory() {
	c.ignoreHistory.Store(true)
}

// ConsumeIgnoreHistory consume la petición pendiente, si la hay.
func (c *Control) ConsumeIgnoreHistory() bool {
	return c.ignoreHistory.CompareAndSwap(true, false)
}

// RequestScan pide un ciclo de scan inmediato. Si ya hay uno pedido y aún
// no atendido, la petición se funde con la anterior.
func (c *Control) RequestScan() {
	select {
	case c.scanRequests <- struct{}{}:
	default:
	}
}

// ScanRequests expone el canal de peticiones de scan para el loop.
func (c *Control) ScanRequests() <-chan struct{} {
	return c.scanRequests
}
