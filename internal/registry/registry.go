package registry

// registry.go — estado de ciclo de vida de los partidos observados.
//
// El Registry es el único dueño de la mutación de MatchState. Las entradas
// nunca se borran durante la vida del proceso: un partido terminado se
// conserva para poder editar su notificación tarde de forma idempotente.

import (
	"sync"
	"time"

	"github.com/alejandrodnm/courtbot/internal/domain"
)

// MatchState es la entrada del registro para un partido.
type MatchState struct {
	ID        string
	Signals   domain.MatchSignals
	FirstSeen time.Time
	LastSeen  time.Time
	Finished  bool // monotónico: una vez true, nunca vuelve a false

	// FinalDelivered marca que la edición final (con el marcador de cierre)
	// se confirmó. Mientras sea false, el watcher la reintenta cada ciclo.
	FinalDelivered bool

	// Veredicto cacheado del último scan completo. El refresh de marcador
	// lo reutiliza sin invocar el modelo de scoring.
	Verdict    domain.Verdict
	HasVerdict bool

	// Estado de entrega de la notificación.
	MessageID string // id asignado por el proveedor; vacío hasta el primer send
	LastText  string // último texto renderizado enviado/editado
	LiveScore string // último marcador en vivo compuesto
}

// Registry es el mapa en memoria de partidos, indexado por id canónico.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*MatchState
	clock   func() time.Time
}

// New crea un Registry vacío.
func New() *Registry {
	return &Registry{
		entries: make(map[string]*MatchState),
		clock:   time.Now,
	}
}

// NewWithClock crea un Registry con un reloj inyectado, para tests.
func NewWithClock(clock func() time.Time) *Registry {
	r := New()
	r.clock = clock
	return r
}

// Upsert crea la entrada en la primera observación del partido, o actualiza
// las señales y el last-seen si ya existe. Devuelve una copia del estado.
func (r *Registry) Upsert(id string, signals domain.MatchSignals) MatchState {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock()
	st, ok := r.entries[id]
	if !ok {
		st = &MatchState{ID: id, FirstSeen: now}
		r.entries[id] = st
	}
	st.Signals = signals
	st.LastSeen = now
	if signals.LiveScore != "" {
		st.LiveScore = signals.LiveScore
	}
	if signals.Finished {
		st.Finished = true
	}
	return *st
}

// SetVerdict cachea el veredicto calculado en el último scan completo.
func (r *Registry) SetVerdict(id string, v domain.Verdict) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok := r.entries[id]; ok {
		st.Verdict = v
		st.HasVerdict = true
	}
}

// SetLiveScore actualiza el marcador en vivo compuesto de un partido.
func (r *Registry) SetLiveScore(id, score string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok := r.entries[id]; ok {
		st.LiveScore = score
	}
}

// SetMessage registra el id de mensaje del proveedor y el texto renderizado
// que corresponde a ese mensaje.
func (r *Registry) SetMessage(id, messageID, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok := r.entries[id]; ok {
		st.MessageID = messageID
		st.LastText = text
	}
}

// RestoreMessage rehidrata el mapping mensaje/texto desde el estado
// persistido al arrancar, creando la entrada si hace falta. Así un reinicio
// del proceso sigue editando in-place en vez de duplicar mensajes.
func (r *Registry) RestoreMessage(id, messageID, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.entries[id]
	if !ok {
		now := r.clock()
		st = &MatchState{ID: id, FirstSeen: now, LastSeen: now}
		r.entries[id] = st
	}
	st.MessageID = messageID
	st.LastText = text
}

// MarkFinishedIfAbsent recorre las entradas no terminadas y marca como
// terminada cualquiera que no esté en el conjunto observado y cuyo last-seen
// supere el umbral de staleness. Terminar es idempotente e irreversible.
// Devuelve los ids recién terminados en esta pasada.
func (r *Registry) MarkFinishedIfAbsent(observed map[string]bool, staleAfter time.Duration) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock()
	var finished []string
	for id, st := range r.entries {
		if st.Finished || observed[id] {
			continue
		}
		if now.Sub(st.LastSeen) > staleAfter {
			st.Finished = true
			finished = append(finished, id)
		}
	}
	return finished
}

// SetFinalDelivered confirma que la edición final del partido llegó al
// proveedor de mensajes. Separado de Finished: terminar es una observación,
// entregarlo es un efecto que puede fallar y reintentarse.
func (r *Registry) SetFinalDelivered(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok := r.entries[id]; ok {
		st.FinalDelivered = true
	}
}

// Get devuelve una copia del estado del partido, si existe.
func (r *Registry) Get(id string) (MatchState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.entries[id]
	if !ok {
		return MatchState{}, false
	}
	return *st, true
}

// All devuelve una copia de todas las entradas.
func (r *Registry) All() []MatchState {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]MatchState, 0, len(r.entries))
	for _, st := range r.entries {
		out = append(out, *st)
	}
	return out
}

// Reset vacía el registro. Lo usa el toggle de ignorar historial: todos los
// partidos vuelven a tratarse como recién descubiertos.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[string]*MatchState)
}
