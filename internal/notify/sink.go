package notify

// sink.go — entrega upsert de notificaciones por partido.
//
// Un partido tiene como máximo un mensaje publicado. El sink decide entre
// send, edit y no-op comparando el texto nuevo con el último entregado, y
// persiste el mapping mensaje/texto tras cada mutación con éxito para que
// un reinicio del proceso siga editando in-place.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/alejandrodnm/courtbot/internal/ports"
	"github.com/alejandrodnm/courtbot/internal/registry"
)

// Sink aplica la semántica upsert sobre un Messenger.
type Sink struct {
	messenger ports.Messenger
	reg       *registry.Registry
	store     ports.StateStore
	log       *slog.Logger

	mu   sync.Mutex
	done map[string]bool // partidos cuyo marcador final ya se entregó
}

// NewSink crea el sink. store puede ser nil si no se quiere persistencia.
func NewSink(m ports.Messenger, reg *registry.Registry, store ports.StateStore, log *slog.Logger) *Sink {
	return &Sink{
		messenger: m,
		reg:       reg,
		store:     store,
		log:       log,
		done:      make(map[string]bool),
	}
}

// Upsert entrega el texto del partido: send si no hay mensaje previo, edit
// si el texto cambió, no-op si es idéntico. Con finished=true añade el
// marcador de final exactamente una vez; entregas posteriores del mismo
// partido terminado son no-ops.
func (s *Sink) Upsert(ctx context.Context, id, text string, finished bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done[id] {
		return nil
	}
	if finished {
		text = text + "\n\n" + FinishedMarker
	}

	st, ok := s.reg.Get(id)
	if !ok {
		return fmt.Errorf("notify.Upsert: partido desconocido %q", id)
	}

	switch {
	case st.MessageID == "":
		if err := s.send(ctx, id, text); err != nil {
			return err
		}
	case st.LastText == text:
		// nada que entregar
	default:
		if err := s.edit(ctx, id, st.MessageID, text); err != nil {
			return err
		}
	}

	if finished {
		s.done[id] = true
	}
	return nil
}

// Reset olvida el conjunto de partidos ya finalizados. Acompaña al reset
// del registro cuando el operador pide ignorar el historial.
func (s *Sink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done = make(map[string]bool)
}

func (s *Sink) send(ctx context.Context, id, text string) error {
	messageID, err := s.messenger.Send(ctx, text)
	if err != nil {
		return fmt.Errorf("notify.Upsert: send %q: %w", id, err)
	}
	s.reg.SetMessage(id, messageID, text)
	s.persist()
	return nil
}

func (s *Sink) edit(ctx context.Context, id, messageID, text string) error {
	err := s.messenger.Edit(ctx, messageID, text)
	if err == nil {
		s.reg.SetMessage(id, messageID, text)
		s.persist()
		return nil
	}

	// Edición rechazada o fallida: el mensaje puede haber sido borrado o
	// ser demasiado viejo. Fallback a un mensaje nuevo para no perder el
	// update.
	if !errors.Is(err, ports.ErrEditRejected) {
		s.log.Warn("edición fallida, fallback a mensaje nuevo",
			"match", id, "message_id", messageID, "error", err)
	}
	return s.send(ctx, id, text)
}

// persist vuelca el mapping completo al StateStore. Un fallo de
// persistencia no aborta la entrega: se loguea y se sigue.
func (s *Sink) persist() {
	if s.store == nil {
		return
	}
	records := make(map[string]ports.MessageRecord)
	for _, st := range s.reg.All() {
		if st.MessageID == "" {
			continue
		}
		records[st.ID] = ports.MessageRecord{MessageID: st.MessageID, Text: st.LastText}
	}
	if err := s.store.Save(records); err != nil {
		s.log.Warn("no se pudo persistir el estado de mensajes", "error", err)
	}
}
