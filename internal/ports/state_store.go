package ports

// MessageRecord es el mapping persistido partido → mensaje publicado.
type MessageRecord struct {
	MessageID string `json:"message_id"`
	Text      string `json:"text"`
}

// StateStore persiste el mapping de mensajes entre reinicios del proceso.
// Sin él, cada reinicio duplicaría los mensajes de los partidos en curso.
type StateStore interface {
	// Load devuelve el mapping completo. Un store vacío o inexistente
	// devuelve un mapa vacío, no un error.
	Load() (map[string]MessageRecord, error)

	// Save reemplaza el mapping completo de forma atómica.
	Save(records map[string]MessageRecord) error
}
