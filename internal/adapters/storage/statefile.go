package storage

// statefile.go — persistencia del mapping partido → mensaje publicado.
// Un JSON plano alcanza: son decenas de entradas como máximo y se
// reescribe entero en cada mutación, con rename atómico.

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/alejandrodnm/courtbot/internal/ports"
)

// StateFile implementa ports.StateStore sobre un archivo JSON.
type StateFile struct {
	path string
	mu   sync.Mutex
}

// NewStateFile crea el store sobre la ruta dada. El archivo se crea en el
// primer Save.
func NewStateFile(path string) *StateFile {
	return &StateFile{path: path}
}

// Load devuelve el mapping persistido. Un archivo inexistente devuelve un
// mapa vacío: es el arranque en frío normal.
func (f *StateFile) Load() (map[string]ports.MessageRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]ports.MessageRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage.StateFile.Load: %w", err)
	}

	records := make(map[string]ports.MessageRecord)
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("storage.StateFile.Load: parse %q: %w", f.path, err)
	}
	return records, nil
}

// Save reemplaza el mapping completo. Escribe a un temporal y renombra
// para que un crash a mitad nunca deje el archivo corrupto.
func (f *StateFile) Save(records map[string]ports.MessageRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("storage.StateFile.Save: marshal: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage.StateFile.Save: mkdir %q: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("storage.StateFile.Save: temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("storage.StateFile.Save: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("storage.StateFile.Save: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("storage.StateFile.Save: rename: %w", err)
	}
	return nil
}
