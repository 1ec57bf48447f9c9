package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Intervalos mínimos: por debajo de esto el panel acaba baneando la sesión.
const (
	MinScanInterval    = 10 * time.Second
	MinRefreshInterval = 3 * time.Second
)

// Config es la configuración completa del watcher.
type Config struct {
	Watcher   WatcherConfig   `yaml:"watcher"`
	Extractor ExtractorConfig `yaml:"extractor"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Storage   StorageConfig   `yaml:"storage"`
	Log       LogConfig       `yaml:"log"`
}

// WatcherConfig controla el comportamiento del loop de vigilancia.
type WatcherConfig struct {
	ScanIntervalSeconds    int  `yaml:"scan_interval_seconds"`
	RefreshIntervalSeconds int  `yaml:"refresh_interval_seconds"`
	StaleAfterSeconds      int  `yaml:"stale_after_seconds"` // ausencia del feed antes de dar un partido por terminado
	HidePass               bool `yaml:"hide_pass"`
}

// ExtractorConfig apunta al panel de stats en vivo.
type ExtractorConfig struct {
	BaseURL     string   `yaml:"base_url"`
	Session     string   `yaml:"session"` // cookie de sesión; mejor vía EXTRACTOR_SESSION en .env
	Tournaments []string `yaml:"tournaments"`
}

// TelegramConfig contiene las credenciales del bot.
// Token y chat van mejor en .env que en el YAML.
type TelegramConfig struct {
	Token  string `yaml:"token"`
	ChatID string `yaml:"chat_id"`
}

// StorageConfig controla dónde se persisten los datos.
type StorageConfig struct {
	DSN       string `yaml:"dsn"`        // ruta al archivo SQLite del log de veredictos
	StatePath string `yaml:"state_path"` // JSON con el mapping partido → mensaje
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si
// existe. Los valores del .env sobreescriben los del YAML para las keys
// que correspondan.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if cfg.Telegram.Token == "" || cfg.Telegram.ChatID == "" {
		return nil, fmt.Errorf("config.Load: telegram token y chat_id son obligatorios (YAML o TELEGRAM_BOT_TOKEN/TELEGRAM_CHAT_ID)")
	}

	return &cfg, nil
}

// ScanInterval devuelve el intervalo de scan, nunca por debajo del mínimo.
func (c *Config) ScanInterval() time.Duration {
	return clampInterval(c.Watcher.ScanIntervalSeconds, MinScanInterval)
}

// RefreshInterval devuelve el intervalo de refresh de marcador.
func (c *Config) RefreshInterval() time.Duration {
	return clampInterval(c.Watcher.RefreshIntervalSeconds, MinRefreshInterval)
}

// StaleAfter devuelve el umbral de ausencia para dar un partido por
// terminado.
func (c *Config) StaleAfter() time.Duration {
	return time.Duration(c.Watcher.StaleAfterSeconds) * time.Second
}

func clampInterval(seconds int, min time.Duration) time.Duration {
	d := time.Duration(seconds) * time.Second
	if d < min {
		return min
	}
	return d
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están
// presentes. Los secretos viven aquí, no en el YAML versionado.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.Token = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("EXTRACTOR_SESSION"); v != "" {
		cfg.Extractor.Session = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Watcher.ScanIntervalSeconds <= 0 {
		cfg.Watcher.ScanIntervalSeconds = 60
	}
	if cfg.Watcher.RefreshIntervalSeconds <= 0 {
		cfg.Watcher.RefreshIntervalSeconds = 15
	}
	if cfg.Watcher.StaleAfterSeconds <= 0 {
		cfg.Watcher.StaleAfterSeconds = 180
	}
	if cfg.Extractor.BaseURL == "" {
		cfg.Extractor.BaseURL = "https://tennis-score.pro"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "courtbot.db"
	}
	if cfg.Storage.StatePath == "" {
		cfg.Storage.StatePath = "courtbot-state.json"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
