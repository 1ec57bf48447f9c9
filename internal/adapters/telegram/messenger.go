package telegram

// messenger.go — Messenger sobre la Bot API de Telegram. Solo usa dos
// métodos: sendMessage y editMessageText.

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/alejandrodnm/courtbot/internal/ports"
)

const (
	defaultAPIBase = "https://api.telegram.org"

	// Telegram corta en ~1 msg/s por chat; nos quedamos justo ahí.
	messagesPerSec = 1
)

// Messenger implementa ports.Messenger contra un chat fijo de Telegram.
type Messenger struct {
	http    *http.Client
	baseURL string
	token   string
	chatID  string
	limiter *rate.Limiter
}

// NewMessenger crea el Messenger. Si baseURL está vacío usa la API de
// producción.
func NewMessenger(baseURL, token, chatID string) *Messenger {
	if baseURL == "" {
		baseURL = defaultAPIBase
	}
	return &Messenger{
		http:    &http.Client{Timeout: 10 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		chatID:  chatID,
		limiter: rate.NewLimiter(messagesPerSec, 3),
	}
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

type messageResult struct {
	MessageID int64 `json:"message_id"`
}

// Send publica el texto en el chat y devuelve el message_id asignado.
func (m *Messenger) Send(ctx context.Context, text string) (string, error) {
	payload := map[string]any{
		"chat_id":                  m.chatID,
		"text":                     text,
		"parse_mode":               "Markdown",
		"disable_web_page_preview": true,
	}
	var result messageResult
	if err := m.call(ctx, "sendMessage", payload, &result); err != nil {
		return "", fmt.Errorf("telegram.Send: %w", err)
	}
	return strconv.FormatInt(result.MessageID, 10), nil
}

// Edit reemplaza el texto del mensaje dado. Si Telegram rechaza la edición
// (mensaje borrado, demasiado viejo, texto idéntico) devuelve un error que
// envuelve ports.ErrEditRejected.
func (m *Messenger) Edit(ctx context.Context, messageID, text string) error {
	id, err := strconv.ParseInt(messageID, 10, 64)
	if err != nil {
		return fmt.Errorf("telegram.Edit: message_id inválido %q: %w", messageID, err)
	}
	payload := map[string]any{
		"chat_id":                  m.chatID,
		"message_id":               id,
		"text":                     text,
		"parse_mode":               "Markdown",
		"disable_web_page_preview": true,
	}
	var result messageResult
	if err := m.call(ctx, "editMessageText", payload, &result); err != nil {
		return fmt.Errorf("telegram.Edit: %w", err)
	}
	return nil
}

// call ejecuta un método de la Bot API y decodifica el envelope ok/result.
func (m *Messenger) call(ctx context.Context, method string, payload, out any) error {
	if err := m.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	url := fmt.Sprintf("%s/bot%s/%s", m.baseURL, m.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var envelope apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if !envelope.OK {
		if isEditRejection(envelope.Description) {
			return fmt.Errorf("%s: %w", envelope.Description, ports.ErrEditRejected)
		}
		return fmt.Errorf("api error: %s", envelope.Description)
	}
	if out != nil && len(envelope.Result) > 0 {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return fmt.Errorf("decode result: %w", err)
		}
	}
	return nil
}

// isEditRejection reconoce las descripciones con las que Telegram rechaza
// editar un mensaje existente.
func isEditRejection(description string) bool {
	lowered := strings.ToLower(description)
	for _, marker := range []string{
		"message to edit not found",
		"message can't be edited",
		"message is not modified",
	} {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}
