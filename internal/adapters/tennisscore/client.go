package tennisscore

// client.go — HTTP client del panel de stats en vivo, con rate limiting
// y retries. Implementa ports.SignalProvider.

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/alejandrodnm/courtbot/internal/domain"
)

const (
	defaultBaseURL = "https://tennis-score.pro"

	liveStatsPath  = "/api/v1/live/stats"
	liveScoresPath = "/api/v1/live/scores"

	// El panel no publica límites; 2 req/s con burst corto es más que
	// suficiente para un ciclo de scan y no llama la atención.
	requestsPerSec = 2

	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
)

// Client consume el endpoint de stats del panel en vivo.
type Client struct {
	http        *http.Client
	baseURL     string
	session     string // cookie de sesión del panel, opcional
	tournaments []string
	limiter     *rate.Limiter
	log         *slog.Logger
}

// NewClient crea un Client. Si baseURL está vacío usa el panel de
// producción. tournaments es la allowlist de torneos (match por
// substring, case-insensitive); vacía significa todos.
func NewClient(baseURL, session string, tournaments []string, log *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	lowered := make([]string, 0, len(tournaments))
	for _, t := range tournaments {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			lowered = append(lowered, t)
		}
	}
	return &Client{
		http:        &http.Client{Timeout: 15 * time.Second},
		baseURL:     strings.TrimRight(baseURL, "/"),
		session:     session,
		tournaments: lowered,
		limiter:     rate.NewLimiter(requestsPerSec, 2),
		log:         log,
	}
}

// FetchCandidates devuelve las señales de todos los partidos en vivo que
// pasan el filtro de torneo. Un partido que no se puede mapear se loguea
// y se omite: nunca tumba el ciclo entero.
func (c *Client) FetchCandidates(ctx context.Context) ([]domain.MatchSignals, error) {
	var resp liveResponse
	if err := c.get(ctx, c.baseURL+liveStatsPath, &resp); err != nil {
		return nil, fmt.Errorf("tennisscore.FetchCandidates: %w", err)
	}

	out := make([]domain.MatchSignals, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		if !c.tournamentAllowed(m.Tournament) {
			continue
		}
		s, err := mapMatch(m)
		if err != nil {
			c.log.Warn("partido descartado por mapping inválido",
				"tournament", m.Tournament, "error", err)
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// FetchLiveScores devuelve el marcador compuesto actual de los partidos
// pedidos. Ids no presentes en la respuesta simplemente faltan del mapa.
func (c *Client) FetchLiveScores(ctx context.Context, ids []string) (map[string]string, error) {
	var resp scoresResponse
	if err := c.get(ctx, c.baseURL+liveScoresPath, &resp); err != nil {
		return nil, fmt.Errorf("tennisscore.FetchLiveScores: %w", err)
	}

	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	scores := make(map[string]string)
	for _, e := range resp.Matches {
		id := domain.MatchID(e.Favorite, e.Underdog)
		if !wanted[id] {
			continue
		}
		if score := composeLiveScore(e.Score); score != "" {
			scores[id] = score
		}
	}
	return scores, nil
}

func (c *Client) tournamentAllowed(tournament string) bool {
	if len(c.tournaments) == 0 {
		return true
	}
	lowered := strings.ToLower(tournament)
	for _, t := range c.tournaments {
		if strings.Contains(lowered, t) {
			return true
		}
	}
	return false
}

// get hace un GET JSON con rate limiting y retries.
func (c *Client) get(ctx context.Context, url string, out any) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		if c.session != "" {
			req.AddCookie(&http.Cookie{Name: "session", Value: c.session})
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if attempt == maxRetries {
				return fmt.Errorf("request failed after %d retries: %w", maxRetries, err)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			resp.Body.Close()
			if attempt == maxRetries {
				return fmt.Errorf("server error %d after %d retries", resp.StatusCode, maxRetries)
			}
			c.log.Warn("respuesta no OK del panel, reintentando",
				"status", resp.StatusCode, "attempt", attempt+1)
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return fmt.Errorf("client error %d: %s", resp.StatusCode, string(body))
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
	return fmt.Errorf("exhausted %d retries", maxRetries)
}

// sleep espera con backoff exponencial, respetando el contexto.
func (c *Client) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * baseRetryWait
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}
