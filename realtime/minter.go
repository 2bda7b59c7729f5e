package realtime

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
)

// ErrMintUnavailable is returned while the minting circuit is open.
var ErrMintUnavailable = errors.New("token minting unavailable")

const (
	mintMaxFailures uint32 = 3
	mintOpenTimeout        = 30 * time.Second
	mintInterval           = time.Minute
)

// Minter exchanges the server API key for short-lived client secrets.
type Minter struct {
	url     string
	apiKey  string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[string]
	logger  *slog.Logger
}

// NewMinter returns a Minter posting to url. A nil client means http.DefaultClient.
func NewMinter(url, apiKey string, client *http.Client, logger *slog.Logger) *Minter {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	cb := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "realtime:mint",
		MaxRequests: 1,
		Interval:    mintInterval,
		Timeout:     mintOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= mintMaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return &Minter{url: url, apiKey: apiKey, client: client, breaker: cb, logger: logger}
}

type mintRequest struct {
	Session struct {
		Type  string `json:"type"`
		Model string `json:"model"`
		Audio struct {
			Output struct {
				Voice string `json:"voice"`
			} `json:"output"`
		} `json:"audio"`
	} `json:"session"`
}

// Mint returns an opaque client secret for model and voice.
func (m *Minter) Mint(ctx context.Context, model, voice string) (string, error) {
	if m.apiKey == "" {
		return "", errors.New("realtime api key not configured")
	}
	secret, err := m.breaker.Execute(func() (string, error) { return m.mint(ctx, model, voice) })
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", fmt.Errorf("%w: %w", ErrMintUnavailable, err)
	}
	return secret, err
}

func (m *Minter) mint(ctx context.Context, model, voice string) (string, error) {
	var body mintRequest
	body.Session.Type = "realtime"
	body.Session.Model = model
	body.Session.Audio.Output.Voice = voice
	data, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("mint client secret: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read client secret: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("client_secrets error: %d %s", resp.StatusCode, bytes.TrimSpace(raw))
	}
	var out struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(raw, &out); err != nil || out.Value == "" {
		return "", errors.New("invalid client_secrets response")
	}
	m.logger.DebugContext(ctx, "client secret minted", "model", model)
	return out.Value, nil
}

// State reports the breaker state.
func (m *Minter) State() gobreaker.State { return m.breaker.State() }
