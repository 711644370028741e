// Package backend implements the model gateway against a local Ollama
// service. Failures are returned as *domain.BackendError so the interaction
// loop can suggest a remedy instead of crashing.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/doeshing/fabsh/internal/domain"
	"github.com/doeshing/fabsh/internal/ports"
)

const (
	// DefaultEndpoint uses the explicit IPv4 address; "localhost" can
	// resolve to IPv6 first on Windows and miss the listener.
	DefaultEndpoint = "http://127.0.0.1:11434"

	DefaultTimeout  = 60 * time.Second
	defaultModelTTL = 5 * time.Minute

	modelsCacheKey = "models"
)

// Ollama is the ports.ModelBackend adapter for the native Ollama API.
type Ollama struct {
	endpoint   string
	timeout    time.Duration
	httpClient *http.Client
	models     *ttlcache.Cache[string, []string]
	logger     ports.Logger
}

// NewOllama builds a gateway from backend settings.
func NewOllama(cfg domain.BackendSettings, logger ports.Logger) *Ollama {
	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	timeout := cfg.GenerateTimeout()
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ttl := cfg.ModelsCacheTTL()
	if ttl <= 0 {
		ttl = defaultModelTTL
	}

	cache := ttlcache.New[string, []string](
		ttlcache.WithTTL[string, []string](ttl),
		ttlcache.WithDisableTouchOnHit[string, []string](),
	)
	go cache.Start()

	return &Ollama{
		endpoint:   endpoint,
		timeout:    timeout,
		httpClient: &http.Client{},
		models:     cache,
		logger:     logger,
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Error   string      `json:"error"`
}

// Generate implements ports.ModelBackend. The context text, when present,
// is prepended to the prompt as situational grounding. No retries: the
// caller decides whether to try another model.
func (o *Ollama) Generate(ctx context.Context, prompt, contextText, model string) (string, error) {
	full := prompt
	if contextText != "" {
		full = contextText + "\n\n" + prompt
	}

	payload := chatRequest{
		Model:    model,
		Messages: []chatMessage{{Role: "user", Content: full}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", &domain.BackendError{Kind: domain.BackendMalformed, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", &domain.BackendError{Kind: domain.BackendMalformed, Err: err}
	}
	req.Header.Set("content-type", "application/json")

	o.logger.Debug("calling backend", map[string]interface{}{"model": model})
	resp, err := o.httpClient.Do(req)
	if err != nil {
		return "", classifyTransport(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", classifyTransport(err)
	}

	if resp.StatusCode >= 400 {
		return "", classifyStatus(resp.StatusCode, raw, model)
	}

	var decoded chatResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", &domain.BackendError{Kind: domain.BackendMalformed, Err: err}
	}
	if decoded.Error != "" {
		return "", classifyStatus(resp.StatusCode, raw, model)
	}
	return decoded.Message.Content, nil
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// ListModels implements ports.ModelBackend. Results are cached with a TTL
// so the interactive loop can show them cheaply.
func (o *Ollama) ListModels(ctx context.Context) ([]string, error) {
	if item := o.models.Get(modelsCacheKey); item != nil {
		return item.Value(), nil
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.endpoint+"/api/tags", nil)
	if err != nil {
		return nil, &domain.BackendError{Kind: domain.BackendMalformed, Err: err}
	}
	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(resp.Body)
		return nil, classifyStatus(resp.StatusCode, raw, "")
	}

	var decoded tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, &domain.BackendError{Kind: domain.BackendMalformed, Err: err}
	}
	names := make([]string, 0, len(decoded.Models))
	for _, m := range decoded.Models {
		names = append(names, m.Name)
	}
	o.models.Set(modelsCacheKey, names, ttlcache.DefaultTTL)
	return names, nil
}

// Ping implements ports.ModelBackend: a cheap reachability probe used once
// at startup.
func (o *Ollama) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.endpoint+"/api/tags", nil)
	if err != nil {
		return &domain.BackendError{Kind: domain.BackendMalformed, Err: err}
	}
	resp, err := o.httpClient.Do(req)
	if err != nil {
		return classifyTransport(err)
	}
	resp.Body.Close()
	if resp.StatusCode >= 400 {
		return &domain.BackendError{
			Kind:   domain.BackendUnreachable,
			Remedy: "start the backend: ollama serve",
			Err:    fmt.Errorf("status %s", resp.Status),
		}
	}
	return nil
}

func classifyTransport(err error) *domain.BackendError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &domain.BackendError{
			Kind:   domain.BackendTimeout,
			Remedy: "the model may still be loading; retry or raise backend.timeout",
			Err:    err,
		}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &domain.BackendError{Kind: domain.BackendTimeout, Err: err}
	}
	return &domain.BackendError{
		Kind:   domain.BackendUnreachable,
		Remedy: "start the backend: ollama serve (install from https://ollama.ai)",
		Err:    err,
	}
}

func classifyStatus(status int, body []byte, model string) *domain.BackendError {
	message := strings.TrimSpace(string(body))
	var decoded struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &decoded); err == nil && decoded.Error != "" {
		message = decoded.Error
	}

	if status == http.StatusNotFound || strings.Contains(strings.ToLower(message), "model") {
		remedy := "pull the model: ollama pull " + model
		if model == "" {
			remedy = "pull a model: ollama pull llama3.1"
		}
		return &domain.BackendError{
			Kind:   domain.BackendModelNotFound,
			Remedy: remedy,
			Err:    errors.New(message),
		}
	}
	return &domain.BackendError{Kind: domain.BackendMalformed, Err: errors.New(message)}
}

var _ ports.ModelBackend = (*Ollama)(nil)
