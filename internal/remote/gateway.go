package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"vestry/internal/config"
	"vestry/internal/domain"
	"vestry/internal/models"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// New selects the gateway implementation from configuration. An empty or
// unknown backend yields the disabled gateway, which makes sync a deliberate
// skip rather than an error.
func New(cfg config.RemoteConfig, creds domain.Credentials, logger *zerolog.Logger) domain.RemoteGateway {
	switch cfg.Backend {
	case "sharepoint":
		return NewSharePointGateway(cfg, creds, logger)
	case "supabase":
		return NewSupabaseGateway(cfg, logger)
	default:
		return Disabled{}
	}
}

// Disabled is the gateway used when no remote backend is configured.
type Disabled struct{}

func (Disabled) Name() string     { return "none" }
func (Disabled) Configured() bool { return false }

func (Disabled) LoadAll(ctx context.Context) ([]models.Task, error) {
	return nil, nil
}

func (Disabled) Upsert(ctx context.Context, task models.Task) (string, error) {
	return "", fmt.Errorf("remote backend is not configured")
}

func (Disabled) Delete(ctx context.Context, id, remoteID string) error {
	return fmt.Errorf("remote backend is not configured")
}

// client bundles the HTTP plumbing both backends share: a bounded-timeout
// client and a request throttle.
type client struct {
	http    *http.Client
	limiter *rate.Limiter
	logger  *zerolog.Logger
}

func newClient(cfg config.RemoteConfig, logger *zerolog.Logger) client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	rps := cfg.RPS
	if rps <= 0 {
		rps = 5
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 10
	}
	return client{
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		logger:  logger,
	}
}

// doJSON performs a throttled request, decoding a JSON response body into out
// when out is non-nil. Status codes outside 2xx become errors except the ones
// listed in tolerate.
func (c client) doJSON(ctx context.Context, method, url string, headers map[string]string, body interface{}, out interface{}, tolerate ...int) (int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		for _, code := range tolerate {
			if resp.StatusCode == code {
				return resp.StatusCode, nil
			}
		}
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return resp.StatusCode, fmt.Errorf("%s %s: status %d: %s", method, url, resp.StatusCode, snippet)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
