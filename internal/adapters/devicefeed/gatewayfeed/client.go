package gatewayfeed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"medibot-schedule/internal/platform/httpclient"
	"medibot-schedule/internal/ports/devicefeed"
)

var (
	ErrNotConfigured = errors.New("dispenser gateway client not configured")
	ErrUnauthorized  = errors.New("dispenser gateway unauthorized")
	ErrUpstream      = errors.New("dispenser gateway upstream error")
)

// Config del cliente del gateway del dispensador.
// BaseURL y APIKey normalmente vienen de env vars en quien lo instancia.
type Config struct {
	BaseURL string
	APIKey  string

	// Opcional: header donde viaja la API key. Default "X-Api-Key".
	APIKeyHeader string

	Timeout time.Duration
}

type Client struct {
	http         *httpclient.Client
	apiKey       string
	apiKeyHeader string
}

func NewClient(cfg Config) (*Client, error) {
	h := strings.TrimSpace(cfg.APIKeyHeader)
	if h == "" {
		h = "X-Api-Key"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	hc, err := httpclient.NewWithBaseURL(cfg.BaseURL, timeout)
	if err != nil {
		return nil, err
	}

	return &Client{
		http:         hc,
		apiKey:       strings.TrimSpace(cfg.APIKey),
		apiKeyHeader: h,
	}, nil
}

func (c *Client) IsConfigured() bool {
	return c != nil && c.http != nil && c.http.BaseURL != "" && c.apiKey != ""
}

// statusResponse es el contrato del gateway del vendor:
// {"dispenser": "connected", "battery": "87"} — battery puede faltar.
type statusResponse struct {
	Dispenser string  `json:"dispenser"`
	Battery   *string `json:"battery"`
}

// Snapshot trae la lectura actual del dispensador.
func (c *Client) Snapshot(ctx context.Context) (devicefeed.Reading, error) {
	if !c.IsConfigured() {
		return devicefeed.Reading{}, ErrNotConfigured
	}

	var out statusResponse
	err := c.http.DoJSON(ctx, http.MethodGet, "/v1/dispenser/status",
		map[string]string{c.apiKeyHeader: c.apiKey}, nil, &out)
	if err != nil {
		var httpErr *httpclient.HTTPError
		if errors.As(err, &httpErr) {
			switch httpErr.StatusCode {
			case http.StatusUnauthorized, http.StatusForbidden:
				return devicefeed.Reading{}, ErrUnauthorized
			default:
				return devicefeed.Reading{}, fmt.Errorf("%w: status=%d", ErrUpstream, httpErr.StatusCode)
			}
		}
		return devicefeed.Reading{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	return devicefeed.Reading{
		Dispenser: out.Dispenser,
		Battery:   out.Battery,
	}, nil
}
