package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/tartampluch/go-idlookup/internal/config"
	"golang.org/x/sync/singleflight"
)

// Sentinel errors returned by the HTTP lookup client.
var (
	ErrEmptyIdentifier  = errors.New(config.ErrEmptyIdentifier)
	ErrUnexpectedStatus = errors.New(config.ErrUnexpectedStat)
	ErrEmptyResponse    = errors.New(config.ErrEmptyResponse)
)

// LookupService defines the contract of the remote identifier service.
// The search component treats every call as opaque and fallible.
type LookupService interface {
	// ValidateIDFormat performs a format-only check.
	ValidateIDFormat(ctx context.Context, id string) (bool, error)

	// ValidateAndSearch validates the identifier and decodes the identity behind it.
	ValidateAndSearch(ctx context.Context, id string) (*SearchResponse, error)

	// GetHolidaysForYear returns the public holidays of a year.
	GetHolidaysForYear(ctx context.Context, year int) (*CalendarResult, error)
}

// HTTPLookupClient implements LookupService against the JSON/ICS HTTP API.
type HTTPLookupClient struct {
	Client  *http.Client
	BaseURL string
	APIKey  string

	// formatChecks coalesces identical concurrent format checks.
	formatChecks singleflight.Group
}

// NewHTTPLookupClient creates a client with configured timeouts.
// The base URL is validated here so that a misconfiguration surfaces at startup.
func NewHTTPLookupClient(baseURL, apiKey string) (*HTTPLookupClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrInvalidURL, err)
	}
	if u.Scheme != config.SchemeHTTP && u.Scheme != config.SchemeHTTPS {
		return nil, fmt.Errorf("%s: %s", config.ErrProtocol, u.Scheme)
	}

	return &HTTPLookupClient{
		Client: &http.Client{
			Timeout: config.HTTPTimeout,
		},
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
	}, nil
}

type validateRequest struct {
	IDNumber string `json:"idNumber"`
}

type validateResponse struct {
	IsValid bool `json:"isValid"`
}

// ValidateIDFormat asks the service whether id is structurally valid.
func (c *HTTPLookupClient) ValidateIDFormat(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, ErrEmptyIdentifier
	}

	v, err, _ := c.formatChecks.Do(id, func() (interface{}, error) {
		var out validateResponse
		if err := c.postJSON(ctx, config.RouteValidate, validateRequest{IDNumber: id}, &out); err != nil {
			return false, err
		}
		return out.IsValid, nil
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

// ValidateAndSearch runs the combined validation and decode call.
// A business rejection is reported in the response (IsValid=false), not as an error.
func (c *HTTPLookupClient) ValidateAndSearch(ctx context.Context, id string) (*SearchResponse, error) {
	if id == "" {
		return nil, ErrEmptyIdentifier
	}

	var out SearchResponse
	if err := c.postJSON(ctx, config.RouteSearch, validateRequest{IDNumber: id}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetHolidaysForYear downloads the holiday calendar of year as iCalendar data.
func (c *HTTPLookupClient) GetHolidaysForYear(ctx context.Context, year int) (*CalendarResult, error) {
	body, err := c.do(ctx, http.MethodGet, fmt.Sprintf(config.RouteHolidays, year), nil, config.MimeTextCalendar)
	if err != nil {
		return nil, err
	}
	defer func() { _ = body.Close() }()

	return DecodeHolidays(body)
}

func (c *HTTPLookupClient) postJSON(ctx context.Context, route string, in, out interface{}) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrRequestBuild, err)
	}

	body, err := c.do(ctx, http.MethodPost, route, bytes.NewReader(payload), config.MimeJSON)
	if err != nil {
		return err
	}
	defer func() { _ = body.Close() }()

	if err := json.NewDecoder(body).Decode(out); err != nil {
		return fmt.Errorf("%s: %w", config.ErrDecodeResponse, err)
	}
	return nil
}

// do performs the request and returns a size-limited body on 200 OK.
// The identifier travels in the request body only, so route and URL are safe to log.
func (c *HTTPLookupClient) do(ctx context.Context, method, route string, payload io.Reader, accept string) (io.ReadCloser, error) {
	target := c.BaseURL + route
	log := slog.With(
		slog.String(config.LogKeyComponent, config.CompLookup),
		slog.String(config.LogKeyRoute, route),
	)
	log.Debug(config.MsgLookupRequest)

	req, err := http.NewRequestWithContext(ctx, method, target, payload)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrRequestBuild, err)
	}

	req.Header.Set(config.HeaderUserAgent, config.UserAgent)
	req.Header.Set(config.HeaderAccept, accept)
	if payload != nil {
		req.Header.Set(config.HeaderContentType, config.MimeJSON)
	}
	if c.APIKey != "" {
		req.Header.Set(config.HeaderAPIKey, c.APIKey)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrNetwork, err)
	}

	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		log.Warn("Service returned error status",
			slog.Int(config.LogKeyStatus, resp.StatusCode),
		)
		return nil, fmt.Errorf("%w: %d %s", ErrUnexpectedStatus, resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	return &limitedReadCloser{
		Reader: io.LimitReader(resp.Body, config.MaxHTTPResponseSize),
		Closer: resp.Body,
	}, nil
}

// limitedReadCloser caps reads from the response body and closes the body itself.
type limitedReadCloser struct {
	io.Reader
	io.Closer
}

func (l *limitedReadCloser) Read(p []byte) (n int, err error) {
	return l.Reader.Read(p)
}

func (l *limitedReadCloser) Close() error {
	return l.Closer.Close()
}
