package adsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"moderation-console/internal/contextkeys"
	"moderation-console/internal/contracts"
	"moderation-console/internal/core/domain"
	"moderation-console/internal/core/port"

	"golang.org/x/time/rate"
)

const (
	DefaultTimeout = 10 * time.Second
	// ограничение тела ошибки, которое попадает в StatusError
	maxErrorBody = 4 << 10
)

// StatusError - ответ API модерации с кодом вне диапазона 2xx.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("moderation API %s %s returned status code %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// Config - параметры клиента.
type Config struct {
	BaseURL string // Например, "http://localhost:3001/api/v1"
	Timeout time.Duration
	// RateLimit - запросов в секунду; 0 отключает ограничение.
	RateLimit float64
	RateBurst int
}

// Client - клиент REST API модерации объявлений. Реализует port.AdsAPIPort.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	now        func() time.Time
}

var _ port.AdsAPIPort = (*Client)(nil)

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.RateBurst
	if burst < 1 {
		burst = 1
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, burst),
		now:        time.Now,
	}
}

// doRequest - внутренний хелпер для выполнения запросов.
// Возвращает тело успешного ответа либо *StatusError.
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if traceID := contextkeys.TraceIDFromContext(ctx); traceID != "" {
		req.Header.Set("X-Trace-ID", traceID)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to perform request to moderation API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{
			Method:     method,
			Path:       req.URL.Path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(errBody)),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return data, nil
}

// decode проверяет ответ по контракту и раскладывает его в DTO.
func decode(contract string, data []byte, dst interface{}) error {
	if err := contracts.Validate(contract, contracts.CurrentVersion, data); err != nil {
		return fmt.Errorf("invalid %s: %w", contract, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to decode %s: %w", contract, err)
	}
	return nil
}

func isNotFound(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound
}

// ListAds загружает страницу списка: GET /ads.
func (c *Client) ListAds(ctx context.Context, d domain.RequestDescriptor) (domain.AdsPage, error) {
	clientLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component": "AdsAPIClient",
		"method":    "ListAds",
		"page":      d.Page,
	})

	data, err := c.doRequest(ctx, http.MethodGet, "/ads?"+d.Query().Encode(), nil)
	if err != nil {
		clientLogger.Error("Failed to load ads page", err, nil)
		return domain.AdsPage{}, err
	}

	var dto adsPageResponse
	if err := decode(contracts.AdsPageResponse, data, &dto); err != nil {
		clientLogger.Error("Received malformed ads page", err, nil)
		return domain.AdsPage{}, err
	}

	clientLogger.Debug("Ads page received", port.Fields{"items_count": len(dto.Ads)})
	return dto.toDomain(c.now()), nil
}

// GetAd загружает одно объявление: GET /ads/:id.
func (c *Client) GetAd(ctx context.Context, id int) (domain.Ad, error) {
	clientLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component": "AdsAPIClient",
		"method":    "GetAd",
		"ad_id":     id,
	})

	data, err := c.doRequest(ctx, http.MethodGet, "/ads/"+strconv.Itoa(id), nil)
	if err != nil {
		if isNotFound(err) {
			return domain.Ad{}, fmt.Errorf("ad %d: %w", id, domain.ErrAdNotFound)
		}
		clientLogger.Error("Failed to load ad", err, nil)
		return domain.Ad{}, err
	}

	var dto adResponse
	if err := decode(contracts.AdResponse, data, &dto); err != nil {
		clientLogger.Error("Received malformed ad", err, nil)
		return domain.Ad{}, err
	}
	return dto.toDomain(), nil
}

// Moderate выполняет POST /ads/:id/{approve|reject|request-changes}.
func (c *Client) Moderate(ctx context.Context, id int, action domain.ModerationAction, decision domain.Decision) error {
	clientLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component": "AdsAPIClient",
		"method":    "Moderate",
		"ad_id":     id,
		"action":    string(action),
	})

	var body interface{}
	switch action {
	case domain.ActionApprove:
	case domain.ActionReject, domain.ActionRequestChanges:
		body = decisionRequest{Reason: decision.Reason, Comment: decision.Comment}
	default:
		return fmt.Errorf("unknown moderation action %q", action)
	}

	path := fmt.Sprintf("/ads/%d/%s", id, action)
	if _, err := c.doRequest(ctx, http.MethodPost, path, body); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("ad %d: %w", id, domain.ErrAdNotFound)
		}
		clientLogger.Warn("Moderation request failed", port.Fields{"error": err.Error()})
		return err
	}
	clientLogger.Debug("Moderation request accepted", nil)
	return nil
}

// NewCount - GET /ads/new-count?since=...
func (c *Client) NewCount(ctx context.Context, since time.Time) (int, error) {
	query := url.Values{"since": {since.UTC().Format(time.RFC3339Nano)}}
	path := "/ads/new-count?" + query.Encode()
	data, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		contextkeys.LoggerFromContext(ctx).Debug("New count request failed", port.Fields{"error": err.Error()})
		return 0, err
	}

	var dto newCountResponse
	if err := decode(contracts.NewCountResponse, data, &dto); err != nil {
		return 0, err
	}
	return dto.NewCount, nil
}
