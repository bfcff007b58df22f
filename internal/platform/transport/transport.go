package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"traffic-share-client/internal/common/errors"
	"traffic-share-client/internal/common/logger"
)

const (
	DefaultTimeout = 30 * time.Second
	// Error bodies beyond this are not worth reading
	maxErrorBody = 64 << 10
)

// TokenSource yields the current bearer token, or "" when logged out
type TokenSource interface {
	Token() string
}

// UnauthorizedHandler is invoked once for every 401 response
type UnauthorizedHandler func(ctx context.Context)

type Options struct {
	BaseURL    string
	Timeout    time.Duration
	UserAgent  string
	HTTPClient *http.Client
}

// Client is the single HTTP transport every endpoint goes through. It is safe
// for concurrent use.
type Client struct {
	baseURL        string
	userAgent      string
	httpClient     *http.Client
	tokens         TokenSource
	onUnauthorized UnauthorizedHandler
}

func New(opts Options, tokens TokenSource, onUnauthorized UnauthorizedHandler) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = "trafficctl"
	}

	return &Client{
		baseURL:        strings.TrimRight(opts.BaseURL, "/"),
		userAgent:      userAgent,
		httpClient:     httpClient,
		tokens:         tokens,
		onUnauthorized: onUnauthorized,
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do sends one JSON request and decodes the response into out (if non-nil).
// There is no retry; a failed call returns an *errors.AppError.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	operation := method + " " + path

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "encode request").
				WithDetail("operation", operation)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "build request").
			WithDetail("operation", operation)
	}

	requestID := uuid.New().String()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Debug().
			Str("operation", operation).
			Str("request_id", requestID).
			Err(err).
			Msg("Request failed")
		return errors.NewNetworkError(operation, err).WithRequestID(requestID)
	}
	defer resp.Body.Close()

	logger.Debug().
		Str("operation", operation).
		Str("request_id", requestID).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("Request processed")

	if resp.StatusCode >= http.StatusBadRequest {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		appErr := errors.FromStatus(resp.StatusCode, ExtractMessage(raw)).
			WithRequestID(requestID).
			WithContext("operation", operation)

		if resp.StatusCode == http.StatusUnauthorized && c.onUnauthorized != nil {
			c.onUnauthorized(ctx)
		}
		return appErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.NewNetworkError(operation, err).WithRequestID(requestID)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.NewDecodeError(operation, err).WithRequestID(requestID)
	}
	return nil
}

// ExtractMessage pulls a readable message out of an error body. Backends use
// "message", FastAPI uses "detail" (string or validation list), others "error".
func ExtractMessage(raw []byte) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}

	var envelope struct {
		Message string          `json:"message"`
		Detail  json.RawMessage `json:"detail"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return ""
	}
	if envelope.Message != "" {
		return envelope.Message
	}
	if msg := messageFromRaw(envelope.Detail); msg != "" {
		return msg
	}
	return messageFromRaw(envelope.Error)
}

func messageFromRaw(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var obj struct {
		Message string `json:"message"`
		Msg     string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		if obj.Message != "" {
			return obj.Message
		}
		return obj.Msg
	}

	var list []struct {
		Msg string        `json:"msg"`
		Loc []interface{} `json:"loc"`
	}
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		parts := make([]string, 0, len(list))
		for _, item := range list {
			if item.Msg == "" {
				continue
			}
			if len(item.Loc) > 0 {
				parts = append(parts, fmt.Sprintf("%v: %s", item.Loc[len(item.Loc)-1], item.Msg))
			} else {
				parts = append(parts, item.Msg)
			}
		}
		return strings.Join(parts, "; ")
	}
	return ""
}
