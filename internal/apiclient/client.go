// Package apiclient wraps outbound requests to the movement-pass public
// API, attaching the session credential and normalizing HTTP failures into
// a uniform error shape.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/movement-pass/passctl/internal/config"
	"github.com/movement-pass/passctl/internal/domain"
	"github.com/movement-pass/passctl/internal/session"
)

// Client issues requests against a configured base endpoint.
type Client struct {
	endpoint     string
	photosDomain string
	http         *http.Client
	session      *session.Cache
	logger       *zap.Logger
	now          func() time.Time
}

// New builds a client over the given session cache.
func New(cfg config.ClientConfig, cache *session.Cache, logger *zap.Logger) *Client {
	return &Client{
		endpoint:     strings.TrimRight(cfg.Endpoint, "/"),
		photosDomain: strings.TrimRight(cfg.PhotosDomain, "/"),
		http:         &http.Client{Timeout: cfg.RequestTimeout()},
		session:      cache,
		logger:       logger,
		now:          time.Now,
	}
}

type errorsPayload struct {
	Errors []string `json:"errors"`
}

// do performs one request. Transport failures (DNS, refused connections,
// cancelled contexts) return as-is; HTTP-level failures return *ErrorList.
// A 204 leaves out untouched and returns nil, distinguishable from a
// validation failure.
func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json;charset=utf-8")
	}

	cred, err := c.session.Credential(ctx)
	if err != nil {
		return err
	}
	if cred != nil && !domain.IsExpired(cred, c.now()) {
		req.Header.Set("Authorization", "Bearer "+cred.Token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close() //nolint:errcheck

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return c.mapFailure(method, path, res)
	}

	if res.StatusCode == http.StatusNoContent || out == nil {
		return nil
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		c.logger.Error("malformed response body", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return internalError()
	}
	return nil
}

func (c *Client) mapFailure(method, path string, res *http.Response) error {
	switch res.StatusCode {
	case http.StatusBadRequest:
		var payload errorsPayload
		if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
			c.logger.Error("malformed validation response", zap.String("method", method), zap.String("path", path), zap.Error(err))
			return internalError()
		}
		return &ErrorList{Kind: KindValidation, Messages: payload.Errors}
	case http.StatusUnauthorized, http.StatusForbidden:
		return unauthorizedError()
	case http.StatusNotFound:
		return notFoundError()
	default:
		raw, _ := io.ReadAll(res.Body)
		c.logger.Error("unexpected response",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", res.StatusCode),
			zap.ByteString("body", raw))
		return internalError()
	}
}
