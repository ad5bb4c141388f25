// Package lark is a small client for the Lark / Feishu Base Open API.
package lark

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"lark-ats/internal/common/config"
	"lark-ats/internal/common/errors"
	httpclient "lark-ats/internal/common/http"
	"lark-ats/internal/common/logger"
	"lark-ats/internal/common/metrics"
	"lark-ats/internal/common/observability"
)

// Client holds the credentials and transport for one Lark app. Build it
// once with NewClient and pass it to whatever needs the Base API.
type Client struct {
	appID        string
	appSecret    string
	baseAppToken string
	baseURL      string

	http    *httpclient.Client
	tokens  TokenStore
	tokenMu sync.Mutex
	logger  logger.Logger
	obs     *observability.Observability
}

type Option func(*Client)

func WithTokenStore(store TokenStore) Option {
	return func(c *Client) {
		if store != nil {
			c.tokens = store
		}
	}
}

func WithLogger(log logger.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.logger = log
		}
	}
}

func WithObservability(obs *observability.Observability) Option {
	return func(c *Client) {
		if obs != nil {
			c.obs = obs
		}
	}
}

func WithHTTPClient(hc *httpclient.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithBaseURL overrides the origin derived from the configured domain.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimSuffix(baseURL, "/")
		}
	}
}

// Environment variable names reported when credentials are missing.
var credentialEnvNames = map[string]string{
	"AppID":     "LARK_APP_ID",
	"AppSecret": "LARK_APP_SECRET",
}

var validate = validator.New()

// NewClient validates the credentials and builds a client. It never
// touches the network; a missing app id or secret fails here.
func NewClient(cfg config.LarkConfig, opts ...Option) (*Client, error) {
	if err := validateCredentials(cfg); err != nil {
		return nil, err
	}

	timeout := config.GetDuration(cfg.Timeout)
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		appID:        cfg.AppID,
		appSecret:    cfg.AppSecret,
		baseAppToken: cfg.BaseAppToken,
		baseURL:      cfg.BaseURL(),
		http:         httpclient.NewClient(timeout),
		tokens:       NewMemoryTokenStore(),
		logger:       logger.NewNoOpLogger(),
		obs:          observability.NewNoop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

func validateCredentials(cfg config.LarkConfig) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.NewInvalidInputError("Invalid Lark configuration", err.Error())
	}

	var missing []string
	for _, fe := range fieldErrs {
		if name, ok := credentialEnvNames[fe.StructField()]; ok {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return errors.NewInvalidInputError("Invalid Lark configuration", err.Error())
	}
	return errors.NewConfigMissingError(missing...)
}

// BaseAppToken returns the destination Base app token.
func (c *Client) BaseAppToken() (string, error) {
	if c.baseAppToken == "" {
		return "", errors.NewConfigMissingError("LARK_BASE_APP_TOKEN")
	}
	return c.baseAppToken, nil
}

// envelope is the uniform Lark response wrapper.
type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// call performs one authenticated request. operation names the call in
// metrics and spans; failure prefixes the error message for rejections.
func (c *Client) call(ctx context.Context, operation, failure, method, path string, query url.Values, body, out interface{}) (err error) {
	ctx, span := c.obs.StartSpan(ctx, operation)
	start := time.Now()
	outcome := metrics.OutcomeSuccess

	defer func() {
		if err != nil && outcome == metrics.OutcomeSuccess {
			outcome = metrics.OutcomeError
		}
		duration := time.Since(start)
		metrics.LarkRequestsTotal.WithLabelValues(operation, outcome).Inc()
		metrics.LarkRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
		c.obs.RecordRemoteCall(ctx, operation, outcome, duration)
		observability.EndSpan(span, err)
	}()

	token, err := c.tenantToken(ctx)
	if err != nil {
		return err
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	c.logger.Debug("Calling Lark API", map[string]interface{}{
		"operation": operation,
		"method":    method,
		"path":      path,
	})

	resp, err := c.http.DoJSON(ctx, method, endpoint, map[string]string{
		"Authorization": "Bearer " + token,
	}, body)
	if err != nil {
		return errors.NewTransportError(operation, err)
	}

	var env envelope
	if err := json.Unmarshal(resp.Body, &env); err != nil {
		return errors.NewInvalidResponseError(operation,
			fmt.Sprintf("status %d: %s", resp.StatusCode, truncate(resp.Body)))
	}

	if env.Code != 0 {
		outcome = metrics.OutcomeRejected
		if invalidTokenCodes[env.Code] {
			c.invalidateToken(ctx)
		}
		c.logger.Warn("Lark API rejected request", map[string]interface{}{
			"operation":  operation,
			"remoteCode": env.Code,
			"remoteMsg":  env.Msg,
			"logId":      resp.Header.Get("X-Tt-Logid"),
		})
		return errors.NewRemoteError(failure, env.Code, env.Msg)
	}

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return errors.NewInvalidResponseError(operation, "failed to decode data: "+err.Error())
	}
	return nil
}

func truncate(body []byte) string {
	const limit = 256
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
