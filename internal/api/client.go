package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/MurLoper/structsim-ai-platform-sub001/internal/config"
	"github.com/MurLoper/structsim-ai-platform-sub001/internal/constants"
	"github.com/MurLoper/structsim-ai-platform-sub001/internal/http"
	"github.com/MurLoper/structsim-ai-platform-sub001/internal/logging"
	"github.com/MurLoper/structsim-ai-platform-sub001/internal/version"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 16 << 20

// retryLogger implements the retryablehttp.LeveledLogger interface on top of
// the console logger. Info is demoted to debug so retries stay quiet unless
// --verbose is set.
type retryLogger struct {
	log *logging.Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.log.Error().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.log.Warn().Fields(keysAndValues).Msg(msg)
}

// apiMetrics tracks API usage statistics
type apiMetrics struct {
	sync.Mutex
	totalCalls    int64
	callsByPath   map[string]int64
	windowStart   time.Time
	callsInWindow int64
}

// Client is the StructSim platform API client.
type Client struct {
	httpClient *nethttp.Client
	config     *config.Config
	baseURL    string
	logger     *logging.Logger
	metrics    *apiMetrics

	mu    sync.RWMutex
	token string
}

// NewClient creates a new API client. The token is taken from cfg.Token and
// can be replaced later with SetToken (after login).
func NewClient(cfg *config.Config, logger *logging.Logger) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("API client requires a config")
	}
	if strings.TrimSpace(cfg.APIURL) == "" {
		return nil, fmt.Errorf("API base URL is empty: %w", config.ErrMissingAPIURL)
	}
	if logger == nil {
		logger = logging.Nop()
	}
	logger = logger.Component("api")

	httpClient, err := http.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to configure HTTP client: %w", err)
	}

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = httpClient
	retryClient.RetryMax = constants.APIRetryMax
	retryClient.RetryWaitMin = constants.APIRetryWaitMin
	retryClient.RetryWaitMax = constants.APIRetryWaitMax
	retryClient.Logger = &retryLogger{log: logger}
	retryClient.CheckRetry = checkRetry
	// Hand the last response back instead of a bare "giving up" error so the
	// backend's message reaches the user.
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{
		httpClient: retryClient.StandardClient(),
		config:     cfg,
		baseURL:    strings.TrimSuffix(cfg.APIURL, "/"),
		logger:     logger,
		token:      cfg.Token,
		metrics: &apiMetrics{
			callsByPath: make(map[string]int64),
			windowStart: time.Now(),
		},
	}, nil
}

// checkRetry is retryablehttp's default policy, except that a create (POST)
// or delete answered with a server error is not replayed: the backend may
// already have applied it. Updates send the whole record and are replayed.
func checkRetry(ctx context.Context, resp *nethttp.Response, err error) (bool, error) {
	if err == nil && resp != nil && resp.Request != nil && resp.StatusCode >= 500 {
		switch resp.Request.Method {
		case nethttp.MethodPost, nethttp.MethodDelete:
			return false, nil
		}
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

// GetConfig returns the configuration used by this API client
func (c *Client) GetConfig() *config.Config {
	return c.config
}

// BaseURL returns the API base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetToken replaces the bearer token used for subsequent requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = strings.TrimSpace(token)
	c.mu.Unlock()
}

// Token returns the current bearer token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Stats returns the total number of calls and the count per path.
func (c *Client) Stats() (int64, map[string]int64) {
	c.metrics.Lock()
	defer c.metrics.Unlock()
	byPath := make(map[string]int64, len(c.metrics.callsByPath))
	for k, v := range c.metrics.callsByPath {
		byPath[k] = v
	}
	return c.metrics.totalCalls, byPath
}

func (c *Client) recordCall(path string) {
	c.metrics.Lock()
	defer c.metrics.Unlock()

	c.metrics.totalCalls++
	c.metrics.callsByPath[path]++
	c.metrics.callsInWindow++

	window := time.Since(c.metrics.windowStart)
	if window >= constants.APIMetricsWindow {
		c.logger.Debug().
			Float64("req_per_sec", float64(c.metrics.callsInWindow)/window.Seconds()).
			Int64("total_calls", c.metrics.totalCalls).
			Strs("top_paths", topPaths(c.metrics.callsByPath, 3)).
			Msg("API usage")
		c.metrics.callsInWindow = 0
		c.metrics.windowStart = time.Now()
	}
}

func topPaths(byPath map[string]int64, n int) []string {
	paths := make([]string, 0, len(byPath))
	for p := range byPath {
		paths = append(paths, p)
	}
	sort.Slice(paths, func(i, j int) bool {
		if byPath[paths[i]] != byPath[paths[j]] {
			return byPath[paths[i]] > byPath[paths[j]]
		}
		return paths[i] < paths[j]
	})
	if len(paths) > n {
		paths = paths[:n]
	}
	for i, p := range paths {
		paths[i] = fmt.Sprintf("%s=%d", p, byPath[p])
	}
	return paths
}

// envelope is the platform's uniform response wrapper.
type envelope struct {
	Code    *int            `json:"code"`
	Msg     string          `json:"msg"`
	Data    json.RawMessage `json:"data"`
	TraceID string          `json:"trace_id"`
}

// doRequest performs an authenticated request and returns the unwrapped
// payload with camelCase keys.
//
// Request bodies are converted to snake_case. Responses in the
// {code,msg,data,trace_id} envelope are unwrapped; a non-zero code becomes
// an *APIError. Bare JSON payloads are accepted as-is.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, body any) (any, error) {
	token := c.Token()
	if token != "" && path != "/auth/login" {
		if exp, ok := TokenExpiry(token); ok && time.Now().After(exp) {
			return nil, ErrSessionExpired
		}
	}

	c.recordCall(path)

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(ToSnakeCase(body))
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := nethttp.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	traceID := uuid.NewString()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set("X-Trace-ID", traceID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug().Err(err).Str("method", method).Str("path", path).Str("trace_id", traceID).Msg("API call failed")
		return nil, fmt.Errorf("%s %s: request failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%s %s: failed to read response: %w", method, path, err)
	}

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Str("trace_id", traceID).
		Msg("API call")

	if resp.StatusCode >= 400 {
		return nil, c.statusError(method, path, resp.StatusCode, raw, traceID)
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}

	var env envelope
	if json.Unmarshal(raw, &env) == nil && env.Code != nil {
		if *env.Code != 0 {
			apiErr := &APIError{
				Status:  0,
				Code:    *env.Code,
				Message: env.Msg,
				TraceID: firstNonEmpty(env.TraceID, traceID),
				Method:  method,
				Path:    path,
			}
			apiErr.Fields = fieldErrors(env.Data)
			return nil, apiErr
		}
		return decodePayload(env.Data)
	}

	return decodePayload(raw)
}

// statusError builds an *APIError for a non-2xx response, using the envelope
// message when the body carries one.
func (c *Client) statusError(method, path string, status int, raw []byte, traceID string) error {
	apiErr := &APIError{
		Status:  status,
		TraceID: traceID,
		Method:  method,
		Path:    path,
	}

	var env envelope
	if json.Unmarshal(raw, &env) == nil && (env.Code != nil || env.Msg != "") {
		if env.Code != nil {
			apiErr.Code = *env.Code
		}
		apiErr.Message = env.Msg
		apiErr.TraceID = firstNonEmpty(env.TraceID, traceID)
		apiErr.Fields = fieldErrors(env.Data)
	} else if text := strings.TrimSpace(string(raw)); text != "" && len(text) < 512 && !strings.HasPrefix(text, "<") {
		apiErr.Message = text
	}

	if status == nethttp.StatusUnauthorized {
		c.logger.Warn().Str("path", path).Msg("session rejected by the platform")
	}
	return apiErr
}

func decodePayload(raw []byte) (any, error) {
	if len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null" {
		return nil, nil
	}
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return ToCamelCase(payload), nil
}

// fieldErrors reads data.errors as a field -> message map.
func fieldErrors(data json.RawMessage) map[string]string {
	if len(data) == 0 {
		return nil
	}
	var wrapper struct {
		Errors map[string]any `json:"errors"`
	}
	if json.Unmarshal(data, &wrapper) != nil || len(wrapper.Errors) == 0 {
		return nil
	}
	out := make(map[string]string, len(wrapper.Errors))
	for k, v := range wrapper.Errors {
		switch t := v.(type) {
		case string:
			out[camelKey(k)] = t
		case []any:
			if len(t) > 0 {
				out[camelKey(k)] = fmt.Sprint(t[0])
			}
		default:
			out[camelKey(k)] = fmt.Sprint(t)
		}
	}
	return out
}

// decodeInto re-encodes a payload into a typed value.
func decodeInto(payload any, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
