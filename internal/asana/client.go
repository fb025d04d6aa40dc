package asana

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"

	dasherrors "github.com/dsrs-analytics/taskdash/internal/errors"
)

const (
	// DefaultBaseURL is the Asana REST API root.
	DefaultBaseURL = "https://app.asana.com/api/1.0"
	// MaxPageSize is the largest "limit" Asana accepts.
	MaxPageSize = 100
)

// maxBodyBytes caps one response body.
var maxBodyBytes int64 = 32 << 20

// ClientConfig holds the configuration for connecting to Asana.
type ClientConfig struct {
	// BaseURL defaults to DefaultBaseURL.
	BaseURL string
	// Token is a personal access token, sent as a bearer token.
	Token string
	// Timeout bounds each HTTP attempt. Zero means 30s.
	Timeout time.Duration
	// MaxRetries bounds retries on network errors, 429 and 5xx.
	MaxRetries int
	// RetryWaitMin and RetryWaitMax bound the backoff between retries.
	// Zero keeps the retryablehttp defaults.
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	// PageSize is the "limit" per page, clamped to 1..MaxPageSize.
	PageSize  int
	UserAgent string
	Logger    *slog.Logger
}

// Client lists Asana tasks over HTTP.
type Client struct {
	http   *retryablehttp.Client
	cfg    ClientConfig
	logger *slog.Logger
}

// NewClient creates a new Asana client.
// Missing credentials are reported by ListTasks, not here, so a dashboard
// without a token still starts and shows the failure.
func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.PageSize <= 0 || cfg.PageSize > MaxPageSize {
		cfg.PageSize = MaxPageSize
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "taskdash/1.0"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.MaxRetries
	if cfg.RetryWaitMin > 0 {
		rc.RetryWaitMin = cfg.RetryWaitMin
	}
	if cfg.RetryWaitMax > 0 {
		rc.RetryWaitMax = cfg.RetryWaitMax
	}
	rc.Logger = logger
	// Hand the final response back so status codes can be mapped.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.HTTPClient.Timeout = cfg.Timeout
	rc.HTTPClient.Transport = &oauth2.Transport{
		Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token, TokenType: "Bearer"}),
		Base:   rc.HTTPClient.Transport,
	}

	return &Client{http: rc, cfg: cfg, logger: logger}
}

// ListTasks fetches every task in the project, following pagination.
// It returns all pages or an error, never a partial list.
func (c *Client) ListTasks(ctx context.Context, projectID string) ([]Task, error) {
	if c.cfg.Token == "" {
		return nil, dasherrors.ErrUnauthorized("no access token configured")
	}
	if projectID == "" {
		return nil, dasherrors.ErrConfigMissing("asana.project", "ASANA_PROJECT")
	}

	tasks := []Task{}
	offset := ""
	seen := map[string]bool{}
	for page := 1; ; page++ {
		q := url.Values{}
		q.Set("project", projectID)
		q.Set("opt_fields", strings.Join(OptFields, ","))
		q.Set("limit", strconv.Itoa(c.cfg.PageSize))
		if offset != "" {
			q.Set("offset", offset)
		}

		body, err := c.get(ctx, "/tasks", q, projectID)
		if err != nil {
			return nil, err
		}

		data := gjson.GetBytes(body, "data")
		if !data.IsArray() {
			return nil, dasherrors.ErrBadResponse("response has no data array")
		}
		for _, item := range data.Array() {
			var task Task
			if err := json.Unmarshal([]byte(item.Raw), &task); err != nil {
				return nil, dasherrors.ErrBadResponse(fmt.Sprintf("decode task: %v", err))
			}
			tasks = append(tasks, task)
		}

		c.logger.Debug("asana page fetched", "project", projectID, "page", page, "tasks", len(data.Array()))

		offset = gjson.GetBytes(body, "next_page.offset").String()
		if offset == "" {
			break
		}
		if seen[offset] {
			return nil, dasherrors.ErrBadResponse(fmt.Sprintf("pagination repeated offset %q", offset))
		}
		seen[offset] = true
	}

	return tasks, nil
}

// CheckAuth verifies the token by fetching the current user.
// Returns the user's display name.
func (c *Client) CheckAuth(ctx context.Context) (string, error) {
	if c.cfg.Token == "" {
		return "", dasherrors.ErrUnauthorized("no access token configured")
	}
	body, err := c.get(ctx, "/users/me", url.Values{"opt_fields": {"name"}}, "")
	if err != nil {
		return "", err
	}
	return gjson.GetBytes(body, "data.name").String(), nil
}

// get performs one GET and maps failures to DashErrors.
func (c *Client) get(ctx context.Context, path string, q url.Values, projectID string) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, dasherrors.ErrFetchFailed(projectID, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, dasherrors.ErrTimeout(projectID, err)
		}
		return nil, dasherrors.ErrFetchFailed(projectID, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		if isTimeout(err) {
			return nil, dasherrors.ErrTimeout(projectID, err)
		}
		return nil, dasherrors.ErrFetchFailed(projectID, fmt.Errorf("read body: %w", err))
	}
	if int64(len(body)) > maxBodyBytes {
		return nil, dasherrors.ErrBadResponse(fmt.Sprintf("response body exceeds %d bytes", maxBodyBytes))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(resp.StatusCode, body, projectID)
	}
	if !gjson.ValidBytes(body) {
		return nil, dasherrors.ErrBadResponse("response is not valid JSON")
	}
	return body, nil
}

// statusError maps a non-2xx response to a DashError, keeping the API's message.
func statusError(status int, body []byte, projectID string) error {
	msg := apiMessage(body)
	cause := fmt.Errorf("asana returned status %d", status)
	if msg != "" {
		cause = fmt.Errorf("asana returned status %d: %s", status, msg)
	}

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return dasherrors.ErrUnauthorized(msg).WithCause(cause)
	case http.StatusNotFound:
		return dasherrors.ErrProjectNotFound(projectID, msg).WithCause(cause)
	default:
		return dasherrors.ErrFetchFailed(projectID, cause)
	}
}

// apiMessage joins the messages of an Asana error envelope.
func apiMessage(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	var msgs []string
	for _, m := range gjson.GetBytes(body, "errors.#.message").Array() {
		if s := m.String(); s != "" {
			msgs = append(msgs, s)
		}
	}
	return strings.Join(msgs, "; ")
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
