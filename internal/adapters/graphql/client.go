package graphql

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/okian/rangeboard/pkg/logger"
	"github.com/okian/rangeboard/pkg/metrics"
	"github.com/tidwall/gjson"
)

const defaultTimeout = 10 * time.Second

// Client sends queries and mutations as HTTP POST {query, variables}.
type Client struct {
	endpoint string
	retryMax int
	timeout  time.Duration
	http     *retryablehttp.Client
	log      logger.Logger
}

// New creates a Client for the GraphQL endpoint.
func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		timeout:  defaultTimeout,
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = c.retryMax
	rc.HTTPClient.Timeout = c.timeout
	rc.Logger = leveledLogger{c.log}
	// Hand back the last response so status failures can be classified.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	c.http = rc
	return c
}

type request struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// Do runs one operation and returns the "data" object of the response.
func (c *Client) Do(ctx context.Context, op, query string, vars map[string]any) (gjson.Result, error) {
	start := time.Now()
	data, err := c.do(ctx, op, query, vars)
	metrics.RecordGraphQLLatency(op, float64(time.Since(start).Milliseconds()))
	if err != nil {
		var ge *Error
		kind := "unknown"
		if errors.As(err, &ge) {
			kind = ge.Code
		}
		metrics.RecordGraphQLRequest(op, "error")
		metrics.RecordGraphQLError(op, kind)
		c.log.Warn(ctx, "graphql operation failed", logger.String("operation", op), logger.Error(err))
		return gjson.Result{}, err
	}
	metrics.RecordGraphQLRequest(op, "ok")
	return data, nil
}

func (c *Client) do(ctx context.Context, op, query string, vars map[string]any) (gjson.Result, error) {
	body, err := json.Marshal(request{Query: query, Variables: vars})
	if err != nil {
		return gjson.Result{}, newError(ErrDecode, op, err)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return gjson.Result{}, newError(ErrTransport, op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return gjson.Result{}, newError(ErrTransport, op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, newError(ErrTransport, op, err)
	}

	ok2xx := resp.StatusCode >= 200 && resp.StatusCode < 300
	if !gjson.ValidBytes(raw) {
		if !ok2xx {
			e := newError(ErrStatus, op, fmt.Errorf("%s", http.StatusText(resp.StatusCode)))
			e.Status = resp.StatusCode
			return gjson.Result{}, e
		}
		return gjson.Result{}, newError(ErrDecode, op, errors.New("response is not valid JSON"))
	}

	envelope := gjson.ParseBytes(raw)
	if errs := envelope.Get("errors"); errs.IsArray() && len(errs.Array()) > 0 {
		e := newError(ErrGraphQL, op, nil)
		e.Status = resp.StatusCode
		if err := json.Unmarshal([]byte(errs.Raw), &e.Errors); err != nil {
			e.Errors = []ServerError{{Message: errs.Raw}}
		}
		e.Message = e.Errors[0].Message
		return gjson.Result{}, e
	}
	if !ok2xx {
		e := newError(ErrStatus, op, fmt.Errorf("%s", http.StatusText(resp.StatusCode)))
		e.Status = resp.StatusCode
		return gjson.Result{}, e
	}
	return envelope.Get("data"), nil
}

// decodeField decodes data.<field> into T. A null or missing field is
// ErrNotFound.
func decodeField[T any](op string, data gjson.Result, field string) (T, error) {
	var out T
	v := data.Get(field)
	if !v.Exists() || v.Type == gjson.Null {
		return out, newError(ErrNotFound, op, fmt.Errorf("%s is null", field))
	}
	if err := json.Unmarshal([]byte(v.Raw), &out); err != nil {
		return out, newError(ErrDecode, op, err)
	}
	return out, nil
}

// leveledLogger routes retryablehttp logs through the service logger.
type leveledLogger struct {
	l logger.Logger
}

func kvFields(kv []any) []logger.Field {
	fields := make([]logger.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields = append(fields, logger.Any(fmt.Sprint(kv[i]), kv[i+1]))
	}
	return fields
}

func (l leveledLogger) Error(msg string, kv ...any) {
	l.l.Error(context.Background(), msg, kvFields(kv)...)
}

func (l leveledLogger) Info(msg string, kv ...any) {
	l.l.Debug(context.Background(), msg, kvFields(kv)...)
}

func (l leveledLogger) Debug(msg string, kv ...any) {
	l.l.Debug(context.Background(), msg, kvFields(kv)...)
}

func (l leveledLogger) Warn(msg string, kv ...any) {
	l.l.Warn(context.Background(), msg, kvFields(kv)...)
}
