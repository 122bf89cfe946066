// Package api is the HTTP client for the guides backend: model files,
// model annotations and user access.
package api

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

	"go.uber.org/zap"

	"github.com/BesedinAlex/guides-fusion360-client/internal/annotation"
	"github.com/BesedinAlex/guides-fusion360-client/internal/assets"
	"github.com/BesedinAlex/guides-fusion360-client/internal/logger"
	"github.com/BesedinAlex/guides-fusion360-client/pkg/math"
)

// ModelFileName is the file a model guide stores its GLB under.
const ModelFileName = "model.glb"

// Error is a non-2xx response. Message is the server's "message" field
// when present, otherwise the status text.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// Client talks to the backend. The token authenticates write calls and
// may be empty for read-only use.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client

	log *zap.Logger
}

var (
	_ annotation.Remote = (*Client)(nil)
	_ assets.Fetcher    = (*Client)(nil)
)

// NewClient creates a client with the given per-request timeout.
func NewClient(baseURL, token string, timeout time.Duration, log *zap.Logger) *Client {
	if log == nil {
		log = logger.L()
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

type annotationRecord struct {
	ID   int64   `json:"id"`
	X    float32 `json:"x"`
	Y    float32 `json:"y"`
	Z    float32 `json:"z"`
	Name string  `json:"name"`
	Text string  `json:"text"`
}

type createAnnotationRequest struct {
	ModelID int     `json:"modelId"`
	X       float32 `json:"x"`
	Y       float32 `json:"y"`
	Z       float32 `json:"z"`
	Name    string  `json:"name"`
	Text    string  `json:"text"`
}

type accessResponse struct {
	Access string `json:"access"`
}

type errorResponse struct {
	Message string `json:"message"`
}

// FetchModel downloads the GLB of a model guide.
func (c *Client) FetchModel(ctx context.Context, modelID int) ([]byte, error) {
	q := url.Values{}
	q.Set("guideId", strconv.Itoa(modelID))
	q.Set("name", ModelFileName)
	return c.do(ctx, http.MethodGet, "/guides/file", q, nil)
}

// ListAnnotations returns the annotations of a model in server order.
func (c *Client) ListAnnotations(ctx context.Context, modelID int) ([]annotation.Annotation, error) {
	q := url.Values{}
	q.Set("modelId", strconv.Itoa(modelID))
	body, err := c.do(ctx, http.MethodGet, "/models/annotations", q, nil)
	if err != nil {
		return nil, err
	}
	var records []annotationRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("unmarshal annotations: %w", err)
	}
	out := make([]annotation.Annotation, len(records))
	for i, r := range records {
		out[i] = annotation.Annotation{
			ID:       r.ID,
			ModelID:  modelID,
			Position: math.V3(r.X, r.Y, r.Z),
			Name:     r.Name,
			Text:     r.Text,
		}
	}
	return out, nil
}

// CreateAnnotation stores a new annotation.
func (c *Client) CreateAnnotation(ctx context.Context, a annotation.Annotation) error {
	payload, err := json.Marshal(createAnnotationRequest{
		ModelID: a.ModelID,
		X:       a.Position.X,
		Y:       a.Position.Y,
		Z:       a.Position.Z,
		Name:    a.Name,
		Text:    a.Text,
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	_, err = c.do(ctx, http.MethodPost, "/models/annotation", c.tokenQuery(), payload)
	return err
}

// DeleteAnnotation removes an annotation.
func (c *Client) DeleteAnnotation(ctx context.Context, id int64) error {
	q := c.tokenQuery()
	q.Set("id", strconv.FormatInt(id, 10))
	_, err := c.do(ctx, http.MethodDelete, "/models/annotation", q, nil)
	return err
}

// CurrentUserRole resolves the access level of the client's token. An
// empty token is Anonymous without a request.
func (c *Client) CurrentUserRole(ctx context.Context) (Role, error) {
	if c.Token == "" {
		return RoleAnonymous, nil
	}
	body, err := c.do(ctx, http.MethodGet, "/users/access", c.tokenQuery(), nil)
	if err != nil {
		return RoleAnonymous, err
	}
	var resp accessResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return RoleAnonymous, fmt.Errorf("unmarshal access: %w", err)
	}
	return ParseRole(resp.Access), nil
}

func (c *Client) tokenQuery() url.Values {
	q := url.Values{}
	q.Set("token", c.Token)
	return q
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload []byte) ([]byte, error) {
	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		// url.Error quotes the full URL, token included.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	c.log.Debug("api request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, responseError(resp.StatusCode, data)
	}
	return data, nil
}

func responseError(status int, body []byte) error {
	var er errorResponse
	if err := json.Unmarshal(body, &er); err == nil && er.Message != "" {
		return &Error{Status: status, Message: er.Message}
	}
	return &Error{Status: status, Message: http.StatusText(status)}
}

// Message returns the text to show a user for err: the server message for
// an *Error, otherwise err's own text.
func Message(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}
