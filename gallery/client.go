package gallery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	auth "github.com/gallery-collective/go-gallery-auth"
	"github.com/google/uuid"
)

// Client talks to the gallery resource endpoints. Use an http.Client built
// with auth.NewBearerClient so requests carry the session credential.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     auth.Logger

	Artists  *ArtistService
	Artworks *ArtworkService
	Events   *EventService
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient sets the http.Client used for every call.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger auth.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient returns a client rooted at baseURL, for example
// http://localhost:8000/api.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     auth.NopLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	c.Artists = &ArtistService{client: c}
	c.Artworks = &ArtworkService{client: c}
	c.Events = &EventService{client: c}
	return c
}

// resourcePath joins segments into a trailing slash path: /artworks/3/.
func resourcePath(segments ...string) string {
	escaped := make([]string, 0, len(segments))
	for _, s := range segments {
		escaped = append(escaped, url.PathEscape(s))
	}
	return path.Join(append([]string{"/"}, escaped...)...) + "/"
}

func (c *Client) get(ctx context.Context, p string, out any) error {
	return c.do(ctx, http.MethodGet, p, nil, "", out)
}

func (c *Client) delete(ctx context.Context, p string) error {
	return c.do(ctx, http.MethodDelete, p, nil, "", nil)
}

// multipart part names for uploaded files
const (
	imagePart        = "image"
	profileImagePart = "profile_image"
)

func (c *Client) sendForm(ctx context.Context, method, p string, fields [][2]string, part string, upload *Upload, out any) error {
	body, contentType, err := encodeMultipart(fields, part, upload)
	if err != nil {
		return newInputError(err)
	}
	return c.do(ctx, method, p, body, contentType, out)
}

func (c *Client) do(ctx context.Context, method, p string, body io.Reader, contentType string, out any) error {
	op := method + " " + p

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+p, body)
	if err != nil {
		return auth.WrapNetworkError(op, 0, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(auth.HeaderRequestID, requestID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("gallery request failed", "op", op, "request_id", requestID, "error", err)
		return auth.WrapNetworkError(op, 0, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return auth.WrapNetworkError(op, resp.StatusCode, err)
	}

	c.logger.Debug("gallery response", "op", op, "request_id", requestID, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newStatusError(method, p, resp.StatusCode, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return auth.WrapNetworkError(op, resp.StatusCode, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// encodeMultipart writes fields followed by upload, if any, as the file
// part named part.
func encodeMultipart(fields [][2]string, part string, upload *Upload) (io.Reader, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	for _, field := range fields {
		if err := w.WriteField(field[0], field[1]); err != nil {
			return nil, "", err
		}
	}

	if upload != nil && upload.Content != nil {
		name := upload.Filename
		if name == "" {
			name = part
		}
		fw, err := w.CreateFormFile(part, name)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(fw, upload.Content); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}

// listPayload accepts a bare array or a paginated {"results": [...]} page.
type listPayload[T any] []T

func (l *listPayload[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var page struct {
			Results []T `json:"results"`
		}
		if err := json.Unmarshal(data, &page); err != nil {
			return err
		}
		*l = page.Results
		return nil
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*l = items
	return nil
}
