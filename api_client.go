package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultLoginPath    = "/auth/login/"
	DefaultRegisterPath = "/auth/register/"

	// HeaderRequestID correlates client calls with API logs.
	HeaderRequestID = "X-Request-ID"
)

// APIConfig holds the remote auth endpoint configuration.
type APIConfig struct {
	BaseURL      string
	LoginPath    string
	RegisterPath string
	Timeout      time.Duration

	HTTPClient *http.Client
	Logger     Logger
}

// APIConfigFromConfig builds an APIConfig from a Config provider.
func APIConfigFromConfig(cfg Config) APIConfig {
	return APIConfig{
		BaseURL:      cfg.GetBaseURL(),
		LoginPath:    cfg.GetLoginPath(),
		RegisterPath: cfg.GetRegisterPath(),
		Timeout:      cfg.GetRequestTimeout(),
	}
}

// HTTPAuthAPI talks JSON to the gallery auth endpoints.
type HTTPAuthAPI struct {
	config     APIConfig
	httpClient *http.Client
	logger     Logger
}

// NewHTTPAuthAPI creates a new HTTP AuthAPI.
func NewHTTPAuthAPI(cfg APIConfig) *HTTPAuthAPI {
	if cfg.LoginPath == "" {
		cfg.LoginPath = DefaultLoginPath
	}
	if cfg.RegisterPath == "" {
		cfg.RegisterPath = DefaultRegisterPath
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	return &HTTPAuthAPI{
		config:     cfg,
		httpClient: client,
		logger:     normalizeLogger(cfg.Logger),
	}
}

var _ AuthAPI = (*HTTPAuthAPI)(nil)

// Register implements AuthAPI.
func (a *HTTPAuthAPI) Register(ctx context.Context, profile RegistrationProfile) (*RegistrationAck, error) {
	status, body, err := a.postJSON(ctx, a.config.RegisterPath, profile)
	if err != nil {
		return nil, newNetworkError("register", 0, err)
	}

	switch {
	case status >= 200 && status < 300:
		ack := &RegistrationAck{}
		if len(bytes.TrimSpace(body)) == 0 {
			return ack, nil
		}
		if err := json.Unmarshal(body, ack); err != nil {
			return nil, newNetworkError("register", status, err)
		}
		_ = json.Unmarshal(body, &ack.Raw)
		return ack, nil
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return nil, newValidationError(parseFieldErrors(body))
	default:
		return nil, newNetworkError("register", status, nil)
	}
}

// Login implements AuthAPI.
func (a *HTTPAuthAPI) Login(ctx context.Context, creds LoginCredentials) (*LoginResponse, error) {
	status, body, err := a.postJSON(ctx, a.config.LoginPath, creds)
	if err != nil {
		return nil, newNetworkError("login", 0, err)
	}

	switch status {
	case http.StatusOK, http.StatusCreated:
		resp := &LoginResponse{}
		if err := json.Unmarshal(body, resp); err != nil {
			return nil, newNetworkError("login", status, err)
		}
		if resp.Token == "" {
			return nil, newNetworkError("login", status, fmt.Errorf("response has no token"))
		}
		_ = json.Unmarshal(body, &resp.Raw)
		return resp, nil
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
		return nil, newInvalidCredentialsError(parseDetail(body))
	default:
		return nil, newNetworkError("login", status, nil)
	}
}

func (a *HTTPAuthAPI) postJSON(ctx context.Context, path string, payload any) (int, []byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.BaseURL+path, bytes.NewReader(data))
	if err != nil {
		return 0, nil, err
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderRequestID, requestID)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		a.logger.Error("auth api request failed", "path", path, "request_id", requestID, "error", err)
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}

	a.logger.Debug("auth api response", "path", path, "request_id", requestID, "status", resp.StatusCode)
	return resp.StatusCode, body, nil
}

// parseFieldErrors flattens a 400/422 registration body. Objects map fields to
// a message or a list of messages; anything else lands in non_field_errors.
func parseFieldErrors(body []byte) map[string][]string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return map[string][]string{"non_field_errors": {"registration failed"}}
	}

	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err != nil {
		var str string
		if err := json.Unmarshal(body, &str); err == nil && str != "" {
			return map[string][]string{"non_field_errors": {str}}
		}
		return map[string][]string{"non_field_errors": {string(body)}}
	}

	out := make(map[string][]string, len(obj))
	for field, raw := range obj {
		key := field
		if key == "detail" {
			key = "non_field_errors"
		}
		out[key] = append(out[key], flattenMessages(raw)...)
	}
	return out
}

func flattenMessages(raw any) []string {
	switch v := raw.(type) {
	case string:
		return []string{v}
	case []any:
		msgs := make([]string, 0, len(v))
		for _, item := range v {
			msgs = append(msgs, flattenMessages(item)...)
		}
		return msgs
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		msgs := []string{}
		for _, k := range keys {
			for _, m := range flattenMessages(v[k]) {
				msgs = append(msgs, k+": "+m)
			}
		}
		return msgs
	case nil:
		return nil
	default:
		return []string{fmt.Sprint(v)}
	}
}

func parseDetail(body []byte) string {
	var payload struct {
		Detail         string   `json:"detail"`
		NonFieldErrors []string `json:"non_field_errors"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Detail != "" {
		return payload.Detail
	}
	return strings.Join(payload.NonFieldErrors, " ")
}
