// Package authclient - HTTP клиент сервиса аутентификации с автоматическим
// обновлением токенов. Ответ 401 приводит ровно к одному refresh и одному
// повтору исходного запроса.
package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"estatehub/pkg/logger"
)

// Маршруты сервиса аутентификации.
const (
	PathRegister = "/api/v1/auth/register"
	PathLogin    = "/api/v1/auth/login"
	PathRefresh  = "/api/v1/auth/refresh"
	PathLogout   = "/api/v1/auth/logout"
)

const (
	logRefreshing     = "access token rejected, refreshing session"
	logSessionEnded   = "refresh failed, session ended"
	logRefreshSkipped = "session already refreshed by concurrent request"
	logLogoutFailed   = "logout request failed"

	logRefreshUnavailable = "refresh request failed, session kept"

	errCtxBuildRequest = "building request"
	errCtxSendRequest  = "sending request"
	errCtxDecode       = "decoding response"
	errCtxReadBody     = "buffering request body"

	refreshFlightKey = "refresh"

	defaultRefreshTimeout = 10 * time.Second
)

// Ошибки клиента.
var (
	ErrSessionEnded = errors.New("session ended")
	ErrNoSession    = errors.New("no active session")
)

// APIError - ответ сервиса с кодом ошибки.
type APIError struct {
	StatusCode int
	Message    string
	Field      string
}

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("auth api: %d %s (%s)", e.StatusCode, e.Message, e.Field)
	}
	return fmt.Sprintf("auth api: %d %s", e.StatusCode, e.Message)
}

// User - публичное представление учетной записи.
type User struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Session - токены текущей сессии.
type Session struct {
	AccessToken      string    `json:"token"`
	RefreshToken     string    `json:"refresh_token"`
	ExpiresAt        time.Time `json:"expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
	User             User      `json:"user"`
}

// RegisterRequest - данные регистрации.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// Config - настройки клиента.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	// OnSessionEnded вызывается, когда refresh не удался и локальная сессия очищена.
	OnSessionEnded func()
	// RefreshTimeout ограничивает общий запрос refresh. По умолчанию 10s.
	RefreshTimeout time.Duration
}

// Client хранит токены сессии и подставляет access-токен в запросы.
type Client struct {
	baseURL        string
	http           *http.Client
	onSessionEnded func()
	refreshTimeout time.Duration

	mu      sync.RWMutex
	session *Session

	flight singleflight.Group
}

// New создает клиента.
func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	refreshTimeout := cfg.RefreshTimeout
	if refreshTimeout <= 0 {
		refreshTimeout = defaultRefreshTimeout
	}
	return &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		http:           httpClient,
		onSessionEnded: cfg.OnSessionEnded,
		refreshTimeout: refreshTimeout,
	}
}

// Session возвращает копию текущей сессии или nil.
func (c *Client) Session() *Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return nil
	}
	s := *c.session
	return &s
}

// SetSession восстанавливает сохраненную сессию.
func (c *Client) SetSession(s *Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s == nil {
		c.session = nil
		return
	}
	copied := *s
	c.session = &copied
}

// Register регистрирует учетную запись и открывает сессию.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*Session, error) {
	return c.openSession(ctx, PathRegister, req)
}

// Login открывает сессию по email и паролю.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	return c.openSession(ctx, PathLogin, map[string]string{"email": email, "password": password})
}

// Logout закрывает сессию на сервере и всегда очищает локальное состояние.
func (c *Client) Logout(ctx context.Context) error {
	current := c.Session()
	c.SetSession(nil)
	if current == nil {
		return nil
	}

	resp, err := c.postJSON(ctx, PathLogout, map[string]string{"refresh_token": current.RefreshToken})
	if err != nil {
		logger.Log(ctx).Warn(ctx, logLogoutFailed, zap.Error(err))
		return err
	}
	defer drain(resp)
	if resp.StatusCode != http.StatusOK {
		return decodeAPIError(resp)
	}
	return nil
}

// Do отправляет запрос с access-токеном. На 401 выполняется один refresh
// и один повтор. Если сервер отклонил refresh, сессия очищается и
// возвращается ErrSessionEnded. Сетевые ошибки и 5xx сессию не трогают.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if err := bufferBody(req); err != nil {
		return nil, err
	}

	current := c.Session()
	if current == nil {
		return nil, ErrNoSession
	}

	resp, err := c.send(ctx, req, current.AccessToken)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}
	drain(resp)

	logger.Log(ctx).Debug(ctx, logRefreshing, zap.String("path", req.URL.Path))
	refreshed, err := c.refresh(ctx, current.AccessToken)
	if err != nil {
		return nil, err
	}

	return c.send(ctx, req, refreshed.AccessToken)
}

func (c *Client) send(ctx context.Context, req *http.Request, accessToken string) (*http.Response, error) {
	attempt := req.Clone(ctx)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", errCtxReadBody, err)
		}
		attempt.Body = body
	}
	attempt.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.http.Do(attempt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtxSendRequest, err)
	}
	return resp, nil
}

// refresh обновляет сессию. Параллельные вызовы разделяют один запрос,
// а вызов со старым access-токеном после чужого refresh получает текущую сессию.
// Общий запрос не зависит от отмены контекста отдельного вызывающего.
func (c *Client) refresh(ctx context.Context, rejectedAccess string) (*Session, error) {
	flightCtx := context.WithoutCancel(ctx)
	ch := c.flight.DoChan(refreshFlightKey, func() (any, error) {
		current := c.Session()
		if current == nil {
			return nil, ErrSessionEnded
		}
		if current.AccessToken != rejectedAccess {
			logger.Log(flightCtx).Debug(flightCtx, logRefreshSkipped)
			return current, nil
		}

		reqCtx, cancel := context.WithTimeout(flightCtx, c.refreshTimeout)
		defer cancel()

		session, err := c.requestSession(reqCtx, PathRefresh, map[string]string{"refresh_token": current.RefreshToken})
		if err != nil {
			if !isRejection(err) {
				logger.Log(flightCtx).Warn(flightCtx, logRefreshUnavailable, zap.Error(err))
				return nil, err
			}
			c.endSession(flightCtx, err)
			return nil, fmt.Errorf("%w: %w", ErrSessionEnded, err)
		}
		c.SetSession(session)
		return session, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Session), nil
	}
}

// isRejection сообщает, что сервер отклонил refresh-токен, а не оказался недоступен.
func isRejection(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode >= http.StatusBadRequest && apiErr.StatusCode < http.StatusInternalServerError
}

func (c *Client) endSession(ctx context.Context, cause error) {
	logger.Log(ctx).Info(ctx, logSessionEnded, zap.Error(cause))
	c.SetSession(nil)
	if c.onSessionEnded != nil {
		c.onSessionEnded()
	}
}

func (c *Client) openSession(ctx context.Context, path string, body any) (*Session, error) {
	session, err := c.requestSession(ctx, path, body)
	if err != nil {
		return nil, err
	}
	c.SetSession(session)
	return c.Session(), nil
}

func (c *Client) requestSession(ctx context.Context, path string, body any) (*Session, error) {
	resp, err := c.postJSON(ctx, path, body)
	if err != nil {
		return nil, err
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, decodeAPIError(resp)
	}

	var session Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("%s: %w", errCtxDecode, err)
	}
	return &session, nil
}

func (c *Client) postJSON(ctx context.Context, path string, body any) (*http.Response, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtxBuildRequest, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtxBuildRequest, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtxSendRequest, err)
	}
	return resp, nil
}

func bufferBody(req *http.Request) error {
	if req.Body == nil || req.Body == http.NoBody || req.GetBody != nil {
		return nil
	}
	raw, err := io.ReadAll(req.Body)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtxReadBody, err)
	}
	_ = req.Body.Close()
	req.Body = io.NopCloser(bytes.NewReader(raw))
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(raw)), nil
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	var body struct {
		Error string `json:"error"`
		Field string `json:"field"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		apiErr.Message = body.Error
		apiErr.Field = body.Field
	}
	return apiErr
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
