package authclient_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estatehub/pkg/authclient"
)

type fakeAuthServer struct {
	mu           sync.Mutex
	generation   int
	access       string
	refresh      string
	refreshCalls atomic.Int32
	dataCalls    atomic.Int32
	logoutCalls  atomic.Int32
	refreshDelay time.Duration
	failRefresh  bool
	unavailable  bool
	alwaysReject bool
}

func (f *fakeAuthServer) rotate() map[string]any {
	f.generation++
	f.access = fmt.Sprintf("access-%d", f.generation)
	f.refresh = fmt.Sprintf("refresh-%d", f.generation)
	return map[string]any{
		"token":         f.access,
		"refresh_token": f.refresh,
		"user":          map[string]string{"name": "Ali", "email": "ali@x.com", "role": "USER"},
	}
}

func (f *fakeAuthServer) expireAccess() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.access = "expired"
}

func (f *fakeAuthServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case authclient.PathLogin:
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "secret123" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
			return
		}
		f.mu.Lock()
		resp := f.rotate()
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, resp)

	case authclient.PathRefresh:
		f.refreshCalls.Add(1)
		time.Sleep(f.refreshDelay)
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)

		f.mu.Lock()
		defer f.mu.Unlock()
		if f.unavailable {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "service unavailable"})
			return
		}
		if f.failRefresh || body["refresh_token"] != f.refresh {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
			return
		}
		writeJSON(w, http.StatusOK, f.rotate())

	case authclient.PathLogout:
		f.logoutCalls.Add(1)
		writeJSON(w, http.StatusOK, map[string]string{"message": "logged out successfully"})

	case "/api/v1/listings":
		f.dataCalls.Add(1)
		f.mu.Lock()
		valid := !f.alwaysReject && r.Header.Get("Authorization") == "Bearer "+f.access
		f.mu.Unlock()
		if !valid {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
			return
		}
		body, _ := io.ReadAll(r.Body)
		writeJSON(w, http.StatusOK, map[string]string{"echo": string(body)})

	default:
		http.NotFound(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func newClient(t *testing.T, fake *fakeAuthServer, onEnded func()) (*authclient.Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client := authclient.New(authclient.Config{BaseURL: srv.URL + "/", OnSessionEnded: onEnded})
	_, err := client.Login(context.Background(), "ali@x.com", "secret123")
	require.NoError(t, err)
	return client, srv
}

func get(t *testing.T, client *authclient.Client, srv *httptest.Server) (*http.Response, error) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/listings", nil)
	require.NoError(t, err)
	return client.Do(context.Background(), req)
}

func TestDoWithValidToken(t *testing.T) {
	fake := &fakeAuthServer{}
	client, srv := newClient(t, fake, nil)

	resp, err := get(t, client, srv)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Zero(t, fake.refreshCalls.Load())
	assert.Equal(t, "Ali", client.Session().User.Name)
}

func TestDoRefreshesOnceAndReplays(t *testing.T) {
	fake := &fakeAuthServer{}
	client, srv := newClient(t, fake, nil)
	before := client.Session()
	fake.expireAccess()

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/listings", strings.NewReader(`{"title":"flat"}`))
	require.NoError(t, err)
	resp, err := client.Do(context.Background(), req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, `{"title":"flat"}`, body["echo"])

	assert.Equal(t, int32(1), fake.refreshCalls.Load())
	assert.Equal(t, int32(2), fake.dataCalls.Load())
	assert.NotEqual(t, before.RefreshToken, client.Session().RefreshToken)
}

func TestDoEndsSessionWhenRefreshFails(t *testing.T) {
	fake := &fakeAuthServer{failRefresh: true}
	var ended atomic.Int32
	client, srv := newClient(t, fake, func() { ended.Add(1) })
	fake.expireAccess()

	resp, err := get(t, client, srv)
	require.ErrorIs(t, err, authclient.ErrSessionEnded)
	assert.Nil(t, resp)

	assert.Equal(t, int32(1), fake.refreshCalls.Load())
	assert.Equal(t, int32(1), fake.dataCalls.Load())
	assert.Equal(t, int32(1), ended.Load())
	assert.Nil(t, client.Session())

	_, err = get(t, client, srv)
	require.ErrorIs(t, err, authclient.ErrNoSession)
	assert.Equal(t, int32(1), fake.refreshCalls.Load())
}

func TestDoKeepsSessionWhenRefreshUnavailable(t *testing.T) {
	fake := &fakeAuthServer{unavailable: true}
	var ended atomic.Int32
	client, srv := newClient(t, fake, func() { ended.Add(1) })
	before := client.Session()
	fake.expireAccess()

	resp, err := get(t, client, srv)
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.NotErrorIs(t, err, authclient.ErrSessionEnded)

	var apiErr *authclient.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)

	assert.Zero(t, ended.Load())
	require.NotNil(t, client.Session())
	assert.Equal(t, before.RefreshToken, client.Session().RefreshToken)
}

func TestCancelledCallerDoesNotEndSharedRefresh(t *testing.T) {
	fake := &fakeAuthServer{refreshDelay: 200 * time.Millisecond}
	var ended atomic.Int32
	client, srv := newClient(t, fake, func() { ended.Add(1) })
	fake.expireAccess()

	cancelledCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	time.AfterFunc(50*time.Millisecond, cancel)

	var wg sync.WaitGroup
	var cancelledErr, healthyErr error
	var healthyStatus int

	wg.Add(2)
	go func() {
		defer wg.Done()
		req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/listings", nil)
		if err != nil {
			cancelledErr = err
			return
		}
		resp, err := client.Do(cancelledCtx, req)
		if resp != nil {
			resp.Body.Close()
		}
		cancelledErr = err
	}()
	go func() {
		defer wg.Done()
		req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/listings", nil)
		if err != nil {
			healthyErr = err
			return
		}
		resp, err := client.Do(context.Background(), req)
		if err != nil {
			healthyErr = err
			return
		}
		defer resp.Body.Close()
		healthyStatus = resp.StatusCode
	}()
	wg.Wait()

	require.ErrorIs(t, cancelledErr, context.Canceled)
	require.NoError(t, healthyErr)
	assert.Equal(t, http.StatusOK, healthyStatus)

	assert.Equal(t, int32(1), fake.refreshCalls.Load())
	assert.Zero(t, ended.Load())
	assert.NotNil(t, client.Session())
}

func TestDoDoesNotRefreshTwice(t *testing.T) {
	fake := &fakeAuthServer{alwaysReject: true}
	client, srv := newClient(t, fake, nil)

	resp, err := get(t, client, srv)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, int32(1), fake.refreshCalls.Load())
	assert.Equal(t, int32(2), fake.dataCalls.Load())
}

func TestConcurrentRequestsShareRefresh(t *testing.T) {
	fake := &fakeAuthServer{refreshDelay: 50 * time.Millisecond}
	client, srv := newClient(t, fake, nil)
	fake.expireAccess()

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/listings", nil)
			if err != nil {
				errs <- err
				return
			}
			resp, err := client.Do(context.Background(), req)
			if err != nil {
				errs <- err
				return
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				errs <- fmt.Errorf("unexpected status %d", resp.StatusCode)
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), fake.refreshCalls.Load())
	assert.NotNil(t, client.Session())
}

func TestLoginFailure(t *testing.T) {
	srv := httptest.NewServer(&fakeAuthServer{})
	defer srv.Close()

	client := authclient.New(authclient.Config{BaseURL: srv.URL})
	session, err := client.Login(context.Background(), "ali@x.com", "wrong")
	require.Error(t, err)
	assert.Nil(t, session)

	var apiErr *authclient.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "invalid credentials", apiErr.Message)
	assert.Nil(t, client.Session())
}

func TestLogout(t *testing.T) {
	fake := &fakeAuthServer{}
	client, _ := newClient(t, fake, nil)

	require.NoError(t, client.Logout(context.Background()))
	assert.Nil(t, client.Session())
	assert.Equal(t, int32(1), fake.logoutCalls.Load())

	require.NoError(t, client.Logout(context.Background()))
	assert.Equal(t, int32(1), fake.logoutCalls.Load())
}
