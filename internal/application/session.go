package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/waselni/waselni-cli/internal/domain"
	"github.com/waselni/waselni-cli/internal/logging"
	"github.com/waselni/waselni-cli/internal/metrics"
	"github.com/waselni/waselni-cli/internal/ports"
	"golang.org/x/sync/singleflight"
)

const (
	loginPath    = "/auth/login"
	registerPath = "/auth/register"
	refreshPath  = "/auth/refresh"
	currentPath  = "/users/me"

	defaultRefreshTimeout = 30 * time.Second
)

// Request is a call issued through the session. The access token is attached
// by the session; callers never set Authorization themselves.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	Header http.Header
}

// pendingRequest tracks one IssueRequest call. retried is set once the
// request has been re-issued after a refresh and is never cleared.
type pendingRequest struct {
	Request
	retried bool
}

// State is a read-only view of the session used by consumers that render or
// gate on authentication.
type State struct {
	User            *domain.User
	HasToken        bool
	IsAuthenticated bool
	IsAdmin         bool
	IsShipper       bool
	IsCarrier       bool
	IsCarrierPro    bool
}

func newState(user *domain.User, hasToken bool) State {
	state := State{HasToken: hasToken}
	if user == nil {
		return state
	}

	cached := *user
	state.User = &cached
	state.IsAuthenticated = hasToken
	state.IsAdmin = cached.Role.IsAdmin()
	state.IsShipper = cached.Role.IsShipper()
	state.IsCarrier = cached.Role.IsCarrier()
	state.IsCarrierPro = cached.Role.IsCarrierPro()
	return state
}

type SessionOptions struct {
	Logger  *slog.Logger
	Metrics *metrics.Session
	// RefreshTimeout bounds a shared refresh, which keeps running when the
	// caller that started it is cancelled.
	RefreshTimeout time.Duration
}

// Session owns the token pair of one profile and issues every backend call
// on behalf of the rest of the application.
type Session struct {
	backend ports.Backend
	vault   *TokenVault
	logger  *slog.Logger
	metrics *metrics.Session

	refreshTimeout time.Duration
	refreshGroup   singleflight.Group

	mu           sync.RWMutex
	user         *domain.User
	hasToken     bool
	listeners    map[int]func(State)
	nextListener int
}

func NewSession(backend ports.Backend, vault *TokenVault, opts SessionOptions) *Session {
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewSession()
	}
	if opts.RefreshTimeout <= 0 {
		opts.RefreshTimeout = defaultRefreshTimeout
	}

	return &Session{
		backend:        backend,
		vault:          vault,
		logger:         opts.Logger,
		metrics:        opts.Metrics,
		refreshTimeout: opts.RefreshTimeout,
		listeners:      map[int]func(State){},
	}
}

func (s *Session) Configure(baseURL string) error {
	return s.backend.Configure(baseURL)
}

func (s *Session) BaseURL() string {
	return s.backend.BaseURL()
}

func (s *Session) Metrics() *metrics.Session {
	return s.metrics
}

// CurrentAccessToken reads the token from the secret store, so sessions in
// other processes observe the same value.
func (s *Session) CurrentAccessToken(ctx context.Context) (string, error) {
	return s.vault.AccessToken(ctx)
}

func (s *Session) IssueRequest(ctx context.Context, req Request) (ports.BackendResponse, error) {
	resp, err := s.issue(ctx, &pendingRequest{Request: req})
	if err != nil {
		s.metrics.Requests.WithLabelValues(metrics.OutcomeFailure).Inc()
		return resp, err
	}

	s.metrics.Requests.WithLabelValues(metrics.OutcomeSuccess).Inc()
	return resp, nil
}

func (s *Session) issue(ctx context.Context, pending *pendingRequest) (ports.BackendResponse, error) {
	token, err := s.vault.AccessToken(ctx)
	if err != nil {
		return ports.BackendResponse{}, err
	}

	for {
		s.logger.Debug("issuing request", slog.String("method", pending.Method), slog.String("path", pending.Path), slog.Bool("retried", pending.retried))

		resp, err := s.backend.Send(ctx, ports.BackendRequest{
			Method:      pending.Method,
			Path:        pending.Path,
			Query:       pending.Query,
			Body:        pending.Body,
			Header:      pending.Header,
			BearerToken: token,
		})
		if err == nil {
			return resp, nil
		}
		if !domain.IsAuthorizationFailure(err) {
			return resp, err
		}

		s.logger.Debug("authorization failure", slog.String("path", pending.Path), slog.Bool("retried", pending.retried))

		if pending.retried {
			s.forceLogout(ctx, "request rejected after refresh")
			return resp, fmt.Errorf("%w: %w", domain.ErrAuthorizationInvalid, err)
		}

		refreshToken, readErr := s.vault.RefreshToken(ctx)
		if readErr != nil {
			return resp, errors.Join(err, readErr)
		}
		if refreshToken == "" {
			if token != "" && s.loggedOutSince(ctx) {
				return resp, fmt.Errorf("%w: %w", domain.ErrAuthorizationInvalid, err)
			}
			return resp, err
		}

		renewed, refreshErr := s.recoverToken(ctx, token, refreshToken)
		if refreshErr != nil {
			if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(refreshErr, ctxErr) {
				return resp, errors.Join(err, ctxErr)
			}
			return resp, fmt.Errorf("%w: %w", domain.ErrAuthorizationInvalid, err)
		}

		pending.retried = true
		s.metrics.Retries.Inc()
		token = renewed
	}
}

// loggedOutSince reports whether the stored pair was cleared while a request
// that carried a token was in flight.
func (s *Session) loggedOutSince(ctx context.Context) bool {
	current, err := s.vault.AccessToken(ctx)
	return err == nil && current == ""
}

// recoverToken returns an access token to retry with. When another request
// already replaced sentToken, the stored token is reused without a refresh.
// Concurrent refreshes with the same refresh token share one backend call.
func (s *Session) recoverToken(ctx context.Context, sentToken, refreshToken string) (string, error) {
	current, err := s.vault.AccessToken(ctx)
	if err != nil {
		return "", err
	}
	if current != "" && current != sentToken {
		s.metrics.Refresh.WithLabelValues(metrics.ResultCoalesced).Inc()
		s.logger.Debug("access token already refreshed")
		return current, nil
	}

	ch := s.refreshGroup.DoChan(refreshToken, func() (any, error) {
		refreshCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.refreshTimeout)
		defer cancel()

		return s.renew(refreshCtx)
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case result := <-ch:
		if result.Err != nil {
			return "", result.Err
		}
		if result.Shared {
			s.metrics.Refresh.WithLabelValues(metrics.ResultCoalesced).Inc()
		}
		return result.Val.(string), nil
	}
}

// renew refreshes and stores the new access token. Any failure logs the
// session out.
func (s *Session) renew(ctx context.Context) (string, error) {
	s.logger.Debug("refreshing access token")

	result, err := s.Refresh(ctx)
	if err == nil {
		err = s.storeRefresh(ctx, result)
	}
	if err != nil {
		s.metrics.Refresh.WithLabelValues(metrics.ResultFailure).Inc()
		s.logger.Debug("refresh failed", logging.Err(err))
		s.forceLogout(ctx, "refresh failed")
		return "", err
	}

	s.metrics.Refresh.WithLabelValues(metrics.ResultSuccess).Inc()
	s.logger.Debug("access token refreshed")
	return result.AccessToken, nil
}

func (s *Session) storeRefresh(ctx context.Context, result domain.RefreshResult) error {
	var err error
	if result.RefreshToken != "" {
		err = s.vault.Save(ctx, domain.Tokens{AccessToken: result.AccessToken, RefreshToken: result.RefreshToken})
	} else {
		err = s.vault.SaveAccessToken(ctx, result.AccessToken)
	}
	if err != nil {
		return err
	}

	s.setTokenPresent(true)
	return nil
}

// Refresh exchanges the stored refresh token for a new access token. It does
// not modify stored state; the caller decides what to keep.
func (s *Session) Refresh(ctx context.Context) (domain.RefreshResult, error) {
	refreshToken, err := s.vault.RefreshToken(ctx)
	if err != nil {
		return domain.RefreshResult{}, err
	}
	if refreshToken == "" {
		return domain.RefreshResult{}, domain.ErrNotAuthenticated
	}

	resp, err := s.backend.Send(ctx, ports.BackendRequest{
		Method:      http.MethodPost,
		Path:        refreshPath,
		BearerToken: refreshToken,
	})
	if err != nil {
		return domain.RefreshResult{}, fmt.Errorf("refresh access token: %w", err)
	}

	var result domain.RefreshResult
	if err := resp.Decode(&result); err != nil {
		return domain.RefreshResult{}, fmt.Errorf("refresh access token: %w", err)
	}
	if result.AccessToken == "" {
		return domain.RefreshResult{}, fmt.Errorf("refresh access token: %w: missing access_token", domain.ErrUnexpectedResponse)
	}

	return result, nil
}

// Renew refreshes the access token on demand and stores it. Failure logs the
// session out, exactly as a refresh triggered by a rejected request does.
func (s *Session) Renew(ctx context.Context) error {
	refreshToken, err := s.vault.RefreshToken(ctx)
	if err != nil {
		return err
	}
	if refreshToken == "" {
		return domain.ErrNotAuthenticated
	}

	sent, err := s.vault.AccessToken(ctx)
	if err != nil {
		return err
	}

	if _, err := s.recoverToken(ctx, sent, refreshToken); err != nil {
		if ctx.Err() != nil {
			return err
		}
		return fmt.Errorf("%w: %w", domain.ErrAuthorizationInvalid, err)
	}

	return nil
}

func (s *Session) Login(ctx context.Context, email, password string) (domain.User, error) {
	credentials := domain.Credentials{Email: email, Password: password}
	if err := domain.Validate(credentials); err != nil {
		return domain.User{}, err
	}

	return s.authenticate(ctx, loginPath, credentials)
}

func (s *Session) Register(ctx context.Context, registration domain.Registration) (domain.User, error) {
	if err := domain.Validate(registration); err != nil {
		return domain.User{}, err
	}

	return s.authenticate(ctx, registerPath, registration)
}

// authenticate posts credentials and, only on success, stores the token pair
// and caches the returned user.
func (s *Session) authenticate(ctx context.Context, path string, payload any) (domain.User, error) {
	resp, err := s.backend.Send(ctx, ports.BackendRequest{
		Method: http.MethodPost,
		Path:   path,
		Body:   payload,
	})
	if err != nil {
		return domain.User{}, err
	}

	var result domain.AuthResult
	if err := resp.Decode(&result); err != nil {
		return domain.User{}, err
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		return domain.User{}, fmt.Errorf("%w: missing tokens in %s response", domain.ErrUnexpectedResponse, path)
	}

	if err := s.vault.Save(ctx, domain.Tokens{AccessToken: result.AccessToken, RefreshToken: result.RefreshToken}); err != nil {
		return domain.User{}, err
	}

	s.setUser(&result.User, true)
	s.logger.Debug("authenticated", slog.String("path", path), slog.String("user_id", string(result.User.ID)))
	return result.User, nil
}

// Logout clears stored tokens and the cached user. It is safe to call when
// already logged out.
func (s *Session) Logout(ctx context.Context) error {
	err := s.logout(ctx)
	s.metrics.Logouts.WithLabelValues(metrics.ReasonUser).Inc()
	return err
}

func (s *Session) forceLogout(ctx context.Context, reason string) {
	s.logger.Warn("session logged out", slog.String("reason", reason))
	s.metrics.Logouts.WithLabelValues(metrics.ReasonForced).Inc()

	if err := s.logout(ctx); err != nil {
		s.logger.Warn("clear stored tokens", logging.Err(err))
	}
}

func (s *Session) logout(ctx context.Context) error {
	err := s.vault.Clear(context.WithoutCancel(ctx))
	s.setUser(nil, false)
	return err
}

// Restore rebuilds the session from stored tokens by fetching the current
// user. Without a stored access token it does nothing. When the user cannot
// be fetched the session is logged out, unless the backend was unreachable.
func (s *Session) Restore(ctx context.Context) (State, error) {
	token, err := s.vault.AccessToken(ctx)
	if err != nil {
		return s.State(), err
	}
	if token == "" {
		s.setUser(nil, false)
		return s.State(), nil
	}

	s.setTokenPresent(true)

	user, err := Fetch[domain.User](ctx, s, Request{Method: http.MethodGet, Path: currentPath})
	if err != nil {
		if !errors.Is(err, domain.ErrUnreachable) && !errors.Is(err, context.Canceled) && !errors.Is(err, domain.ErrAuthorizationInvalid) {
			s.forceLogout(ctx, "current user unavailable")
		}
		return s.State(), err
	}

	s.setUser(&user, true)
	return s.State(), nil
}

// UpdateProfile patches the current user and replaces the cached copy with
// the server's response.
func (s *Session) UpdateProfile(ctx context.Context, update domain.UserUpdate) (domain.User, error) {
	if update.Empty() {
		return domain.User{}, fmt.Errorf("%w: no fields to update", domain.ErrValidationFailed)
	}

	user, err := Fetch[domain.User](ctx, s, Request{Method: http.MethodPatch, Path: currentPath, Body: update})
	if err != nil {
		return domain.User{}, err
	}

	s.setUser(&user, true)
	return user, nil
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return newState(s.user, s.hasToken)
}

func (s *Session) IsAuthenticated() bool { return s.State().IsAuthenticated }
func (s *Session) IsAdmin() bool         { return s.State().IsAdmin }
func (s *Session) IsShipper() bool       { return s.State().IsShipper }
func (s *Session) IsCarrier() bool       { return s.State().IsCarrier }
func (s *Session) IsCarrierPro() bool    { return s.State().IsCarrierPro }

// Subscribe registers fn to be called with the new state after every change
// of the cached user or token presence. The returned func unregisters it.
func (s *Session) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

func (s *Session) setUser(user *domain.User, hasToken bool) {
	s.mu.Lock()
	if user != nil {
		cached := *user
		user = &cached
	}
	s.user = user
	s.hasToken = hasToken
	s.mu.Unlock()

	s.notify()
}

func (s *Session) setTokenPresent(present bool) {
	s.mu.Lock()
	changed := s.hasToken != present
	s.hasToken = present
	s.mu.Unlock()

	if changed {
		s.notify()
	}
}

func (s *Session) notify() {
	s.mu.RLock()
	state := newState(s.user, s.hasToken)
	listeners := make([]func(State), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.RUnlock()

	for _, fn := range listeners {
		fn(state)
	}
}

// Fetch issues req through the session and decodes the JSON response into T.
func Fetch[T any](ctx context.Context, s *Session, req Request) (T, error) {
	var result T

	resp, err := s.IssueRequest(ctx, req)
	if err != nil {
		return result, err
	}
	if err := resp.Decode(&result); err != nil {
		return result, fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
	}

	return result, nil
}
