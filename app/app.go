// Package app assembles a configured back-office client: session store, expiry timer,
// request executor, authenticator and resource services.
package app

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/jrsteele09/go-practice-client/api"
	"github.com/jrsteele09/go-practice-client/auth"
	"github.com/jrsteele09/go-practice-client/backoffice"
	"github.com/jrsteele09/go-practice-client/expiry"
	"github.com/jrsteele09/go-practice-client/internal/config"
	apperrors "github.com/jrsteele09/go-practice-client/internal/errors"
	"github.com/jrsteele09/go-practice-client/session"
	"github.com/jrsteele09/go-practice-client/session/filestore"
	"github.com/jrsteele09/go-practice-client/session/redisstore"
	sessionrepofake "github.com/jrsteele09/go-practice-client/session/repofake"
	"github.com/rs/zerolog/log"
)

// Session backends accepted in configuration.
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

type App struct {
	config   config.Config
	store    session.Store
	session  *session.Session
	timer    *expiry.Timer
	executor *auth.Executor
	auth     *auth.Authenticator
	services *backoffice.Service
	closers  []io.Closer
}

type Option func(*options)

type options struct {
	navigator  auth.Navigator
	clock      expiry.Clock
	store      session.Store
	httpClient *http.Client
}

// WithNavigator sets where the user is sent after the session is torn down.
func WithNavigator(nav auth.Navigator) Option {
	return func(o *options) {
		o.navigator = nav
	}
}

// WithClock replaces the wall clock used by the session and the expiry timer.
func WithClock(clock expiry.Clock) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// WithStore uses store instead of the one named by the configuration.
func WithStore(store session.Store) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithHTTPClient sends requests through a copy of httpClient. The configured timeout applies
// when httpClient has none.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(o *options) {
		o.httpClient = httpClient
	}
}

// New builds the client and restores the expiry timer of a persisted session. A session
// whose expiry has already passed is torn down before New returns.
func New(ctx context.Context, cfg config.Config, opts ...Option) (*App, error) {
	o := &options{clock: expiry.RealClock}
	for _, opt := range opts {
		opt(o)
	}

	a := &App{config: cfg}

	store := o.store
	if store == nil {
		var err error
		if store, err = a.openStore(ctx); err != nil {
			return nil, err
		}
	}
	a.store = store
	a.session = session.New(store, session.WithNowTime(o.clock.Now))
	a.timer = expiry.NewTimer(a.session, expiry.WithClock(o.clock))

	clientOptions := []api.ClientOption{
		api.WithTimeout(cfg.GetHTTPTimeout()),
		api.WithUserAgent(cfg.GetUserAgent()),
	}
	if o.httpClient != nil {
		httpClient := *o.httpClient
		if httpClient.Timeout == 0 {
			httpClient.Timeout = cfg.GetHTTPTimeout()
		}
		clientOptions = append(clientOptions, api.WithHTTPClient(&httpClient))
	}
	client, err := api.NewClient(cfg.GetBaseURL(), clientOptions...)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("[app.New] %w", err)
	}

	retry := []int{http.StatusUnauthorized}
	if cfg.GetRetryOnForbidden() {
		retry = append(retry, http.StatusForbidden)
	}
	execOptions := []auth.ExecutorOption{
		auth.WithExpiryTimer(a.timer),
		auth.WithRetryStatuses(retry...),
		auth.WithNowTime(o.clock.Now),
	}
	if o.navigator != nil {
		execOptions = append(execOptions, auth.WithNavigator(o.navigator))
	}
	a.executor = auth.NewExecutor(client, a.session, execOptions...)
	a.auth = auth.NewAuthenticator(a.executor)
	a.services = backoffice.New(a.executor)

	restored, err := a.timer.Restore(ctx)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("[app.New] restore session expiry: %w", err)
	}
	log.Debug().Bool("restored", restored).Str("base_url", client.BaseURL()).Msg("Client ready")
	return a, nil
}

func (a *App) openStore(ctx context.Context) (session.Store, error) {
	switch a.config.GetSessionBackend() {
	case BackendFile:
		var fileOptions []filestore.Option
		if encoded := a.config.GetSessionKey(); encoded != "" {
			key, err := filestore.KeyFromBase64(encoded)
			if err != nil {
				return nil, err
			}
			fileOptions = append(fileOptions, filestore.WithKey(key))
		}
		return filestore.New(a.config.GetSessionFile(), fileOptions...), nil
	case BackendRedis:
		store, err := redisstore.New(ctx, a.config.GetRedisURL(), a.config.GetRedisPrefix())
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store)
		return store, nil
	case BackendMemory:
		return sessionrepofake.NewFakeSessionStore(), nil
	default:
		return nil, apperrors.Wrapf(apperrors.ErrUnknownBackend, "%q", a.config.GetSessionBackend())
	}
}

// Close stops the expiry timer and releases the session store. The session itself is kept.
func (a *App) Close() {
	if a.timer != nil {
		a.timer.Stop()
	}
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			log.Err(err).Msg("Failed to close session store")
		}
	}
	a.closers = nil
}

func (a *App) Config() config.Config { return a.config }

func (a *App) Session() *session.Session { return a.session }

func (a *App) Timer() *expiry.Timer { return a.timer }

func (a *App) Executor() *auth.Executor { return a.executor }

func (a *App) Auth() *auth.Authenticator { return a.auth }

func (a *App) Services() *backoffice.Service { return a.services }
