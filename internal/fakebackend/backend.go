// Package fakebackend is an in-memory stand-in for the back-office REST backend, used by tests.
// It issues opaque or JWT access tokens, keeps records per collection and can be scripted to
// fail specific routes.
package fakebackend

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

const DefaultExpiresIn = 900

// Account is a user the backend accepts at login.
type Account struct {
	Username     string
	Password     string
	MasterAdmin  bool
	User         map[string]any
	Organization map[string]any // nil for master admins
}

type Backend struct {
	mu sync.Mutex

	router   chi.Router
	accounts map[string]Account
	access   map[string]string // access token -> username
	refresh  map[string]string // refresh token -> username
	issued   int

	expiresIn   int
	jwtTTL      time.Duration
	echoRefresh bool
	nowTime     func() time.Time

	collections map[string]*collection
	failures    map[string][]int
	calls       map[string]int
	uploads     []Upload
}

// Upload is a file received by the upload endpoint.
type Upload struct {
	ID       string
	Filename string
	Content  []byte
	Fields   map[string]string
}

type Option func(*Backend)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(b *Backend) {
		b.nowTime = nowFunc
	}
}

// WithJWTAccessTokens issues HS256 JWT access tokens that expire after ttl, and omits
// expires_in from token responses.
func WithJWTAccessTokens(ttl time.Duration) Option {
	return func(b *Backend) {
		b.jwtTTL = ttl
	}
}

// WithRefreshEcho makes the refresh endpoint return a fresh-looking refresh token alongside
// the access token. The original refresh token stays valid.
func WithRefreshEcho() Option {
	return func(b *Backend) {
		b.echoRefresh = true
	}
}

func New(options ...Option) *Backend {
	b := &Backend{
		accounts:    make(map[string]Account),
		access:      make(map[string]string),
		refresh:     make(map[string]string),
		expiresIn:   DefaultExpiresIn,
		nowTime:     time.Now,
		collections: make(map[string]*collection),
		failures:    make(map[string][]int),
		calls:       make(map[string]int),
	}
	for _, name := range []string{
		Organizations, Users, Clients, Directors, BusinessTypes, Services, EmailTemplates, MailSchedules,
	} {
		b.collections[name] = newCollection(name)
	}
	for _, opt := range options {
		opt(b)
	}
	b.router = b.routes()
	return b
}

// Start serves the backend on a local httptest server.
func (b *Backend) Start() *httptest.Server {
	return httptest.NewServer(b)
}

func (b *Backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.router.ServeHTTP(w, r)
}

func (b *Backend) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(b.scripted)

	r.Post("/auth/login", b.login(false))
	r.Post("/auth/master-admin/login", b.login(true))
	r.Post("/auth/refresh", b.refreshToken)

	r.Group(func(r chi.Router) {
		r.Use(b.requireBearer)

		r.Post("/auth/logout", b.logout)
		r.Get("/auth/me", b.me)

		r.Group(func(r chi.Router) {
			r.Use(b.requireMasterAdmin)
			b.crud(r, "/organizations", Organizations, true)
			r.Put("/organizations/{id}/status", b.setField(Organizations, "is_active"))
		})

		b.crud(r, "/users", Users, true)
		b.crud(r, "/clients", Clients, true)
		r.Get("/clients/{id}/directors", b.listDirectors)
		r.Post("/clients/{id}/directors", b.createDirector)
		r.Put("/directors/{id}", b.update(Directors))
		r.Delete("/directors/{id}", b.remove(Directors))

		b.crud(r, "/business-types", BusinessTypes, false)
		b.crud(r, "/services", Services, false)

		r.Post("/files/upload", b.upload)

		b.crud(r, "/email-templates", EmailTemplates, true)
		r.Post("/email-templates/{id}/preview", b.previewTemplate)

		r.Post("/mail-schedules/bulk", b.bulkSchedule)
		b.crud(r, "/mail-schedules", MailSchedules, true)
		r.Put("/mail-schedules/{id}/status", b.setField(MailSchedules, "status"))
	})
	return r
}

// scripted counts every call and serves queued failures before routing further.
func (b *Backend) scripted(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.Method + " " + r.URL.Path

		b.mu.Lock()
		b.calls[route]++
		status := 0
		if queue := b.failures[route]; len(queue) > 0 {
			status = queue[0]
			b.failures[route] = queue[1:]
		}
		b.mu.Unlock()

		if status != 0 {
			writeError(w, status, fmt.Sprintf("scripted failure for %s", route))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AddAccount registers a user the login endpoints accept.
func (b *Backend) AddAccount(account Account) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if account.User == nil {
		account.User = map[string]any{"email": account.Username}
	}
	b.accounts[account.Username] = account
}

// FailNext makes the next n calls to route ("METHOD /path") answer with status.
func (b *Backend) FailNext(route string, status int, n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := 0; i < n; i++ {
		b.failures[route] = append(b.failures[route], status)
	}
}

// Calls returns how many times route ("METHOD /path") was called.
func (b *Backend) Calls(route string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[route]
}

// SetExpiresIn changes the lifetime stated in token responses. Zero omits expires_in.
func (b *Backend) SetExpiresIn(seconds int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.expiresIn = seconds
}

// ExpireAccessTokens invalidates every issued access token, as if their lifetime had passed.
func (b *Backend) ExpireAccessTokens() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.access = make(map[string]string)
}

// RevokeRefreshTokens invalidates every issued refresh token.
func (b *Backend) RevokeRefreshTokens() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refresh = make(map[string]string)
}

// Seed stores records in a collection and returns their ids in order.
func (b *Backend) Seed(name string, records ...map[string]any) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	c := b.collections[name]
	ids := make([]string, 0, len(records))
	for _, rec := range records {
		ids = append(ids, c.insert(rec)["id"].(string))
	}
	return ids
}

// Record returns a stored record by id.
func (b *Backend) Record(name, id string) (map[string]any, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.collections[name].get(id)
	return rec, ok
}

// Count returns the number of records in a collection.
func (b *Backend) Count(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.collections[name].order)
}

func (b *Backend) Uploads() []Upload {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Upload(nil), b.uploads...)
}
