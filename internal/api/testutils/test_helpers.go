package testutils

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rawatinap/billing-server/internal/api"
	"github.com/rawatinap/billing-server/internal/models"
	"github.com/rawatinap/billing-server/internal/report"
	"github.com/rawatinap/billing-server/internal/service"
	"github.com/stretchr/testify/require"
)

const (
	TestSecret   = "test-secret-key"
	TestUsername = "testuser"
	TestEmail    = "testuser@example.com"
	TestPassword = "testpass123"
)

// Today is the fixed clock used by the test service
var Today = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

// TestContext holds all dependencies for tests
type TestContext struct {
	Router   *gin.Engine
	Repo     *MemoryRepository
	Service  *service.DefaultService
	Sessions *api.SessionStore

	// Seeded records
	Budi models.Patient
	Sari models.Patient
}

// SetupTestContext creates a router backed by an in-memory repository with
// two patients, one stay each and a registered test user.
func SetupTestContext(t *testing.T) *TestContext {
	return SetupTestContextWith(t, true)
}

// SetupTestContextWith lets the caller choose whether billing pages require
// a login.
func SetupTestContextWith(t *testing.T, billingRequireLogin bool) *TestContext {
	t.Helper()

	repo := NewMemoryRepository()
	svc := service.NewDefaultService(repo, service.WithClock(func() time.Time { return Today }))
	sessions := api.NewSessionStore(TestSecret, 2*time.Hour, false)
	handler := api.NewHandler(svc, sessions, report.NewExporter(), api.WithBillingLogin(billingRequireLogin))

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(gin.Recovery(), api.RequestID())
	handler.SetupRoutes(router)

	tc := &TestContext{
		Router:   router,
		Repo:     repo,
		Service:  svc,
		Sessions: sessions,
	}

	tc.Budi = repo.AddPatient("Budi", "Jl. Merdeka 1", "0812000001")
	tc.Sari = repo.AddPatient("Sari", "Jl. Sudirman 2", "0812000002")
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }
	repo.AddStay(tc.Budi.ID, "VIP", 500000, day(1), day(3))
	repo.AddStay(tc.Sari.ID, "Standard", 200000, day(5), day(5))

	_, err := svc.SignUp(context.Background(), models.SignUpForm{Username: TestUsername, Email: TestEmail, Password: TestPassword})
	require.NoError(t, err, "Failed to create test user")

	return tc
}

// NewClient returns an anonymous client
func (tc *TestContext) NewClient() *Client {
	return &Client{handler: tc.Router, cookies: make(map[string]*http.Cookie)}
}

// LoggedInClient returns a client logged in as the test user
func (tc *TestContext) LoggedInClient(t *testing.T) *Client {
	t.Helper()

	c := tc.NewClient()
	w := c.PostForm("/login", url.Values{"username": {TestUsername}, "password": {TestPassword}})
	require.Equal(t, http.StatusFound, w.Code, "login failed: %s", w.Body.String())
	require.Equal(t, "/dashboard", w.Header().Get("Location"))
	return c
}

// Client performs requests against a router and keeps its cookies
type Client struct {
	handler http.Handler
	mu      sync.Mutex
	cookies map[string]*http.Cookie
}

// Get performs a GET request
func (c *Client) Get(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	return c.do(req)
}

// PostForm performs a form-encoded POST request
func (c *Client) PostForm(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

// Follow performs a GET on the Location of a redirect response
func (c *Client) Follow(w *httptest.ResponseRecorder) *httptest.ResponseRecorder {
	return c.Get(w.Header().Get("Location"))
}

func (c *Client) do(req *http.Request) *httptest.ResponseRecorder {
	c.mu.Lock()
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	c.mu.Unlock()

	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ck := range w.Result().Cookies() {
		if ck.MaxAge < 0 || ck.Value == "" {
			delete(c.cookies, ck.Name)
			continue
		}
		c.cookies[ck.Name] = ck
	}
	return w
}

// Serve runs a single request through handler without any cookie handling
func Serve(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}
