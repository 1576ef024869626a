package api

import (
	"embed"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rawatinap/billing-server/internal/models"
	"github.com/rawatinap/billing-server/internal/report"
	"github.com/rawatinap/billing-server/internal/service"
	"github.com/rawatinap/billing-server/internal/utils"
	"github.com/rs/zerolog"
)

//go:embed templates/*.html
var templateFS embed.FS

const msgStoreFailure = "database error, please try again later"

// Handler serves the billing admin pages and the login flow
type Handler struct {
	svc                 service.Service
	sessions            *SessionStore
	exporter            *report.Exporter
	logger              zerolog.Logger
	billingRequireLogin bool
}

// HandlerOption configures a Handler
type HandlerOption func(*Handler)

// WithBillingLogin puts the billing pages behind the login guard
func WithBillingLogin(required bool) HandlerOption {
	return func(h *Handler) { h.billingRequireLogin = required }
}

// WithHandlerLogger sets the handler logger
func WithHandlerLogger(logger zerolog.Logger) HandlerOption {
	return func(h *Handler) { h.logger = logger }
}

// NewHandler creates a new Handler
func NewHandler(svc service.Service, sessions *SessionStore, exporter *report.Exporter, opts ...HandlerOption) *Handler {
	h := &Handler{
		svc:                 svc,
		sessions:            sessions,
		exporter:            exporter,
		logger:              zerolog.Nop(),
		billingRequireLogin: true,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Templates parses the embedded page templates
func Templates() *template.Template {
	funcs := template.FuncMap{
		"rupiah":    utils.FormatRupiah,
		"trx":       utils.TransactionLabel,
		"paidLabel": utils.PaidLabel,
		"date": func(t time.Time) string {
			return t.Format(service.DateLayout)
		},
	}
	return template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))
}

// SetupRoutes registers every route on the router
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.SetHTMLTemplate(Templates())
	router.Use(h.sessions.Middleware())

	guard := RequireLogin(h.sessions, h.logger)

	// Auth flow
	router.GET("/login", h.LoginPage)
	router.POST("/login", h.Login)
	router.GET("/signup", h.SignUpPage)
	router.POST("/signup", h.SignUp)
	router.GET("/logout", guard, h.Logout)
	router.GET("/dashboard", guard, h.Dashboard)

	// Billing admin
	billing := router.Group("/")
	if h.billingRequireLogin {
		billing.Use(guard)
	}
	billing.GET("/", h.ListPatients)
	billing.GET("/cetak", h.PatientsReport)
	billing.GET("/bayar/:id", h.SettleStay)
	billing.GET("/transaksi", h.ListTransactions)
	billing.GET("/transaksi/cetak", h.TransactionsReport)
	billing.GET("/transaksi/cetak/pasien/:id", h.PatientTransactionsReport)
	billing.GET("/transaksi/update/:id", h.TogglePaid)
	billing.GET("/transaksi/delete/:id", h.DeleteTransaction)
	billing.GET("/transaksi/edit/:id", h.EditTransactionPage)
	billing.POST("/transaksi/edit/:id", h.EditTransaction)
	billing.GET("/transaksi/tambah", h.NewTransactionPage)
	billing.POST("/transaksi/tambah", h.CreateTransaction)
}

// render executes a page template, handing it the pending flash messages
// and the current session.
func (h *Handler) render(c *gin.Context, status int, name string, data gin.H) {
	flashes, err := h.sessions.PopFlashes(c)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to save session")
	}

	if data == nil {
		data = gin.H{}
	}
	data["Flashes"] = flashes
	data["Session"] = CurrentSession(c)
	c.HTML(status, name, data)
}

func (h *Handler) flash(c *gin.Context, category, message string) {
	if err := h.sessions.AddFlash(c, category, message); err != nil {
		h.logger.Error().Err(err).Msg("failed to save session")
	}
}

func (h *Handler) redirect(c *gin.Context, location string) {
	c.Redirect(http.StatusFound, location)
}

// storeFailure logs err and queues the generic failure message
func (h *Handler) storeFailure(c *gin.Context, op string, err error) {
	h.logger.Error().
		Err(err).
		Str("op", op).
		Str("request_id", c.GetString(requestIDKey)).
		Msg("store failure")
	_ = c.Error(err)
	h.flash(c, models.FlashError, msgStoreFailure)
}

func (h *Handler) sendPDF(c *gin.Context, filename string, body []byte) {
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "application/pdf", body)
}

// pathID parses the :id path parameter, answering 404 when it is malformed
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 0 {
		c.String(http.StatusNotFound, "404 page not found")
		return 0, false
	}
	return id, true
}
