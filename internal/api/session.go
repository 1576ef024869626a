package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rawatinap/billing-server/internal/models"
)

const (
	sessionCookieName = "session"
	sessionContextKey = "session"
)

// Session is the per-visitor state carried in the signed session cookie
type Session struct {
	UserID    int64
	Username  string
	ExpiresAt time.Time
	Flashes   []models.Flash
}

// Authenticated reports whether the session belongs to a logged in user
func (s *Session) Authenticated() bool {
	return s.UserID != 0
}

func (s *Session) empty() bool {
	return !s.Authenticated() && len(s.Flashes) == 0
}

type sessionClaims struct {
	jwt.RegisteredClaims
	UserID   int64          `json:"uid,omitempty"`
	Username string         `json:"usr,omitempty"`
	Flashes  []models.Flash `json:"fl,omitempty"`
}

// SessionStore signs sessions into an HttpOnly, SameSite=Lax cookie
type SessionStore struct {
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// NewSessionStore creates a session store. Logged in sessions last ttl from
// the moment of login.
func NewSessionStore(secret string, ttl time.Duration, secure bool) *SessionStore {
	return &SessionStore{
		secret: []byte(secret),
		ttl:    ttl,
		secure: secure,
		now:    time.Now,
	}
}

// Middleware loads the session of every request into the gin context
func (st *SessionStore) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(sessionContextKey, st.load(c))
		c.Next()
	}
}

func (st *SessionStore) load(c *gin.Context) *Session {
	raw, err := c.Cookie(sessionCookieName)
	if err != nil || raw == "" {
		return &Session{}
	}

	s, err := st.decode(raw)
	if err != nil {
		// expired or tampered cookies start a fresh session
		return &Session{}
	}
	return s
}

func (st *SessionStore) decode(raw string) (*Session, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		return st.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(st.now))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid session token")
	}

	s := &Session{
		UserID:   claims.UserID,
		Username: claims.Username,
		Flashes:  claims.Flashes,
	}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s, nil
}

func (st *SessionStore) encode(s *Session) (string, time.Time, error) {
	expiresAt := s.ExpiresAt
	if !s.Authenticated() || expiresAt.IsZero() {
		expiresAt = st.now().Add(st.ttl)
	}

	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(st.now()),
		},
		UserID:   s.UserID,
		Username: s.Username,
		Flashes:  s.Flashes,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(st.secret)
	return signed, expiresAt, err
}

// Save writes the session cookie, or deletes it when the session is empty
func (st *SessionStore) Save(c *gin.Context, s *Session) error {
	c.Set(sessionContextKey, s)
	c.SetSameSite(http.SameSiteLaxMode)

	if s.empty() {
		c.SetCookie(sessionCookieName, "", -1, "/", "", st.secure, true)
		return nil
	}

	signed, expiresAt, err := st.encode(s)
	if err != nil {
		return err
	}

	maxAge := int(expiresAt.Sub(st.now()).Seconds())
	c.SetCookie(sessionCookieName, signed, maxAge, "/", "", st.secure, true)
	return nil
}

// Login marks the current session as belonging to user
func (st *SessionStore) Login(c *gin.Context, user *models.User) error {
	s := CurrentSession(c)
	s.UserID = user.ID
	s.Username = user.Username
	s.ExpiresAt = st.now().Add(st.ttl)
	return st.Save(c, s)
}

// Clear drops the user and any pending flashes
func (st *SessionStore) Clear(c *gin.Context) error {
	return st.Save(c, &Session{})
}

// AddFlash queues a message for the next rendered page
func (st *SessionStore) AddFlash(c *gin.Context, category, message string) error {
	s := CurrentSession(c)
	s.Flashes = append(s.Flashes, models.Flash{Category: category, Message: message})
	return st.Save(c, s)
}

// PopFlashes returns and clears the pending messages
func (st *SessionStore) PopFlashes(c *gin.Context) ([]models.Flash, error) {
	s := CurrentSession(c)
	flashes := s.Flashes
	if len(flashes) == 0 {
		return nil, nil
	}
	s.Flashes = nil
	return flashes, st.Save(c, s)
}

// CurrentSession returns the session loaded by the session middleware
func CurrentSession(c *gin.Context) *Session {
	if v, ok := c.Get(sessionContextKey); ok {
		if s, ok := v.(*Session); ok {
			return s
		}
	}
	s := &Session{}
	c.Set(sessionContextKey, s)
	return s
}
