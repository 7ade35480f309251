package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"time"

	"todoweb/internal/service"

	"github.com/gin-gonic/gin"
)

const CookieName = "todoweb_session"

var ErrNoSession = errors.New("session not found")

// Session is the server-side state behind a browser cookie. Every visitor
// gets one; UserID stays zero until login.
type Session struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	CSRFToken string    `json:"csrf_token"`
	Flashes   []string  `json:"flashes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Session) LoggedIn() bool {
	return s.UserID != 0
}

// Manager owns session lifecycle and the cookie that references it. The
// cookie value is a signed token carrying only the session ID, so a
// tampered cookie is indistinguishable from no cookie.
type Manager struct {
	store  Store
	ttl    time.Duration
	secure bool
}

func NewManager(store Store, ttl time.Duration, secure bool) *Manager {
	return &Manager{store: store, ttl: ttl, secure: secure}
}

// Load resolves the session referenced by the request cookie.
func (m *Manager) Load(c *gin.Context) (*Session, error) {
	raw, err := c.Cookie(CookieName)
	if err != nil {
		return nil, ErrNoSession
	}

	id, err := service.ParseSessionToken(raw)
	if err != nil {
		return nil, ErrNoSession
	}

	return m.store.Get(c.Request.Context(), id)
}

// Issue creates a fresh session for userID (0 for anonymous) and sets the
// cookie on the response.
func (m *Manager) Issue(c *gin.Context, userID int64) (*Session, error) {
	now := time.Now().UTC()
	s := &Session{
		ID:        randomToken(),
		UserID:    userID,
		CSRFToken: randomToken(),
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := m.store.Save(c.Request.Context(), s); err != nil {
		return nil, err
	}

	token, err := service.GenerateSessionToken(s.ID, m.ttl)
	if err != nil {
		return nil, err
	}
	m.setCookie(c, token, int(m.ttl.Seconds()))
	return s, nil
}

// Rotate replaces the current session with a fresh one bound to userID.
// Called on login and signup so a pre-auth session ID never becomes an
// authenticated one (session fixation).
func (m *Manager) Rotate(c *gin.Context, old *Session, userID int64) (*Session, error) {
	if old != nil {
		_ = m.store.Delete(c.Request.Context(), old.ID)
	}
	return m.Issue(c, userID)
}

// Clear deletes the session and expires the cookie.
func (m *Manager) Clear(c *gin.Context, s *Session) {
	if s != nil {
		_ = m.store.Delete(c.Request.Context(), s.ID)
	}
	m.setCookie(c, "", -1)
}

// AddFlash appends a one-shot message drained on the next page render.
func (m *Manager) AddFlash(c *gin.Context, s *Session, msg string) {
	s.Flashes = append(s.Flashes, msg)
	if err := m.store.Save(c.Request.Context(), s); err != nil {
		// a lost flash is not worth failing the request
		return
	}
}

// PopFlashes drains pending flash messages.
func (m *Manager) PopFlashes(c *gin.Context, s *Session) []string {
	if len(s.Flashes) == 0 {
		return nil
	}
	flashes := s.Flashes
	s.Flashes = nil
	_ = m.store.Save(c.Request.Context(), s)
	return flashes
}

func (m *Manager) setCookie(c *gin.Context, value string, maxAge int) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func randomToken() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic("session: crypto/rand unavailable: " + err.Error())
	}
	return hex.EncodeToString(b)
}
