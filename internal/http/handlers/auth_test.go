package handlers_test

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"todoweb/internal/service"
	"todoweb/internal/session"
)

// sessionFromResponse resolves the session behind the cookie a response set.
func sessionFromResponse(t *testing.T, f *fixture, w *http.Response) *session.Session {
	t.Helper()
	for _, c := range w.Cookies() {
		if c.Name != session.CookieName || c.Value == "" {
			continue
		}
		sid, err := service.ParseSessionToken(c.Value)
		if err != nil {
			t.Fatalf("parse cookie token: %v", err)
		}
		sess, err := f.store.Get(context.Background(), sid)
		if err != nil {
			t.Fatalf("load session %q: %v", sid, err)
		}
		return sess
	}
	t.Fatal("no session cookie set on response")
	return nil
}

func TestSignup_CreatesUserAndLogsIn(t *testing.T) {
	f := newFixture(t)
	cookie, csrf := f.newSession(t, 0)

	w := f.do(t, http.MethodPost, "/signup", url.Values{
		"csrf_token": {csrf},
		"username":   {"alice"},
		"password1":  {"s3cret-pass"},
		"password2":  {"s3cret-pass"},
	}, cookie)

	if w.Code != http.StatusFound {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if loc := w.Header().Get("Location"); loc != "/tasks" {
		t.Fatalf("location=%q", loc)
	}

	user, err := f.users.GetByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("user not created: %v", err)
	}
	if user.PasswordHash == "s3cret-pass" {
		t.Fatal("password stored in plaintext")
	}
	if !service.CheckPassword(user.PasswordHash, "s3cret-pass") {
		t.Fatal("stored hash does not verify")
	}

	sess := sessionFromResponse(t, f, w.Result())
	if sess.UserID != user.ID {
		t.Fatalf("session user=%d, want %d", sess.UserID, user.ID)
	}
	if sess.ID == "sess-1" {
		t.Fatal("session was not rotated on signup")
	}
}

func TestSignup_PasswordMismatch(t *testing.T) {
	f := newFixture(t)
	cookie, csrf := f.newSession(t, 0)

	w := f.do(t, http.MethodPost, "/signup", url.Values{
		"csrf_token": {csrf},
		"username":   {"bob"},
		"password1":  {"password-one"},
		"password2":  {"password-two"},
	}, cookie)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "The two password fields didn&#39;t match.") &&
		!strings.Contains(w.Body.String(), "The two password fields didn't match.") {
		t.Fatalf("mismatch message missing:\n%s", w.Body.String())
	}
	if _, err := f.users.GetByUsername(context.Background(), "bob"); err == nil {
		t.Fatal("user must not be created on mismatch")
	}
}

func TestSignup_ShortPassword(t *testing.T) {
	f := newFixture(t)
	cookie, csrf := f.newSession(t, 0)

	w := f.do(t, http.MethodPost, "/signup", url.Values{
		"csrf_token": {csrf},
		"username":   {"carol"},
		"password1":  {"short"},
		"password2":  {"short"},
	}, cookie)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Ensure this value has at least 8 characters.") {
		t.Fatalf("min-length message missing:\n%s", w.Body.String())
	}
}

func TestSignup_DuplicateUsername(t *testing.T) {
	f := newFixture(t)
	if _, err := f.users.Create(context.Background(), "alice", "x"); err != nil {
		t.Fatal(err)
	}

	cookie, csrf := f.newSession(t, 0)
	w := f.do(t, http.MethodPost, "/signup", url.Values{
		"csrf_token": {csrf},
		"username":   {"alice"},
		"password1":  {"s3cret-pass"},
		"password2":  {"s3cret-pass"},
	}, cookie)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "A user with that username already exists.") {
		t.Fatalf("duplicate message missing:\n%s", w.Body.String())
	}
}

func TestLogin_SuccessRotatesSession(t *testing.T) {
	f := newFixture(t)
	hash, err := service.HashPassword("s3cret-pass")
	if err != nil {
		t.Fatal(err)
	}
	user, err := f.users.Create(context.Background(), "alice", hash)
	if err != nil {
		t.Fatal(err)
	}

	cookie, csrf := f.newSession(t, 0)
	w := f.do(t, http.MethodPost, "/login", url.Values{
		"csrf_token": {csrf},
		"username":   {"alice"},
		"password":   {"s3cret-pass"},
	}, cookie)

	if w.Code != http.StatusFound {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if loc := w.Header().Get("Location"); loc != "/tasks" {
		t.Fatalf("location=%q", loc)
	}

	sess := sessionFromResponse(t, f, w.Result())
	if sess.UserID != user.ID {
		t.Fatalf("session user=%d, want %d", sess.UserID, user.ID)
	}
	if sess.ID == "sess-1" {
		t.Fatal("session ID was not rotated on login")
	}

	// the pre-login session is gone
	if _, err := f.store.Get(context.Background(), "sess-1"); err != session.ErrNoSession {
		t.Fatalf("old session should be deleted, got err=%v", err)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	f := newFixture(t)
	hash, _ := service.HashPassword("s3cret-pass")
	if _, err := f.users.Create(context.Background(), "alice", hash); err != nil {
		t.Fatal(err)
	}

	cookie, csrf := f.newSession(t, 0)
	w := f.do(t, http.MethodPost, "/login", url.Values{
		"csrf_token": {csrf},
		"username":   {"alice"},
		"password":   {"wrong"},
	}, cookie)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Please enter a correct username and password.") {
		t.Fatalf("generic failure message missing:\n%s", w.Body.String())
	}
}

func TestLogin_UnknownUserSameMessage(t *testing.T) {
	f := newFixture(t)
	cookie, csrf := f.newSession(t, 0)

	w := f.do(t, http.MethodPost, "/login", url.Values{
		"csrf_token": {csrf},
		"username":   {"nobody"},
		"password":   {"whatever"},
	}, cookie)

	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Please enter a correct username and password.") {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestLogin_NextRedirect(t *testing.T) {
	f := newFixture(t)
	hash, _ := service.HashPassword("s3cret-pass")
	if _, err := f.users.Create(context.Background(), "alice", hash); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		next string
		want string
	}{
		{"/tasks/new", "/tasks/new"},
		{"//evil.example.com", "/tasks"},
		{`/\evil.example.com`, "/tasks"},
		{"https://evil.example.com", "/tasks"},
		{"", "/tasks"},
	}
	for _, tc := range cases {
		cookie, csrf := f.newSession(t, 0)
		w := f.do(t, http.MethodPost, "/login", url.Values{
			"csrf_token": {csrf},
			"username":   {"alice"},
			"password":   {"s3cret-pass"},
			"next":       {tc.next},
		}, cookie)
		if w.Code != http.StatusFound {
			t.Fatalf("next=%q status=%d", tc.next, w.Code)
		}
		if loc := w.Header().Get("Location"); loc != tc.want {
			t.Fatalf("next=%q location=%q, want %q", tc.next, loc, tc.want)
		}
	}
}

func TestLogout_DeletesSession(t *testing.T) {
	f := newFixture(t)
	cookie, csrf := f.newSession(t, 1)
	if _, err := f.users.Create(context.Background(), "alice", "x"); err != nil {
		t.Fatal(err)
	}

	w := f.do(t, http.MethodPost, "/logout", url.Values{"csrf_token": {csrf}}, cookie)
	if w.Code != http.StatusFound {
		t.Fatalf("status=%d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/login" {
		t.Fatalf("location=%q", loc)
	}

	if _, err := f.store.Get(context.Background(), "sess-1"); err != session.ErrNoSession {
		t.Fatalf("session should be deleted, got err=%v", err)
	}

	// the old cookie no longer grants access
	after := f.do(t, http.MethodGet, "/tasks", nil, cookie)
	if after.Code != http.StatusFound || !strings.HasPrefix(after.Header().Get("Location"), "/login") {
		t.Fatalf("status=%d location=%q", after.Code, after.Header().Get("Location"))
	}
}
