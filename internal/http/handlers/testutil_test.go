package handlers_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"todoweb/internal/domain"
	webhttp "todoweb/internal/http"
	"todoweb/internal/http/handlers"
	"todoweb/internal/repository"
	"todoweb/internal/service"
	"todoweb/internal/session"

	"github.com/gin-gonic/gin"
)

type fakeUserStore struct {
	mu     sync.Mutex
	users  map[int64]*domain.User
	nextID int64
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[int64]*domain.User)}
}

func (s *fakeUserStore) Create(_ context.Context, username, passwordHash string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return nil, repository.ErrUsernameTaken
		}
	}
	s.nextID++
	u := &domain.User{
		ID:           s.nextID,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
	s.users[u.ID] = u
	return u, nil
}

func (s *fakeUserStore) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *fakeUserStore) GetByID(_ context.Context, id int64) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

type fakeTaskStore struct {
	mu     sync.Mutex
	tasks  map[int64]*domain.Task
	nextID int64
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{tasks: make(map[int64]*domain.Task)}
}

func (s *fakeTaskStore) ListByUser(_ context.Context, userID int64, f domain.TaskFilter) ([]domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Task
	for _, t := range s.tasks {
		if t.UserID != userID {
			continue
		}
		if f.Query != "" {
			q := strings.ToLower(f.Query)
			if !strings.Contains(strings.ToLower(t.Title), q) &&
				!strings.Contains(strings.ToLower(t.Description), q) {
				continue
			}
		}
		if f.DateFrom != nil && t.CreatedAt.Before(*f.DateFrom) {
			continue
		}
		if f.DateTo != nil && !t.CreatedAt.Before(*f.DateTo) {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *fakeTaskStore) Create(_ context.Context, t *domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	t.ID = s.nextID
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now
	cp := *t
	s.tasks[t.ID] = &cp
	return nil
}

func (s *fakeTaskStore) GetByID(_ context.Context, userID, taskID int64) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[taskID]
	if !ok || t.UserID != userID {
		return nil, repository.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *fakeTaskStore) Update(_ context.Context, t *domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.tasks[t.ID]
	if !ok || cur.UserID != t.UserID {
		return repository.ErrNotFound
	}
	cur.Title = t.Title
	cur.Description = t.Description
	cur.Completed = t.Completed
	cur.UpdatedAt = time.Now()
	return nil
}

func (s *fakeTaskStore) ToggleCompleted(_ context.Context, userID, taskID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[taskID]
	if !ok || t.UserID != userID {
		return false, repository.ErrNotFound
	}
	t.Completed = !t.Completed
	t.UpdatedAt = time.Now()
	return t.Completed, nil
}

func (s *fakeTaskStore) Delete(_ context.Context, userID, taskID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[taskID]
	if !ok || t.UserID != userID {
		return repository.ErrNotFound
	}
	delete(s.tasks, taskID)
	return nil
}

// seed inserts a task directly, bypassing Create's timestamping.
func (s *fakeTaskStore) seed(t domain.Task) domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	t.ID = s.nextID
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().Add(-time.Hour)
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = t.CreatedAt
	}
	cp := t
	s.tasks[t.ID] = &cp
	return t
}

func (s *fakeTaskStore) get(id int64) (domain.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return domain.Task{}, false
	}
	return *t, true
}

type fixture struct {
	r       *gin.Engine
	users   *fakeUserStore
	tasks   *fakeTaskStore
	store   *session.MemoryStore
	mgr     *session.Manager
	nextSID int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	service.InitTokenSecret("test-secret")

	f := &fixture{
		users: newFakeUserStore(),
		tasks: newFakeTaskStore(),
		store: session.NewMemoryStore(),
	}
	f.mgr = session.NewManager(f.store, time.Hour, false)

	h := handlers.NewHandler(f.users, f.tasks, f.mgr)

	r := gin.New()
	r.LoadHTMLGlob("../../../web/templates/*.html")
	webhttp.RegisterRoutes(r, h, false, 1000, time.Minute)

	f.r = r
	return f
}

// newSession plants a session in the store and returns the cookie that
// references it plus its CSRF token. userID 0 means anonymous.
func (f *fixture) newSession(t *testing.T, userID int64) (*http.Cookie, string) {
	t.Helper()
	f.nextSID++
	id := fmt.Sprintf("sess-%d", f.nextSID)
	csrf := "csrf-" + id

	sess := &session.Session{
		ID:        id,
		UserID:    userID,
		CSRFToken: csrf,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	if err := f.store.Save(context.Background(), sess); err != nil {
		t.Fatalf("save session: %v", err)
	}

	token, err := service.GenerateSessionToken(id, time.Hour)
	if err != nil {
		t.Fatalf("sign session token: %v", err)
	}
	return &http.Cookie{Name: session.CookieName, Value: token}, csrf
}

func (f *fixture) do(t *testing.T, method, target string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}

	w := httptest.NewRecorder()
	f.r.ServeHTTP(w, req)
	return w
}
