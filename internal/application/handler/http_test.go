package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"foodbridge/backend/internal/application/domain"
	"foodbridge/backend/internal/application/repository"
	"foodbridge/backend/internal/server/middleware"
)

// memApplicationRepo mirrors the partial unique index on (user) WHERE pending.
type memApplicationRepo struct {
	mu sync.Mutex
	m  map[string]*domain.OrgApplication
}

func newMemApplicationRepo() *memApplicationRepo {
	return &memApplicationRepo{m: map[string]*domain.OrgApplication{}}
}

func (r *memApplicationRepo) GetByID(ctx context.Context, id string) (*domain.OrgApplication, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.m[id], nil
}

func (r *memApplicationRepo) List(ctx context.Context, status *domain.Status) ([]*domain.OrgApplication, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.OrgApplication
	for _, a := range r.m {
		if status == nil || a.Status == *status {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memApplicationRepo) Create(ctx context.Context, a *domain.OrgApplication) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.m {
		if existing.UserID == a.UserID && existing.Status == domain.StatusPending && a.Status == domain.StatusPending {
			return repository.ErrDuplicatePending
		}
	}
	a2 := *a
	r.m[a.ID] = &a2
	return nil
}

func (r *memApplicationRepo) UpdateStatus(ctx context.Context, id string, status domain.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.m[id]; ok {
		a.Status = status
	}
	return nil
}

func newTestRouter(repo repository.Repository) *mux.Router {
	r := mux.NewRouter()
	New(repo, nil).Register(r)
	return r
}

func do(t *testing.T, router *mux.Router, method, path, asUser string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	if asUser != "" {
		req = req.WithContext(middleware.WithIdentity(req.Context(), asUser, "session-1"))
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateApplication_Created(t *testing.T) {
	repo := newMemApplicationRepo()
	router := newTestRouter(repo)
	userID := uuid.New().String()

	rec := do(t, router, http.MethodPost, "/application", userID, map[string]string{
		"name": "Food Pantry", "address": "1 Main St", "phone": "+15550100",
		"email": "pantry@example.com", "url": "https://pantry.example.com",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body %s", rec.Code, rec.Body.String())
	}
	var out map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out["status"] != "pending" {
		t.Errorf("status = %q, want pending", out["status"])
	}
	if out["user_id"] != userID {
		t.Errorf("user_id = %q, want caller", out["user_id"])
	}
}

func TestCreateApplication_SecondPendingRejected(t *testing.T) {
	repo := newMemApplicationRepo()
	router := newTestRouter(repo)
	userID := uuid.New().String()

	body := map[string]string{"name": "Pantry"}
	if rec := do(t, router, http.MethodPost, "/application", userID, body); rec.Code != http.StatusCreated {
		t.Fatalf("first create: status = %d", rec.Code)
	}
	rec := do(t, router, http.MethodPost, "/application", userID, body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCreateApplication_AllowedAfterWithdraw(t *testing.T) {
	repo := newMemApplicationRepo()
	router := newTestRouter(repo)
	userID := uuid.New().String()

	rec := do(t, router, http.MethodPost, "/application", userID, map[string]string{"name": "Pantry"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d", rec.Code)
	}
	var created map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &created)

	rec = do(t, router, http.MethodPatch, "/application/"+created["id"], userID, map[string]string{"status": "withdrawn"})
	if rec.Code != http.StatusOK {
		t.Fatalf("withdraw: status = %d; body %s", rec.Code, rec.Body.String())
	}

	rec = do(t, router, http.MethodPost, "/application", userID, map[string]string{"name": "Pantry Again"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("re-apply after withdraw: status = %d", rec.Code)
	}
}

func TestCreateApplication_MissingName(t *testing.T) {
	repo := newMemApplicationRepo()
	router := newTestRouter(repo)

	rec := do(t, router, http.MethodPost, "/application", uuid.New().String(), map[string]string{"address": "1 Main St"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestListApplications_StatusFilter(t *testing.T) {
	repo := newMemApplicationRepo()
	router := newTestRouter(repo)
	alice, bob := uuid.New().String(), uuid.New().String()

	do(t, router, http.MethodPost, "/application", alice, map[string]string{"name": "A"})
	rec := do(t, router, http.MethodPost, "/application", bob, map[string]string{"name": "B"})
	var bobApp map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &bobApp)
	do(t, router, http.MethodPatch, "/application/"+bobApp["id"], bob, map[string]string{"status": "withdrawn"})

	rec = do(t, router, http.MethodGet, "/application?status=pending", alice, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var out []map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	if len(out) != 1 || out[0]["name"] != "A" {
		t.Errorf("pending list = %v", out)
	}

	rec = do(t, router, http.MethodGet, "/application?status=bogus", alice, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bogus filter status = %d, want 400", rec.Code)
	}
	var msg map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &msg)
	if msg["message"] != "Invalid status parameter value" {
		t.Errorf("message = %q", msg["message"])
	}
}

func TestPatchApplication_OnlyApplicant(t *testing.T) {
	repo := newMemApplicationRepo()
	router := newTestRouter(repo)
	owner, other := uuid.New().String(), uuid.New().String()

	rec := do(t, router, http.MethodPost, "/application", owner, map[string]string{"name": "Pantry"})
	var created map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &created)

	rec = do(t, router, http.MethodPatch, "/application/"+created["id"], other, map[string]string{"status": "withdrawn"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestPatchApplication_OnlyWithdraw(t *testing.T) {
	repo := newMemApplicationRepo()
	router := newTestRouter(repo)
	owner := uuid.New().String()

	rec := do(t, router, http.MethodPost, "/application", owner, map[string]string{"name": "Pantry"})
	var created map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &created)

	rec = do(t, router, http.MethodPatch, "/application/"+created["id"], owner, map[string]string{"status": "approved"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestPatchApplication_TerminalIsFinal(t *testing.T) {
	repo := newMemApplicationRepo()
	router := newTestRouter(repo)
	owner := uuid.New().String()

	rec := do(t, router, http.MethodPost, "/application", owner, map[string]string{"name": "Pantry"})
	var created map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &created)

	if rec := do(t, router, http.MethodPatch, "/application/"+created["id"], owner, map[string]string{"status": "withdrawn"}); rec.Code != http.StatusOK {
		t.Fatalf("withdraw: status = %d", rec.Code)
	}
	rec = do(t, router, http.MethodPatch, "/application/"+created["id"], owner, map[string]string{"status": "withdrawn"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("second withdraw: status = %d, want 400", rec.Code)
	}
}

func TestPatchApplication_UnknownID(t *testing.T) {
	repo := newMemApplicationRepo()
	router := newTestRouter(repo)

	rec := do(t, router, http.MethodPatch, "/application/"+uuid.New().String(), uuid.New().String(), map[string]string{"status": "withdrawn"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	rec = do(t, router, http.MethodPatch, "/application/not-a-uuid", uuid.New().String(), map[string]string{"status": "withdrawn"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed id status = %d, want 400", rec.Code)
	}
}
