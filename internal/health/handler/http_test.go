package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
)

type fakePinger struct{ err error }

func (p *fakePinger) PingContext(_ context.Context) error { return p.err }

func serve(h *Handler, path string) *httptest.ResponseRecorder {
	r := mux.NewRouter()
	h.Register(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	rec := serve(New(nil), "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestReadyz(t *testing.T) {
	rec := serve(New(&fakePinger{}), "/readyz")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestReadyz_DBDown(t *testing.T) {
	rec := serve(New(&fakePinger{err: errors.New("connection refused")}), "/readyz")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
}
