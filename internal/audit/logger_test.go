package audit

import (
	"context"
	"errors"
	"testing"

	"foodbridge/backend/internal/audit/domain"
)

type mockAuditRepo struct {
	entries   []*domain.AuditLog
	createErr error
}

func (m *mockAuditRepo) GetByID(_ context.Context, _ string) (*domain.AuditLog, error) {
	return nil, nil
}

func (m *mockAuditRepo) ListByOrg(_ context.Context, _ string, _, _ int32) ([]*domain.AuditLog, error) {
	return nil, nil
}

func (m *mockAuditRepo) Create(_ context.Context, entry *domain.AuditLog) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.entries = append(m.entries, entry)
	return nil
}

func TestLogEvent(t *testing.T) {
	repo := &mockAuditRepo{}
	logger := NewLogger(repo, func(_ context.Context) string { return "203.0.113.9" })

	logger.LogEvent(context.Background(), "org-1", "user-1", "donation.create", "donation:d1", `{"traits":[0]}`)

	if len(repo.entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(repo.entries))
	}
	e := repo.entries[0]
	if e.OrgID != "org-1" || e.UserID != "user-1" {
		t.Fatalf("identity = %s/%s", e.OrgID, e.UserID)
	}
	if e.Action != "donation.create" || e.Resource != "donation:d1" {
		t.Fatalf("event = %s %s", e.Action, e.Resource)
	}
	if e.IP != "203.0.113.9" {
		t.Fatalf("ip = %q", e.IP)
	}
	if e.Metadata != `{"traits":[0]}` {
		t.Fatalf("metadata = %q", e.Metadata)
	}
	if e.ID == "" || e.CreatedAt.IsZero() {
		t.Fatal("id and created_at must be populated")
	}
}

func TestLogEvent_NilIPExtractor(t *testing.T) {
	repo := &mockAuditRepo{}
	NewLogger(repo, nil).LogEvent(context.Background(), "org-1", "user-1", "organization.create", "organization:o1", "")

	if len(repo.entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(repo.entries))
	}
	if repo.entries[0].IP != "unknown" {
		t.Fatalf("ip = %q, want unknown", repo.entries[0].IP)
	}
}

func TestLogEvent_EmptyExtractorResultFallsBack(t *testing.T) {
	repo := &mockAuditRepo{}
	logger := NewLogger(repo, func(context.Context) string { return "" })
	logger.LogEvent(context.Background(), "org-1", "user-1", "user.login", "user:u1", "")

	if len(repo.entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(repo.entries))
	}
	if repo.entries[0].IP != "unknown" {
		t.Fatalf("ip = %q, want unknown", repo.entries[0].IP)
	}
}

func TestLogEvent_EmptyOrgUsesSentinel(t *testing.T) {
	repo := &mockAuditRepo{}
	NewLogger(repo, nil).LogEvent(context.Background(), "", "user-1", "request.deactivate", "request:r1", "")

	if len(repo.entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(repo.entries))
	}
	if repo.entries[0].OrgID != SentinelOrgID {
		t.Fatalf("org_id = %q, want %q", repo.entries[0].OrgID, SentinelOrgID)
	}
}

func TestLogEvent_BestEffort(t *testing.T) {
	// Neither a repo error nor a nil repo may reach the caller.
	NewLogger(&mockAuditRepo{createErr: errors.New("db down")}, nil).
		LogEvent(context.Background(), "org-1", "user-1", "donation.create", "donation:d1", "")
	NewLogger(nil, nil).
		LogEvent(context.Background(), "org-1", "user-1", "donation.create", "donation:d1", "")
}
