// Package audit records platform events (registrations, org changes, listing
// mutations) for operator review.
package audit

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"foodbridge/backend/internal/audit/domain"
	auditrepo "foodbridge/backend/internal/audit/repository"
)

// SentinelOrgID is recorded for events that have no org context, e.g. a
// registration or a user leaving without an org.
const SentinelOrgID = "_system"

// IPExtractor returns the client IP from the request context.
type IPExtractor func(context.Context) string

// AuditLogger writes one audit event with an explicit action and resource.
// Implementations are best-effort: a write failure never reaches the caller.
type AuditLogger interface {
	LogEvent(ctx context.Context, orgID, userID, action, resource, metadata string)
}

// Logger persists audit events through the audit repository.
type Logger struct {
	repo        auditrepo.Repository
	ipExtractor IPExtractor
}

// NewLogger returns a Logger writing to repo. ipExtractor may be nil; the IP
// is then recorded as "unknown".
func NewLogger(repo auditrepo.Repository, ipExtractor IPExtractor) *Logger {
	return &Logger{repo: repo, ipExtractor: ipExtractor}
}

// LogEvent writes one audit entry. Failures are logged, not returned.
func (l *Logger) LogEvent(ctx context.Context, orgID, userID, action, resource, metadata string) {
	if l.repo == nil {
		return
	}
	ip := "unknown"
	if l.ipExtractor != nil {
		if v := l.ipExtractor(ctx); v != "" {
			ip = v
		}
	}
	if orgID == "" {
		orgID = SentinelOrgID
	}
	entry := &domain.AuditLog{
		ID:        uuid.New().String(),
		OrgID:     orgID,
		UserID:    userID,
		Action:    action,
		Resource:  resource,
		IP:        ip,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		log.Error("audit write failed", "action", action, "resource", resource, "err", err)
	}
}
