package service

import (
	"context"
	"encoding/json"

	"github.com/clubdeck/booking-platform/internal/models"
	"github.com/clubdeck/booking-platform/internal/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type auditService struct {
	repo repository.AuditRepository
	log  *logrus.Entry
}

// NewAuditor returns an Auditor backed by the audit_logs table. Write
// failures are logged and swallowed; auditing never blocks a transition.
func NewAuditor(repo repository.AuditRepository) Auditor {
	return &auditService{
		repo: repo,
		log:  logrus.WithField("component", "audit"),
	}
}

func (a *auditService) Record(ctx context.Context, actor Actor, action, targetType, targetID string, detail map[string]any) {
	entry := &models.AuditLog{
		ID:         uuid.NewString(),
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
	}
	if len(detail) > 0 {
		if payload, err := json.Marshal(detail); err == nil {
			entry.Detail = string(payload)
		}
	}
	if err := a.repo.Create(ctx, entry); err != nil {
		a.log.WithError(err).WithFields(logrus.Fields{
			"action": action, "target_id": targetID,
		}).Warn("failed to write audit log")
	}
}
