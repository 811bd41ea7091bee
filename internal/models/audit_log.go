package models

import "time"

type AuditLog struct {
	ID         string    `gorm:"type:uuid;primaryKey" json:"id"`
	ActorID    string    `gorm:"not null;index" json:"actor_id"`
	ActorRole  string    `gorm:"not null" json:"actor_role"`
	Action     string    `gorm:"not null" json:"action"`
	TargetType string    `gorm:"not null" json:"target_type"`
	TargetID   string    `json:"target_id,omitempty"`
	Detail     string    `gorm:"type:jsonb" json:"detail,omitempty"`
	Timestamp  time.Time `gorm:"autoCreateTime" json:"timestamp"`
}
