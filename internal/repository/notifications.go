package repository

import (
	"context"

	"github.com/ahmetcoskunkizilkaya/hazard-triage/internal/models"
	"gorm.io/gorm"
)

// Notifications implements triage.NotificationStore on PostgreSQL.
type Notifications struct {
	db *gorm.DB
}

func NewNotifications(db *gorm.DB) *Notifications {
	return &Notifications{db: db}
}

func (n *Notifications) CreateNotification(ctx context.Context, notification *models.Notification) error {
	return n.db.WithContext(ctx).Create(notification).Error
}
