package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationHighPriorityReport tags notifications created by triage fan-out.
const NotificationHighPriorityReport = "new_high_priority_report"

// Notification is an in-app notice owned by its recipient.
type Notification struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RecipientID uuid.UUID `gorm:"type:uuid;not null;index" json:"recipient_id"`
	Type        string    `gorm:"size:50;not null;index" json:"type"`
	ReportID    uuid.UUID `gorm:"type:uuid;not null;index" json:"report_id"`
	Title       string    `gorm:"size:255" json:"title"`
	Message     string    `gorm:"type:text" json:"message"`
	Score       float64   `json:"score"`
	Read        bool      `gorm:"default:false;index" json:"read"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}
