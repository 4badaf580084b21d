package repository

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/hazard-triage/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Admins resolves the administrator roster from two sources, like the admin
// middleware: the ADMIN_USER_IDS / ADMIN_EMAILS lists and users whose role is
// admin. It implements triage.AdminDirectory.
type Admins struct {
	db      *gorm.DB
	userIDs []uuid.UUID
	emails  []string
}

// NewAdmins parses the configured admin ids, skipping ones that are not UUIDs.
func NewAdmins(db *gorm.DB, userIDs, emails []string) *Admins {
	ids := make([]uuid.UUID, 0, len(userIDs))
	for _, raw := range userIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			slog.Warn("ignoring invalid admin user id", "value", raw)
			continue
		}
		ids = append(ids, id)
	}
	return &Admins{db: db, userIDs: ids, emails: emails}
}

// ListAdmins returns a de-duplicated snapshot of current administrators.
func (a *Admins) ListAdmins(ctx context.Context) ([]uuid.UUID, error) {
	var fromDB []uuid.UUID
	query := a.db.WithContext(ctx).Model(&models.User{}).Where("role = ?", models.RoleAdmin)
	if len(a.emails) > 0 {
		query = query.Or("email IN ?", a.emails)
	}
	if err := query.Pluck("id", &fromDB).Error; err != nil {
		return nil, err
	}

	seen := make(map[uuid.UUID]bool, len(fromDB)+len(a.userIDs))
	admins := make([]uuid.UUID, 0, len(fromDB)+len(a.userIDs))
	for _, group := range [][]uuid.UUID{a.userIDs, fromDB} {
		for _, id := range group {
			if seen[id] {
				continue
			}
			seen[id] = true
			admins = append(admins, id)
		}
	}
	return admins, nil
}

func (a *Admins) IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error) {
	for _, id := range a.userIDs {
		if id == userID {
			return true, nil
		}
	}

	var user models.User
	if err := a.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	if user.Role == models.RoleAdmin {
		return true, nil
	}
	for _, email := range a.emails {
		if email == user.Email {
			return true, nil
		}
	}
	return false, nil
}
