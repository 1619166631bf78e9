package repository

import (
	"context"
	"encoding/json"

	"github.com/rsravisharma/swap-web-sub002/internal/model"
)

// IsAdmin checks if a user is an admin
func (r *Repository) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM admins WHERE user_id = $1)`, userID)
	return exists, err
}

// LogAdminAction records an admin action with JSON details
func (r *Repository) LogAdminAction(ctx context.Context, adminID int64, action string, targetUserID *int64, details interface{}) error {
	var detailsJSON []byte
	if details != nil {
		var err error
		detailsJSON, err = json.Marshal(details)
		if err != nil {
			return err
		}
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO admin_logs (admin_id, action, target_user_id, details)
		VALUES ($1, $2, $3, $4)`,
		adminID, action, targetUserID, detailsJSON)
	return err
}

// GetAdminLogs retrieves admin action logs
func (r *Repository) GetAdminLogs(ctx context.Context, limit, offset int) ([]model.AdminLog, error) {
	logs := []model.AdminLog{}
	err := r.db.SelectContext(ctx, &logs, `
		SELECT id, admin_id, action, target_user_id, details, created_at FROM admin_logs
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	return logs, err
}
