package notification

import (
	"errors"

	"github.com/Kyz7/fincore/internal/access"
	"github.com/Kyz7/fincore/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	TypeInfo    = "info"
	TypeSuccess = "success"
	TypeWarning = "warning"
)

// Notify stores a notification for one user. Failures are logged; a missing
// notification never fails the operation that triggered it.
func Notify(db *gorm.DB, userID uint, kind, title, message, link string) {
	n := models.Notification{
		UserID:  userID,
		Type:    kind,
		Title:   title,
		Message: message,
		Link:    link,
	}
	if err := db.Create(&n).Error; err != nil {
		zap.L().Error("failed to create notification", zap.Uint("user_id", userID), zap.Error(err))
	}
}

// NotifyAdministrators sends the same notification to every active admin and
// super admin.
func NotifyAdministrators(db *gorm.DB, kind, title, message, link string) {
	var ids []uint
	err := db.Model(&models.User{}).
		Where("role IN ? AND status = ?", []access.Role{access.SuperAdmin, access.Admin}, "active").
		Pluck("id", &ids).Error
	if err != nil {
		zap.L().Error("failed to list administrators", zap.Error(err))
		return
	}
	for _, id := range ids {
		Notify(db, id, kind, title, message, link)
	}
}

func List(db *gorm.DB, userID uint, unreadOnly bool, page, limit int) ([]models.Notification, int64, error) {
	q := db.Model(&models.Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []models.Notification
	err := q.Order("created_at DESC, id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&items).Error
	return items, total, err
}

func UnreadCount(db *gorm.DB, userID uint) (int64, error) {
	var n int64
	err := db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&n).Error
	return n, err
}

// MarkRead marks one notification as read. It reports false when the
// notification does not belong to userID.
func MarkRead(db *gorm.DB, userID, id uint) (bool, error) {
	var n models.Notification
	err := db.Where("id = ? AND user_id = ?", id, userID).First(&n).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if n.IsRead {
		return true, nil
	}
	return true, db.Model(&n).Update("is_read", true).Error
}

func MarkAllRead(db *gorm.DB, userID uint) (int64, error) {
	res := db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}
