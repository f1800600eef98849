package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain/notification"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(n).Error; err != nil {
		return fmt.Errorf("creating notification: %w", err)
	}
	return nil
}

func (r *NotificationRepository) GetByID(ctx context.Context, id uuid.UUID) (*notification.Notification, error) {
	var n notification.Notification
	if err := r.db.WithContext(ctx).First(&n, "id = ?", id).Error; err != nil {
		if isNotFound(err) {
			return nil, notification.ErrNotificationNotFound
		}
		return nil, fmt.Errorf("fetching notification: %w", err)
	}
	return &n, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&notification.Notification{}).
		Where("id = ?", id).
		Update("is_read", true)
	if res.Error != nil {
		return fmt.Errorf("marking notification read: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return notification.ErrNotificationNotFound
	}
	return nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Model(&notification.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	if res.Error != nil {
		return 0, fmt.Errorf("marking notifications read: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *NotificationRepository) List(ctx context.Context, q *notification.ListNotificationsQuery) (*notification.PagedNotifications, error) {
	base := r.db.WithContext(ctx).Model(&notification.Notification{}).Where("user_id = ?", q.UserID)

	var unread int64
	if err := base.Session(&gorm.Session{}).Where("is_read = ?", false).Count(&unread).Error; err != nil {
		return nil, fmt.Errorf("counting unread notifications: %w", err)
	}

	query := base.Session(&gorm.Session{})
	if q.UnreadOnly {
		query = query.Where("is_read = ?", false)
	}
	if q.Type != nil {
		query = query.Where("notification_type = ?", *q.Type)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("counting notifications: %w", err)
	}

	var out []*notification.Notification
	if err := paginate(query.Order("created_at DESC"), q.Page).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}

	n := q.Page.Normalize()
	return &notification.PagedNotifications{
		Notifications: out,
		TotalCount:    total,
		UnreadCount:   unread,
		Page:          n.Page,
		PageSize:      n.PageSize,
		TotalPages:    n.TotalPages(total),
	}, nil
}

var _ notification.Repository = (*NotificationRepository)(nil)
