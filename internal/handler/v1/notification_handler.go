package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain/notification"
	"github.com/dmehra2102/prod-golang-projects/carelink/internal/service"
)

type NotificationHandler struct {
	svc *service.NotificationService
	log *zap.Logger
}

func NewNotificationHandler(svc *service.NotificationService, log *zap.Logger) *NotificationHandler {
	return &NotificationHandler{svc: svc, log: log}
}

func (h *NotificationHandler) RegisterRoutes(rg *gin.RouterGroup, admin gin.HandlerFunc) {
	rg.GET("/notifications", h.List)
	rg.POST("/notifications", admin, h.Create)
	rg.POST("/notifications/read-all", h.MarkAllRead)
	rg.POST("/notifications/:id/read", h.MarkRead)
}

type inboxResponse struct {
	PagedResponse[*notification.Notification]
	UnreadCount int64 `json:"unread_count"`
}

func (h *NotificationHandler) List(c *gin.Context) {
	q := &notification.ListNotificationsQuery{
		UnreadOnly: c.Query("unread") == "true",
		Page:       pageFromQuery(c),
	}
	if raw := c.Query("type"); raw != "" {
		t := notification.Type(raw)
		q.Type = &t
	}

	result, err := h.svc.ListNotifications(c.Request.Context(), caller(c), q)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	items := result.Notifications
	if items == nil {
		items = []*notification.Notification{}
	}
	c.JSON(http.StatusOK, inboxResponse{
		PagedResponse: PagedResponse[*notification.Notification]{
			Data: items,
			Pagination: Pagination{
				Page:       result.Page,
				PageSize:   result.PageSize,
				TotalCount: result.TotalCount,
				TotalPages: result.TotalPages,
			},
		},
		UnreadCount: result.UnreadCount,
	})
}

type createNotificationRequest struct {
	UserID   uuid.UUID         `json:"user_id" binding:"required"`
	Message  string            `json:"message" binding:"required"`
	Type     notification.Type `json:"type"`
	NotifyAt *time.Time        `json:"notification_time"`
}

func (h *NotificationHandler) Create(c *gin.Context) {
	var req createNotificationRequest
	if !bindJSON(c, &req) {
		return
	}

	n, err := h.svc.CreateNotification(c.Request.Context(), caller(c), &notification.CreateNotificationCommand{
		UserID:   req.UserID,
		Message:  req.Message,
		Type:     req.Type,
		NotifyAt: req.NotifyAt,
	})
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondCreated(c, n)
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.MarkRead(c.Request.Context(), caller(c), id); err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	n, err := h.svc.MarkAllRead(c.Request.Context(), caller(c))
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, gin.H{"marked": n})
}
