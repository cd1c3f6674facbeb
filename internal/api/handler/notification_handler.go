package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/albumy/pkg/response"
)

// ListNotifications 当前用户的通知，最新在前
// @Summary 通知列表
// @Tags 通知
// @Security Bearer
// @Param filter query string false "unread 只看未读"
// @Param page query int false "页码" default(1)
// @Success 200 {object} response.Response{data=service.Page[model.Notification]}
// @Router /api/v1/notifications [get]
func (h *Handler) ListNotifications(c *gin.Context) {
	page, pageSize := pageQuery(c)
	list, err := h.notifications.List(c.Request.Context(), actor(c), c.Query("filter") == "unread", page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, list)
}

// UnreadCount 未读通知数
// @Summary 未读通知数
// @Tags 通知
// @Security Bearer
// @Success 200 {object} response.Response
// @Router /api/v1/notifications/unread-count [get]
func (h *Handler) UnreadCount(c *gin.Context) {
	n, err := h.notifications.UnreadCount(c.Request.Context(), actor(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"count": n})
}

// MarkRead 标记单条通知已读
// @Summary 标记已读
// @Tags 通知
// @Security Bearer
// @Param notification_id path string true "通知ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/v1/notifications/{notification_id}/read [post]
func (h *Handler) MarkRead(c *gin.Context) {
	if err := h.notifications.MarkRead(c.Request.Context(), actor(c), c.Param("notification_id")); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, nil)
}

// MarkAllRead 全部标记已读
// @Summary 全部已读
// @Tags 通知
// @Security Bearer
// @Success 200 {object} response.Response
// @Router /api/v1/notifications/read-all [post]
func (h *Handler) MarkAllRead(c *gin.Context) {
	n, err := h.notifications.MarkAllRead(c.Request.Context(), actor(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"updated": n})
}
