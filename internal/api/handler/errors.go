package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/albumy/internal/service"
	"github.com/d60-Lab/albumy/pkg/logger"
	"github.com/d60-Lab/albumy/pkg/response"
)

type errorMapping struct {
	err    error
	status int
	code   string
}

// 顺序有意义：先匹配具体错误，ErrStore 兜底在最后
var errorMappings = []errorMapping{
	{service.ErrNotFound, http.StatusNotFound, "not_found"},
	{service.ErrUnconfirmed, http.StatusForbidden, "unconfirmed"},
	{service.ErrLocked, http.StatusForbidden, "locked"},
	{service.ErrCommentsDisabled, http.StatusForbidden, "comments_disabled"},
	{service.ErrForbidden, http.StatusForbidden, "forbidden"},
	{service.ErrFollowSelf, http.StatusBadRequest, "self_follow"},
	{service.ErrAlreadyFollowing, http.StatusConflict, "already_following"},
	{service.ErrNotFollowing, http.StatusConflict, "not_following"},
	{service.ErrAlreadyCollected, http.StatusConflict, "already_collected"},
	{service.ErrNotCollected, http.StatusConflict, "not_collected"},
	{service.ErrNotAttached, http.StatusConflict, "not_attached"},
	{service.ErrEmptyQuery, http.StatusBadRequest, "empty_query"},
	{service.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
	{service.ErrInvalidNotification, http.StatusBadRequest, "invalid_notification"},
	{service.ErrEmailTaken, http.StatusConflict, "email_taken"},
	{service.ErrUsernameTaken, http.StatusConflict, "username_taken"},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{service.ErrInvalidToken, http.StatusBadRequest, "invalid_token"},
	{service.ErrAlreadyConfirmed, http.StatusConflict, "already_confirmed"},
	{service.ErrStoreTimeout, http.StatusServiceUnavailable, "store_timeout"},
}

// writeError 把服务层错误映射为状态码与业务码；未知错误走 InternalError 上报
func writeError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrForbidden) && !actor(c).Authenticated() {
		response.Unauthorized(c, "login required")
		return
	}
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			if m.status >= http.StatusInternalServerError {
				logger.Warn("request degraded", zap.Error(err), zap.String("path", c.FullPath()))
			}
			response.Fail(c, m.status, m.code, m.err.Error())
			return
		}
	}
	response.InternalError(c, err)
}

func isNotFound(err error) bool { return errors.Is(err, service.ErrNotFound) }
