package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/albumy/internal/service"
	"github.com/d60-Lab/albumy/pkg/response"
)

type registerRequest struct {
	Name     string `json:"name" binding:"required,max=30"`
	Email    string `json:"email" binding:"required,email,max=254"`
	Username string `json:"username" binding:"required,username"`
	Password string `json:"password" binding:"required,min=8,max=128"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type tokenRequest struct {
	Token string `json:"token" binding:"required"`
}

type forgetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type resetRequest struct {
	Token    string `json:"token" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=128"`
}

type notificationSettingsRequest struct {
	ReceiveComment *bool `json:"receive_comment_notification" binding:"required"`
	ReceiveCollect *bool `json:"receive_collect_notification" binding:"required"`
}

// Register 注册
// @Summary 注册
// @Tags 账号
// @Accept json
// @Produce json
// @Param request body registerRequest true "注册信息"
// @Success 201 {object} response.Response{data=model.User}
// @Failure 409 {object} response.Response
// @Router /api/v1/auth/register [post]
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	u, err := h.identity.Register(c.Request.Context(), service.RegisterInput{
		Name: req.Name, Email: req.Email, Username: req.Username, Password: req.Password,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, u)
}

// Login 登录，返回访问令牌
// @Summary 登录
// @Tags 账号
// @Accept json
// @Produce json
// @Param request body loginRequest true "登录信息"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /api/v1/auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	raw, u, err := h.identity.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"token": raw, "user": u})
}

// Confirm 确认邮箱
// @Summary 确认邮箱
// @Tags 账号
// @Security Bearer
// @Accept json
// @Param request body tokenRequest true "确认令牌"
// @Success 200 {object} response.Response
// @Router /api/v1/auth/confirm [post]
func (h *Handler) Confirm(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.identity.Confirm(c.Request.Context(), actor(c), req.Token); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, nil)
}

// ResendConfirm 重新发送确认邮件
// @Summary 重发确认邮件
// @Tags 账号
// @Security Bearer
// @Success 200 {object} response.Response
// @Router /api/v1/auth/resend-confirm [post]
func (h *Handler) ResendConfirm(c *gin.Context) {
	if err := h.identity.ResendConfirm(c.Request.Context(), actor(c)); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, nil)
}

// ForgetPassword 发送重置密码邮件；邮箱不存在时同样返回成功
// @Summary 忘记密码
// @Tags 账号
// @Accept json
// @Param request body forgetRequest true "邮箱"
// @Success 200 {object} response.Response
// @Router /api/v1/auth/forget-password [post]
func (h *Handler) ForgetPassword(c *gin.Context) {
	var req forgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.identity.ForgetPassword(c.Request.Context(), req.Email); err != nil && !isNotFound(err) {
		writeError(c, err)
		return
	}
	response.Success(c, nil)
}

// ResetPassword 凭令牌重置密码
// @Summary 重置密码
// @Tags 账号
// @Accept json
// @Param request body resetRequest true "令牌与新密码"
// @Success 200 {object} response.Response
// @Router /api/v1/auth/reset-password [post]
func (h *Handler) ResetPassword(c *gin.Context) {
	var req resetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.identity.ResetPassword(c.Request.Context(), req.Token, req.Email, req.Password); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, nil)
}

// UpdateNotificationSettings 修改通知偏好
// @Summary 通知偏好
// @Tags 账号
// @Security Bearer
// @Accept json
// @Param request body notificationSettingsRequest true "偏好"
// @Success 200 {object} response.Response
// @Router /api/v1/settings/notifications [put]
func (h *Handler) UpdateNotificationSettings(c *gin.Context) {
	var req notificationSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	err := h.identity.UpdateNotificationSettings(c.Request.Context(), actor(c), service.NotificationSettings{
		ReceiveComment: *req.ReceiveComment,
		ReceiveCollect: *req.ReceiveCollect,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, nil)
}
