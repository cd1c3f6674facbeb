package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/albumy/pkg/response"
)

// Follow 关注用户
// @Summary 关注用户
// @Tags 关系链
// @Security Bearer
// @Produce json
// @Param user_id path string true "被关注用户ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/users/{user_id}/follow [post]
func (h *Handler) Follow(c *gin.Context) {
	if err := h.relService.Follow(c.Request.Context(), actor(c), c.Param("user_id")); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, nil)
}

// Unfollow 取消关注
// @Summary 取消关注
// @Tags 关系链
// @Security Bearer
// @Produce json
// @Param user_id path string true "被关注用户ID"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/users/{user_id}/follow [delete]
func (h *Handler) Unfollow(c *gin.Context) {
	if err := h.relService.Unfollow(c.Request.Context(), actor(c), c.Param("user_id")); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, nil)
}

// ListFollowing 查询某用户关注的人
// @Summary 查询关注列表
// @Tags 关系链
// @Param user_id path string true "用户ID"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Success 200 {object} response.Response{data=service.Page[model.User]}
// @Router /api/v1/users/{user_id}/following [get]
func (h *Handler) ListFollowing(c *gin.Context) {
	page, pageSize := pageQuery(c)
	list, err := h.relService.ListFollowing(c.Request.Context(), c.Param("user_id"), page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, list)
}

// ListFollowers 查询某用户的粉丝
// @Summary 查询粉丝列表
// @Tags 关系链
// @Param user_id path string true "用户ID"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Success 200 {object} response.Response{data=service.Page[model.User]}
// @Router /api/v1/users/{user_id}/followers [get]
func (h *Handler) ListFollowers(c *gin.Context) {
	page, pageSize := pageQuery(c)
	list, err := h.relService.ListFollowers(c.Request.Context(), c.Param("user_id"), page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, list)
}

// GetUser 用户主页：资料、是否已关注、作品列表
// @Summary 用户主页
// @Tags 用户
// @Param username path string true "用户名"
// @Param page query int false "页码" default(1)
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/users/by-name/{username} [get]
func (h *Handler) GetUser(c *gin.Context) {
	ctx := c.Request.Context()
	u, err := h.identity.GetByUsername(ctx, c.Param("username"))
	if err != nil {
		writeError(c, err)
		return
	}
	following, err := h.relService.IsFollowing(ctx, actor(c).ID, u.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	page, pageSize := pageQuery(c)
	photos, err := h.photos.ListByAuthor(ctx, u.ID, page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"user": u, "is_following": following, "photos": photos})
}
