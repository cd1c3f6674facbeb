package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/albumy/pkg/response"
)

type tagRequest struct {
	Tags string `json:"tags" binding:"required,max=200"`
}

// AddTags 为照片添加标签，空白分隔
// @Summary 添加标签
// @Tags 标签
// @Security Bearer
// @Accept json
// @Param photo_id path string true "照片ID"
// @Param request body tagRequest true "空白分隔的标签名"
// @Success 200 {object} response.Response{data=[]model.Tag}
// @Router /api/v1/photos/{photo_id}/tags [post]
func (h *Handler) AddTags(c *gin.Context) {
	var req tagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	tags, err := h.tags.AddTags(c.Request.Context(), actor(c), c.Param("photo_id"), req.Tags)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, tags)
}

// RemoveTag 从照片摘除标签
// @Summary 摘除标签
// @Tags 标签
// @Security Bearer
// @Param photo_id path string true "照片ID"
// @Param tag_id path string true "标签ID"
// @Success 200 {object} response.Response
// @Router /api/v1/photos/{photo_id}/tags/{tag_id} [delete]
func (h *Handler) RemoveTag(c *gin.Context) {
	if err := h.tags.RemoveTag(c.Request.Context(), actor(c), c.Param("photo_id"), c.Param("tag_id")); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, nil)
}

// TagPhotos 标签页
// @Summary 标签下的照片
// @Tags 标签
// @Param tag_id path string true "标签ID"
// @Param order query string false "by_time 或 by_collects" default(by_time)
// @Param page query int false "页码" default(1)
// @Success 200 {object} response.Response{data=service.TagPhotos}
// @Router /api/v1/tags/{tag_id}/photos [get]
func (h *Handler) TagPhotos(c *gin.Context) {
	page, pageSize := pageQuery(c)
	res, err := h.feed.TagPhotos(c.Request.Context(), c.Param("tag_id"), repositoryOrder(c.Query("order")), page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, res)
}

// TrendingTags 热门标签
// @Summary 热门标签
// @Tags 标签
// @Param limit query int false "数量" default(10)
// @Success 200 {object} response.Response{data=[]repository.TagCount}
// @Router /api/v1/tags/trending [get]
func (h *Handler) TrendingTags(c *gin.Context) {
	limit := queryInt(c, "limit")
	tags, err := h.feed.TrendingTags(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, tags)
}
