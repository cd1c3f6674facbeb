package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/albumy/internal/service"
	"github.com/d60-Lab/albumy/pkg/response"
)

type commentRequest struct {
	Body    string `json:"body" binding:"required,max=1000"`
	ReplyTo string `json:"reply_to"`
	Page    int    `json:"page" binding:"min=0"`
}

// PostComment 发表评论或回复
// @Summary 发表评论
// @Tags 评论
// @Security Bearer
// @Accept json
// @Produce json
// @Param photo_id path string true "照片ID"
// @Param request body commentRequest true "评论内容"
// @Success 201 {object} response.Response{data=model.Comment}
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/photos/{photo_id}/comments [post]
func (h *Handler) PostComment(c *gin.Context) {
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	comment, err := h.comments.Post(c.Request.Context(), actor(c), service.PostCommentInput{
		PhotoID: c.Param("photo_id"),
		Body:    req.Body,
		ReplyTo: req.ReplyTo,
		Page:    req.Page,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, comment)
}

// ListComments 照片评论，按时间正序
// @Summary 评论列表
// @Tags 评论
// @Param photo_id path string true "照片ID"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(15)
// @Success 200 {object} response.Response{data=service.Page[service.CommentView]}
// @Router /api/v1/photos/{photo_id}/comments [get]
func (h *Handler) ListComments(c *gin.Context) {
	page, pageSize := pageQuery(c)
	list, err := h.comments.List(c.Request.Context(), c.Param("photo_id"), page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, list)
}

// DeleteComment 删除评论（作者或审核员）
// @Summary 删除评论
// @Tags 评论
// @Security Bearer
// @Param comment_id path string true "评论ID"
// @Success 200 {object} response.Response
// @Router /api/v1/comments/{comment_id} [delete]
func (h *Handler) DeleteComment(c *gin.Context) {
	if err := h.comments.Delete(c.Request.Context(), actor(c), c.Param("comment_id")); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, nil)
}

// ReportComment 举报评论
// @Summary 举报评论
// @Tags 评论
// @Security Bearer
// @Param comment_id path string true "评论ID"
// @Success 200 {object} response.Response
// @Router /api/v1/comments/{comment_id}/report [post]
func (h *Handler) ReportComment(c *gin.Context) {
	if err := h.comments.Report(c.Request.Context(), actor(c), c.Param("comment_id")); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, nil)
}
