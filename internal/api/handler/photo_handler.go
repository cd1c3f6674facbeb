package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/albumy/internal/imaging"
	"github.com/d60-Lab/albumy/internal/model"
	"github.com/d60-Lab/albumy/internal/service"
	"github.com/d60-Lab/albumy/pkg/logger"
	"github.com/d60-Lab/albumy/pkg/response"
)

type descriptionRequest struct {
	Description string `json:"description" binding:"max=500"`
}

// UploadPhoto 上传照片
// @Summary 上传照片
// @Tags 照片
// @Security Bearer
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "图片文件 (jpg/jpeg/png/gif)"
// @Param description formData string false "描述"
// @Success 201 {object} response.Response{data=model.Photo}
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/v1/photos [post]
func (h *Handler) UploadPhoto(c *gin.Context) {
	a := actor(c)
	switch {
	case !a.Can(model.PermUpload):
		writeError(c, service.ErrForbidden)
		return
	case !a.Confirmed:
		writeError(c, service.ErrUnconfirmed)
		return
	}
	if h.maxUpload > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)
	}
	file, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "file is required")
		return
	}
	src, err := file.Open()
	if err != nil {
		response.BadRequest(c, "cannot read file")
		return
	}
	defer src.Close()

	stored, err := h.images.Save(file.Filename, src)
	if err != nil {
		if errors.Is(err, imaging.ErrUnsupportedFormat) {
			response.BadRequest(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	p, err := h.photos.Create(c.Request.Context(), a, stored, c.PostForm("description"))
	if err != nil {
		if rmErr := h.images.Remove(stored); rmErr != nil {
			logger.Warn("remove uploaded files failed", zap.Error(rmErr), zap.String("file", stored.Filename))
		}
		writeError(c, err)
		return
	}
	response.Created(c, p)
}

// GetPhoto 照片详情
// @Summary 照片详情
// @Tags 照片
// @Param photo_id path string true "照片ID"
// @Success 200 {object} response.Response{data=service.PhotoDetail}
// @Failure 404 {object} response.Response
// @Router /api/v1/photos/{photo_id} [get]
func (h *Handler) GetPhoto(c *gin.Context) {
	ctx := c.Request.Context()
	d, err := h.photos.Get(ctx, c.Param("photo_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	collected, err := h.collects.IsCollecting(ctx, actor(c).ID, d.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"photo": d, "is_collecting": collected})
}

// EditDescription 修改照片描述
// @Summary 修改照片描述
// @Tags 照片
// @Security Bearer
// @Accept json
// @Param photo_id path string true "照片ID"
// @Param request body descriptionRequest true "描述"
// @Success 200 {object} response.Response
// @Router /api/v1/photos/{photo_id}/description [put]
func (h *Handler) EditDescription(c *gin.Context) {
	var req descriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.photos.EditDescription(c.Request.Context(), actor(c), c.Param("photo_id"), req.Description); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, nil)
}

// ToggleComment 开关评论
// @Summary 开关评论
// @Tags 照片
// @Security Bearer
// @Param photo_id path string true "照片ID"
// @Success 200 {object} response.Response
// @Router /api/v1/photos/{photo_id}/toggle-comment [post]
func (h *Handler) ToggleComment(c *gin.Context) {
	enabled, err := h.photos.ToggleComment(c.Request.Context(), actor(c), c.Param("photo_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"can_comment": enabled})
}

// ReportPhoto 举报照片
// @Summary 举报照片
// @Tags 照片
// @Security Bearer
// @Param photo_id path string true "照片ID"
// @Success 200 {object} response.Response
// @Router /api/v1/photos/{photo_id}/report [post]
func (h *Handler) ReportPhoto(c *gin.Context) {
	if err := h.photos.Report(c.Request.Context(), actor(c), c.Param("photo_id")); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, nil)
}

// DeletePhoto 删除照片及其评论、收藏、标签关联
// @Summary 删除照片
// @Tags 照片
// @Security Bearer
// @Param photo_id path string true "照片ID"
// @Success 200 {object} response.Response
// @Router /api/v1/photos/{photo_id} [delete]
func (h *Handler) DeletePhoto(c *gin.Context) {
	if err := h.photos.Delete(c.Request.Context(), actor(c), c.Param("photo_id")); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, nil)
}

// NextPhoto 同一作者的上一张（更早）照片
// @Summary 下一张
// @Tags 照片
// @Param photo_id path string true "照片ID"
// @Success 200 {object} response.Response{data=model.Photo}
// @Failure 404 {object} response.Response
// @Router /api/v1/photos/{photo_id}/next [get]
func (h *Handler) NextPhoto(c *gin.Context) {
	p, err := h.photos.Next(c.Request.Context(), c.Param("photo_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, p)
}

// PreviousPhoto 同一作者的下一张（更新）照片
// @Summary 上一张
// @Tags 照片
// @Param photo_id path string true "照片ID"
// @Success 200 {object} response.Response{data=model.Photo}
// @Failure 404 {object} response.Response
// @Router /api/v1/photos/{photo_id}/previous [get]
func (h *Handler) PreviousPhoto(c *gin.Context) {
	p, err := h.photos.Previous(c.Request.Context(), c.Param("photo_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, p)
}

// Collect 收藏照片
// @Summary 收藏照片
// @Tags 收藏
// @Security Bearer
// @Param photo_id path string true "照片ID"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/photos/{photo_id}/collect [post]
func (h *Handler) Collect(c *gin.Context) {
	if err := h.collects.Collect(c.Request.Context(), actor(c), c.Param("photo_id")); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, nil)
}

// Uncollect 取消收藏
// @Summary 取消收藏
// @Tags 收藏
// @Security Bearer
// @Param photo_id path string true "照片ID"
// @Success 200 {object} response.Response
// @Router /api/v1/photos/{photo_id}/collect [delete]
func (h *Handler) Uncollect(c *gin.Context) {
	if err := h.collects.Uncollect(c.Request.Context(), actor(c), c.Param("photo_id")); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, nil)
}

// ListCollectors 收藏了该照片的用户
// @Summary 收藏者列表
// @Tags 收藏
// @Param photo_id path string true "照片ID"
// @Param page query int false "页码" default(1)
// @Success 200 {object} response.Response{data=service.Page[model.User]}
// @Router /api/v1/photos/{photo_id}/collectors [get]
func (h *Handler) ListCollectors(c *gin.Context) {
	page, pageSize := pageQuery(c)
	list, err := h.collects.ListCollectors(c.Request.Context(), c.Param("photo_id"), page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, list)
}
