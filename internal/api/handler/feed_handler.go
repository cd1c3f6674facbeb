package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/albumy/internal/repository"
	"github.com/d60-Lab/albumy/internal/service"
	"github.com/d60-Lab/albumy/pkg/response"
)

func queryInt(c *gin.Context, key string) int {
	n, _ := strconv.Atoi(c.Query(key))
	return n
}

func repositoryOrder(raw string) repository.PhotoOrder {
	if raw == string(repository.OrderByCollects) {
		return repository.OrderByCollects
	}
	return repository.OrderByTime
}

// Home 关注的人发布的照片；匿名访问返回 anonymous=true
// @Summary 首页动态
// @Tags 发现
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(12)
// @Success 200 {object} response.Response{data=service.HomeFeed}
// @Router /api/v1/feed [get]
func (h *Handler) Home(c *gin.Context) {
	page, pageSize := pageQuery(c)
	feed, err := h.feed.Home(c.Request.Context(), actor(c), page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, feed)
}

// Explore 随机照片
// @Summary 探索
// @Tags 发现
// @Param size query int false "数量" default(12)
// @Success 200 {object} response.Response{data=[]model.Photo}
// @Router /api/v1/explore [get]
func (h *Handler) Explore(c *gin.Context) {
	photos, err := h.feed.Explore(c.Request.Context(), queryInt(c, "size"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, photos)
}

// Search 搜索照片、用户或标签
// @Summary 搜索
// @Tags 发现
// @Param q query string true "关键词"
// @Param category query string false "photo|user|tag" default(photo)
// @Param page query int false "页码" default(1)
// @Success 200 {object} response.Response{data=service.SearchResult}
// @Failure 400 {object} response.Response
// @Router /api/v1/search [get]
func (h *Handler) Search(c *gin.Context) {
	page, pageSize := pageQuery(c)
	res, err := h.feed.Search(c.Request.Context(), c.Query("q"), service.SearchCategory(c.Query("category")), page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, res)
}
