package handler

import (
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/phygital/internal/music"
)

// 触发真实搜索所需的最短查询长度
const minSearchQueryLength = 2

// SearchMusic 代理音乐搜索。过短的查询直接拒绝，不触碰上游接口；
// 上游的任何失败都表现为空结果，搜索只是锦上添花，从不阻塞主流程。
func (a *API) SearchMusic(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if utf8.RuneCountInString(query) < minSearchQueryLength {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "查询太短，请至少输入 2 个字符",
			"results": []music.Track{},
		})
		return
	}

	limit := 10
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	results := a.music.Search(c.Request.Context(), query, limit)
	if results == nil {
		results = []music.Track{}
	}

	c.JSON(http.StatusOK, gin.H{
		"query":   query,
		"count":   len(results),
		"results": results,
	})
}
