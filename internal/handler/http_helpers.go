package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// parseOptionalInt 把表单中的可选整数字段解析为指针，空串视为缺省。
func parseOptionalInt(value string) *int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	parsed, err := strconv.Atoi(trimmed)
	if err != nil {
		return nil
	}
	return &parsed
}

// parseOptionalUint 同 parseOptionalInt，但用于照片这类无符号主键。
func parseOptionalUint(value string) *uint {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	parsed, err := strconv.ParseUint(trimmed, 10, 32)
	if err != nil {
		return nil
	}
	result := uint(parsed)
	return &result
}

// parsePhotoOrderMap 把 photo_order[<id>]=<order> 形式的表单键值
// 转成照片排序映射，非法键值直接跳过。
func parsePhotoOrderMap(raw map[string]string) map[uint]int {
	if len(raw) == 0 {
		return nil
	}

	orders := make(map[uint]int, len(raw))
	for key, value := range raw {
		id, err := strconv.ParseUint(strings.TrimSpace(key), 10, 32)
		if err != nil {
			continue
		}
		order, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			continue
		}
		orders[uint(id)] = order
	}
	if len(orders) == 0 {
		return nil
	}
	return orders
}
