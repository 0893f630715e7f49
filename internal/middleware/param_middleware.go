package middleware

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ExtractUintParam создает middleware для извлечения и валидации числового параметра URL.
// paramName - имя параметра в URL (например, "paperId").
// contextKey - ключ, под которым значение будет сохранено в контексте Gin.
func ExtractUintParam(paramName, contextKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param(paramName), 10, 32)
		if err != nil || id == 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid %s", paramName), "error_type": "validation"})
			return
		}
		c.Set(contextKey, uint(id))
		c.Next()
	}
}

// ExtractUintQuery делает то же для query-параметра. Если required == false,
// отсутствующий параметр сохраняется как 0.
func ExtractUintQuery(queryName, contextKey string, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, present := c.GetQuery(queryName)
		if !present || raw == "" {
			if required {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("%s is required", queryName), "error_type": "validation"})
				return
			}
			c.Set(contextKey, uint(0))
			c.Next()
			return
		}
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid %s", queryName), "error_type": "validation"})
			return
		}
		c.Set(contextKey, uint(id))
		c.Next()
	}
}
