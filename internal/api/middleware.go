package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// editorKey: ключ gin.Context с именем автора правки
const editorKey = "editor"

// editMiddleware проверяет токен правки в заголовке Authorization.
// Без издателя токенов (секрет не задан) пропускает все запросы.
func (rs *RestServer) editMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rs.issuer == nil {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, GenericResponse{
				Success: false,
				Message: "Отсутствует токен авторизации",
			})
			c.Abort()
			return
		}

		// Проверяем формат "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, GenericResponse{
				Success: false,
				Message: "Неверный формат токена",
			})
			c.Abort()
			return
		}

		claims, err := rs.issuer.Validate(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, GenericResponse{
				Success: false,
				Message: "Недействительный токен",
			})
			c.Abort()
			return
		}

		c.Set(editorKey, claims.Editor)
		c.Next()
	}
}
