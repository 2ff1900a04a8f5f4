package http

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/suchimauz/appointment-availability-engine/internal/config"
)

func basicAuth(clients []config.ConfigBasicClient) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		username, password, hasAuth := ctx.Request.BasicAuth()
		if !hasAuth || !knownClient(clients, username, password) {
			ctx.Header("WWW-Authenticate", "Basic realm=Authorization Required")
			ctx.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		ctx.Next()
	}
}

func knownClient(clients []config.ConfigBasicClient, username, password string) bool {
	found := false
	for _, client := range clients {
		// Проходим всех клиентов, чтобы время ответа не зависело от позиции
		if subtle.ConstantTimeCompare([]byte(username), []byte(client.Username)) == 1 &&
			subtle.ConstantTimeCompare([]byte(password), []byte(client.Password)) == 1 {
			found = true
		}
	}
	return found
}
