package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS returns the CORS policy for the API. The service sits behind
// API-key auth, so any origin may call it as long as the key header is
// allowed through.
func CORS() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept", "X-API-Key"},
		ExposeHeaders:   []string{"Content-Length", "Retry-After"},
		MaxAge:          12 * time.Hour,
	})
}
