package middleware

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/cw-satou/astral-backend/internal/pkg/envutil"
)

// CORS allows the storefront/LIFF origins. Origins come from
// CORS_ALLOW_ORIGINS (comma-separated) with local development defaults.
func CORS() gin.HandlerFunc {
	raw := envutil.Str("CORS_ALLOW_ORIGINS", "http://localhost:3000,http://localhost:5173")
	origins := []string{}
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "X-Requested-With", "X-Line-Signature"},
		AllowCredentials: true,
	})
}
