package http

import (
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const corsMaxAge = 12 * time.Hour

// createCORSMiddleware returns nil when CORS is off or no usable origin is configured.
// A "*" entry allows any origin and turns credentials off.
func createCORSMiddleware(enabled bool, allowOrigins string, logger *slog.Logger) gin.HandlerFunc {
	if !enabled {
		return nil
	}

	origins := parseOrigins(allowOrigins)
	if len(origins) == 0 {
		logger.Warn("cors enabled without any allowed origin, skipping")
		return nil
	}

	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Authorization", "Content-Type"},
		ExposeHeaders: []string{"X-Request-Id", "Retry-After"},
		MaxAge:        corsMaxAge,
	}

	if slices.Contains(origins, "*") {
		corsConfig.AllowAllOrigins = true
		logger.Warn("cors allows every origin")
	} else {
		corsConfig.AllowOrigins = origins
		corsConfig.AllowCredentials = true
		logger.Info("cors enabled", slog.Any("origins", origins))
	}

	return cors.New(corsConfig)
}

// parseOrigins splits a comma separated list, dropping blanks and duplicates.
func parseOrigins(raw string) []string {
	var origins []string
	for part := range strings.SplitSeq(raw, ",") {
		origin := strings.TrimRight(strings.TrimSpace(part), "/")
		if origin == "" || slices.Contains(origins, origin) {
			continue
		}
		origins = append(origins, origin)
	}
	return origins
}
