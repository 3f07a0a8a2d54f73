package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/zachzeid/prompteval/internal/analyses"
	"github.com/zachzeid/prompteval/internal/documents"
	"github.com/zachzeid/prompteval/internal/heuristics"
	"github.com/zachzeid/prompteval/internal/prompts"
	"github.com/zachzeid/prompteval/internal/quota"
	"github.com/zachzeid/prompteval/internal/revisions"
	"github.com/zachzeid/prompteval/internal/services/health"
	"github.com/zachzeid/prompteval/internal/shared/config"
	"github.com/zachzeid/prompteval/internal/shared/metrics"
	"github.com/zachzeid/prompteval/internal/shared/server/middleware"
	"github.com/zachzeid/prompteval/internal/shared/server/respond"
)

// RouterDeps carries everything the router mounts.
type RouterDeps struct {
	Config     config.Config
	Health     *health.Service
	Prompts    *prompts.Handler
	Documents  *documents.Handler
	Heuristics *heuristics.Handler
	Analyses   *analyses.Handler
	Revisions  *revisions.Handler
	Quota      *quota.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
// Health and metrics stay outside auth so probes work without a token.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", healthHandler(deps.Health))

	api.Use(
		middleware.Auth(deps.Config.APIToken),
		middleware.RateLimit(rateLimits()),
	)
	deps.Prompts.RegisterRoutes(api)
	deps.Documents.RegisterRoutes(api)
	deps.Heuristics.RegisterRoutes(api)
	deps.Analyses.RegisterRoutes(api)
	deps.Revisions.RegisterRoutes(api)
	deps.Quota.RegisterRoutes(api)

	return r
}

func healthHandler(svc *health.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		st := svc.Check(c.Request.Context())
		status := http.StatusOK
		if !st.OK {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, st)
	}
}

// rateLimits gives job status polling its own bucket so a dashboard
// refreshing GET /analyses cannot starve uploads and submissions.
func rateLimits() middleware.RateLimitConfig {
	return middleware.RateLimitConfig{
		GroupFor: func(c *gin.Context) string {
			if c.Request.Method == http.MethodGet &&
				strings.HasPrefix(c.Request.URL.Path, "/api/v1/analyses") {
				return "POLL"
			}
			return ""
		},
		Rules: map[string]middleware.RateLimitRule{
			"DEFAULT": {Rate: 10, Burst: 30},
			"POLL":    {Rate: 50, Burst: 100},
		},
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
