package dashboard

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/conclave-hq/conclave/internal/collab"
)

// registerRoutes sets up all dashboard routes on the Gin router.
func registerRoutes(router *gin.Engine, opts StartOpts) {
	router.GET("/api/sessions/:id", handleSession(opts.Engine))
	if opts.Planner != nil {
		router.GET("/api/orchestrations/:id", handleOrchestration(opts))
	}
	router.GET("/api/events/:id", handleSSE(opts.Hub))
}

func handleSession(engine *collab.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := engine.GetSession(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, session)
	}
}

func handleOrchestration(opts StartOpts) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, err := opts.Planner.GetOrchestrationStatus(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, status)
	}
}

// writeError maps the engine's error taxonomy onto HTTP statuses without
// leaking internals for unexpected failures.
func writeError(c *gin.Context, err error) {
	switch {
	case collab.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case collab.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case collab.IsConflict(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
