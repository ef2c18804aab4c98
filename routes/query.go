package routes

import (
	"net/http"

	"legaldoc-pipeline/internal/orchestrator"
	"legaldoc-pipeline/middleware"
	"legaldoc-pipeline/utils"

	"github.com/gin-gonic/gin"
)

type queryRequest struct {
	DocumentID string `json:"document_id" binding:"required"`
	Query      string `json:"query" binding:"required"`
	TopK       int    `json:"top_k"`
}

// SetupQueryRoutes wires POST /v1/query, mirroring the teacher's JSON
// chat-send handler shape in routes/chat.go.
func SetupQueryRoutes(router *gin.Engine, orch *orchestrator.Orchestrator, authMiddleware *middleware.AuthMiddleware) {
	query := router.Group("/v1/query")
	query.Use(authMiddleware.RequireAuth())

	query.POST("", func(c *gin.Context) {
		var req queryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "invalid request body", gin.H{"error": err.Error()})
			return
		}

		userID := middleware.GetUserID(c)

		resp, err := orch.Query(c.Request.Context(), userID, req.DocumentID, req.Query, req.TopK)
		if err != nil {
			respondPipelineError(c, err)
			return
		}

		c.JSON(http.StatusOK, resp)
	})
}
