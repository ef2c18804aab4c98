package routes

import (
	"io"
	"net/http"

	"legaldoc-pipeline/internal/orchestrator"
	"legaldoc-pipeline/internal/pipeline"
	"legaldoc-pipeline/middleware"
	"legaldoc-pipeline/utils"

	"github.com/gin-gonic/gin"
)

const maxUploadBytes = 50 << 20

// SetupDocumentRoutes wires POST /v1/documents, mirroring the teacher's
// multipart upload handler shape in routes/chat.go's request validation
// and error-envelope pattern.
func SetupDocumentRoutes(router *gin.Engine, orch *orchestrator.Orchestrator, authMiddleware *middleware.AuthMiddleware) {
	documents := router.Group("/v1/documents")
	documents.Use(authMiddleware.RequireAuth())

	documents.POST("", func(c *gin.Context) {
		userID := middleware.GetUserID(c)

		file, header, err := c.Request.FormFile("file")
		if err != nil {
			utils.RespondWithBadRequest(c, "multipart field \"file\" is required", gin.H{"error": err.Error()})
			return
		}
		defer file.Close()

		limited := io.LimitReader(file, maxUploadBytes+1)
		data, err := io.ReadAll(limited)
		if err != nil {
			utils.RespondWithInternalError(c, "failed to read upload", gin.H{"error": err.Error()})
			return
		}
		if int64(len(data)) > maxUploadBytes {
			utils.RespondWithError(c, http.StatusRequestEntityTooLarge, "file_too_large", "uploaded file exceeds the maximum size", nil)
			return
		}

		resp, err := orch.Ingest(c.Request.Context(), userID, header.Filename, data)
		if err != nil {
			respondPipelineError(c, err)
			return
		}

		c.JSON(http.StatusOK, resp)
	})
}

// respondPipelineError maps a pipeline.Error to its documented HTTP status
// and error envelope; any other error type is treated as a 500.
func respondPipelineError(c *gin.Context, err error) {
	if pe, ok := err.(*pipeline.Error); ok {
		utils.RespondWithError(c, pe.HTTPStatus(), string(pe.Kind), pe.Message, gin.H{"request_id": pe.RequestID})
		return
	}
	utils.RespondWithInternalError(c, "unexpected pipeline failure", gin.H{"error": err.Error()})
}
