package lectures

import (
	"github.com/gin-gonic/gin"

	"github.com/opencourselab/lecture-api/api/types"
)

// RegisterRoutes registers lecture ingestion and storage routes
func RegisterRoutes(router *gin.RouterGroup, deps *types.Dependencies) {
	router.POST("/upload", Upload(deps))
	router.POST("/ingestion/enqueue", EnqueueTranscript(deps))
	router.GET("/ingestion/jobs/:id", GetJobStatus(deps))
	router.POST("/summarize-and-store", SummarizeAndStore(deps))
}
