package quiz

import (
	"github.com/gin-gonic/gin"

	"github.com/opencourselab/lecture-api/api/types"
)

// RegisterRoutes registers quiz generation routes
func RegisterRoutes(router *gin.RouterGroup, deps *types.Dependencies) {
	router.POST("/generate", Generate(deps))
}
