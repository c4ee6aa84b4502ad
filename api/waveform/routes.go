package waveform

import (
	"github.com/gin-gonic/gin"

	"github.com/killallgit/wavepng/api/types"
)

// RegisterRoutes registers all waveform-related routes
func RegisterRoutes(router *gin.RouterGroup, deps *types.Dependencies) {
	router.GET("", GetImage(deps))
	router.GET("/info", GetInfo(deps))
}
