package core

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type (
	// Plugin is a feature module mounted by the server. RegisterModels runs
	// during migration; RegisterRoutes attaches handlers under /api.
	Plugin interface {
		RegisterModels(*gorm.DB) error
		RegisterRoutes(api *gin.RouterGroup)
	}
)
