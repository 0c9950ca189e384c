package media

import "github.com/gin-gonic/gin"

func RegisterRoutes(rg *gin.RouterGroup, handler Handler) {
	media := rg.Group("/media")
	{
		media.POST("", handler.Upload)
		media.GET("/:id", handler.GetAsset)
	}
}
