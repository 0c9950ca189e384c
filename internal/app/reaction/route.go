package reaction

import "github.com/gin-gonic/gin"

func RegisterRoutes(rg *gin.RouterGroup, handler Handler) {
	messages := rg.Group("/conversations/:conversation_id/messages/:id")
	{
		messages.POST("/reactions", handler.ToggleReaction)
		messages.GET("/reply-preview", handler.GetReplyPreview)
	}
}
