package message

import "github.com/gin-gonic/gin"

func RegisterRoutes(rg *gin.RouterGroup, handler Handler) {
	conversations := rg.Group("/conversations/:conversation_id")
	{
		conversations.POST("/messages", handler.CreateMessage)
		conversations.GET("/messages", handler.GetMessages)
		conversations.POST("/read", handler.MarkConversationRead)
	}
	rg.GET("/messages/:id", handler.GetMessageByID)
}
