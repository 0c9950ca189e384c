package conversation

import "github.com/gin-gonic/gin"

func RegisterRoutes(rg *gin.RouterGroup, handler Handler) {
	conversations := rg.Group("/conversations")
	{
		conversations.POST("", handler.CreateConversation)
		conversations.GET("", handler.ListConversations)
		conversations.GET("/:conversation_id", handler.GetConversation)
		conversations.PATCH("/:conversation_id", handler.RenameConversation)
		conversations.DELETE("/:conversation_id", handler.DeleteConversation)
	}
}
