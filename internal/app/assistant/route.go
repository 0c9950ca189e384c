package assistant

import "github.com/gin-gonic/gin"

func RegisterRoutes(rg *gin.RouterGroup, handler Handler) {
	rg.POST("/conversations/:conversation_id/assistant", handler.StreamReply)
}
