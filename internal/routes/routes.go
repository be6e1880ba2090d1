package routes

import (
	"github.com/damoang/qna-revision/internal/domain"
	"github.com/damoang/qna-revision/internal/handler"
	"github.com/gin-gonic/gin"
)

// Setup configures the edit and history API routes.
// auth verifies the caller; editLimit throttles edit attempts per user.
func Setup(router *gin.Engine, editHandler *handler.EditHandler, auth, editLimit gin.HandlerFunc) {
	api := router.Group("/api/v1")

	for _, r := range []struct {
		prefix string
		kind   domain.ContentKind
	}{
		{"/questions", domain.KindQuestion},
		{"/answers", domain.KindAnswer},
	} {
		group := api.Group(r.prefix)
		group.GET("/:id/edit", auth, editHandler.GetEditForm(r.kind))         // 수정 폼 (작성자/운영자)
		group.PUT("/:id", auth, editLimit, editHandler.UpdateContent(r.kind)) // 수정 (작성자/운영자)
		group.GET("/:id/history", editHandler.GetHistory(r.kind))             // 수정 이력 (공개)
	}
}
