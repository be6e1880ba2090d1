package handler

import (
	"errors"
	"net/http"

	"github.com/damoang/qna-revision/internal/common"
	"github.com/damoang/qna-revision/internal/domain"
	"github.com/damoang/qna-revision/internal/middleware"
	"github.com/damoang/qna-revision/internal/service"
	"github.com/damoang/qna-revision/pkg/ginutil"
	"github.com/gin-gonic/gin"
)

// EditHandler handles edit and history requests for questions and answers
type EditHandler struct {
	service service.EditService
}

// NewEditHandler creates a new EditHandler
func NewEditHandler(service service.EditService) *EditHandler {
	return &EditHandler{service: service}
}

// GetEditForm godoc
// @Summary      수정 폼 조회
// @Description  현재 내용과 수정 가능 여부를 조회합니다 (변경 없음)
// @Tags         edit
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "콘텐츠 ID"
// @Success      200  {object}  common.APIResponse{data=domain.EditFormView}
// @Failure      401  {object}  common.APIResponse
// @Failure      403  {object}  common.APIResponse
// @Failure      404  {object}  common.APIResponse
// @Router       /questions/{id}/edit [get]
// @Router       /answers/{id}/edit [get]
func (h *EditHandler) GetEditForm(kind domain.ContentKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := contentID(c)
		if !ok {
			return
		}
		actor, ok := requireActor(c)
		if !ok {
			return
		}

		decision, err := h.service.RequestEdit(c.Request.Context(), kind, id, actor)
		if err != nil {
			respondEditError(c, err)
			return
		}
		if !decision.CanEdit {
			common.ErrorResponse(c, http.StatusForbidden, common.ErrPermissionDenied.Error(), common.ErrPermissionDenied)
			return
		}

		common.SuccessResponse(c, decision.ToEditForm(), nil)
	}
}

// UpdateContent godoc
// @Summary      질문/답변 수정
// @Description  변경된 필드만 반영하고 수정 이력을 남깁니다. 변경이 없으면 no_op=true
// @Tags         edit
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                        true  "콘텐츠 ID"
// @Param        request  body      domain.EditContentRequest  true  "수정 요청"
// @Success      200  {object}  common.APIResponse{data=domain.EditResultView}
// @Failure      400  {object}  common.APIResponse
// @Failure      401  {object}  common.APIResponse
// @Failure      403  {object}  common.APIResponse
// @Failure      404  {object}  common.APIResponse
// @Failure      409  {object}  common.APIResponse
// @Router       /questions/{id} [put]
// @Router       /answers/{id} [put]
func (h *EditHandler) UpdateContent(kind domain.ContentKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := contentID(c)
		if !ok {
			return
		}
		actor, ok := requireActor(c)
		if !ok {
			return
		}

		var req domain.EditContentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			common.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
			return
		}
		lastKnown, err := req.ParseLastKnownRevision()
		if err != nil {
			common.ErrorResponse(c, http.StatusBadRequest, "Invalid last_known_revision", err)
			return
		}

		result, err := h.service.ApplyEdit(c.Request.Context(), &domain.EditRequest{
			Kind:              kind,
			ContentID:         id,
			Actor:             actor,
			Proposed:          req.ToFieldValues(),
			EditReason:        req.EditReason,
			LastKnownRevision: lastKnown,
		})
		if err != nil {
			respondEditError(c, err)
			return
		}

		common.SuccessResponse(c, result.ToView(), nil)
	}
}

// GetHistory godoc
// @Summary      수정 이력 조회
// @Description  최신순 수정 이력. diff=true 이면 변경 전/후 값을 포함합니다
// @Tags         edit
// @Produce      json
// @Param        id     path   int   true   "콘텐츠 ID"
// @Param        limit  query  int   false  "최대 개수 (기본값: 20, 최대: 100)"
// @Param        diff   query  bool  false  "변경 전/후 값 포함"
// @Success      200  {object}  common.APIResponse{data=domain.HistoryView}
// @Failure      404  {object}  common.APIResponse
// @Router       /questions/{id}/history [get]
// @Router       /answers/{id}/history [get]
func (h *EditHandler) GetHistory(kind domain.ContentKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := contentID(c)
		if !ok {
			return
		}
		limit := ginutil.QueryInt(c, "limit", 0)
		withDiff := ginutil.QueryBool(c, "diff")

		history, err := h.service.GetHistory(c.Request.Context(), kind, id, limit)
		if err != nil {
			respondEditError(c, err)
			return
		}

		view := &domain.HistoryView{
			ContentID: history.Content.ID,
			EditCount: history.Content.EditCount,
			History:   make([]*domain.HistoryEntryView, len(history.Records)),
		}
		for i := range history.Records {
			view.History[i] = history.Records[i].ToHistoryView(withDiff)
		}

		common.SuccessResponse(c, view, &common.Meta{
			Kind:  string(kind),
			Limit: history.Limit,
			Total: int64(len(history.Records)),
		})
	}
}

func contentID(c *gin.Context) (uint64, bool) {
	id, err := ginutil.ParamUint64(c, "id")
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid content ID", err)
		return 0, false
	}
	return id, true
}

func requireActor(c *gin.Context) (domain.Actor, bool) {
	actor, ok := middleware.GetActor(c)
	if !ok || actor.ID == "" {
		common.ErrorResponse(c, http.StatusUnauthorized, "Authentication required", common.ErrUnauthorized)
		return domain.Actor{}, false
	}
	return actor, true
}

// respondEditError maps the edit error taxonomy to HTTP statuses
func respondEditError(c *gin.Context, err error) {
	var verr *common.ValidationError
	switch {
	case errors.As(err, &verr):
		_ = c.Error(err)
		common.ValidationErrorResponse(c, verr)
	case errors.Is(err, common.ErrContentNotFound):
		common.ErrorResponse(c, http.StatusNotFound, "Content not found", err)
	case errors.Is(err, common.ErrInvalidKind):
		common.ErrorResponse(c, http.StatusNotFound, "Unknown content type", err)
	case errors.Is(err, common.ErrPermissionDenied):
		common.ErrorResponse(c, http.StatusForbidden, err.Error(), err)
	case errors.Is(err, common.ErrConcurrentModification):
		common.ErrorResponse(c, http.StatusConflict, "Content has been modified by another user. Please reload and try again.", err)
	default:
		common.ErrorResponse(c, http.StatusInternalServerError, "Failed to process edit", err)
	}
}
