package funnel

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"blanknote-backend/internal/llm"
	"blanknote-backend/internal/results"
	"blanknote-backend/internal/shared/server/middleware"
	"blanknote-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the pipeline service.
type Handler struct {
	Svc   *Service
	Price string
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, price string) *Handler {
	return &Handler{Svc: svc, Price: price}
}

// RegisterRoutes attaches funnel routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/questions", h.questions)
	rg.POST("/funnel/intro", h.submitIntro)
	rg.POST("/funnel/deep", h.submitDeep)
	rg.GET("/results/:id", h.getResult)
	rg.POST("/results/:id/unlock", h.unlockImage)
	rg.POST("/results/:id/paid", h.markPaid)
}

func (h *Handler) questions(c *gin.Context) {
	respond.OK(c, gin.H{
		"intro": IntroQuestions,
		"deep":  SampleDeepQuestions(nil),
		"price": h.Price,
	})
}

type submitIntroRequest struct {
	Answers []results.Answer `json:"answers"`
}

func (h *Handler) submitIntro(c *gin.Context) {
	var req submitIntroRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	c.Set("funnelPhase", string(results.PhaseIntro))
	clientID := middleware.ClientIdentifier(c)

	resultID, err := h.Svc.SubmitIntro(c.Request.Context(), req.Answers, clientID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.Set("resultId", resultID)
	respond.JSON(c, http.StatusCreated, gin.H{"resultId": resultID})
}

type submitDeepRequest struct {
	ResultID string           `json:"resultId"`
	Answers  []results.Answer `json:"answers"`
}

func (h *Handler) submitDeep(c *gin.Context) {
	var req submitDeepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if req.ResultID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "resultId is required", nil)
		return
	}

	c.Set("funnelPhase", string(results.PhaseDeep))
	c.Set("resultId", req.ResultID)

	resultID, err := h.Svc.SubmitDeep(c.Request.Context(), req.ResultID, req.Answers)
	if err != nil {
		h.respondError(c, err)
		return
	}

	respond.OK(c, gin.H{"resultId": resultID})
}

func (h *Handler) getResult(c *gin.Context) {
	resultID := c.Param("id")

	result, err := h.Svc.GetResult(c.Request.Context(), resultID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	respond.OK(c, result)
}

func (h *Handler) unlockImage(c *gin.Context) {
	resultID := c.Param("id")
	c.Set("resultId", resultID)

	imageURL, err := h.Svc.UnlockImage(c.Request.Context(), resultID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	respond.OK(c, gin.H{"imageUrl": imageURL})
}

func (h *Handler) markPaid(c *gin.Context) {
	resultID := c.Param("id")
	c.Set("resultId", resultID)

	ok, err := h.Svc.MarkAsPaid(c.Request.Context(), resultID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !ok {
		respond.Error(c, http.StatusNotFound, "not_found", "result not found", nil)
		return
	}

	respond.OK(c, gin.H{"ok": true})
}

// respondError maps the pipeline error taxonomy onto HTTP responses. The
// messages echo the original product copy so the UI can show them directly.
func (h *Handler) respondError(c *gin.Context, err error) {
	var (
		validation   *ValidationError
		rateLimit    *RateLimitError
		analysis     *AnalysisError
		imageGen     *ImageGenError
		storage      *StorageError
		notFound     *NotFoundError
		precondition *PreconditionError
	)

	switch {
	case errors.As(err, &validation):
		msg := "Please answer every prompt."
		if validation.Reason == ReasonTooShort {
			msg = "Some answers are too short. Please write a bit more."
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", msg, gin.H{"reason": validation.Reason})
	case errors.As(err, &rateLimit):
		c.Header("Retry-After", strconv.Itoa(rateLimit.ResetInSeconds))
		respond.Error(c, http.StatusTooManyRequests, "rate_limited",
			"Unconscious link overloaded. Please try again shortly.",
			gin.H{"resetInSeconds": rateLimit.ResetInSeconds})
	case errors.As(err, &analysis):
		switch analysis.Kind {
		case llm.KindQuotaExceeded:
			respond.Error(c, http.StatusServiceUnavailable, "analysis_quota_exhausted",
				"The exploration energy is exhausted. Please contact support.",
				gin.H{"kind": string(analysis.Kind)})
		case llm.KindUpstreamBusy:
			c.Header("Retry-After", "10")
			respond.Error(c, http.StatusServiceUnavailable, "analysis_busy",
				"The AI is busy. Please try again in a moment.",
				gin.H{"kind": string(analysis.Kind)})
		default:
			respond.Error(c, http.StatusBadGateway, "analysis_failed",
				"Failed to reach the unconscious. Please try again.",
				gin.H{"kind": string(analysis.Kind)})
		}
	case errors.As(err, &imageGen):
		respond.Error(c, http.StatusBadGateway, "image_generation_failed",
			"Visualizing the unconscious failed. Please try again.", nil)
	case errors.As(err, &notFound):
		respond.Error(c, http.StatusNotFound, "not_found", "result not found", nil)
	case errors.As(err, &precondition):
		respond.Error(c, http.StatusConflict, "precondition_failed", precondition.Reason, nil)
	case errors.As(err, &storage):
		respond.Error(c, http.StatusInternalServerError, "storage_error",
			"Saving the unconscious failed. Please try again.", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal", "Unexpected server error", nil)
	}
}
