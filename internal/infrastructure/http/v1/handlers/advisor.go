package handlers

import (
	"github.com/gin-gonic/gin"

	"hornada/internal/domain/advisor"
	"hornada/internal/infrastructure/http/v1/dto"
)

// AdvisorHandler handles purchasing recommendation endpoints.
type AdvisorHandler struct {
	*BaseHandler
	service *advisor.Service
}

// NewAdvisorHandler creates an advisor handler.
func NewAdvisorHandler(base *BaseHandler, service *advisor.Service) *AdvisorHandler {
	return &AdvisorHandler{BaseHandler: base, service: service}
}

// GetRecommendations handles GET /advisor/recommendations
// Recommendations are recomputed from open production demand on every call.
func (h *AdvisorHandler) GetRecommendations(c *gin.Context) {
	recs, err := h.service.Recommendations(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(recs))
}

// ComputeShortages handles POST /advisor/shortages
// Computes recommendations from caller-supplied demand forecasts instead of
// the open production plan.
func (h *AdvisorHandler) ComputeShortages(c *gin.Context) {
	var req dto.ComputeShortagesRequest
	if !h.BindJSON(c, &req) {
		return
	}

	forecasts := make([]advisor.Forecast, 0, len(req.Forecasts))
	for _, f := range req.Forecasts {
		productID, err := idFromString(f.ProductID, "forecasts.productId")
		if err != nil {
			h.Error(c, err)
			return
		}
		forecasts = append(forecasts, advisor.Forecast{
			ProductID:         productID,
			PredictedQuantity: f.PredictedQuantity,
			Confidence:        f.Confidence,
			Date:              f.Date,
		})
	}

	recs, err := h.service.Shortages(c.Request.Context(), forecasts)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(recs))
}
