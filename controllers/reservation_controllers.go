package controllers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/eastatwest/restaurant-app/models"
	"github.com/eastatwest/restaurant-app/services"
	"github.com/eastatwest/restaurant-app/utils"
	"github.com/gin-gonic/gin"
)

const IdempotencyHeader = "Idempotency-Key"

type ReservationController struct {
	Service *services.ReservationService
}

func NewReservationController(svc *services.ReservationService) *ReservationController {
	return &ReservationController{Service: svc}
}

// CreateReservation handles the guest booking form.
func (rc *ReservationController) CreateReservation(c *gin.Context) {
	var req services.ReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.InfoLogger.Debugf("rejected reservation body: %v", err)
		utils.RespondErrorCode(c, http.StatusBadRequest, "invalid_body", "Invalid reservation request", nil)
		return
	}
	req.Language = requestLanguage(c, req.Language)

	key := strings.TrimSpace(c.GetHeader(IdempotencyHeader))
	if len(key) > models.MaxIdempotencyKeyLength {
		utils.RespondErrorCode(c, http.StatusBadRequest, "idempotency_key_invalid",
			fmt.Sprintf("%s must be at most %d characters", IdempotencyHeader, models.MaxIdempotencyKeyLength), nil)
		return
	}

	result, err := rc.Service.Submit(c.Request.Context(), req, key)
	if err != nil {
		respondServiceError(c, err, req.Language)
		return
	}

	code := http.StatusCreated
	if result.Status == models.StatusPending {
		code = http.StatusAccepted
	}
	utils.RespondJSON(c, code, result.Message, result)
}
