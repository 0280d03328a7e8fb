package controllers

import (
	"net/http"
	"strings"

	"github.com/eastatwest/restaurant-app/middlewares"
	"github.com/eastatwest/restaurant-app/models"
	"github.com/eastatwest/restaurant-app/services"
	"github.com/eastatwest/restaurant-app/utils"
	"github.com/gin-gonic/gin"
)

type AdminController struct {
	Service *services.ReservationService
}

func NewAdminController(svc *services.ReservationService) *AdminController {
	return &AdminController{Service: svc}
}

// GetReservations lists reservations newest first with the per-status counts
// shown on the filter tabs. ?status=all or no status lists everything.
func (ac *AdminController) GetReservations(c *gin.Context) {
	session := middlewares.SessionFrom(c)
	lang := requestLanguage(c, "")

	var filter models.ReservationFilter
	if raw := strings.ToLower(strings.TrimSpace(c.Query("status"))); raw != "" && raw != "all" {
		status := models.ReservationStatus(raw)
		filter.Status = &status
	}

	reservations, err := ac.Service.List(c.Request.Context(), session, filter)
	if err != nil {
		respondServiceError(c, err, lang)
		return
	}
	counts, err := ac.Service.Counts(c.Request.Context(), session)
	if err != nil {
		respondServiceError(c, err, lang)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Reservations", gin.H{
		"reservations": reservations,
		"counts":       counts,
	})
}

type updateStatusRequest struct {
	Status models.ReservationStatus `json:"status" binding:"required"`
	Reason *string                  `json:"reason"`
}

// UpdateReservationStatus sets the status of one reservation.
func (ac *AdminController) UpdateReservationStatus(c *gin.Context) {
	var body updateStatusRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondErrorCode(c, http.StatusBadRequest, "invalid_body", "status is required", nil)
		return
	}

	rec, err := ac.Service.UpdateStatus(c.Request.Context(), middlewares.SessionFrom(c), c.Param("id"), body.Status, body.Reason)
	if err != nil {
		respondServiceError(c, err, requestLanguage(c, ""))
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Reservation status updated", rec)
}
