package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/eastatwest/restaurant-app/models"
	"github.com/eastatwest/restaurant-app/services"
	"github.com/eastatwest/restaurant-app/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// NotificationController exposes the email function used by clients that
// send the confirmation themselves. Its response shape is fixed by those
// clients and does not use the JSON envelope.
type NotificationController struct {
	Dispatcher *services.NotificationDispatcher
}

func NewNotificationController(nd *services.NotificationDispatcher) *NotificationController {
	return &NotificationController{Dispatcher: nd}
}

type sendEmailRequest struct {
	Reservation *models.Reservation `json:"reservation"`
	Language    string              `json:"language"`
}

func (nc *NotificationController) SendReservationEmail(c *gin.Context) {
	var body sendEmailRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		nc.fail(c, err)
		return
	}
	if body.Reservation == nil || strings.TrimSpace(body.Reservation.Email) == "" {
		nc.fail(c, errors.New("reservation email is required"))
		return
	}
	lang := body.Language
	if lang == "" {
		lang = utils.DefaultLanguage
	}

	id, err := nc.Dispatcher.Notify(c.Request.Context(), *body.Reservation, lang)
	if errors.Is(err, models.ErrEmailNotConfigured) {
		utils.ErrorLogger.Error("Email function called but the email provider is not configured")
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Email service not configured",
			"details": "RESEND_API_KEY environment variable is missing",
		})
		return
	}
	if err != nil {
		nc.fail(c, err)
		return
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"email_id":           id,
		"reservation_number": body.Reservation.ReservationNumber,
		"language":           lang,
	}).Info("Reservation email sent")
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"emailId": id,
		"message": "Email sent successfully",
	})
}

func (nc *NotificationController) fail(c *gin.Context, err error) {
	utils.ErrorLogger.WithField("error", err.Error()).Error("Email function error")
	c.JSON(http.StatusBadRequest, gin.H{
		"error":     err.Error(),
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	})
}
