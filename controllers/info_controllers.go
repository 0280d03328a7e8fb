package controllers

import (
	"net/http"

	"github.com/eastatwest/restaurant-app/services"
	"github.com/eastatwest/restaurant-app/utils"
	"github.com/gin-gonic/gin"
)

type InfoController struct{}

func NewInfoController() *InfoController {
	return &InfoController{}
}

// GetRestaurant returns contact details, opening hours, booking slots and
// the takeaway page data.
func (ic *InfoController) GetRestaurant(c *gin.Context) {
	utils.RespondJSON(c, http.StatusOK, "Restaurant information", services.GetRestaurantInfo(requestLanguage(c, "")))
}

func (ic *InfoController) Ping(c *gin.Context) {
	utils.RespondJSON(c, http.StatusOK, "pong", nil)
}
