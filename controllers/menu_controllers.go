package controllers

import (
	"net/http"

	"github.com/eastatwest/restaurant-app/services"
	"github.com/eastatwest/restaurant-app/utils"
	"github.com/gin-gonic/gin"
)

type MenuController struct {
	Menu *services.MenuService
}

func NewMenuController(menu *services.MenuService) *MenuController {
	return &MenuController{Menu: menu}
}

// GetMenu lists available items, optionally for one ?category=.
func (mc *MenuController) GetMenu(c *gin.Context) {
	lang := requestLanguage(c, "")
	items, err := mc.Menu.Items(lang, c.Query("category"))
	if err != nil {
		respondServiceError(c, err, lang)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu", items)
}

func (mc *MenuController) GetCategories(c *gin.Context) {
	utils.RespondJSON(c, http.StatusOK, "Menu categories", mc.Menu.Categories(requestLanguage(c, "")))
}

func (mc *MenuController) GetMenuItem(c *gin.Context) {
	item, ok := mc.Menu.Item(c.Param("id"), requestLanguage(c, ""))
	if !ok {
		utils.RespondErrorCode(c, http.StatusNotFound, "not_found", "menu item not found", nil)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu item", item)
}
