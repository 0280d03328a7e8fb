package services

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/eastatwest/restaurant-app/models"
	"github.com/eastatwest/restaurant-app/utils"
)

//go:embed catalog/menu.json
var catalogJSON []byte

// MenuService serves the static menu catalog shipped with the binary.
type MenuService struct {
	categories []models.MenuCategory
	items      []models.MenuItem
	byID       map[string]models.MenuItem
}

func NewMenuService() (*MenuService, error) {
	return newMenuService(catalogJSON)
}

func newMenuService(raw []byte) (*MenuService, error) {
	var catalog struct {
		Categories []models.MenuCategory `json:"categories"`
		Items      []models.MenuItem     `json:"items"`
	}
	if err := json.Unmarshal(raw, &catalog); err != nil {
		return nil, fmt.Errorf("parse menu catalog: %w", err)
	}

	known := make(map[string]bool, len(catalog.Categories))
	for _, c := range catalog.Categories {
		known[c.ID] = true
	}
	byID := make(map[string]models.MenuItem, len(catalog.Items))
	for _, item := range catalog.Items {
		if !known[item.Category] {
			return nil, fmt.Errorf("menu item %s has unknown category %q", item.ID, item.Category)
		}
		if _, dup := byID[item.ID]; dup {
			return nil, fmt.Errorf("duplicate menu item id %s", item.ID)
		}
		byID[item.ID] = item
	}

	return &MenuService{
		categories: catalog.Categories,
		items:      catalog.Items,
		byID:       byID,
	}, nil
}

func (m *MenuService) hasCategory(id string) bool {
	for _, c := range m.categories {
		if c.ID == id {
			return true
		}
	}
	return false
}

// Categories lists the categories in display order with the number of
// available items in each.
func (m *MenuService) Categories(lang string) []models.LocalizedMenuCategory {
	lang = utils.NormalizeLanguage(lang)
	counts := map[string]int{}
	for _, item := range m.items {
		if item.Available {
			counts[item.Category]++
		}
	}

	out := make([]models.LocalizedMenuCategory, 0, len(m.categories))
	for _, c := range m.categories {
		out = append(out, models.LocalizedMenuCategory{
			ID:        c.ID,
			Name:      pick(lang, c.NameEN, c.NameFR, c.NameNL),
			ItemCount: counts[c.ID],
		})
	}
	return out
}

// Items returns the available items, optionally restricted to one category.
func (m *MenuService) Items(lang, category string) ([]models.LocalizedMenuItem, error) {
	lang = utils.NormalizeLanguage(lang)
	category = strings.ToLower(strings.TrimSpace(category))
	if category != "" && !m.hasCategory(category) {
		return nil, models.NewValidationError("category", "category_unknown", "unknown menu category")
	}

	out := []models.LocalizedMenuItem{}
	for _, item := range m.items {
		if !item.Available || (category != "" && item.Category != category) {
			continue
		}
		out = append(out, localize(item, lang))
	}
	return out, nil
}

func (m *MenuService) Item(id, lang string) (*models.LocalizedMenuItem, bool) {
	item, ok := m.byID[id]
	if !ok || !item.Available {
		return nil, false
	}
	localized := localize(item, utils.NormalizeLanguage(lang))
	return &localized, true
}

func localize(item models.MenuItem, lang string) models.LocalizedMenuItem {
	priceDisplay := item.PriceDisplay
	if priceDisplay == "" {
		priceDisplay = utils.FormatCurrencyEUR(item.Price)
	}
	out := models.LocalizedMenuItem{
		ID:           item.ID,
		Category:     item.Category,
		Name:         pick(lang, item.NameEN, item.NameFR, item.NameNL),
		Description:  nonBlank(pick(lang, item.DescriptionEN, item.DescriptionFR, item.DescriptionNL)),
		Price:        item.Price,
		PriceDisplay: priceDisplay,
		ImageURL:     nonBlank(item.ImageURL),
	}
	// subtitles and titles exist only when the English one does
	if item.SubtitleEN != "" {
		out.Subtitle = nonBlank(pick(lang, item.SubtitleEN, item.SubtitleFR, item.SubtitleNL))
	}
	if item.TitleEN != "" {
		out.Title = nonBlank(pick(lang, item.TitleEN, item.TitleFR, item.TitleNL))
	}
	return out
}

func pick(lang, en, fr, nl string) string {
	switch lang {
	case "fr":
		return fr
	case "nl":
		return nl
	default:
		return en
	}
}

func nonBlank(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
