package models

type MenuCategory struct {
	ID     string `json:"id"`
	NameEN string `json:"name_en"`
	NameFR string `json:"name_fr"`
	NameNL string `json:"name_nl"`
}

type LocalizedMenuCategory struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ItemCount int    `json:"item_count"`
}
