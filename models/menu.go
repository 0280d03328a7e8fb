package models

// MenuItem is one entry of the static in-process catalog. Localized text is
// kept in parallel en/fr/nl columns, mirroring the menu_items schema.
type MenuItem struct {
	ID            string  `json:"id"`
	Category      string  `json:"category"`
	NameEN        string  `json:"name_en"`
	NameFR        string  `json:"name_fr"`
	NameNL        string  `json:"name_nl"`
	DescriptionEN string  `json:"description_en"`
	DescriptionFR string  `json:"description_fr"`
	DescriptionNL string  `json:"description_nl"`
	SubtitleEN    string  `json:"subtitle_en,omitempty"`
	SubtitleFR    string  `json:"subtitle_fr,omitempty"`
	SubtitleNL    string  `json:"subtitle_nl,omitempty"`
	TitleEN       string  `json:"title_en,omitempty"`
	TitleFR       string  `json:"title_fr,omitempty"`
	TitleNL       string  `json:"title_nl,omitempty"`
	Price         float64 `json:"price"`
	PriceDisplay  string  `json:"price_display,omitempty"`
	ImageURL      string  `json:"image_url,omitempty"`
	Available     bool    `json:"available"`
}

// LocalizedMenuItem is what the menu endpoint returns for one language.
// Empty optional strings are sent as null.
type LocalizedMenuItem struct {
	ID           string  `json:"id"`
	Category     string  `json:"category"`
	Name         string  `json:"name"`
	Description  *string `json:"description"`
	Subtitle     *string `json:"subtitle"`
	Title        *string `json:"title"`
	Price        float64 `json:"price"`
	PriceDisplay string  `json:"price_display"`
	ImageURL     *string `json:"image_url"`
}
