package services

import (
	"fmt"
	"time"

	"github.com/eastatwest/restaurant-app/models"
	"github.com/eastatwest/restaurant-app/utils"
)

const (
	TakeawayOrderURL = "https://eastatwest.com/order"
	TakeawayPhoneURL = "tel:+32465206024"

	slotStep = 30 * time.Minute
)

// OpeningHours is one weekday of the opening schedule.
type OpeningHours struct {
	Day    string `json:"day"`
	Opens  string `json:"opens"`
	Closes string `json:"closes"`
}

type ServicePeriod struct {
	Name            string   `json:"name"`
	Opens           string   `json:"opens"`
	Closes          string   `json:"closes"`
	LastReservation string   `json:"last_reservation"`
	Slots           []string `json:"slots"`
}

type TakeawayInfo struct {
	Title        string  `json:"title"`
	Subtitle     string  `json:"subtitle"`
	OrderURL     string  `json:"order_url"`
	PhoneURL     string  `json:"phone_url"`
	PickupTime   string  `json:"pickup_time"`
	DeliveryArea string  `json:"delivery_area"`
	DeliveryKM   int     `json:"delivery_radius_km"`
	MinOrder     string  `json:"min_order"`
	MinAmount    float64 `json:"min_order_amount"`
}

type RestaurantInfo struct {
	Name     string          `json:"name"`
	Language string          `json:"language"`
	Address  string          `json:"address"`
	Phone    string          `json:"phone"`
	Email    string          `json:"email"`
	Website  string          `json:"website"`
	Hours    []OpeningHours  `json:"hours"`
	Services []ServicePeriod `json:"services"`
	Takeaway TakeawayInfo    `json:"takeaway"`
}

type infoStrings struct {
	Lunch, Dinner string

	TakeawayTitle    string
	TakeawaySubtitle string
	PickupTime       string
	DeliveryArea     string
	MinOrder         string
}

var infoCopy = map[string]infoStrings{
	"en": {
		Lunch:            "Lunch",
		Dinner:           "Dinner",
		TakeawayTitle:    "Order Takeaway",
		TakeawaySubtitle: "Enjoy our delicious food at home",
		PickupTime:       "Pickup in 20-30 minutes",
		DeliveryArea:     "We deliver within 5km of our restaurant",
		MinOrder:         "Minimum order: €25",
	},
	"fr": {
		Lunch:            "Déjeuner",
		Dinner:           "Dîner",
		TakeawayTitle:    "Commander à Emporter",
		TakeawaySubtitle: "Dégustez notre délicieuse cuisine chez vous",
		PickupTime:       "Récupération en 20-30 minutes",
		DeliveryArea:     "Nous livrons dans un rayon de 5km de notre restaurant",
		MinOrder:         "Commande minimum: 25€",
	},
	"nl": {
		Lunch:            "Lunch",
		Dinner:           "Diner",
		TakeawayTitle:    "Afhaal Bestellen",
		TakeawaySubtitle: "Geniet van ons heerlijke eten thuis",
		PickupTime:       "Ophalen in 20-30 minuten",
		DeliveryArea:     "We bezorgen binnen 5km van ons restaurant",
		MinOrder:         "Minimum bestelling: €25",
	},
}

// schedule is indexed by time.Weekday.
var schedule = [7][2]string{
	{"12:00", "22:00"},
	{"11:30", "22:00"},
	{"11:30", "22:00"},
	{"11:30", "22:00"},
	{"11:30", "22:00"},
	{"11:30", "23:00"},
	{"11:30", "23:00"},
}

type servicePeriod struct {
	opens, closes, first, last string
}

var (
	lunchPeriod  = servicePeriod{opens: "12:00", closes: "14:00", first: "12:00", last: "13:30"}
	dinnerPeriod = servicePeriod{opens: "18:00", closes: "22:00", first: "18:00", last: "21:30"}
)

// GetRestaurantInfo returns the contact, schedule and takeaway data in lang.
func GetRestaurantInfo(lang string) RestaurantInfo {
	lang = utils.NormalizeLanguage(lang)
	email, ok := emailCopy[lang]
	if !ok {
		email = emailCopy[utils.DefaultLanguage]
	}
	s := infoCopy[lang]

	hours := make([]OpeningHours, 0, 7)
	// week starts on Monday
	for i := 1; i <= 7; i++ {
		day := time.Weekday(i % 7)
		hours = append(hours, OpeningHours{
			Day:    email.Weekdays[day],
			Opens:  schedule[day][0],
			Closes: schedule[day][1],
		})
	}

	return RestaurantInfo{
		Name:     RestaurantName,
		Language: lang,
		Address:  email.Address,
		Phone:    models.ContactPhone,
		Email:    RestaurantEmail,
		Website:  RestaurantWebsite,
		Hours:    hours,
		Services: []ServicePeriod{
			lunchPeriod.localized(s.Lunch),
			dinnerPeriod.localized(s.Dinner),
		},
		Takeaway: TakeawayInfo{
			Title:        s.TakeawayTitle,
			Subtitle:     s.TakeawaySubtitle,
			OrderURL:     TakeawayOrderURL,
			PhoneURL:     TakeawayPhoneURL,
			PickupTime:   s.PickupTime,
			DeliveryArea: s.DeliveryArea,
			DeliveryKM:   5,
			MinOrder:     s.MinOrder,
			MinAmount:    25,
		},
	}
}

func (p servicePeriod) localized(name string) ServicePeriod {
	slots, err := BookingSlots(p.first, p.last, slotStep)
	if err != nil {
		// the periods above are constants
		panic(err)
	}
	return ServicePeriod{
		Name:            name,
		Opens:           p.opens,
		Closes:          p.closes,
		LastReservation: p.last,
		Slots:           slots,
	}
}

// BookingSlots lists HH:MM start times from first to last inclusive.
func BookingSlots(first, last string, step time.Duration) ([]string, error) {
	if step <= 0 {
		return nil, fmt.Errorf("slot step must be positive, got %s", step)
	}
	start, err := time.Parse("15:04", first)
	if err != nil {
		return nil, fmt.Errorf("parse first slot %q: %w", first, err)
	}
	end, err := time.Parse("15:04", last)
	if err != nil {
		return nil, fmt.Errorf("parse last slot %q: %w", last, err)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("last slot %s is before first slot %s", last, first)
	}

	var slots []string
	for t := start; !t.After(end); t = t.Add(step) {
		slots = append(slots, t.Format("15:04"))
	}
	return slots, nil
}
