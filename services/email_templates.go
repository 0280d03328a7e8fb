package services

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/eastatwest/restaurant-app/models"
	"github.com/eastatwest/restaurant-app/utils"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	RestaurantName    = "East At West"
	RestaurantEmail   = "contact@eastatwest.com"
	RestaurantWebsite = "www.eastatwest.com"
)

// emailStrings is the copy of one language edition of the reservation email.
type emailStrings struct {
	Tag language.Tag

	SubjectNoun      string
	SubjectReceived  string
	SubjectConfirmed string

	Tagline          string
	PendingHeading   string
	ConfirmedHeading string
	Greeting         string
	PendingIntro     string
	ConfirmedIntro   string

	DetailsHeading string
	NumberLabel    string
	NameLabel      string
	EmailLabel     string
	PhoneLabel     string
	DateLabel      string
	TimeLabel      string
	GuestsLabel    string
	StatusLabel    string
	InfoLabel      string

	RestaurantHeading string
	AddressLabel      string
	Address           string
	WebsiteLabel      string

	ConfirmedNoteTitle string
	ConfirmedNote      string
	PendingNoteTitle   string
	PendingNote        string

	Closing string
	Regards string
	Team    string
	Rights  string

	Statuses map[models.ReservationStatus]string
	Weekdays [7]string
	Months   [12]string
	// DayFirst writes "mercredi 11 mars 2026" instead of "Wednesday, March 11, 2026".
	DayFirst bool
}

var emailCopy = map[string]emailStrings{
	"en": {
		Tag:                language.English,
		SubjectNoun:        "Reservation",
		SubjectReceived:    "Received",
		SubjectConfirmed:   "Confirmed",
		Tagline:            "Authentic Lebanese Cuisine",
		PendingHeading:     "Reservation Received - Pending Approval",
		ConfirmedHeading:   "Reservation Confirmed!",
		Greeting:           "Dear",
		PendingIntro:       "Thank you for your reservation request at East At West. Your reservation for %d guests is currently pending approval. We will contact you within 24 hours to confirm your booking.",
		ConfirmedIntro:     "Thank you for choosing East At West! Your reservation has been confirmed and we look forward to welcoming you.",
		DetailsHeading:     "Reservation Details",
		NumberLabel:        "Reservation Number",
		NameLabel:          "Name",
		EmailLabel:         "Email",
		PhoneLabel:         "Phone",
		DateLabel:          "Date",
		TimeLabel:          "Time",
		GuestsLabel:        "Number of Guests",
		StatusLabel:        "Status",
		InfoLabel:          "Additional Information",
		RestaurantHeading:  "Restaurant Information",
		AddressLabel:       "Address",
		Address:            "Bld de l'Empereur 26, 1000 Brussels, Belgium",
		WebsiteLabel:       "Website",
		ConfirmedNoteTitle: "Important",
		ConfirmedNote:      "Please arrive on time for your reservation. If you need to cancel or modify your booking, please contact us at least 2 hours in advance.",
		PendingNoteTitle:   "Next Steps",
		PendingNote:        "We will review your reservation request and contact you within 24 hours to confirm availability for your party of %d guests.",
		Closing:            "We look forward to welcoming you to East At West!",
		Regards:            "Best regards,",
		Team:               "The East At West Team",
		Rights:             "All rights reserved.",
		Weekdays:           [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"},
		Months:             [12]string{"January", "February", "March", "April", "May", "June", "July", "August", "September", "October", "November", "December"},
	},
	"fr": {
		Tag:                language.French,
		SubjectNoun:        "Réservation",
		SubjectReceived:    "Reçue",
		SubjectConfirmed:   "Confirmée",
		Tagline:            "Cuisine Libanaise Authentique",
		PendingHeading:     "Réservation Reçue - En Attente d'Approbation",
		ConfirmedHeading:   "Réservation Confirmée!",
		Greeting:           "Cher/Chère",
		PendingIntro:       "Merci pour votre demande de réservation chez East At West. Votre réservation pour %d personnes est en attente d'approbation. Nous vous contacterons dans les 24 heures pour confirmer votre réservation.",
		ConfirmedIntro:     "Merci d'avoir choisi East At West! Votre réservation a été confirmée et nous avons hâte de vous accueillir.",
		DetailsHeading:     "Détails de la Réservation",
		NumberLabel:        "Numéro de Réservation",
		NameLabel:          "Nom",
		EmailLabel:         "Email",
		PhoneLabel:         "Téléphone",
		DateLabel:          "Date",
		TimeLabel:          "Heure",
		GuestsLabel:        "Nombre d'Invités",
		StatusLabel:        "Statut",
		InfoLabel:          "Informations Supplémentaires",
		RestaurantHeading:  "Informations du Restaurant",
		AddressLabel:       "Adresse",
		Address:            "Bld de l'Empereur 26, 1000 Bruxelles, Belgique",
		WebsiteLabel:       "Site Web",
		ConfirmedNoteTitle: "Important",
		ConfirmedNote:      "Merci d'arriver à l'heure. Pour annuler ou modifier votre réservation, contactez-nous au moins 2 heures à l'avance.",
		PendingNoteTitle:   "Prochaines Étapes",
		PendingNote:        "Nous examinerons votre demande et vous contacterons dans les 24 heures pour confirmer la disponibilité pour votre groupe de %d personnes.",
		Closing:            "Nous avons hâte de vous accueillir chez East At West!",
		Regards:            "Cordialement,",
		Team:               "L'équipe East At West",
		Rights:             "Tous droits réservés.",
		Statuses: map[models.ReservationStatus]string{
			models.StatusPending:   "En attente",
			models.StatusConfirmed: "Confirmé",
			models.StatusCancelled: "Annulé",
			models.StatusCompleted: "Terminé",
		},
		Weekdays: [7]string{"dimanche", "lundi", "mardi", "mercredi", "jeudi", "vendredi", "samedi"},
		Months:   [12]string{"janvier", "février", "mars", "avril", "mai", "juin", "juillet", "août", "septembre", "octobre", "novembre", "décembre"},
		DayFirst: true,
	},
	"nl": {
		Tag:                language.Dutch,
		SubjectNoun:        "Reservering",
		SubjectReceived:    "Ontvangen",
		SubjectConfirmed:   "Bevestigd",
		Tagline:            "Authentieke Libanese Keuken",
		PendingHeading:     "Reservering Ontvangen - In Afwachting van Goedkeuring",
		ConfirmedHeading:   "Reservering Bevestigd!",
		Greeting:           "Beste",
		PendingIntro:       "Bedankt voor uw reserveringsverzoek bij East At West. Uw reservering voor %d gasten is in afwachting van goedkeuring. We nemen binnen 24 uur contact met u op om uw reservering te bevestigen.",
		ConfirmedIntro:     "Bedankt voor het kiezen van East At West! Uw reservering is bevestigd en we kijken ernaar uit u te verwelkomen.",
		DetailsHeading:     "Reservering Details",
		NumberLabel:        "Reserveringsnummer",
		NameLabel:          "Naam",
		EmailLabel:         "Email",
		PhoneLabel:         "Telefoon",
		DateLabel:          "Datum",
		TimeLabel:          "Tijd",
		GuestsLabel:        "Aantal Gasten",
		StatusLabel:        "Status",
		InfoLabel:          "Aanvullende Informatie",
		RestaurantHeading:  "Restaurant Informatie",
		AddressLabel:       "Adres",
		Address:            "Keizerslaan 26, 1000 Brussel, België",
		WebsiteLabel:       "Website",
		ConfirmedNoteTitle: "Belangrijk",
		ConfirmedNote:      "Kom alstublieft op tijd. Wilt u uw reservering annuleren of wijzigen, neem dan minstens 2 uur van tevoren contact met ons op.",
		PendingNoteTitle:   "Volgende Stappen",
		PendingNote:        "We bekijken uw verzoek en nemen binnen 24 uur contact met u op om de beschikbaarheid voor uw gezelschap van %d gasten te bevestigen.",
		Closing:            "We kijken ernaar uit u te verwelkomen bij East At West!",
		Regards:            "Met vriendelijke groeten,",
		Team:               "Het East At West Team",
		Rights:             "Alle rechten voorbehouden.",
		Statuses: map[models.ReservationStatus]string{
			models.StatusPending:   "In afwachting",
			models.StatusConfirmed: "Bevestigd",
			models.StatusCancelled: "Geannuleerd",
			models.StatusCompleted: "Voltooid",
		},
		Weekdays: [7]string{"zondag", "maandag", "dinsdag", "woensdag", "donderdag", "vrijdag", "zaterdag"},
		Months:   [12]string{"januari", "februari", "maart", "april", "mei", "juni", "juli", "augustus", "september", "oktober", "november", "december"},
		DayFirst: true,
	},
}

// LongDate renders a YYYY-MM-DD date with weekday and month names. Input that
// does not parse is returned unchanged.
func (s emailStrings) LongDate(date string) string {
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return date
	}
	weekday := s.Weekdays[d.Weekday()]
	month := s.Months[d.Month()-1]
	if s.DayFirst {
		return fmt.Sprintf("%s %d %s %d", weekday, d.Day(), month, d.Year())
	}
	return fmt.Sprintf("%s, %s %d, %d", weekday, month, d.Day(), d.Year())
}

func (s emailStrings) statusText(status models.ReservationStatus) string {
	if label, ok := s.Statuses[status]; ok {
		return label
	}
	return cases.Title(s.Tag).String(string(status))
}

type emailView struct {
	T           emailStrings
	R           models.Reservation
	GuestPhone  string
	Info        string
	Heading     string
	Intro       string
	Date        string
	Status      string
	StatusColor string
	Note        string
	NoteTitle   string
	NoteColor   string
	NoteBorder  string
	Phone       string
	Email       string
	Website     string
	Year        int
}

var reservationEmail = template.Must(template.New("reservation").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; background: #FFF8DC;">
  <div style="background: linear-gradient(135deg, #8B4513, #CD853F); padding: 30px; text-align: center;">
    <h1 style="color: white; margin: 0; font-size: 28px;">East At West</h1>
    <p style="color: #FFF8DC; margin: 10px 0 0 0; font-size: 16px;">{{.T.Tagline}}</p>
  </div>
  <div style="padding: 30px;">
    <h2 style="color: #8B4513; margin-bottom: 20px;">{{.Heading}}</h2>
    <p style="color: #2F1B14; font-size: 16px; line-height: 1.6;">{{.T.Greeting}} {{.R.Name}},<br><br>{{.Intro}}</p>
    <div style="background: white; padding: 20px; border-radius: 8px; margin: 20px 0; border-left: 4px solid #8B4513;">
      <h3 style="color: #8B4513; margin-top: 0;">{{.T.DetailsHeading}}</h3>
      <table style="width: 100%; border-collapse: collapse;">
        <tr><td style="padding: 8px 0; font-weight: bold; width: 40%;">{{.T.NumberLabel}}:</td><td style="padding: 8px 0;">{{.R.ReservationNumber}}</td></tr>
        <tr><td style="padding: 8px 0; font-weight: bold;">{{.T.NameLabel}}:</td><td style="padding: 8px 0;">{{.R.Name}}</td></tr>
        <tr><td style="padding: 8px 0; font-weight: bold;">{{.T.EmailLabel}}:</td><td style="padding: 8px 0;">{{.R.Email}}</td></tr>
        {{- if .GuestPhone}}
        <tr><td style="padding: 8px 0; font-weight: bold;">{{.T.PhoneLabel}}:</td><td style="padding: 8px 0;">{{.GuestPhone}}</td></tr>
        {{- end}}
        <tr><td style="padding: 8px 0; font-weight: bold;">{{.T.DateLabel}}:</td><td style="padding: 8px 0;">{{.Date}}</td></tr>
        <tr><td style="padding: 8px 0; font-weight: bold;">{{.T.TimeLabel}}:</td><td style="padding: 8px 0;">{{.R.Time}}</td></tr>
        <tr><td style="padding: 8px 0; font-weight: bold;">{{.T.GuestsLabel}}:</td><td style="padding: 8px 0;">{{.R.Guests}}</td></tr>
        <tr><td style="padding: 8px 0; font-weight: bold;">{{.T.StatusLabel}}:</td><td style="padding: 8px 0; font-weight: bold; color: {{.StatusColor}};">{{.Status}}</td></tr>
        {{- if .Info}}
        <tr><td style="padding: 8px 0; font-weight: bold; vertical-align: top;">{{.T.InfoLabel}}:</td><td style="padding: 8px 0;">{{.Info}}</td></tr>
        {{- end}}
      </table>
    </div>
    <div style="background: #F5F5DC; padding: 20px; border-radius: 8px; margin: 20px 0;">
      <h4 style="color: #8B4513; margin-top: 0;">{{.T.RestaurantHeading}}</h4>
      <p style="margin: 8px 0;"><strong>{{.T.AddressLabel}}:</strong> {{.T.Address}}</p>
      <p style="margin: 8px 0;"><strong>{{.T.PhoneLabel}}:</strong> {{.Phone}}</p>
      <p style="margin: 8px 0;"><strong>{{.T.EmailLabel}}:</strong> {{.Email}}</p>
      <p style="margin: 8px 0;"><strong>{{.T.WebsiteLabel}}:</strong> {{.Website}}</p>
    </div>
    <div style="background: {{.NoteColor}}; padding: 15px; border-radius: 8px; margin: 20px 0; border-left: 4px solid {{.NoteBorder}};">
      <p style="margin: 0; font-size: 14px;"><strong>{{.NoteTitle}}:</strong> {{.Note}}</p>
    </div>
    <p style="margin-top: 30px; text-align: center;">{{.T.Closing}}<br><br><strong>{{.T.Regards}}<br>{{.T.Team}}</strong></p>
  </div>
  <div style="background: #8B4513; padding: 20px; text-align: center;">
    <p style="color: #FFF8DC; margin: 0; font-size: 12px;">&copy; {{.Year}} East At West Restaurant. {{.T.Rights}}<br>{{.T.Address}}</p>
  </div>
</div>`))

// RenderReservationEmail builds the localized email for a reservation.
// Unsupported languages fall back to English.
func RenderReservationEmail(rec models.Reservation, lang string) (EmailMessage, error) {
	s, ok := emailCopy[utils.NormalizeLanguage(lang)]
	if !ok {
		s = emailCopy[utils.DefaultLanguage]
	}

	pending := rec.Status == models.StatusPending
	view := emailView{
		T:           s,
		R:           rec,
		GuestPhone:  deref(rec.Phone),
		Info:        deref(rec.AdditionalInfo),
		Date:        s.LongDate(rec.Date),
		Status:      s.statusText(rec.Status),
		StatusColor: "#D97706",
		Phone:       models.ContactPhone,
		Email:       RestaurantEmail,
		Website:     RestaurantWebsite,
		Year:        rec.CreatedAt.Year(),
	}
	if rec.CreatedAt.IsZero() {
		view.Year = time.Now().Year()
	}
	// only a confirmed booking is shown in green
	if rec.Status == models.StatusConfirmed {
		view.StatusColor = "#059669"
	}

	word := s.SubjectConfirmed
	if pending {
		word = s.SubjectReceived
		view.Heading = s.PendingHeading
		view.Intro = fmt.Sprintf(s.PendingIntro, rec.Guests)
		view.NoteTitle = s.PendingNoteTitle
		view.Note = fmt.Sprintf(s.PendingNote, rec.Guests)
		view.NoteColor = "#FEF3CD"
		view.NoteBorder = "#D97706"
	} else {
		view.Heading = s.ConfirmedHeading
		view.Intro = s.ConfirmedIntro
		view.NoteTitle = s.ConfirmedNoteTitle
		view.Note = s.ConfirmedNote
		view.NoteColor = "#E8F5E8"
		view.NoteBorder = "#059669"
	}

	var buf bytes.Buffer
	if err := reservationEmail.Execute(&buf, view); err != nil {
		return EmailMessage{}, fmt.Errorf("render reservation email: %w", err)
	}

	return EmailMessage{
		To:      []string{rec.Email},
		Subject: fmt.Sprintf("%s %s - %s", s.SubjectNoun, word, rec.ReservationNumber),
		HTML:    buf.String(),
	}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
