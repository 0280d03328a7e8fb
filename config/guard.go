package config

import (
	"errors"
	"net/mail"
	"net/url"
	"strings"

	"github.com/eastatwest/restaurant-app/utils"
	"github.com/sirupsen/logrus"
)

// minCredentialLength is the shortest key accepted as a real credential.
const minCredentialLength = 21

// placeholderMarkers are fragments of template values left un-replaced in a
// .env file.
var placeholderMarkers = []string{
	"your_",
	"your-",
	"<",
	">",
	"xxx",
	"changeme",
	"change-me",
	"placeholder",
	"replace_me",
	"example.com",
}

var (
	errEmpty       = errors.New("value is empty")
	errPlaceholder = errors.New("value still contains placeholder text")
	errNotHTTPS    = errors.New("url must use https")
	errHost        = errors.New("url host does not match the expected backend")
	errShortKey    = errors.New("credential is too short")
	errKeyIsURL    = errors.New("credential looks like a url")
	errSender      = errors.New("sender address is not a valid email address")
	errDriver      = errors.New("unknown store driver")
)

func hasPlaceholder(value string) bool {
	lower := strings.ToLower(value)
	for _, marker := range placeholderMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func checkCredential(key string) error {
	key = strings.TrimSpace(key)
	switch {
	case key == "":
		return errEmpty
	case hasPlaceholder(key):
		return errPlaceholder
	case strings.HasPrefix(strings.ToLower(key), "http://"), strings.HasPrefix(strings.ToLower(key), "https://"):
		return errKeyIsURL
	case len(key) < minCredentialLength:
		return errShortKey
	}
	return nil
}

// CheckBackend explains why an endpoint/credential pair is unusable, or
// returns nil when it looks real.
func CheckBackend(rawURL, key, hostPattern string) error {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return errEmpty
	}
	if hasPlaceholder(rawURL) {
		return errPlaceholder
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	if u.Scheme != "https" {
		return errNotHTTPS
	}
	if u.Hostname() == "" || (hostPattern != "" && !strings.Contains(strings.ToLower(u.Hostname()), strings.ToLower(hostPattern))) {
		return errHost
	}
	return checkCredential(key)
}

// IsBackendConfigured is the guard every backend-dependent component consults
// before issuing a network call.
func IsBackendConfigured(rawURL, key, hostPattern string) bool {
	if err := CheckBackend(rawURL, key, hostPattern); err != nil {
		utils.InfoLogger.WithField("reason", err.Error()).Warn("Hosted backend is not configured")
		return false
	}
	return true
}

func CheckEmail(apiKey, from string) error {
	if err := checkCredential(apiKey); err != nil {
		return err
	}
	if strings.TrimSpace(from) == "" {
		return errEmpty
	}
	if _, err := mail.ParseAddress(from); err != nil {
		return errSender
	}
	return nil
}

func IsEmailConfigured(apiKey, from string) bool {
	if err := CheckEmail(apiKey, from); err != nil {
		utils.InfoLogger.WithField("reason", err.Error()).Warn("Email service is not configured")
		return false
	}
	return true
}

func CheckDatabase(driver, dsn string) error {
	switch driver {
	case StoreSQLite, StoreMySQL, StorePostgres:
	default:
		return errDriver
	}
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return errEmpty
	}
	if hasPlaceholder(dsn) {
		return errPlaceholder
	}
	return nil
}

func IsDatabaseConfigured(driver, dsn string) bool {
	if err := CheckDatabase(driver, dsn); err != nil {
		utils.InfoLogger.WithFields(logrus.Fields{
			"driver": driver,
			"reason": err.Error(),
		}).Warn("Database is not configured")
		return false
	}
	return true
}

// StoreConfigured applies the guard matching the selected store.
func (c *Config) StoreConfigured() bool {
	if c.Store == StoreHosted {
		return IsBackendConfigured(c.Backend.URL, c.Backend.AnonKey, c.Backend.HostPattern)
	}
	return IsDatabaseConfigured(c.Store, c.DatabaseDSN)
}
