package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/eastatwest/restaurant-app/config"
	"github.com/eastatwest/restaurant-app/models"
	"github.com/eastatwest/restaurant-app/utils"
	"github.com/sirupsen/logrus"
)

// ResendConfig holds the email provider settings
type ResendConfig struct {
	APIKey  string
	From    string
	BaseURL string
	Timeout time.Duration
}

// ResendService sends transactional email through the Resend HTTP API
type ResendService struct {
	config     *ResendConfig
	httpClient *http.Client
}

// EmailMessage is one outgoing email
type EmailMessage struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type resendResponse struct {
	ID string `json:"id"`
}

func NewResendService(cfg ResendConfig) *ResendService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.resend.com"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ResendService{
		config: &cfg,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// ValidateConfig reports models.ErrEmailNotConfigured, wrapped with the
// reason, when the API key or sender address is unusable.
func (rs *ResendService) ValidateConfig() error {
	if rs == nil || rs.config == nil {
		return models.ErrEmailNotConfigured
	}
	if err := config.CheckEmail(rs.config.APIKey, rs.config.From); err != nil {
		return fmt.Errorf("%w: %v", models.ErrEmailNotConfigured, err)
	}
	return nil
}

// Configured is ValidateConfig as a boolean. The reason is logged.
func (rs *ResendService) Configured() bool {
	if err := rs.ValidateConfig(); err != nil {
		utils.InfoLogger.WithField("reason", err.Error()).Warn("Email service is not configured")
		return false
	}
	return true
}

// Send posts the message and returns the provider's message id.
func (rs *ResendService) Send(ctx context.Context, msg EmailMessage) (string, error) {
	if err := rs.ValidateConfig(); err != nil {
		return "", err
	}
	if len(msg.To) == 0 {
		return "", &models.NotificationError{Err: errors.New("no recipient")}
	}

	body, err := json.Marshal(resendRequest{
		From:    rs.config.From,
		To:      msg.To,
		Subject: msg.Subject,
		HTML:    msg.HTML,
	})
	if err != nil {
		return "", fmt.Errorf("error marshaling email request: %v", err)
	}

	url := strings.TrimRight(rs.config.BaseURL, "/") + "/emails"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("error creating request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+rs.config.APIKey)

	resp, err := rs.httpClient.Do(req)
	if err != nil {
		return "", &models.NotificationError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &models.NotificationError{StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		utils.ErrorLogger.WithFields(logrus.Fields{
			"status_code": resp.StatusCode,
			"response":    string(respBody),
		}).Error("Resend API error")
		return "", &models.NotificationError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("provider rejected the message: %s", strings.TrimSpace(string(respBody))),
		}
	}

	var result resendResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", &models.NotificationError{StatusCode: resp.StatusCode, Err: fmt.Errorf("error decoding response: %v", err)}
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"email_id": result.ID,
		"to":       msg.To,
	}).Info("Email sent")
	return result.ID, nil
}
