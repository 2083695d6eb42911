package gmailclient

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/jakechorley/volunteer-match/internal/config"
	"github.com/jakechorley/volunteer-match/pkg/utils"
)

// Client sends email through the Gmail API, throttled to a fixed rate
type Client struct {
	service *gmail.Service
	userID  string
	sender  string
	limiter *rate.Limiter
}

// NewClient creates a Gmail client from an OAuth token holding the gmail.send scope
func NewClient(ctx context.Context, oauthCfg *config.OAuthClientConfig, token *oauth2.Token, emailCfg config.EmailConfig) (*Client, error) {
	oauthConfig, err := utils.GetOAuthConfig(oauthCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to get oauth config: %w", err)
	}

	service, err := gmail.NewService(ctx, option.WithHTTPClient(oauthConfig.Client(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}

	return NewClientWithService(service, emailCfg), nil
}

// NewClientWithService wraps an existing Gmail service
func NewClientWithService(service *gmail.Service, emailCfg config.EmailConfig) *Client {
	userID := emailCfg.GmailUserID
	if userID == "" {
		userID = "me"
	}
	perMinute := max(emailCfg.PerMinute, 1)

	return &Client{
		service: service,
		userID:  userID,
		sender:  emailCfg.Sender,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1),
	}
}
