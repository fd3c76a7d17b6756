// Package stripeclient wraps the Stripe Identity and Connect calls used during
// provider onboarding.
package stripeclient

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/ikkim/provider-portal-backend/config"
	"github.com/ikkim/provider-portal-backend/pkg/logger"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// IdentitySession is the subset of a verification session we persist.
type IdentitySession struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	URL    string `json:"url,omitempty"`
}

// AccountLink is a hosted Connect onboarding URL.
type AccountLink struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AccountStatus reports payout readiness of a connected account.
type AccountStatus struct {
	ID               string `json:"id"`
	DetailsSubmitted bool   `json:"details_submitted"`
	PayoutsEnabled   bool   `json:"payouts_enabled"`
}

type Client struct {
	api *client.API
	cfg config.StripeConfig
}

func NewClient(cfg config.StripeConfig) *Client {
	return newClient(cfg, nil)
}

// newClient lets tests point every backend at a local server.
func newClient(cfg config.StripeConfig, backends *stripe.Backends) *Client {
	return &Client{
		api: client.New(cfg.SecretKey, backends),
		cfg: cfg,
	}
}

// CreateIdentitySession starts a document + selfie verification for a business owner.
func (c *Client) CreateIdentitySession(ctx context.Context, businessID uint) (*IdentitySession, error) {
	params := &stripe.IdentityVerificationSessionParams{
		Type:      stripe.String(string(stripe.IdentityVerificationSessionTypeDocument)),
		ReturnURL: stripe.String(c.cfg.IdentityReturnURL),
		Options: &stripe.IdentityVerificationSessionOptionsParams{
			Document: &stripe.IdentityVerificationSessionOptionsDocumentParams{
				RequireMatchingSelfie: stripe.Bool(true),
			},
		},
	}
	params.Context = ctx
	params.AddMetadata("business_id", strconv.FormatUint(uint64(businessID), 10))

	vs, err := c.api.IdentityVerificationSessions.New(params)
	if err != nil {
		logger.Error("Failed to create identity verification session", err, map[string]interface{}{
			"business_id": businessID,
		})
		return nil, fmt.Errorf("create identity session: %w", err)
	}

	return &IdentitySession{ID: vs.ID, Status: string(vs.Status), URL: vs.URL}, nil
}

func (c *Client) GetIdentitySession(ctx context.Context, id string) (*IdentitySession, error) {
	params := &stripe.IdentityVerificationSessionParams{}
	params.Context = ctx

	vs, err := c.api.IdentityVerificationSessions.Get(id, params)
	if err != nil {
		logger.Error("Failed to fetch identity verification session", err, map[string]interface{}{
			"session_id": id,
		})
		return nil, fmt.Errorf("get identity session: %w", err)
	}

	return &IdentitySession{ID: vs.ID, Status: string(vs.Status), URL: vs.URL}, nil
}

// CreateConnectAccount creates an Express account able to receive transfers.
func (c *Client) CreateConnectAccount(ctx context.Context, email string, businessID uint) (string, error) {
	params := &stripe.AccountParams{
		Type:    stripe.String(string(stripe.AccountTypeExpress)),
		Country: stripe.String("US"),
		Email:   stripe.String(email),
		Capabilities: &stripe.AccountCapabilitiesParams{
			Transfers: &stripe.AccountCapabilitiesTransfersParams{
				Requested: stripe.Bool(true),
			},
		},
	}
	params.Context = ctx
	params.AddMetadata("business_id", strconv.FormatUint(uint64(businessID), 10))

	acct, err := c.api.Accounts.New(params)
	if err != nil {
		logger.Error("Failed to create connect account", err, map[string]interface{}{
			"business_id": businessID,
		})
		return "", fmt.Errorf("create connect account: %w", err)
	}
	return acct.ID, nil
}

func (c *Client) CreateAccountLink(ctx context.Context, accountID string) (*AccountLink, error) {
	params := &stripe.AccountLinkParams{
		Account:    stripe.String(accountID),
		RefreshURL: stripe.String(c.cfg.ConnectRefreshURL),
		ReturnURL:  stripe.String(c.cfg.ConnectReturnURL),
		Type:       stripe.String("account_onboarding"),
	}
	params.Context = ctx

	link, err := c.api.AccountLinks.New(params)
	if err != nil {
		logger.Error("Failed to create account link", err, map[string]interface{}{
			"account_id": accountID,
		})
		return nil, fmt.Errorf("create account link: %w", err)
	}
	return &AccountLink{URL: link.URL, ExpiresAt: time.Unix(link.ExpiresAt, 0)}, nil
}

func (c *Client) GetAccount(ctx context.Context, accountID string) (*AccountStatus, error) {
	params := &stripe.AccountParams{}
	params.Context = ctx

	acct, err := c.api.Accounts.GetByID(accountID, params)
	if err != nil {
		logger.Error("Failed to fetch connect account", err, map[string]interface{}{
			"account_id": accountID,
		})
		return nil, fmt.Errorf("get connect account: %w", err)
	}
	return &AccountStatus{
		ID:               acct.ID,
		DetailsSubmitted: acct.DetailsSubmitted,
		PayoutsEnabled:   acct.PayoutsEnabled,
	}, nil
}
