package hosting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hostfabriek/orderdesk/internal/domain"
)

const defaultTimeout = 15 * time.Second

// Compile-time check: Client implements domain.HostingGateway.
var _ domain.HostingGateway = (*Client)(nil)

// Client talks to the hosting control panel's REST API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient constructs a hosting panel client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

type accountRequest struct {
	Name    string `json:"name"`
	Company string `json:"company,omitempty"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
	Zip     string `json:"zip,omitempty"`
	Country string `json:"country,omitempty"`
}

type subscriptionRequest struct {
	AccountID string `json:"account_id"`
	Domain    string `json:"domain"`
	Plan      string `json:"plan"`
}

type idResponse struct {
	ID string `json:"id"`
}

// CreateCustomerAccount creates a panel account for the customer and
// returns the panel's account id.
func (c *Client) CreateCustomerAccount(ctx context.Context, profile domain.ContactProfile) (string, error) {
	req := accountRequest{
		Name:    profile.Name,
		Company: profile.Company,
		Email:   profile.Email,
		Phone:   profile.Phone,
		Address: profile.Address,
		City:    profile.City,
		Zip:     profile.PostalCode,
		Country: profile.Country,
	}

	var resp idResponse
	if err := c.post(ctx, "/api/v2/clients", req, &resp); err != nil {
		return "", &domain.ProviderError{Provider: "hosting", Op: "create account", Err: err}
	}
	return resp.ID, nil
}

// CreateSubscription creates a hosting subscription for the domain under
// the given account and returns the subscription id.
func (c *Client) CreateSubscription(ctx context.Context, accountRef, domainName, planName string) (string, error) {
	req := subscriptionRequest{
		AccountID: accountRef,
		Domain:    domainName,
		Plan:      planName,
	}

	var resp idResponse
	if err := c.post(ctx, "/api/v2/subscriptions", req, &resp); err != nil {
		return "", &domain.ProviderError{Provider: "hosting", Op: "create subscription", Err: err}
	}
	return resp.ID, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s returned %d: %s", path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
