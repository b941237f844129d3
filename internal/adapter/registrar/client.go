package registrar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hostfabriek/orderdesk/internal/domain"
)

const defaultTimeout = 30 * time.Second

// Compile-time check: Client implements domain.RegistrarGateway.
var _ domain.RegistrarGateway = (*Client)(nil)

// Client talks to the domain registrar's REST API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient constructs a registrar client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

type availabilityResponse struct {
	Available bool `json:"available"`
}

type registerRequest struct {
	Domain      string          `json:"domain"`
	PeriodYears int             `json:"period_years"`
	Registrant  registrantBlock `json:"registrant"`
}

type registrantBlock struct {
	Name    string `json:"name"`
	Company string `json:"company,omitempty"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Street  string `json:"street,omitempty"`
	Zip     string `json:"zip,omitempty"`
	City    string `json:"city,omitempty"`
	Country string `json:"country,omitempty"`
}

type registerResponse struct {
	ID string `json:"id"`
}

// CheckAvailability reports whether the domain name can be registered.
func (c *Client) CheckAvailability(ctx context.Context, domainName string) (bool, error) {
	endpoint := c.baseURL + "/v1/domains/check?domain=" + url.QueryEscape(domainName)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, &domain.ProviderError{Provider: "registrar", Op: "check availability", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return false, &domain.ProviderError{Provider: "registrar", Op: "check availability", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return false, &domain.ProviderError{
			Provider: "registrar",
			Op:       "check availability",
			Err:      httpError(resp),
		}
	}

	var avail availabilityResponse
	if err := json.NewDecoder(resp.Body).Decode(&avail); err != nil {
		return false, &domain.ProviderError{Provider: "registrar", Op: "check availability", Err: err}
	}
	return avail.Available, nil
}

// RegisterDomain registers the domain for the given period and returns the
// registrar's reference for the registration.
func (c *Client) RegisterDomain(ctx context.Context, domainName string, contact domain.ContactProfile, periodYears int) (string, error) {
	body := registerRequest{
		Domain:      domainName,
		PeriodYears: periodYears,
		Registrant: registrantBlock{
			Name:    contact.Name,
			Company: contact.Company,
			Email:   contact.Email,
			Phone:   contact.Phone,
			Street:  contact.Address,
			Zip:     contact.PostalCode,
			City:    contact.City,
			Country: contact.Country,
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", &domain.ProviderError{Provider: "registrar", Op: "register", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/domains", bytes.NewReader(payload))
	if err != nil {
		return "", &domain.ProviderError{Provider: "registrar", Op: "register", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &domain.ProviderError{Provider: "registrar", Op: "register", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", &domain.ProviderError{Provider: "registrar", Op: "register", Err: httpError(resp)}
	}

	var reg registerResponse
	if err := json.NewDecoder(resp.Body).Decode(&reg); err != nil {
		return "", &domain.ProviderError{Provider: "registrar", Op: "register", Err: err}
	}
	return reg.ID, nil
}

func httpError(resp *http.Response) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
}
