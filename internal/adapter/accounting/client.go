package accounting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hostfabriek/orderdesk/internal/domain"
)

const defaultTimeout = 15 * time.Second

// Compile-time check: Client implements domain.AccountingGateway.
var _ domain.AccountingGateway = (*Client)(nil)

// Client talks to the external accounting service's REST API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient constructs an accounting service client.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

type contactRequest struct {
	Contact contactBlock `json:"contact"`
}

type contactBlock struct {
	CompanyName string `json:"company_name,omitempty"`
	FirstName   string `json:"firstname"`
	Email       string `json:"email"`
	Phone       string `json:"phone,omitempty"`
	Address     string `json:"address1,omitempty"`
	ZipCode     string `json:"zipcode,omitempty"`
	City        string `json:"city,omitempty"`
	Country     string `json:"country,omitempty"`
}

type invoiceRequest struct {
	Invoice invoiceBlock `json:"sales_invoice"`
}

type invoiceBlock struct {
	ContactID string        `json:"contact_id"`
	Reference string        `json:"reference"`
	Details   []detailBlock `json:"details_attributes"`
}

type detailBlock struct {
	Description string `json:"description"`
	Price       string `json:"price"`
	Amount      string `json:"amount"`
}

type idResponse struct {
	ID string `json:"id"`
}

// CreateContact creates a contact and returns its id on the accounting
// service.
func (c *Client) CreateContact(ctx context.Context, profile domain.ContactProfile) (string, error) {
	req := contactRequest{
		Contact: contactBlock{
			CompanyName: profile.Company,
			FirstName:   profile.Name,
			Email:       profile.Email,
			Phone:       profile.Phone,
			Address:     profile.Address,
			ZipCode:     profile.PostalCode,
			City:        profile.City,
			Country:     profile.Country,
		},
	}

	var resp idResponse
	if err := c.post(ctx, "/contacts", req, &resp); err != nil {
		return "", &domain.ProviderError{Provider: "accounting", Op: "create contact", Err: err}
	}
	return resp.ID, nil
}

// CreateInvoice creates a sales invoice for the contact and returns the
// invoice id. The reference carries the order number so the invoice can
// be traced back.
func (c *Client) CreateInvoice(ctx context.Context, contactRef string, lines []domain.InvoiceLine, reference string) (string, error) {
	details := make([]detailBlock, 0, len(lines))
	for _, line := range lines {
		details = append(details, detailBlock{
			Description: line.Description,
			Price:       strconv.FormatFloat(line.Price, 'f', 2, 64),
			Amount:      strconv.Itoa(line.Quantity),
		})
	}

	req := invoiceRequest{
		Invoice: invoiceBlock{
			ContactID: contactRef,
			Reference: reference,
			Details:   details,
		},
	}

	var resp idResponse
	if err := c.post(ctx, "/sales_invoices", req, &resp); err != nil {
		return "", &domain.ProviderError{Provider: "accounting", Op: "create invoice", Err: err}
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
	req.Header.Set("Authorization", "Bearer "+c.token)

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
