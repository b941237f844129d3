package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/hostfabriek/orderdesk/internal/app"
	"github.com/hostfabriek/orderdesk/internal/domain"
)

const timeFormat = "2006-01-02T15:04:05Z"

// CustomerResponse is the API representation of a customer.
type CustomerResponse struct {
	ID        string `json:"id" doc:"Unique identifier"`
	Email     string `json:"email" doc:"Email address"`
	FirstName string `json:"first_name" doc:"First name"`
	LastName  string `json:"last_name" doc:"Last name"`
	Company   string `json:"company,omitempty" doc:"Company name"`
	Status    string `json:"status" doc:"Account state"`
}

// DomainResponse is the API representation of an ordered domain.
type DomainResponse struct {
	ID           string `json:"id" doc:"Unique identifier"`
	Name         string `json:"name" doc:"Fully qualified domain name"`
	Register     bool   `json:"register" doc:"Whether the name is registered as part of fulfillment"`
	Status       string `json:"status" doc:"Registration lifecycle state"`
	RegisteredAt string `json:"registered_at,omitempty" doc:"Registration timestamp (ISO 8601)"`
	ExpiresAt    string `json:"expires_at,omitempty" doc:"Registration expiry (ISO 8601)"`
}

// PackageResponse is the API representation of a hosting package.
type PackageResponse struct {
	ID           string  `json:"id" doc:"Unique identifier"`
	Name         string  `json:"name" doc:"Display name"`
	Description  string  `json:"description,omitempty" doc:"Feature summary"`
	PriceMonthly float64 `json:"price_monthly" doc:"Monthly rate excluding tax"`
	PriceYearly  float64 `json:"price_yearly" doc:"Yearly rate excluding tax"`
}

// OrderResponse is the API representation of an order with its aggregate.
type OrderResponse struct {
	ID           string            `json:"id" doc:"Unique identifier"`
	Number       string            `json:"number" doc:"Human-facing order number"`
	Status       string            `json:"status" doc:"Lifecycle state"`
	BillingCycle string            `json:"billing_cycle" doc:"Billing cycle"`
	Subtotal     float64           `json:"subtotal" doc:"Amount excluding tax"`
	Tax          float64           `json:"tax" doc:"Tax amount"`
	Total        float64           `json:"total" doc:"Amount including tax"`
	Customer     CustomerResponse  `json:"customer" doc:"Ordering customer"`
	Package      *PackageResponse  `json:"package,omitempty" doc:"Hosting package, when ordered"`
	Domains      []DomainResponse  `json:"domains" doc:"Ordered domains"`
	InvoiceRef   string            `json:"invoice_ref,omitempty" doc:"External invoice reference"`
	PaidAt       string            `json:"paid_at,omitempty" doc:"Payment timestamp (ISO 8601)"`
	ActivatedAt  string            `json:"activated_at,omitempty" doc:"Activation timestamp (ISO 8601)"`
	CancelledAt  string            `json:"cancelled_at,omitempty" doc:"Cancellation timestamp (ISO 8601)"`
	CreatedAt    string            `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
}

// OrderSummary is the list representation of an order without its aggregate.
type OrderSummary struct {
	ID           string  `json:"id" doc:"Unique identifier"`
	Number       string  `json:"number" doc:"Human-facing order number"`
	Status       string  `json:"status" doc:"Lifecycle state"`
	BillingCycle string  `json:"billing_cycle" doc:"Billing cycle"`
	Total        float64 `json:"total" doc:"Amount including tax"`
	CustomerID   string  `json:"customer_id" doc:"Ordering customer id"`
	CreatedAt    string  `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(timeFormat)
}

func toCustomerResponse(c domain.Customer) CustomerResponse {
	return CustomerResponse{
		ID:        c.ID,
		Email:     c.Email,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Company:   c.Company,
		Status:    string(c.Status),
	}
}

func toPackageResponse(p domain.HostingPackage) PackageResponse {
	return PackageResponse{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		PriceMonthly: p.PriceMonthly,
		PriceYearly:  p.PriceYearly,
	}
}

func toOrderResponse(agg domain.OrderAggregate) OrderResponse {
	resp := OrderResponse{
		ID:           agg.Order.ID,
		Number:       agg.Order.Number,
		Status:       string(agg.Order.Status),
		BillingCycle: string(agg.Order.BillingCycle),
		Subtotal:     agg.Order.Subtotal,
		Tax:          agg.Order.Tax,
		Total:        agg.Order.Total,
		Customer:     toCustomerResponse(agg.Customer),
		InvoiceRef:   agg.Order.InvoiceRef,
		PaidAt:       formatTime(agg.Order.PaidAt),
		ActivatedAt:  formatTime(agg.Order.ActivatedAt),
		CancelledAt:  formatTime(agg.Order.CancelledAt),
		CreatedAt:    agg.Order.CreatedAt.Format(timeFormat),
	}

	if agg.Package != nil {
		p := toPackageResponse(*agg.Package)
		resp.Package = &p
	}

	resp.Domains = make([]DomainResponse, len(agg.Domains))
	for i, d := range agg.Domains {
		resp.Domains[i] = DomainResponse{
			ID:           d.ID,
			Name:         d.Name,
			Register:     d.Register,
			Status:       string(d.Status),
			RegisteredAt: formatTime(d.RegisteredAt),
			ExpiresAt:    formatTime(d.ExpiresAt),
		}
	}

	return resp
}

func toOrderSummary(o domain.Order) OrderSummary {
	return OrderSummary{
		ID:           o.ID,
		Number:       o.Number,
		Status:       string(o.Status),
		BillingCycle: string(o.BillingCycle),
		Total:        o.Total,
		CustomerID:   o.CustomerID,
		CreatedAt:    o.CreatedAt.Format(timeFormat),
	}
}

// --- Create Order ---

type CreateOrderInput struct {
	Body struct {
		Customer struct {
			Email      string `json:"email" format:"email" doc:"Email address"`
			FirstName  string `json:"first_name" minLength:"1" maxLength:"100" doc:"First name"`
			LastName   string `json:"last_name" minLength:"1" maxLength:"100" doc:"Last name"`
			Company    string `json:"company,omitempty" doc:"Company name"`
			Phone      string `json:"phone,omitempty" doc:"Phone number"`
			Address    string `json:"address,omitempty" doc:"Street address"`
			PostalCode string `json:"postal_code,omitempty" doc:"Postal code"`
			City       string `json:"city,omitempty" doc:"City"`
			Country    string `json:"country,omitempty" doc:"Country code"`
			VATNumber  string `json:"vat_number,omitempty" doc:"VAT number"`
		} `json:"customer" doc:"Ordering customer; matched by email or created"`
		PackageID    string `json:"package_id,omitempty" doc:"Hosting package id"`
		BillingCycle string `json:"billing_cycle,omitempty" default:"monthly" enum:"monthly,quarterly,yearly" doc:"Billing cycle"`
		Domains      []struct {
			Name     string `json:"name" minLength:"1" maxLength:"255" doc:"Fully qualified domain name"`
			Register bool   `json:"register" doc:"Register the name during fulfillment"`
		} `json:"domains,omitempty" doc:"Requested domains"`
	}
}

type CreateOrderOutput struct {
	Body OrderResponse
}

// --- Get Order ---

type GetOrderInput struct {
	Number string `path:"number" doc:"Order number"`
}

type GetOrderOutput struct {
	Body OrderResponse
}

// --- List Orders ---

type ListOrdersInput struct {
	Status     string `query:"status" required:"false" doc:"Filter by status"`
	CustomerID string `query:"customer_id" required:"false" doc:"Filter by customer"`
	Limit      int    `query:"limit" required:"false" default:"50" doc:"Max results"`
	Offset     int    `query:"offset" required:"false" default:"0" doc:"Pagination offset"`
}

type ListOrdersOutput struct {
	Body []OrderSummary
}

// --- Lifecycle actions ---

type OrderActionInput struct {
	Number string `path:"number" doc:"Order number"`
}

type CancelOrderInput struct {
	Number string `path:"number" doc:"Order number"`
	Body   struct {
		Reason string `json:"reason,omitempty" maxLength:"500" doc:"Cancellation reason"`
	}
}

type OrderActionOutput struct {
	Body OrderResponse
}

// --- Payment webhook ---

type PaymentWebhookInput struct {
	Body struct {
		PaymentRef string `json:"payment_ref" minLength:"1" doc:"Provider payment id"`
		Status     string `json:"status" enum:"paid,failed,expired,canceled" doc:"Provider-reported payment status"`
		OrderID    string `json:"order_id" minLength:"1" doc:"Order id from the payment metadata"`
	}
}

type PaymentWebhookOutput struct {
	Body OrderResponse
}

// --- Domain availability ---

type CheckDomainInput struct {
	Domain string `query:"domain" doc:"Fully qualified domain name"`
}

type CheckDomainOutput struct {
	Body struct {
		Domain    string `json:"domain" doc:"Checked domain name"`
		Available bool   `json:"available" doc:"Whether the name can be registered"`
	}
}

// --- Packages ---

type ListPackagesOutput struct {
	Body []PackageResponse
}

// --- Customer approval ---

type ApproveCustomerInput struct {
	ID string `path:"id" doc:"Customer ID"`
}

type ApproveCustomerOutput struct {
	Body CustomerResponse
}

// --- Billing ---

type BillingDueInput struct {
	Days int `query:"days" required:"false" default:"7" minimum:"0" maximum:"90" doc:"Look-ahead window in days"`
}

type BillingDueOutput struct {
	Body []OrderSummary
}

// Register adds all order API routes to the Huma API.
func Register(api huma.API, svc *app.OrderService) {
	huma.Register(api, huma.Operation{
		OperationID: "create-order",
		Method:      http.MethodPost,
		Path:        "/api/v1/orders",
		Summary:     "Create a new order",
		Tags:        []string{"Orders"},
	}, func(ctx context.Context, input *CreateOrderInput) (*CreateOrderOutput, error) {
		in := app.CreateOrderInput{
			Customer: app.CustomerInput{
				Email:      input.Body.Customer.Email,
				FirstName:  input.Body.Customer.FirstName,
				LastName:   input.Body.Customer.LastName,
				Company:    input.Body.Customer.Company,
				Phone:      input.Body.Customer.Phone,
				Address:    input.Body.Customer.Address,
				PostalCode: input.Body.Customer.PostalCode,
				City:       input.Body.Customer.City,
				Country:    input.Body.Customer.Country,
				VATNumber:  input.Body.Customer.VATNumber,
			},
			PackageID:    input.Body.PackageID,
			BillingCycle: domain.BillingCycle(input.Body.BillingCycle),
		}
		for _, d := range input.Body.Domains {
			in.Domains = append(in.Domains, app.DomainInput{Name: d.Name, Register: d.Register})
		}

		agg, err := svc.CreateOrder(ctx, in)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &CreateOrderOutput{Body: toOrderResponse(agg)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-order",
		Method:      http.MethodGet,
		Path:        "/api/v1/orders/{number}",
		Summary:     "Get an order by number",
		Tags:        []string{"Orders"},
	}, func(ctx context.Context, input *GetOrderInput) (*GetOrderOutput, error) {
		agg, err := svc.GetByNumber(ctx, input.Number)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &GetOrderOutput{Body: toOrderResponse(agg)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-orders",
		Method:      http.MethodGet,
		Path:        "/api/v1/orders",
		Summary:     "List orders",
		Tags:        []string{"Orders"},
	}, func(ctx context.Context, input *ListOrdersInput) (*ListOrdersOutput, error) {
		filter := domain.OrderListFilter{
			CustomerID: input.CustomerID,
			Limit:      input.Limit,
			Offset:     input.Offset,
		}
		if input.Status != "" {
			s := domain.OrderStatus(input.Status)
			filter.Status = &s
		}

		orders, err := svc.List(ctx, filter)
		if err != nil {
			return nil, toHumaError(err)
		}

		resp := make([]OrderSummary, len(orders))
		for i, o := range orders {
			resp[i] = toOrderSummary(o)
		}
		return &ListOrdersOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "approve-order",
		Method:      http.MethodPost,
		Path:        "/api/v1/orders/{number}/approve",
		Summary:     "Approve an order and start fulfillment",
		Tags:        []string{"Orders"},
	}, func(ctx context.Context, input *OrderActionInput) (*OrderActionOutput, error) {
		agg, err := svc.Approve(ctx, input.Number)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &OrderActionOutput{Body: toOrderResponse(agg)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "cancel-order",
		Method:      http.MethodPost,
		Path:        "/api/v1/orders/{number}/cancel",
		Summary:     "Cancel an order",
		Tags:        []string{"Orders"},
	}, func(ctx context.Context, input *CancelOrderInput) (*OrderActionOutput, error) {
		agg, err := svc.Cancel(ctx, input.Number, input.Body.Reason)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &OrderActionOutput{Body: toOrderResponse(agg)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "suspend-order",
		Method:      http.MethodPost,
		Path:        "/api/v1/orders/{number}/suspend",
		Summary:     "Suspend an active order",
		Tags:        []string{"Orders"},
	}, func(ctx context.Context, input *OrderActionInput) (*OrderActionOutput, error) {
		agg, err := svc.Suspend(ctx, input.Number)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &OrderActionOutput{Body: toOrderResponse(agg)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "reactivate-order",
		Method:      http.MethodPost,
		Path:        "/api/v1/orders/{number}/reactivate",
		Summary:     "Reactivate a suspended order",
		Tags:        []string{"Orders"},
	}, func(ctx context.Context, input *OrderActionInput) (*OrderActionOutput, error) {
		agg, err := svc.Reactivate(ctx, input.Number)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &OrderActionOutput{Body: toOrderResponse(agg)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "payment-webhook",
		Method:      http.MethodPost,
		Path:        "/api/v1/payments/webhook",
		Summary:     "Process a payment status callback",
		Tags:        []string{"Payments"},
	}, func(ctx context.Context, input *PaymentWebhookInput) (*PaymentWebhookOutput, error) {
		agg, err := svc.HandlePaymentEvent(ctx, app.PaymentEvent{
			PaymentRef: input.Body.PaymentRef,
			Status:     app.PaymentStatus(input.Body.Status),
			OrderID:    input.Body.OrderID,
		})
		if err != nil {
			return nil, toHumaError(err)
		}
		return &PaymentWebhookOutput{Body: toOrderResponse(agg)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "check-domain",
		Method:      http.MethodGet,
		Path:        "/api/v1/domains/check",
		Summary:     "Check domain availability",
		Tags:        []string{"Domains"},
	}, func(ctx context.Context, input *CheckDomainInput) (*CheckDomainOutput, error) {
		available, err := svc.CheckDomainAvailability(ctx, input.Domain)
		if err != nil {
			return nil, toHumaError(err)
		}
		out := &CheckDomainOutput{}
		out.Body.Domain = input.Domain
		out.Body.Available = available
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-packages",
		Method:      http.MethodGet,
		Path:        "/api/v1/packages",
		Summary:     "List active hosting packages",
		Tags:        []string{"Packages"},
	}, func(ctx context.Context, _ *struct{}) (*ListPackagesOutput, error) {
		packages, err := svc.ListPackages(ctx)
		if err != nil {
			return nil, toHumaError(err)
		}

		resp := make([]PackageResponse, len(packages))
		for i, p := range packages {
			resp[i] = toPackageResponse(p)
		}
		return &ListPackagesOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "approve-customer",
		Method:      http.MethodPost,
		Path:        "/api/v1/customers/{id}/approve",
		Summary:     "Approve a customer account",
		Tags:        []string{"Customers"},
	}, func(ctx context.Context, input *ApproveCustomerInput) (*ApproveCustomerOutput, error) {
		customer, err := svc.ApproveCustomer(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ApproveCustomerOutput{Body: toCustomerResponse(customer)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-billing-due",
		Method:      http.MethodGet,
		Path:        "/api/v1/billing/due",
		Summary:     "List orders due for invoicing",
		Tags:        []string{"Billing"},
	}, func(ctx context.Context, input *BillingDueInput) (*BillingDueOutput, error) {
		orders, err := svc.DueForInvoicing(ctx, input.Days)
		if err != nil {
			return nil, toHumaError(err)
		}

		resp := make([]OrderSummary, len(orders))
		for i, o := range orders {
			resp[i] = toOrderSummary(o)
		}
		return &BillingDueOutput{Body: resp}, nil
	})
}

// toHumaError translates domain errors to Huma HTTP errors.
func toHumaError(err error) error {
	switch {
	case errors.Is(err, domain.ErrOrderNotFound):
		return huma.Error404NotFound("order not found")
	case errors.Is(err, domain.ErrCustomerNotFound):
		return huma.Error404NotFound("customer not found")
	case errors.Is(err, domain.ErrDomainNotFound):
		return huma.Error404NotFound("domain not found")
	}

	var valErr *domain.ValidationError
	if errors.As(err, &valErr) {
		return huma.Error422UnprocessableEntity(valErr.Error())
	}

	var pkgErr *domain.InvalidPackageError
	if errors.As(err, &pkgErr) {
		return huma.Error422UnprocessableEntity(pkgErr.Error())
	}

	var trErr *domain.TransitionError
	if errors.As(err, &trErr) {
		return huma.Error422UnprocessableEntity(trErr.Error())
	}

	if errors.Is(err, domain.ErrStatusConflict) {
		return huma.Error409Conflict("order was modified concurrently")
	}

	var provErr *domain.ProviderError
	if errors.As(err, &provErr) {
		return huma.Error502BadGateway(provErr.Error())
	}

	return huma.Error500InternalServerError("internal server error")
}
