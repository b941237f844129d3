package registrar_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hostfabriek/orderdesk/internal/adapter/registrar"
	"github.com/hostfabriek/orderdesk/internal/domain"
)

func TestCheckAvailability(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/domains/check" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer tok-123" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}

		available := r.URL.Query().Get("domain") != "bezet.nl"
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]bool{"available": available}); err != nil {
			t.Errorf("writing response: %v", err)
		}
	}))
	defer srv.Close()

	client := registrar.NewClient(srv.URL, "tok-123")

	available, err := client.CheckAvailability(context.Background(), "vrij.nl")
	if err != nil {
		t.Fatalf("CheckAvailability failed: %v", err)
	}
	if !available {
		t.Error("vrij.nl should be available")
	}

	available, err = client.CheckAvailability(context.Background(), "bezet.nl")
	if err != nil {
		t.Fatalf("CheckAvailability failed: %v", err)
	}
	if available {
		t.Error("bezet.nl should be taken")
	}
}

func TestRegisterDomain(t *testing.T) {
	var gotBody struct {
		Domain      string `json:"domain"`
		PeriodYears int    `json:"period_years"`
		Registrant  struct {
			Name  string `json:"name"`
			Email string `json:"email"`
		} `json:"registrant"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/domains" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(`{"id": "reg-99"}`)); err != nil {
			t.Errorf("writing response: %v", err)
		}
	}))
	defer srv.Close()

	client := registrar.NewClient(srv.URL, "tok-123")
	ref, err := client.RegisterDomain(context.Background(), "jansbakkerij.nl", domain.ContactProfile{
		Name:  "Jan de Vries",
		Email: "jan@example.nl",
	}, 1)
	if err != nil {
		t.Fatalf("RegisterDomain failed: %v", err)
	}

	if ref != "reg-99" {
		t.Errorf("ref = %q, want reg-99", ref)
	}
	if gotBody.Domain != "jansbakkerij.nl" || gotBody.PeriodYears != 1 {
		t.Errorf("request body = %+v", gotBody)
	}
	if gotBody.Registrant.Name != "Jan de Vries" {
		t.Errorf("registrant = %+v", gotBody.Registrant)
	}
}

func TestRegisterDomain_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "registry maintenance", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := registrar.NewClient(srv.URL, "tok-123")
	_, err := client.RegisterDomain(context.Background(), "jansbakkerij.nl", domain.ContactProfile{}, 1)

	var provErr *domain.ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if provErr.Provider != "registrar" || provErr.Op != "register" {
		t.Errorf("ProviderError = %+v", provErr)
	}
}

func TestCheckAvailability_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := registrar.NewClient(srv.URL, "tok-123")
	_, err := client.CheckAvailability(context.Background(), "vrij.nl")

	var provErr *domain.ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
}
