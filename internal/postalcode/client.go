// Package postalcode looks up Brazilian postal codes (CEP) against a
// ViaCEP-compatible endpoint.
package postalcode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
)

var (
	// ErrInvalidCode is returned when the code does not have 8 digits.
	ErrInvalidCode = errors.New("postal code must have 8 digits")
	// ErrNotFound is returned when the service reports an unknown code.
	ErrNotFound = errors.New("postal code not found")
)

// DefaultTimeout bounds a single lookup.
const DefaultTimeout = 3 * time.Second

// Address is the part of a lookup result the unit form uses.
type Address struct {
	PostalCode string `json:"postalCode"`
	Street     string `json:"street"`
	Complement string `json:"complement"`
	District   string `json:"district"`
	City       string `json:"city"`
	State      string `json:"state"`
}

// Line1 renders "street, district".
func (a Address) Line1() string {
	return joinNonEmpty(", ", a.Street, a.District)
}

// Line2 renders "00000-000 city/UF".
func (a Address) Line2() string {
	place := a.City
	if a.State != "" {
		place = joinNonEmpty("/", a.City, a.State)
	}
	return joinNonEmpty(" ", a.PostalCode, place)
}

type viaCEPResponse struct {
	CEP         string `json:"cep"`
	Logradouro  string `json:"logradouro"`
	Complemento string `json:"complemento"`
	Bairro      string `json:"bairro"`
	Localidade  string `json:"localidade"`
	UF          string `json:"uf"`
	Erro        any    `json:"erro"`
}

// Client performs single-attempt lookups.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for baseURL, e.g. https://viacep.com.br/ws.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Normalize strips punctuation and checks the 8 digit length.
func Normalize(code string) (string, error) {
	var b strings.Builder
	for _, r := range code {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '.' || r == ' ':
		default:
			return "", ErrInvalidCode
		}
	}
	if b.Len() != 8 {
		return "", ErrInvalidCode
	}
	return b.String(), nil
}

// Lookup resolves code. There is no retry; callers decide how to degrade.
func (c *Client) Lookup(ctx context.Context, code string) (address Address, err error) {
	digits, err := Normalize(code)
	if err != nil {
		return Address{}, err
	}

	ctx, span := otel.Tracer("postalcode").Start(ctx, "postalcode.Lookup")
	span.SetAttributes(attribute.String("postal_code", digits))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/%s/json/", c.baseURL, digits), nil)
	if err != nil {
		return Address{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(req)
	if err != nil {
		return Address{}, fmt.Errorf("lookup %s: %w", digits, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusBadRequest:
		return Address{}, ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return Address{}, fmt.Errorf("lookup %s: unexpected status %d", digits, resp.StatusCode)
	}

	var payload viaCEPResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Address{}, fmt.Errorf("decode response: %w", err)
	}
	if payload.Erro != nil && payload.Erro != false && payload.Erro != "false" {
		return Address{}, ErrNotFound
	}

	postal := payload.CEP
	if postal == "" {
		postal = digits[:5] + "-" + digits[5:]
	}
	return Address{
		PostalCode: postal,
		Street:     payload.Logradouro,
		Complement: payload.Complemento,
		District:   payload.Bairro,
		City:       payload.Localidade,
		State:      payload.UF,
	}, nil
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, sep)
}
