package postalcode

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestNormalize(t *testing.T) {
	tests := map[string]struct {
		input   string
		want    string
		wantErr bool
	}{
		"dashed":  {input: "01001-000", want: "01001000"},
		"dotted":  {input: "01.001-000", want: "01001000"},
		"plain":   {input: "01001000", want: "01001000"},
		"short":   {input: "0100100", wantErr: true},
		"letters": {input: "0100A000", wantErr: true},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := Normalize(tc.input)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidCode) {
					t.Fatalf("expected ErrInvalidCode, got %v", err)
				}
				return
			}
			if err != nil || got != tc.want {
				t.Fatalf("expected %q, got %q (%v)", tc.want, got, err)
			}
		})
	}
}

func TestLookup(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		switch r.URL.Path {
		case "/ws/01001000/json/":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"cep":"01001-000","logradouro":"Praça da Sé","complemento":"lado ímpar","bairro":"Sé","localidade":"São Paulo","uf":"SP"}`))
		case "/ws/99999999/json/":
			w.Write([]byte(`{"erro": "true"}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	t.Cleanup(server.Close)

	client := NewClient(server.URL+"/ws/", time.Second)

	t.Run("found", func(t *testing.T) {
		address, err := client.Lookup(context.Background(), "01001-000")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if address.City != "São Paulo" || address.State != "SP" {
			t.Fatalf("unexpected address %+v", address)
		}
		if address.Line1() != "Praça da Sé, Sé" {
			t.Fatalf("unexpected line1 %q", address.Line1())
		}
		if address.Line2() != "01001-000 São Paulo/SP" {
			t.Fatalf("unexpected line2 %q", address.Line2())
		}
	})

	t.Run("reported missing", func(t *testing.T) {
		if _, err := client.Lookup(context.Background(), "99999-999"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("server failure is not retried", func(t *testing.T) {
		before := calls.Load()
		if _, err := client.Lookup(context.Background(), "12345-678"); err == nil {
			t.Fatal("expected error")
		}
		if calls.Load()-before != 1 {
			t.Fatalf("expected a single attempt, got %d", calls.Load()-before)
		}
	})

	t.Run("invalid code never calls the service", func(t *testing.T) {
		before := calls.Load()
		if _, err := client.Lookup(context.Background(), "123"); !errors.Is(err, ErrInvalidCode) {
			t.Fatalf("expected ErrInvalidCode, got %v", err)
		}
		if calls.Load() != before {
			t.Fatal("expected no request")
		}
	})
}

func TestLookupTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		server.Close()
	})

	client := NewClient(server.URL, 50*time.Millisecond)
	if _, err := client.Lookup(context.Background(), "01001000"); err == nil {
		t.Fatal("expected timeout error")
	}
}
