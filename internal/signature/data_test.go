package signature

import (
	"reflect"
	"testing"
)

func TestSectorLines(t *testing.T) {
	tests := map[string]struct {
		sector string
		want   []string
	}{
		"single line":     {sector: "Tecnologia da Informação", want: []string{"Tecnologia da Informação"}},
		"split on pipe":   {sector: "Gerência | Infraestrutura", want: []string{"Gerência", "Infraestrutura"}},
		"only first pipe": {sector: "A|B|C", want: []string{"A", "B|C"}},
		"empty second":    {sector: "Compras |", want: []string{"Compras"}},
		"blank":           {sector: "  ", want: nil},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			if got := SectorLines(tc.sector); !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestPhoneLine(t *testing.T) {
	tests := map[string]struct {
		phones []Phone
		want   string
	}{
		"both groups": {
			phones: []Phone{
				{Number: "(11) 3333-0000", Type: PhoneLandline},
				{Number: "(11) 98888-0000", Type: PhoneMobile},
				{Number: "(11) 3333-0001", Type: "Fixo"},
				{Number: "(11) 97777-0000", Type: "celular"},
			},
			want: "Fixo: (11) 3333-0000 / (11) 3333-0001  Celular: +55 (11) 98888-0000 / +55 (11) 97777-0000",
		},
		"mobile only": {
			phones: []Phone{{Number: "11 9", Type: PhoneMobile}},
			want:   "Celular: +55 11 9",
		},
		"blank numbers skipped": {
			phones: []Phone{{Number: " ", Type: PhoneLandline}},
			want:   "",
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			if got := PhoneLine(tc.phones); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestCertificationLines(t *testing.T) {
	got := CertificationLines([]string{"ISO 9001", "ISO 14001", " ", "ONA"})
	want := []string{"ISO 9001 · ISO 14001", "ONA"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
