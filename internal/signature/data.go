package signature

import (
	"errors"
	"strings"
)

// Phone types.
const (
	PhoneLandline = "fixo"
	PhoneMobile   = "celular"
)

// Phone is one number of the signer.
type Phone struct {
	Number string
	Type   string
}

// Data is the rendering input of a signature.
type Data struct {
	Name   string
	Email  string
	UnitID string
	Sector string
	Phones []Phone
}

// Unit is the organisational unit a signature is drawn for.
type Unit struct {
	ID             string
	Domain         string
	Logo           []byte
	Certifications []string
	AddressLine1   string
	AddressLine2   string
}

// SectorSeparator splits a long sector label over two lines.
const SectorSeparator = "|"

// SectorLines returns the sector label as one or two lines.
func SectorLines(sector string) []string {
	sector = strings.TrimSpace(sector)
	if sector == "" {
		return nil
	}
	first, second, found := strings.Cut(sector, SectorSeparator)
	if !found {
		return []string{sector}
	}
	lines := make([]string, 0, 2)
	for _, line := range []string{strings.TrimSpace(first), strings.TrimSpace(second)} {
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// PhoneLine assembles "Fixo: a / b  Celular: +55 c / +55 d". Groups without
// numbers are left out.
func PhoneLine(phones []Phone) string {
	var landlines, mobiles []string
	for _, phone := range phones {
		number := strings.TrimSpace(phone.Number)
		if number == "" {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(phone.Type)) {
		case PhoneMobile:
			mobiles = append(mobiles, "+55 "+number)
		default:
			landlines = append(landlines, number)
		}
	}
	var parts []string
	if len(landlines) > 0 {
		parts = append(parts, "Fixo: "+strings.Join(landlines, " / "))
	}
	if len(mobiles) > 0 {
		parts = append(parts, "Celular: "+strings.Join(mobiles, " / "))
	}
	return strings.Join(parts, "  ")
}

// CertificationLines pairs certification labels two per line.
func CertificationLines(certifications []string) []string {
	var labels []string
	for _, label := range certifications {
		if label = strings.TrimSpace(label); label != "" {
			labels = append(labels, label)
		}
	}
	lines := make([]string, 0, (len(labels)+1)/2)
	for i := 0; i < len(labels); i += 2 {
		if i+1 < len(labels) {
			lines = append(lines, labels[i]+" · "+labels[i+1])
			continue
		}
		lines = append(lines, labels[i])
	}
	return lines
}

func findUnit(units []Unit, id string) (Unit, bool) {
	for _, unit := range units {
		if unit.ID == id {
			return unit, true
		}
	}
	return Unit{}, false
}

var errNoLogo = errors.New("unit has no logo")
