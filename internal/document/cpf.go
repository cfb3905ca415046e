package document

import (
	"errors"
	"strings"
)

// ErrInvalidCPF is returned when a CPF does not have exactly 11 digits.
var ErrInvalidCPF = errors.New("cpf must have 11 digits")

var cpfSeparators = strings.NewReplacer(".", "", "-", "", " ", "")

// NormalizeCPF strips dots, dashes and spaces and checks the digit count.
// The check digits are not verified.
func NormalizeCPF(value string) (string, error) {
	digits := cpfSeparators.Replace(strings.TrimSpace(value))
	if len(digits) != 11 {
		return "", ErrInvalidCPF
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return "", ErrInvalidCPF
		}
	}
	return digits, nil
}

// FormatCPF renders 11 digits as 000.000.000-00. Other input is returned unchanged.
func FormatCPF(digits string) string {
	if len(digits) != 11 {
		return digits
	}
	return digits[0:3] + "." + digits[3:6] + "." + digits[6:9] + "-" + digits[9:11]
}
