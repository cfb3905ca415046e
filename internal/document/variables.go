package document

import (
	"fmt"
	"time"
)

// Auto-mapping sources a template variable can be bound to.
const (
	MapDocTitle      = "doc_title"
	MapEmpName       = "emp_name"
	MapEmpDepartment = "emp_department"
	MapEmpRole       = "emp_role"
	MapEmpUnit       = "emp_unit"
	MapDateShort     = "date_short"
	MapDateLong      = "date_long"
)

// Variable types.
const (
	VariableText      = "text"
	VariableMultiline = "textarea"
)

// Variable is a custom template variable.
type Variable struct {
	Key         string
	Label       string
	AutoMapping string
	Type        string
}

// Subject carries the values auto-mapped variables are derived from.
type Subject struct {
	DocTitle     string
	EmployeeName string
	Department   string
	Role         string
	Unit         string
	Reference    time.Time
}

var monthNames = [...]string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

// FormatDateShort renders 02/01/2006.
func FormatDateShort(t time.Time) string {
	return t.Format("02/01/2006")
}

// FormatDateLong renders the written-out Portuguese form, e.g. "15 de outubro de 2026".
func FormatDateLong(t time.Time) string {
	return fmt.Sprintf("%d de %s de %d", t.Day(), monthNames[t.Month()-1], t.Year())
}

// IsAutoMapping reports whether value names a known auto-mapping source.
func IsAutoMapping(value string) bool {
	switch value {
	case MapDocTitle, MapEmpName, MapEmpDepartment, MapEmpRole, MapEmpUnit, MapDateShort, MapDateLong:
		return true
	}
	return false
}

// Resolve computes an auto-mapped value. ok is false for unknown mappings.
func (s Subject) Resolve(mapping string) (value string, ok bool) {
	switch mapping {
	case MapDocTitle:
		return s.DocTitle, true
	case MapEmpName:
		return s.EmployeeName, true
	case MapEmpDepartment:
		return s.Department, true
	case MapEmpRole:
		return s.Role, true
	case MapEmpUnit:
		return s.Unit, true
	case MapDateShort:
		return FormatDateShort(s.Reference), true
	case MapDateLong:
		return FormatDateLong(s.Reference), true
	}
	return "", false
}

// ResolveVariables builds the data map of an issued term. Operator input is
// copied first; auto-mapped variables then override whatever was typed.
func ResolveVariables(variables []Variable, input map[string]string, subject Subject) map[string]string {
	data := make(map[string]string, len(input)+len(variables))
	for key, value := range input {
		data[key] = value
	}
	for _, variable := range variables {
		if variable.Key == "" {
			continue
		}
		if value, ok := subject.Resolve(variable.AutoMapping); ok {
			data[variable.Key] = value
			continue
		}
		if _, present := data[variable.Key]; !present {
			data[variable.Key] = ""
		}
	}
	return data
}
