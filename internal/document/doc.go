// Package document renders term templates: placeholder substitution,
// server-side resolution of auto-mapped variables, CPF normalization and
// markdown to HTML conversion of the rendered body.
package document
