// Package signature draws the standardized e-mail signature image from
// unit and contact data. Rendering is a pure function over an in-memory
// RGBA canvas; the result is exported as a PNG data URL.
package signature
