package signature

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
)

func newTestCanvas(t *testing.T) *Canvas {
	t.Helper()
	c, err := NewCanvas()
	if err != nil {
		t.Fatalf("failed to create canvas: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func solidPNG(t *testing.T, w, h int, col color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, col)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func isWhite(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return r == 0xffff && g == 0xffff && b == 0xffff
}

func TestRenderUnknownUnit(t *testing.T) {
	c := newTestCanvas(t)
	if Render(c, Data{Name: "Ana", UnitID: "missing"}, []Unit{{ID: "u1"}}) {
		t.Fatal("expected unknown unit to be a no-op")
	}
	bounds := c.Image().Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y += 7 {
		for x := bounds.Min.X; x < bounds.Max.X; x += 7 {
			if !isWhite(c.Image().At(x, y)) {
				t.Fatalf("expected untouched canvas, pixel (%d,%d) changed", x, y)
			}
		}
	}
}

func TestRenderDrawsLogoAndText(t *testing.T) {
	c := newTestCanvas(t)
	units := []Unit{{
		ID:             "u1",
		Domain:         "www.exemplo.com.br",
		Logo:           solidPNG(t, 40, 20, color.RGBA{R: 0xff, A: 0xff}),
		Certifications: []string{"ISO 9001", "ISO 14001"},
		AddressLine1:   "Rua das Flores, 100",
		AddressLine2:   "01000-000 São Paulo/SP",
	}}
	data := Data{
		Name:   "Ana Souza",
		Email:  "ana@exemplo.com.br",
		UnitID: "u1",
		Sector: "Tecnologia | Infraestrutura",
		Phones: []Phone{{Number: "(11) 3333-0000", Type: PhoneLandline}},
	}

	if !Render(c, data, units) {
		t.Fatal("expected render to succeed")
	}

	// logo box center
	r, g, b, _ := c.Image().At(leftCenter*Scale, (logoTop+logoMaxHeight/2)*Scale).RGBA()
	if r < 0xf000 || g > 0x1000 || b > 0x1000 {
		t.Fatalf("expected red logo pixel, got %d %d %d", r, g, b)
	}

	drawn := false
	for y := 20 * Scale; y < 40*Scale && !drawn; y++ {
		for x := rightX * Scale; x < (rightX+80)*Scale; x++ {
			if !isWhite(c.Image().At(x, y)) {
				drawn = true
				break
			}
		}
	}
	if !drawn {
		t.Fatal("expected the name to be drawn in the right column")
	}
}

func TestRenderSkipsUndecodableLogo(t *testing.T) {
	c := newTestCanvas(t)
	units := []Unit{{ID: "u1", Logo: []byte("not an image")}}
	if !Render(c, Data{Name: "Ana", UnitID: "u1"}, units) {
		t.Fatal("expected render to proceed without the logo")
	}
	if !isWhite(c.Image().At(leftCenter*Scale, (logoTop+logoMaxHeight/2)*Scale)) {
		t.Fatal("expected logo area to stay blank")
	}
}

func TestEncodeDataURL(t *testing.T) {
	c := newTestCanvas(t)
	url, err := EncodeDataURL(c.Image())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	const prefix = "data:image/png;base64,"
	if !strings.HasPrefix(url, prefix) {
		t.Fatalf("unexpected prefix in %q", url[:32])
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(url, prefix))
	if err != nil {
		t.Fatalf("failed to decode base64: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("failed to decode png: %v", err)
	}
	if img.Bounds().Dx() != Width*Scale || img.Bounds().Dy() != Height*Scale {
		t.Fatalf("unexpected size %v", img.Bounds())
	}
}
