package signature

import (
	"bytes"
	"image"
	"image/color"
	"strings"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

var (
	inkColor     = color.RGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xff}
	mutedColor   = color.RGBA{R: 0x6b, G: 0x72, B: 0x80, A: 0xff}
	dividerColor = color.RGBA{R: 0xb0, G: 0xb0, B: 0xb0, A: 0xff}
	accentColor  = color.RGBA{R: 0x2e, G: 0x7d, B: 0x32, A: 0xff}
)

// Tagline drawn at the bottom of every signature, split by color.
const (
	TaglineLead   = "Antes de imprimir, pense em sua"
	TaglineAccent = " responsabilidade com o meio ambiente."
)

// layout in logical pixels
const (
	leftCenter    = 100
	logoTop       = 18
	logoMaxWidth  = 160
	logoMaxHeight = 80
	dividerX      = 210
	rightX        = 228
	rightEdge     = 585
)

// Render draws data onto the canvas using the unit it references. It
// returns false and leaves the canvas untouched when the unit is unknown.
// A logo that cannot be decoded is skipped.
func Render(c *Canvas, data Data, units []Unit) bool {
	unit, ok := findUnit(units, data.UnitID)
	if !ok {
		return false
	}

	if logo, err := decodeLogo(unit.Logo); err == nil {
		c.drawLogo(logo)
	}

	c.dashedVertical(dividerX, 12, 172, dividerColor)

	domainFace := c.face(true, 11)
	c.centeredText(leftCenter, 122, strings.TrimSpace(unit.Domain), domainFace, inkColor)

	certFace := c.face(false, 8)
	y := 140
	for _, line := range CertificationLines(unit.Certifications) {
		c.centeredText(leftCenter, y, line, certFace, mutedColor)
		y += 12
	}

	y = 36
	c.text(rightX, y, strings.TrimSpace(data.Name), c.face(true, 18), inkColor)
	y += 18
	sectorFace := c.face(false, 11)
	for _, line := range SectorLines(data.Sector) {
		c.text(rightX, y, line, sectorFace, mutedColor)
		y += 14
	}
	c.text(rightX, y, strings.TrimSpace(data.Email), c.face(false, 11), inkColor)

	c.dashedHorizontal(rightX, rightEdge, 104, dividerColor)

	detailFace := c.face(false, 10)
	c.text(rightX, 124, strings.TrimSpace(unit.AddressLine1), detailFace, inkColor)
	c.text(rightX, 138, strings.TrimSpace(unit.AddressLine2), detailFace, inkColor)
	c.text(rightX, 156, PhoneLine(data.Phones), detailFace, inkColor)

	taglineFace := c.face(false, 9)
	total := c.textWidth(taglineFace, TaglineLead) + c.textWidth(taglineFace, TaglineAccent)
	x := Width/2 - total/2
	c.text(x, 192, TaglineLead, taglineFace, mutedColor)
	c.text(x+c.textWidth(taglineFace, TaglineLead), 192, TaglineAccent, taglineFace, accentColor)
	return true
}

func decodeLogo(raw []byte) (image.Image, error) {
	if len(raw) == 0 {
		return nil, errNoLogo
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err == nil {
		return img, nil
	}
	if decoded, webpErr := webp.Decode(bytes.NewReader(raw)); webpErr == nil {
		return decoded, nil
	}
	return nil, err
}

// drawLogo fits the logo into the left column box, keeping its aspect ratio.
func (c *Canvas) drawLogo(logo image.Image) {
	bounds := logo.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return
	}
	w, h := logoMaxWidth, bounds.Dy()*logoMaxWidth/bounds.Dx()
	if h > logoMaxHeight {
		w, h = bounds.Dx()*logoMaxHeight/bounds.Dy(), logoMaxHeight
	}
	x0 := leftCenter - w/2
	y0 := logoTop + (logoMaxHeight-h)/2
	dst := image.Rect(x0*Scale, y0*Scale, (x0+w)*Scale, (y0+h)*Scale)
	xdraw.CatmullRom.Scale(c.img, dst, logo, bounds, xdraw.Over, nil)
}
