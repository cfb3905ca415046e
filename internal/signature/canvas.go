package signature

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	stddraw "image/draw"
	_ "image/jpeg"
	"image/png"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Logical canvas size; the backing image is Scale times larger.
const (
	Width  = 600
	Height = 200
	Scale  = 2
)

var (
	parseFonts sync.Once
	regular    *opentype.Font
	bold       *opentype.Font
	fontErr    error
)

func loadFonts() error {
	parseFonts.Do(func() {
		if regular, fontErr = opentype.Parse(goregular.TTF); fontErr != nil {
			return
		}
		bold, fontErr = opentype.Parse(gobold.TTF)
	})
	return fontErr
}

type faceKey struct {
	bold bool
	size float64
}

// Canvas is a white signature surface with cached font faces.
type Canvas struct {
	img   *image.RGBA
	faces map[faceKey]font.Face
}

// NewCanvas allocates a blank canvas.
func NewCanvas() (*Canvas, error) {
	if err := loadFonts(); err != nil {
		return nil, fmt.Errorf("failed to parse fonts: %w", err)
	}
	img := image.NewRGBA(image.Rect(0, 0, Width*Scale, Height*Scale))
	stddraw.Draw(img, img.Bounds(), image.White, image.Point{}, stddraw.Src)
	return &Canvas{img: img, faces: make(map[faceKey]font.Face)}, nil
}

// Image returns the backing image.
func (c *Canvas) Image() *image.RGBA {
	return c.img
}

// Close releases the cached font faces.
func (c *Canvas) Close() error {
	for key, face := range c.faces {
		face.Close()
		delete(c.faces, key)
	}
	return nil
}

func (c *Canvas) face(isBold bool, size float64) font.Face {
	key := faceKey{bold: isBold, size: size}
	if face, ok := c.faces[key]; ok {
		return face
	}
	source := regular
	if isBold {
		source = bold
	}
	face, err := opentype.NewFace(source, &opentype.FaceOptions{
		Size:    size * Scale,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return basicfont.Face7x13
	}
	c.faces[key] = face
	return face
}

func (c *Canvas) textWidth(face font.Face, text string) int {
	return font.MeasureString(face, text).Round() / Scale
}

// text draws at logical coordinates with (x, y) on the baseline.
func (c *Canvas) text(x, y int, text string, face font.Face, col color.Color) {
	d := &font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(x*Scale, y*Scale),
	}
	d.DrawString(text)
}

func (c *Canvas) centeredText(centerX, y int, text string, face font.Face, col color.Color) {
	c.text(centerX-c.textWidth(face, text)/2, y, text, face, col)
}

func (c *Canvas) fill(x0, y0, x1, y1 int, col color.Color) {
	r := image.Rect(x0*Scale, y0*Scale, x1*Scale, y1*Scale)
	stddraw.Draw(c.img, r, image.NewUniform(col), image.Point{}, stddraw.Src)
}

const dash, gap = 4, 4

func (c *Canvas) dashedVertical(x, y0, y1 int, col color.Color) {
	for y := y0; y < y1; y += dash + gap {
		c.fill(x, y, x+1, min(y+dash, y1), col)
	}
}

func (c *Canvas) dashedHorizontal(x0, x1, y int, col color.Color) {
	for x := x0; x < x1; x += dash + gap {
		c.fill(x, y, min(x+dash, x1), y+1, col)
	}
}

// EncodeDataURL encodes img as a data:image/png;base64 URL.
func EncodeDataURL(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode png: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
