package ui

import (
	"image"
	"image/color"
	"strings"
	"unicode/utf8"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// Palette.
var (
	colorBackground = color.RGBA{0x0b, 0x10, 0x18, 0xff}
	colorPanel      = color.RGBA{0x14, 0x1b, 0x26, 0xff}
	colorPanelEdge  = color.RGBA{0x22, 0x2c, 0x3a, 0xff}
	colorText       = color.RGBA{0xf2, 0xf4, 0xf7, 0xff}
	colorMuted      = color.RGBA{0x84, 0x90, 0xa0, 0xff}
	colorAccent     = color.RGBA{0xd2, 0x77, 0x4a, 0xff}
	colorBlue       = color.RGBA{0x2f, 0x6d, 0xb3, 0xff}
	colorError      = color.RGBA{0x8a, 0x2a, 0x2a, 0xff}
	colorDisabled   = color.RGBA{0x3a, 0x42, 0x4e, 0xff}
	colorInput      = color.RGBA{0x0e, 0x14, 0x1d, 0xff}
	colorFocus      = color.RGBA{0x5b, 0x9b, 0xe6, 0xff}
	colorUserBubble = color.RGBA{0x2f, 0x6d, 0xb3, 0xff}
	colorBotBubble  = color.RGBA{0x23, 0x2d, 0x3b, 0xff}

	colorMapLand  = color.RGBA{0xe9, 0xe7, 0xe1, 0xff}
	colorMapWater = color.RGBA{0xb7, 0xd0, 0xe3, 0xff}
	colorShore    = color.RGBA{0x8f, 0xa9, 0xbd, 0xff}
	colorPopup    = color.RGBA{0xff, 0xff, 0xff, 0xf0}
	colorInk      = color.RGBA{0x1a, 0x20, 0x2a, 0xff}
	colorInkMuted = color.RGBA{0x55, 0x5f, 0x6d, 0xff}
)

// rect is a screen-space hit box.
type rect struct {
	x, y, w, h float32
}

func (r rect) contains(px, py int) bool {
	x, y := float32(px), float32(py)
	return x >= r.x && x < r.x+r.w && y >= r.y && y < r.y+r.h
}

func toImageRect(r rect) image.Rectangle {
	return image.Rect(int(r.x), int(r.y), int(r.x+r.w), int(r.y+r.h))
}

// drawRoundedRect draws a filled rounded rectangle.
func drawRoundedRect(screen *ebiten.Image, x, y, w, h, r float32, clr color.Color) {
	// Center fill
	vector.DrawFilledRect(screen, x+r, y, w-2*r, h, clr, true)
	// Left fill
	vector.DrawFilledRect(screen, x, y+r, r, h-2*r, clr, true)
	// Right fill
	vector.DrawFilledRect(screen, x+w-r, y+r, r, h-2*r, clr, true)
	// Four corners
	vector.DrawFilledCircle(screen, x+r, y+r, r, clr, true)
	vector.DrawFilledCircle(screen, x+w-r, y+r, r, clr, true)
	vector.DrawFilledCircle(screen, x+r, y+h-r, r, clr, true)
	vector.DrawFilledCircle(screen, x+w-r, y+h-r, r, clr, true)
}

func drawPanel(screen *ebiten.Image, r rect) {
	drawRoundedRect(screen, r.x, r.y, r.w, r.h, 10, colorPanelEdge)
	drawRoundedRect(screen, r.x+1, r.y+1, r.w-2, r.h-2, 9, colorPanel)
}

// drawButton draws a button and returns its hit box.
func drawButton(screen *ebiten.Image, label string, x, y float32, face *text.GoTextFace, bg color.Color, enabled bool) rect {
	w := float32(textWidth(label, face)) + 28
	r := rect{x: x, y: y, w: w, h: 32}
	if !enabled {
		bg = colorDisabled
	}
	drawRoundedRect(screen, r.x, r.y, r.w, r.h, 8, bg)
	clr := color.Color(colorText)
	if !enabled {
		clr = colorMuted
	}
	drawTextCentered(screen, label, float64(r.x+r.w/2), float64(r.y)+8, face, clr)
	return r
}

// drawInput draws a single-line text box with an optional caret.
func drawInput(screen *ebiten.Image, r rect, value, placeholder string, focused, caret bool, face *text.GoTextFace) {
	edge := color.Color(colorPanelEdge)
	if focused {
		edge = colorFocus
	}
	drawRoundedRect(screen, r.x, r.y, r.w, r.h, 6, edge)
	drawRoundedRect(screen, r.x+1, r.y+1, r.w-2, r.h-2, 5, colorInput)

	shown := value
	clr := color.Color(colorText)
	if value == "" && !focused {
		shown, clr = placeholder, colorMuted
	}
	// Keep the tail visible when the value overflows.
	for shown != "" && textWidth(shown, face) > float64(r.w-20) {
		_, size := utf8.DecodeRuneInString(shown)
		shown = shown[size:]
	}
	ty := float64(r.y + r.h/2 - 9)
	drawText(screen, shown, float64(r.x)+10, ty, face, clr)
	if focused && caret {
		cx := r.x + 10 + float32(textWidth(shown, face)) + 1
		vector.DrawFilledRect(screen, cx, r.y+7, 2, r.h-14, colorText, false)
	}
}

// drawText is a helper to draw text at a given position.
func drawText(screen *ebiten.Image, s string, x, y float64, face *text.GoTextFace, clr color.Color) {
	if face == nil {
		return
	}
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(clr)
	text.Draw(screen, s, face, op)
}

func drawTextCentered(screen *ebiten.Image, s string, x, y float64, face *text.GoTextFace, clr color.Color) {
	if face == nil {
		return
	}
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(clr)
	op.PrimaryAlign = text.AlignCenter
	text.Draw(screen, s, face, op)
}

func drawTextRight(screen *ebiten.Image, s string, x, y float64, face *text.GoTextFace, clr color.Color) {
	if face == nil {
		return
	}
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(clr)
	op.PrimaryAlign = text.AlignEnd
	text.Draw(screen, s, face, op)
}

// textWidth measures the pixel width of a string with the given font face.
func textWidth(s string, face *text.GoTextFace) float64 {
	if face == nil {
		return 0
	}
	w, _ := text.Measure(s, face, 0)
	return w
}

// wrapText breaks s into lines no wider than maxW. Words longer than a
// line are kept whole.
func wrapText(s string, face *text.GoTextFace, maxW float64) []string {
	var lines []string
	for _, para := range strings.Split(s, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		line := words[0]
		for _, w := range words[1:] {
			if textWidth(line+" "+w, face) > maxW {
				lines = append(lines, line)
				line = w
				continue
			}
			line += " " + w
		}
		lines = append(lines, line)
	}
	return lines
}
