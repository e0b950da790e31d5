// Package chart draws the confidence bar shown next to a prediction.
package chart

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
	log "github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// 8x2 inches at 100 dpi.
const (
	Width  = 800
	Height = 200
)

const (
	plotLeft   = 40
	plotRight  = Width - 40
	plotWidth  = plotRight - plotLeft
	barTop     = 30
	barBottom  = 120
	axisY      = 130
	tickLength = 6
)

var (
	confidentColor = color.NRGBA{R: 0x51, G: 0xcf, B: 0x66, A: 178}
	remainderColor = color.NRGBA{R: 0xff, G: 0x6b, B: 0x6b, A: 178}
	axisColor      = color.NRGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xff}
	labelColor     = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

// Segments splits the bar into the confident part and the remainder, both in
// percent of the bar width. Out of range input is clamped to [0, 1].
func Segments(confidence float64) (float64, float64) {
	c := clamp(confidence)
	confident := c * 100
	return confident, 100 - confident
}

// Render draws the chart and returns it as a base64 encoded PNG.
func Render(confidence float64) (chart string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("chart rendering panicked: %v", r)
		}
		if err != nil {
			log.Error("[Chart] Chart creation error: ", err.Error())
		}
	}()

	img := Draw(confidence)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return "", fmt.Errorf("couldn't encode chart: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Draw renders the horizontal stacked bar on a transparent canvas.
func Draw(confidence float64) *image.NRGBA {
	c := clamp(confidence)
	dst := image.NewNRGBA(image.Rect(0, 0, Width, Height))

	split := plotLeft + int(math.Round(c*plotWidth))
	fill(dst, image.Rect(plotLeft, barTop, split, barBottom), confidentColor)
	fill(dst, image.Rect(split, barTop, plotRight, barBottom), remainderColor)

	// x axis with ticks every 20%
	fill(dst, image.Rect(plotLeft, axisY, plotRight+1, axisY+1), axisColor)
	for pct := 0; pct <= 100; pct += 20 {
		x := plotLeft + pct*plotWidth/100
		fill(dst, image.Rect(x, axisY, x+1, axisY+tickLength), axisColor)

		tick := text(fmt.Sprintf("%d", pct), axisColor, 1, false)
		dst = imaging.Overlay(dst, tick, image.Pt(x-tick.Bounds().Dx()/2, axisY+tickLength+2), 1.0)
	}

	caption := text("Confidence (%)", axisColor, 1, false)
	dst = imaging.Overlay(dst, caption, image.Pt((Width-caption.Bounds().Dx())/2, Height-caption.Bounds().Dy()-12), 1.0)

	label := text(fmt.Sprintf("%.1f%%", c*100), labelColor, 2, true)
	center := image.Pt(plotLeft+plotWidth/2, (barTop+barBottom)/2)
	dst = imaging.Overlay(dst, label, center.Sub(image.Pt(label.Bounds().Dx()/2, label.Bounds().Dy()/2)), 1.0)

	return dst
}

func fill(dst *image.NRGBA, r image.Rectangle, c color.NRGBA) {
	draw.Draw(dst, r, image.NewUniform(c), image.Point{}, draw.Src)
}

// text renders s with the 7x13 bitmap face, scaled by an integer factor.
// Bold is faked by drawing the string twice, one pixel apart.
func text(s string, c color.Color, scale int, bold bool) *image.NRGBA {
	face := basicfont.Face7x13
	d := &font.Drawer{Face: face, Src: image.NewUniform(c)}

	w := d.MeasureString(s).Ceil()
	if bold {
		w++
	}
	h := face.Metrics().Height.Ceil()
	ascent := face.Metrics().Ascent.Ceil()

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	d.Dst = img
	d.Dot = fixed.P(0, ascent)
	d.DrawString(s)
	if bold {
		d.Dot = fixed.P(1, ascent)
		d.DrawString(s)
	}

	if scale > 1 {
		return imaging.Resize(img, w*scale, h*scale, imaging.NearestNeighbor)
	}
	return img
}

func clamp(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
