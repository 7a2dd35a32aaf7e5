// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

package label

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"time"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// PreviewScale is the default screen pixels per printer dot.
const PreviewScale = 2

var borderColor = color.Gray{Y: 0xC0}

// PNG writes a preview of the label, scale screen pixels per dot. The bitmap
// font is stretched to each field's height, so proportions match the paper
// label while glyph shapes do not.
func PNG(w io.Writer, customerNumber, price string, at time.Time, scale int) error {
	if scale < 1 {
		scale = PreviewScale
	}
	img := Image(customerNumber, price, at, scale)
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode preview: %w", err)
	}
	return nil
}

// Image draws the label into a new RGBA image.
func Image(customerNumber, price string, at time.Time, scale int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, WidthDots*scale, HeightDots*scale))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	drawBorder(dst)

	for _, f := range Layout(customerNumber, price, at) {
		glyphs := textImage(f.Text)
		if glyphs == nil {
			continue
		}
		gb := glyphs.Bounds()
		h := f.Height * scale
		wPx := gb.Dx() * h / gb.Dy()
		x := f.X * scale
		if f.Box > 0 {
			x += (f.Box*scale - wPx) / 2
		}
		y := f.Y * scale
		draw.NearestNeighbor.Scale(dst, image.Rect(x, y, x+wPx, y+h), glyphs, gb, draw.Over, nil)
	}
	return dst
}

// textImage renders s with the 7x13 bitmap face on a transparent canvas.
func textImage(s string) *image.RGBA {
	face := basicfont.Face7x13
	width := font.MeasureString(face, s).Ceil()
	if width == 0 {
		return nil
	}
	m := face.Metrics()
	img := image.NewRGBA(image.Rect(0, 0, width, m.Height.Ceil()))
	d := font.Drawer{
		Dst:  img,
		Src:  image.Black,
		Face: face,
		Dot:  fixed.P(0, m.Ascent.Ceil()),
	}
	d.DrawString(s)
	return img
}

func drawBorder(img *image.RGBA) {
	b := img.Bounds()
	for x := b.Min.X; x < b.Max.X; x++ {
		img.Set(x, b.Min.Y, borderColor)
		img.Set(x, b.Max.Y-1, borderColor)
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		img.Set(b.Min.X, y, borderColor)
		img.Set(b.Max.X-1, y, borderColor)
	}
}
