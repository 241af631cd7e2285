// Package fixture renders small text images used by tests and the ocr_image tool.
package fixture

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// TextImage draws text in black on a white w x h canvas using the 7x13 basic font.
func TextImage(w, h int, text string) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	d := &font.Drawer{
		Dst:  img,
		Src:  image.Black,
		Face: basicfont.Face7x13,
		Dot:  fixed.P(8, h/2+5),
	}
	d.DrawString(text)
	return img
}

// TextPNG returns TextImage encoded as PNG.
func TextPNG(w, h int, text string) []byte {
	return encode(TextImage(w, h, text), imaging.PNG)
}

// TextJPEG returns TextImage encoded as JPEG.
func TextJPEG(w, h int, text string) []byte {
	return encode(TextImage(w, h, text), imaging.JPEG)
}

// TextGIF returns TextImage encoded as GIF, a format uploads must reject.
func TextGIF(w, h int, text string) []byte {
	return encode(TextImage(w, h, text), imaging.GIF)
}

func encode(img image.Image, f imaging.Format) []byte {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, f); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
