// Package tesseract provides the gosseract-backed OCR engine. It needs
// libtesseract and the trained data for the configured language at runtime.
package tesseract

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"golang.org/x/text/unicode/norm"
)

// Engine implements ocr.Engine with a fresh gosseract client per call.
type Engine struct {
	languages     []string
	clientFactory func() *gosseract.Client
}

// New returns an Engine for the given languages (default "eng").
func New(languages ...string) *Engine {
	langs := make([]string, 0, len(languages))
	for _, l := range languages {
		if l = strings.TrimSpace(l); l != "" {
			langs = append(langs, l)
		}
	}
	if len(langs) == 0 {
		langs = []string{"eng"}
	}
	return &Engine{languages: langs, clientFactory: gosseract.NewClient}
}

func (e *Engine) Name() string { return "tesseract" }

// Languages returns the configured language list.
func (e *Engine) Languages() []string { return append([]string(nil), e.languages...) }

// ImageToText runs Tesseract over an encoded image and returns its UTF-8 text.
func (e *Engine) ImageToText(ctx context.Context, image []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c := e.clientFactory()
	defer c.Close()
	if err := c.SetLanguage(e.languages...); err != nil {
		return "", fmt.Errorf("set language: %w", err)
	}
	if err := c.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	return normalize(text), nil
}

// Version reports the linked libtesseract version.
func (e *Engine) Version() string {
	return gosseract.Version()
}

// normalize makes engine output valid NFC UTF-8 without trimming it.
func normalize(s string) string {
	return norm.NFC.String(strings.ToValidUTF8(s, "\uFFFD"))
}
