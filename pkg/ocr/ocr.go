package ocr

import (
	"context"
	"fmt"
	"log"
	"time"

	"ocrpipeline/pkg/upload"
)

// Engine is an external OCR engine exposing an image-to-text operation.
// image is PNG-encoded.
type Engine interface {
	ImageToText(ctx context.Context, image []byte) (string, error)
}

// EngineFunc adapts a plain function to Engine.
type EngineFunc func(ctx context.Context, image []byte) (string, error)

func (f EngineFunc) ImageToText(ctx context.Context, image []byte) (string, error) {
	return f(ctx, image)
}

// Invoker runs one synchronous extraction per call. It never returns a Go
// error: every failure is folded into the Result.
type Invoker struct {
	engine Engine
}

// NewInvoker returns an Invoker backed by engine.
func NewInvoker(engine Engine) *Invoker {
	return &Invoker{engine: engine}
}

// Extract passes img to the engine and returns Ok with the engine's text
// unchanged, or Err(KindExtraction, msg). No retry, no deadline.
func (inv *Invoker) Extract(ctx context.Context, img *upload.UploadedImage) (res Result) {
	if img == nil || img.Image == nil {
		return Err(KindExtraction, ErrNoImage.Error())
	}
	if inv.engine == nil {
		return Err(KindExtraction, "no OCR engine configured")
	}
	start := time.Now()
	// engine bindings are cgo; a panic there must not take the request down
	defer func() {
		if p := recover(); p != nil {
			log.Printf("OCR engine panic on %s (%s): %v", img.Name, img.ShortFingerprint(), p)
			res = Err(KindExtraction, fmt.Sprint(p))
		}
	}()
	data, err := upload.EngineBytes(img)
	if err != nil {
		return Err(KindExtraction, err.Error())
	}
	text, err := inv.engine.ImageToText(ctx, data)
	if err != nil {
		log.Printf("OCR failed file=%s fp=%s dur=%s err=%v", img.Name, img.ShortFingerprint(), time.Since(start), err)
		return Err(KindExtraction, err.Error())
	}
	log.Printf("OCR ok file=%s fp=%s size=%dx%d chars=%d dur=%s", img.Name, img.ShortFingerprint(), img.Width, img.Height, len(text), time.Since(start))
	return Ok(text)
}

// DecodeFailure converts an upload error into the Result shown to the user.
func DecodeFailure(err error) Result {
	return Err(KindDecode, err.Error())
}
