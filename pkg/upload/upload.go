package upload

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/crypto/blake2b"
)

// DefaultMaxBytes caps a single upload when the caller passes a non-positive limit.
const DefaultMaxBytes = 10 << 20

// UploadedImage is a decoded upload held for the lifetime of one session.
type UploadedImage struct {
	Name        string
	Format      string // "jpeg" or "png"
	Raw         []byte
	Image       image.Image
	Width       int
	Height      int
	Fingerprint string // hex BLAKE2b-256 of Raw
	// Preview holds the encoded PNG served to the browser. Filled by the caller.
	Preview []byte
}

// Size returns the raw upload size in bytes.
func (u *UploadedImage) Size() int { return len(u.Raw) }

// ShortFingerprint is the first 12 hex chars of the fingerprint, for logs.
func (u *UploadedImage) ShortFingerprint() string {
	if len(u.Fingerprint) <= 12 {
		return u.Fingerprint
	}
	return u.Fingerprint[:12]
}

// formatForName maps a file name onto the accepted formats.
func formatForName(name string) (imaging.Format, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	switch ext {
	case "jpg", "jpeg", "png":
	default:
		return 0, ErrUnsupportedExtension
	}
	f, err := imaging.FormatFromExtension(ext)
	if err != nil {
		return 0, ErrUnsupportedExtension
	}
	return f, nil
}

// AllowedName reports whether name carries one of the accepted extensions.
func AllowedName(name string) bool {
	_, err := formatForName(name)
	return err == nil
}

// Decode validates the extension of name and decodes data into an image.
// EXIF orientation is applied so the preview and the OCR input match what
// the user sees.
func Decode(name string, data []byte) (*UploadedImage, error) {
	if _, err := formatForName(name); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrEmptyUpload
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{Name: name, Cause: err}
	}
	if format != "jpeg" && format != "png" {
		return nil, &DecodeError{Name: name, Cause: fmt.Errorf("content is %s, not jpeg or png", format)}
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, &DecodeError{Name: name, Cause: err}
	}
	sum := blake2b.Sum256(data)
	b := img.Bounds()
	return &UploadedImage{
		Name:        filepath.Base(name),
		Format:      format,
		Raw:         data,
		Image:       img,
		Width:       b.Dx(),
		Height:      b.Dy(),
		Fingerprint: hex.EncodeToString(sum[:]),
	}, nil
}

// FromMultipart reads a form file (bounded by maxBytes) and decodes it.
func FromMultipart(fh *multipart.FileHeader, maxBytes int64) (*UploadedImage, error) {
	if fh == nil {
		return nil, ErrEmptyUpload
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if !AllowedName(fh.Filename) {
		return nil, ErrUnsupportedExtension
	}
	if fh.Size > maxBytes {
		return nil, fmt.Errorf("%w (max %d bytes)", ErrTooLarge, maxBytes)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	return FromReader(fh.Filename, f, maxBytes)
}

// FromReader reads at most maxBytes from r and decodes the result.
func FromReader(name string, r io.Reader, maxBytes int64) (*UploadedImage, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w (max %d bytes)", ErrTooLarge, maxBytes)
	}
	return Decode(name, data)
}

// Preview encodes img as PNG, downscaled to maxWidth when wider. A
// non-positive maxWidth keeps the original size.
func Preview(img image.Image, maxWidth int) ([]byte, error) {
	if img == nil {
		return nil, errors.New("nil image")
	}
	if maxWidth > 0 && img.Bounds().Dx() > maxWidth {
		img = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode preview: %w", err)
	}
	return buf.Bytes(), nil
}

// EngineBytes encodes the decoded pixels as PNG, the input format handed to
// the OCR engine.
func EngineBytes(u *UploadedImage) ([]byte, error) {
	if u == nil || u.Image == nil {
		return nil, errors.New("nil image")
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, u.Image, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
