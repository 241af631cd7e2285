package upload

import (
	"bytes"
	"errors"
	"image/png"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"

	"ocrpipeline/pkg/fixture"
)

func TestDecodeAcceptedFormats(t *testing.T) {
	cases := []struct {
		name   string
		data   []byte
		format string
	}{
		{"hello.png", fixture.TextPNG(100, 50, "HELLO"), "png"},
		{"hello.jpg", fixture.TextJPEG(100, 50, "HELLO"), "jpeg"},
		{"HELLO.JPEG", fixture.TextJPEG(100, 50, "HELLO"), "jpeg"},
	}
	for _, tc := range cases {
		img, err := Decode(tc.name, tc.data)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
		if img.Format != tc.format {
			t.Fatalf("%s: format=%s want %s", tc.name, img.Format, tc.format)
		}
		if img.Width != 100 || img.Height != 50 {
			t.Fatalf("%s: got %dx%d want 100x50", tc.name, img.Width, img.Height)
		}
		if len(img.Fingerprint) != 64 {
			t.Fatalf("%s: fingerprint length %d", tc.name, len(img.Fingerprint))
		}
	}
}

func TestDecodeCorruptJPG(t *testing.T) {
	_, err := Decode("scan.jpg", []byte("definitely not an image"))
	if err == nil {
		t.Fatal("expected decode error")
	}
	if !IsDecodeError(err) {
		t.Fatalf("expected *DecodeError got %T %v", err, err)
	}
}

func TestDecodeTruncatedPNG(t *testing.T) {
	data := fixture.TextPNG(100, 50, "HELLO")
	if _, err := Decode("cut.png", data[:len(data)/2]); !IsDecodeError(err) {
		t.Fatalf("expected decode error for truncated png, got %v", err)
	}
}

func TestDecodeRejectsOtherFormats(t *testing.T) {
	// gif content behind a .png name
	if _, err := Decode("fake.png", fixture.TextGIF(40, 20, "X")); !IsDecodeError(err) {
		t.Fatalf("expected decode error got %v", err)
	}
	if _, err := Decode("notes.txt", []byte("hi")); !errors.Is(err, ErrUnsupportedExtension) {
		t.Fatalf("expected ErrUnsupportedExtension got %v", err)
	}
	if _, err := Decode("noext", fixture.TextPNG(10, 10, "")); !errors.Is(err, ErrUnsupportedExtension) {
		t.Fatalf("expected ErrUnsupportedExtension got %v", err)
	}
	if _, err := Decode("empty.png", nil); !errors.Is(err, ErrEmptyUpload) {
		t.Fatalf("expected ErrEmptyUpload got %v", err)
	}
}

func TestFingerprintStable(t *testing.T) {
	data := fixture.TextPNG(100, 50, "HELLO")
	a, _ := Decode("a.png", data)
	b, _ := Decode("b.png", data)
	if a.Fingerprint != b.Fingerprint {
		t.Fatalf("same bytes gave different fingerprints")
	}
	if a.ShortFingerprint() != a.Fingerprint[:12] {
		t.Fatalf("short fingerprint mismatch")
	}
}

func TestFromReaderLimit(t *testing.T) {
	data := fixture.TextPNG(100, 50, "HELLO")
	if _, err := FromReader("big.png", bytes.NewReader(data), int64(len(data)-1)); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge got %v", err)
	}
	if _, err := FromReader("ok.png", bytes.NewReader(data), int64(len(data))); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestFromMultipart(t *testing.T) {
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	w, _ := mw.CreateFormFile("file", "hello.png")
	_, _ = w.Write(fixture.TextPNG(100, 50, "HELLO"))
	_ = mw.Close()
	req := httptest.NewRequest("POST", "/upload", buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if err := req.ParseMultipartForm(1 << 20); err != nil {
		t.Fatalf("parse form: %v", err)
	}
	fh := req.MultipartForm.File["file"][0]
	img, err := FromMultipart(fh, 0)
	if err != nil {
		t.Fatalf("FromMultipart: %v", err)
	}
	if img.Name != "hello.png" || img.Format != "png" {
		t.Fatalf("unexpected image %s/%s", img.Name, img.Format)
	}
}

func TestPreviewDownscales(t *testing.T) {
	img, err := Decode("wide.png", fixture.TextPNG(400, 50, "HELLO"))
	if err != nil {
		t.Fatal(err)
	}
	p, err := Preview(img.Image, 200)
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(p))
	if err != nil {
		t.Fatalf("preview is not png: %v", err)
	}
	if cfg.Width != 200 {
		t.Fatalf("preview width=%d want 200", cfg.Width)
	}
	p2, _ := Preview(img.Image, 0)
	cfg2, _ := png.DecodeConfig(bytes.NewReader(p2))
	if cfg2.Width != 400 {
		t.Fatalf("unscaled preview width=%d want 400", cfg2.Width)
	}
}

func TestEngineBytesIsPNG(t *testing.T) {
	img, _ := Decode("hello.jpg", fixture.TextJPEG(100, 50, "HELLO"))
	b, err := EngineBytes(img)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(b), "\x89PNG") {
		t.Fatalf("engine bytes are not png")
	}
	if _, err := EngineBytes(nil); err == nil {
		t.Fatal("expected error for nil image")
	}
}
