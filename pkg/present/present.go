// Package present turns session state into the page view model and renders it.
package present

import (
	"fmt"

	"ocrpipeline/pkg/ocr"
	"ocrpipeline/pkg/upload"
)

// Static page copy.
const (
	Title       = "OCR Extraction App"
	PageTitle   = "OCR Pipeline"
	Icon        = "📄"
	Description = "Upload an image to extract text using Tesseract OCR."
	Accept      = ".jpg,.png,.jpeg"
	Caption     = "Uploaded Image"
	ButtonLabel = "Extract Text"
	Spinner     = "Processing..."

	SuccessMessage = "Extraction Complete!"
	TextLabel      = "Extracted Text"
	TextHeight     = 300

	EngineHint = "Note: make sure the Tesseract OCR engine is installed and on the PATH."
	DecodeHint = "Upload a valid JPG or PNG image."
)

// Banner kinds.
const (
	BannerSuccess = "success"
	BannerError   = "error"
)

// Banner is a status line above the result.
type Banner struct {
	Kind    string
	Message string
}

// Outcome is the presentation of one Result.
type Outcome struct {
	Banner     *Banner
	Hint       string
	ShowText   bool
	TextLabel  string
	Text       string
	TextHeight int
}

// View is everything the page template needs.
type View struct {
	PageTitle   string
	Title       string
	Icon        string
	Description string
	Accept      string
	ButtonLabel string
	Spinner     string

	HasImage  bool
	ImageURL  string
	Caption   string
	ImageName string
	ImageInfo string

	Outcome
}

// Present maps a result onto its banner, hint and text box. A nil result
// shows nothing; an Ok result never carries a hint, an Err never a text box.
func Present(r *ocr.Result) Outcome {
	if r == nil {
		return Outcome{}
	}
	if text, ok := r.Text(); ok {
		return Outcome{
			Banner:     &Banner{Kind: BannerSuccess, Message: SuccessMessage},
			ShowText:   true,
			TextLabel:  TextLabel,
			Text:       text,
			TextHeight: TextHeight,
		}
	}
	f, _ := r.Failure()
	if f.Kind == ocr.KindDecode {
		return Outcome{
			Banner: &Banner{Kind: BannerError, Message: "Could not read image: " + f.Message},
			Hint:   DecodeHint,
		}
	}
	return Outcome{
		Banner: &Banner{Kind: BannerError, Message: "Error: " + f.Message},
		Hint:   EngineHint,
	}
}

// Page builds the full page view for an optional image and result.
func Page(img *upload.UploadedImage, r *ocr.Result, imageURL string) View {
	v := View{
		PageTitle:   PageTitle,
		Title:       Title,
		Icon:        Icon,
		Description: Description,
		Accept:      Accept,
		ButtonLabel: ButtonLabel,
		Spinner:     Spinner,
		Outcome:     Present(r),
	}
	if img != nil {
		v.HasImage = true
		v.ImageURL = imageURL
		v.Caption = Caption
		v.ImageName = img.Name
		v.ImageInfo = fmt.Sprintf("%s, %dx%d, %s", img.Format, img.Width, img.Height, humanBytes(img.Size()))
	}
	return v
}

func humanBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d B", n)
}
