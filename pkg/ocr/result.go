package ocr

// Kind classifies a failed extraction for display.
type Kind string

const (
	// KindExtraction covers every OCR engine failure: engine missing, unsupported image, internal error.
	KindExtraction Kind = "extraction"
	// KindDecode marks uploads whose bytes are not a valid jpeg/png image.
	KindDecode Kind = "decode"
)

// Failure is the error branch of a Result.
type Failure struct {
	Kind    Kind
	Message string
}

// Result is either Ok(text) or Err(kind, message), never both. The zero
// value is Ok("").
type Result struct {
	text    string
	failure *Failure
}

// Ok returns a successful result carrying text (which may be empty).
func Ok(text string) Result { return Result{text: text} }

// Err returns a failed result.
func Err(kind Kind, message string) Result {
	return Result{failure: &Failure{Kind: kind, Message: message}}
}

// IsOk reports whether the result carries text.
func (r Result) IsOk() bool { return r.failure == nil }

// Text returns the extracted text and true for Ok results.
func (r Result) Text() (string, bool) {
	if r.failure != nil {
		return "", false
	}
	return r.text, true
}

// Failure returns the failure and true for Err results.
func (r Result) Failure() (Failure, bool) {
	if r.failure == nil {
		return Failure{}, false
	}
	return *r.failure, true
}

func (r Result) String() string {
	if f, ok := r.Failure(); ok {
		return "Err(" + string(f.Kind) + ", " + f.Message + ")"
	}
	return "Ok(" + r.text + ")"
}
