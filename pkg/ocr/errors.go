package ocr

import "errors"

// ErrNoImage is reported when extraction is requested before any image was uploaded.
var ErrNoImage = errors.New("no image uploaded")
