package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"ocrpipeline/pkg/fixture"
	"ocrpipeline/pkg/ocr"
	"ocrpipeline/pkg/ocr/tesseract"
	"ocrpipeline/pkg/present"
	"ocrpipeline/pkg/upload"
)

func main() {
	f := flag.String("file", "", "image file to OCR (jpg, jpeg or png)")
	lang := flag.String("lang", "eng", "tesseract language(s), e.g. eng or eng+deu")
	sample := flag.String("sample", "", "render this text into a sample PNG and OCR it instead of -file")
	flag.Parse()

	var (
		img *upload.UploadedImage
		err error
	)
	switch {
	case *sample != "":
		img, err = upload.Decode("sample.png", fixture.TextPNG(16+7*len(*sample), 50, *sample))
	case *f != "":
		var data []byte
		data, err = os.ReadFile(*f)
		if err == nil {
			img, err = upload.Decode(*f, data)
		}
	default:
		log.Fatalf("-file or -sample required")
	}
	if err != nil {
		res := ocr.DecodeFailure(err)
		fail(present.Present(&res))
	}

	res := ocr.NewInvoker(tesseract.New(*lang)).Extract(context.Background(), img)
	out := present.Present(&res)
	if !out.ShowText {
		fail(out)
	}
	fmt.Print(out.Text)
}

func fail(out present.Outcome) {
	fmt.Fprintln(os.Stderr, out.Banner.Message)
	fmt.Fprintln(os.Stderr, out.Hint)
	os.Exit(1)
}
