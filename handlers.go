package main

import (
	"errors"
	"log"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"ocrpipeline/models"
	"ocrpipeline/pkg/ocr"
	"ocrpipeline/pkg/present"
	"ocrpipeline/pkg/session"
	"ocrpipeline/pkg/upload"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
)

const sessionKey = "session"

// multipartOverhead is the allowance for multipart headers and boundaries on
// top of MaxUploadBytes.
const multipartOverhead = 1 << 20

// app carries the handler dependencies.
type app struct {
	cfg      Config
	store    *session.Store
	signer   *session.Signer
	invoker  *ocr.Invoker
	renderer *present.Renderer
	engine   string // engine name/version for /healthz
}

func setupRoutes(r *gin.Engine, a *app) {
	r.MaxMultipartMemory = a.cfg.MaxUploadBytes
	r.GET("/healthz", a.healthHandler)
	r.POST("/api/extract", a.apiExtractHandler)

	ui := r.Group("")
	ui.Use(a.sessionMiddleware())
	ui.GET("/", a.indexHandler)
	ui.POST("/upload", a.uploadHandler)
	ui.GET("/image", a.imageHandler)
	ui.POST("/extract", a.extractHandler)
	ui.POST("/session/end", a.endSessionHandler)
}

// sessionMiddleware resolves the caller's session from the signed cookie,
// starting a new one when the cookie is missing, invalid or expired.
func (a *app) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		var s *session.Session
		if tok, err := c.Cookie(session.CookieName); err == nil && tok != "" {
			if sid, err := a.signer.Verify(tok); err == nil {
				s, _ = a.store.Get(sid)
			}
		}
		if s == nil {
			s = a.store.Create()
			tok, err := a.signer.Sign(s.ID)
			if err != nil {
				a.store.End(s.ID)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start session"})
				c.Abort()
				return
			}
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(session.CookieName, tok, int(a.signer.TTL().Seconds()), "/", "", a.secureCookie(c), true)
			log.Printf("session %s started (live=%d)", shortID(s.ID), a.store.Len())
		}
		c.Set(sessionKey, s)
		c.Next()
	}
}

// secureCookie reports whether the session cookie gets the Secure flag.
func (a *app) secureCookie(c *gin.Context) bool {
	return a.cfg.CookieSecure || c.Request.TLS != nil
}

// limitBody caps the request body so an oversized upload is cut off while
// the multipart form is parsed instead of spilling to disk first.
func (a *app) limitBody(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, a.cfg.MaxUploadBytes+multipartOverhead)
}

// formFile returns the "file" part, mapping a cut-off body to upload.ErrTooLarge.
func formFile(c *gin.Context) (*multipart.FileHeader, error) {
	fh, err := c.FormFile("file")
	if err == nil {
		return fh, nil
	}
	var mbe *http.MaxBytesError
	// mime/multipart does not always wrap the reader error
	if errors.As(err, &mbe) || strings.Contains(err.Error(), "request body too large") {
		return nil, upload.ErrTooLarge
	}
	return nil, errors.New("file missing")
}

func currentSession(c *gin.Context) *session.Session {
	v, _ := c.Get(sessionKey)
	s, _ := v.(*session.Session)
	return s
}

func (a *app) indexHandler(c *gin.Context) {
	snap := currentSession(c).Snapshot()
	imageURL := ""
	if snap.Image != nil {
		// fingerprint in the query busts the browser cache on re-upload
		imageURL = "/image?v=" + snap.Image.ShortFingerprint()
	}
	view := present.Page(snap.Image, snap.Result, imageURL)
	c.Header("Cache-Control", "no-store")
	c.Render(http.StatusOK, render.HTML{Template: a.renderer.Template(), Name: present.PageTemplate, Data: view})
}

// uploadHandler decodes the posted image and makes it the session's current image.
func (a *app) uploadHandler(c *gin.Context) {
	s := currentSession(c)
	a.limitBody(c)
	fh, err := formFile(c)
	if err != nil {
		log.Printf("upload rejected session=%s: %v", shortID(s.ID), err)
		s.Lock()
		s.Reject(ocr.DecodeFailure(err))
		s.Unlock()
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	start := time.Now()
	img, err := upload.FromMultipart(fh, a.cfg.MaxUploadBytes)
	if err == nil {
		img.Preview, err = upload.Preview(img.Image, a.cfg.PreviewMaxWidth)
	}
	// wait for an in-flight extraction so its result cannot land on the new image
	s.Lock()
	defer s.Unlock()
	if err != nil {
		log.Printf("upload rejected session=%s file=%q: %v", shortID(s.ID), fh.Filename, err)
		res := ocr.DecodeFailure(err)
		s.Reject(res)
		recordEvent(c.Request.Context(), newEvent(s.ID, &upload.UploadedImage{Name: fh.Filename}, res, time.Since(start)))
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	s.SetImage(img)
	log.Printf("upload ok session=%s file=%q format=%s size=%dx%d bytes=%d fp=%s", shortID(s.ID), img.Name, img.Format, img.Width, img.Height, img.Size(), img.ShortFingerprint())
	c.Redirect(http.StatusSeeOther, "/")
}

func (a *app) imageHandler(c *gin.Context) {
	img := currentSession(c).Image()
	if img == nil || len(img.Preview) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no image uploaded"})
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", img.Preview)
}

// extractHandler runs OCR on the session image. The session lock keeps one
// extraction in flight per session and holds off uploads and session end
// until the result is stored; the call blocks until the engine returns.
func (a *app) extractHandler(c *gin.Context) {
	s := currentSession(c)
	s.Lock()
	defer s.Unlock()
	img := s.Image()
	start := time.Now()
	res := a.invoker.Extract(c.Request.Context(), img)
	s.SetResult(res)
	if img != nil {
		recordEvent(c.Request.Context(), newEvent(s.ID, img, res, time.Since(start)))
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (a *app) endSessionHandler(c *gin.Context) {
	s := currentSession(c)
	s.Lock()
	a.store.End(s.ID)
	s.Unlock()
	c.SetCookie(session.CookieName, "", -1, "/", "", a.secureCookie(c), true)
	log.Printf("session %s ended (live=%d)", shortID(s.ID), a.store.Len())
	c.Redirect(http.StatusSeeOther, "/")
}

// apiExtractHandler is the stateless JSON variant: upload and extract in one request.
func (a *app) apiExtractHandler(c *gin.Context) {
	a.limitBody(c)
	fh, err := formFile(c)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, upload.ErrTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		c.JSON(status, gin.H{"error": err.Error(), "kind": ocr.KindDecode, "hint": present.DecodeHint})
		return
	}
	start := time.Now()
	img, err := upload.FromMultipart(fh, a.cfg.MaxUploadBytes)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, upload.ErrTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		res := ocr.DecodeFailure(err)
		recordEvent(c.Request.Context(), newEvent("api", &upload.UploadedImage{Name: fh.Filename}, res, time.Since(start)))
		c.JSON(status, gin.H{"error": err.Error(), "kind": ocr.KindDecode, "hint": present.Present(&res).Hint})
		return
	}
	res := a.invoker.Extract(c.Request.Context(), img)
	recordEvent(c.Request.Context(), newEvent("api", img, res, time.Since(start)))
	if f, failed := res.Failure(); failed {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": f.Message, "kind": f.Kind, "hint": present.Present(&res).Hint})
		return
	}
	text, _ := res.Text()
	c.JSON(http.StatusOK, gin.H{
		"text":        text,
		"file_name":   img.Name,
		"format":      img.Format,
		"width":       img.Width,
		"height":      img.Height,
		"fingerprint": img.Fingerprint,
	})
}

func (a *app) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "engine": a.engine, "sessions": a.store.Len(), "event_log": db != nil})
}

func newEvent(sid string, img *upload.UploadedImage, res ocr.Result, dur time.Duration) *models.ExtractionEvent {
	ev := &models.ExtractionEvent{
		SessionID:   sid,
		FileName:    img.Name,
		Format:      img.Format,
		Width:       img.Width,
		Height:      img.Height,
		Bytes:       img.Size(),
		Fingerprint: img.Fingerprint,
		Outcome:     "ok",
		DurationMS:  dur.Milliseconds(),
	}
	if f, failed := res.Failure(); failed {
		ev.Outcome = string(f.Kind)
		ev.Message = f.Message
		if len(ev.Message) > 512 {
			ev.Message = ev.Message[:512]
		}
	} else {
		text, _ := res.Text()
		ev.TextLength = len(text)
	}
	return ev
}
