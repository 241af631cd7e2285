package present

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// PageTemplate is the name of the page template.
const PageTemplate = "index.html"

//go:embed templates/*.html
var embedded embed.FS

// Renderer holds the current page templates. Templates can be swapped while
// requests are being served.
type Renderer struct {
	tmpl atomic.Pointer[template.Template]
	dir  string
}

// NewRenderer loads templates from dir, or from the embedded copy when dir is empty.
func NewRenderer(dir string) (*Renderer, error) {
	if dir != "" && !templateDirExists(dir) {
		return nil, fmt.Errorf("template dir %s: not a directory", dir)
	}
	r := &Renderer{dir: dir}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Template returns the current template set.
func (r *Renderer) Template() *template.Template { return r.tmpl.Load() }

// Reload parses the templates again. On error the previous set stays active.
func (r *Renderer) Reload() error {
	var (
		t   *template.Template
		err error
	)
	if r.dir == "" {
		t, err = template.ParseFS(embedded, "templates/*.html")
	} else {
		t, err = template.ParseGlob(filepath.Join(r.dir, "*.html"))
	}
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}
	if t.Lookup(PageTemplate) == nil {
		return fmt.Errorf("parse templates: %s missing", PageTemplate)
	}
	r.tmpl.Store(t)
	return nil
}

// Render writes the page for v.
func (r *Renderer) Render(w io.Writer, v View) error {
	return r.Template().ExecuteTemplate(w, PageTemplate, v)
}

// Watch reloads templates when files in the template directory change. It
// returns when ctx is done. Without a template directory it returns at once.
func (r *Renderer) Watch(ctx context.Context) error {
	if r.dir == "" {
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(r.dir); err != nil {
		return err
	}
	log.Printf("watching templates in %s", r.dir)

	// editors write in bursts; reload once things settle
	var pending bool
	var last time.Time
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Ext(ev.Name) != ".html" {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
				pending = true
				last = time.Now()
			}
		case <-ticker.C:
			if pending && time.Since(last) > 150*time.Millisecond {
				pending = false
				if err := r.Reload(); err != nil {
					log.Printf("template reload failed, keeping previous: %v", err)
				} else {
					log.Printf("templates reloaded from %s", r.dir)
				}
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Printf("template watch error: %v", err)
		}
	}
}

// templateDirExists reports whether dir is a readable directory.
func templateDirExists(dir string) bool {
	fi, err := os.Stat(dir)
	return err == nil && fi.IsDir()
}
