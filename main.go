package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ocrpipeline/pkg/ocr"
	"ocrpipeline/pkg/ocr/tesseract"
	"ocrpipeline/pkg/present"
	"ocrpipeline/pkg/session"

	"github.com/gin-gonic/gin"
)

func main() {
	// Auto-load ./.env if present before reading vars
	loadDotEnv(".env")
	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// `./ocrpipeline migrate` runs the event log migration and exits.
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := migrateDB(cfg); err != nil {
			log.Fatalf("migration failed: %v", err)
		}
		log.Println("migration completed")
		return
	}

	initDB(cfg)

	renderer, err := present.NewRenderer(cfg.TemplateDir)
	if err != nil {
		log.Fatalf("templates: %v", err)
	}
	engine := tesseract.New(cfg.OCRLanguages()...)
	a := &app{
		cfg:      cfg,
		store:    session.NewStore(cfg.SessionTimeout()),
		signer:   session.NewSigner([]byte(cfg.SessionSecret), 24*time.Hour),
		invoker:  ocr.NewInvoker(engine),
		renderer: renderer,
		engine:   engine.Name() + " " + engine.Version(),
	}
	log.Printf("OCR engine %s languages=%v", a.engine, engine.Languages())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go a.store.Run(ctx, time.Minute)
	go func() {
		if err := renderer.Watch(ctx); err != nil {
			log.Printf("template watch stopped: %v", err)
		}
	}()

	r := gin.Default()
	setupRoutes(r, a)

	srv := &http.Server{Addr: cfg.Addr, Handler: r}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	log.Printf("listening on %s", cfg.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server: %v", err)
	}
}
