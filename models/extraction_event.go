package models

import "time"

// ExtractionEvent records one extraction attempt for operations. It never
// holds image bytes or extracted text.
type ExtractionEvent struct {
	ID          uint `gorm:"primaryKey"`
	CreatedAt   time.Time
	SessionID   string `gorm:"size:36;index;not null"`
	FileName    string `gorm:"size:255"`
	Format      string `gorm:"size:8"`
	Width       int
	Height      int
	Bytes       int
	Fingerprint string `gorm:"size:64;index"`
	Outcome     string `gorm:"size:16;index;not null"` // "ok", "extraction" or "decode"
	Message     string `gorm:"size:512"`
	TextLength  int
	DurationMS  int64
}
