package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestSignVerify(t *testing.T) {
	s := NewSigner([]byte("test-secret"), time.Hour)
	tok, err := s.Sign("abc")
	if err != nil {
		t.Fatal(err)
	}
	sid, err := s.Verify(tok)
	if err != nil || sid != "abc" {
		t.Fatalf("verify got %q err=%v", sid, err)
	}
}

func TestVerifyRejects(t *testing.T) {
	s := NewSigner([]byte("test-secret"), time.Hour)
	other := NewSigner([]byte("other-secret"), time.Hour)
	forged, _ := other.Sign("abc")
	if _, err := s.Verify(forged); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for wrong key got %v", err)
	}
	if _, err := s.Verify("garbage"); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for garbage got %v", err)
	}
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sid": "abc",
		"exp": time.Now().Add(-time.Minute).Unix(),
	})
	es, _ := expired.SignedString([]byte("test-secret"))
	if _, err := s.Verify(es); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for expired token got %v", err)
	}
	nosid := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": time.Now().Add(time.Minute).Unix()})
	ns, _ := nosid.SignedString([]byte("test-secret"))
	if _, err := s.Verify(ns); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken without sid got %v", err)
	}
}
