package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/vibecam/pkg/adapters/memory"
	"github.com/aretw0/vibecam/pkg/domain"
	"github.com/aretw0/vibecam/pkg/persistence/middleware"
)

func TestPIIMiddleware(t *testing.T) {
	underlying := memory.NewStore()
	mw, err := middleware.NewPIIMiddleware([]string{"^coordinates$", "(?i)name"})
	if err != nil {
		t.Fatal(err)
	}
	store := mw(underlying)

	s := domain.NewSession("p1")
	env, _ := s.Document.Object("environment")
	env.Set("coordinates", "35.6895, 139.6917")
	subject := domain.NewObject()
	subject.Set("name", "Mika")
	subject.Set("outfit", "yellow raincoat")
	s.Document.Set("subjects", []any{subject})

	ctx := context.Background()
	if err := store.Save(ctx, "p1", s); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if got := env.String("coordinates"); got != "35.6895, 139.6917" {
		t.Errorf("caller's document was modified: %q", got)
	}

	loaded, err := store.Load(ctx, "p1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	storedEnv, _ := loaded.Document.Object("environment")
	if got := storedEnv.String("coordinates"); got != middleware.Mask {
		t.Errorf("expected coordinates masked, got %q", got)
	}
	subjects, _ := loaded.Document.Get("subjects")
	storedSubject := subjects.([]any)[0].(*domain.Object)
	if got := storedSubject.String("name"); got != middleware.Mask {
		t.Errorf("expected name masked, got %q", got)
	}
	if got := storedSubject.String("outfit"); got != "yellow raincoat" {
		t.Errorf("expected outfit untouched, got %q", got)
	}
}

func TestPIIMiddleware_InvalidPattern(t *testing.T) {
	if _, err := middleware.NewPIIMiddleware([]string{"("}); err == nil {
		t.Error("expected error for invalid pattern")
	}
}

func TestChain_EncryptsRedactedDocument(t *testing.T) {
	underlying := memory.NewStore()
	pii, err := middleware.NewPIIMiddleware([]string{"^theme$"})
	if err != nil {
		t.Fatal(err)
	}
	enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	if err != nil {
		t.Fatal(err)
	}
	store := middleware.Chain(underlying, pii, enc)

	ctx := context.Background()
	if err := store.Save(ctx, "c1", sessionWithTheme("c1", "secret")); err != nil {
		t.Fatal(err)
	}
	raw, _ := underlying.Load(ctx, "c1")
	if raw.Document.String("__encrypted__") == "" {
		t.Fatal("expected encrypted envelope underneath")
	}
	loaded, err := store.Load(ctx, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if got := theme(loaded); got != middleware.Mask {
		t.Errorf("expected masked theme, got %q", got)
	}
}
