package runner

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/aretw0/vibecam"
)

func TestTextHandler_Reply(t *testing.T) {
	outBuf := &bytes.Buffer{}
	handler := NewTextHandler(strings.NewReader(""), outBuf)
	handler.Renderer = func(s string) (string, error) {
		return "Rendered: " + s, nil
	}

	err := handler.Reply(context.Background(), &vibecam.ChatResponse{Reply: "What is the mood?"})
	if err != nil {
		t.Fatalf("Reply failed: %v", err)
	}

	expected := "Rendered: What is the mood?"
	if !strings.Contains(outBuf.String(), expected) {
		t.Errorf("Expected output to contain '%s', got '%s'", expected, outBuf.String())
	}
}

func TestTextHandler_EmptyReplyPrintsNothing(t *testing.T) {
	outBuf := &bytes.Buffer{}
	handler := NewTextHandler(strings.NewReader(""), outBuf)

	if err := handler.Reply(context.Background(), &vibecam.ChatResponse{}); err != nil {
		t.Fatalf("Reply failed: %v", err)
	}
	if outBuf.Len() != 0 {
		t.Errorf("Expected no output, got %q", outBuf.String())
	}
}

func TestTextHandler_Input(t *testing.T) {
	outBuf := &bytes.Buffer{}
	pr, pw := io.Pipe()
	defer pw.Close()
	handler := NewTextHandler(pr, outBuf)

	go func() {
		handler.FeedInput("my user input\n", nil)
	}()

	val, err := handler.Input(context.Background())
	if err != nil {
		t.Fatalf("Input failed: %v", err)
	}
	if val != "my user input" {
		t.Errorf("Expected 'my user input', got '%s'", val)
	}
	if prompt := outBuf.String(); prompt != "> " {
		t.Errorf("Expected prompt '> ', got '%s'", prompt)
	}
}

func TestTextHandler_InputRetriesRejectedLines(t *testing.T) {
	outBuf := &bytes.Buffer{}
	handler := NewTextHandler(strings.NewReader("way too long\nok\n"), outBuf,
		WithTextHandlerSanitizer(NewSanitizer(5)))

	val, err := handler.Input(context.Background())
	if err != nil {
		t.Fatalf("Input failed: %v", err)
	}
	if val != "ok" {
		t.Errorf("Expected 'ok', got '%s'", val)
	}
	if !strings.Contains(outBuf.String(), "Please try again") {
		t.Errorf("Expected retry hint, got %q", outBuf.String())
	}
}

func TestTextHandler_InputCancelled(t *testing.T) {
	handler := NewTextHandler(strings.NewReader(""), &bytes.Buffer{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := handler.Input(ctx); err != context.Canceled {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestTextHandler_Developed(t *testing.T) {
	outBuf := &bytes.Buffer{}
	handler := NewTextHandler(strings.NewReader(""), outBuf)

	photo := &vibecam.GenerateResponse{
		ImageURL:    "https://img.example/1.png",
		PromptUsed:  "a cat, shot on Leica M6",
		Camera:      "Leica M6",
		AspectRatio: "3:2",
	}
	if err := handler.Developed(context.Background(), photo, ""); err != nil {
		t.Fatalf("Developed failed: %v", err)
	}

	out := outBuf.String()
	for _, want := range []string{"Leica M6 (3:2)", "original link: https://img.example/1.png", "Prompt: a cat"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in %q", want, out)
		}
	}
}
