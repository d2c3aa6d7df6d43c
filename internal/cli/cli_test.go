package cli

import (
	"bytes"
	"strings"
	"testing"
)

func TestMaskToken(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"abc", "***"},
		{"abcd", "****"},
		{"secret-token-1234", "********1234"},
	}
	for _, tt := range tests {
		if got := MaskToken(tt.in); got != tt.want {
			t.Errorf("MaskToken(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPrinter_NoColorForBuffers(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	p.Success("removed")
	p.Error("failed")

	out := buf.String()
	if strings.Contains(out, "\033[") {
		t.Fatalf("unexpected escape codes in %q", out)
	}
	if out != "✓ removed\n✗ failed\n" {
		t.Fatalf("output = %q", out)
	}
}

func TestPrinter_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := NewPrinter(&buf).JSON(map[string]int{"count": 2}); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "{\n  \"count\": 2\n}\n" {
		t.Fatalf("output = %q", buf.String())
	}
}

func TestGenerateCompletion(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish"} {
		var buf bytes.Buffer
		if err := GenerateCompletion(&buf, shell); err != nil {
			t.Fatalf("%s: %v", shell, err)
		}
		if !strings.Contains(buf.String(), "aplctl") {
			t.Errorf("%s script does not mention aplctl", shell)
		}
	}
	if err := GenerateCompletion(&bytes.Buffer{}, "powershell"); err == nil {
		t.Fatal("expected error for unsupported shell")
	}
}
