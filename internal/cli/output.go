// Package cli holds terminal helpers shared by the command-line tools.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// Color codes for terminal output
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
)

// Printer writes status lines, colored when the target is a terminal.
type Printer struct {
	w     io.Writer
	color bool
}

// NewPrinter returns a Printer for w. Color is enabled only when w is a
// character device.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w, color: isTerminal(w)}
}

func (p *Printer) Success(message string) { p.line(ColorGreen, "✓", message) }
func (p *Printer) Error(message string)   { p.line(ColorRed, "✗", message) }
func (p *Printer) Warning(message string) { p.line(ColorYellow, "⚠", message) }
func (p *Printer) Info(message string)    { p.line(ColorBlue, "ℹ", message) }

// JSON writes v indented.
func (p *Printer) JSON(v interface{}) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *Printer) line(color, mark, message string) {
	if p.color {
		fmt.Fprintf(p.w, "%s%s%s %s\n", color, mark, ColorReset, message)
		return
	}
	fmt.Fprintf(p.w, "%s %s\n", mark, message)
}

// MaskToken keeps the last four characters of a secret.
func MaskToken(token string) string {
	if len(token) <= 4 {
		return strings.Repeat("*", len(token))
	}
	return strings.Repeat("*", 8) + token[len(token)-4:]
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
