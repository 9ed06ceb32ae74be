package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/segmentio/textio"
)

type Format string

const (
	FormatAuto Format = "auto"
	FormatText Format = "text"
	FormatJSON Format = "json"
)

var ErrUnknownFormat = errors.New("unknown output format")

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// ResolveFormat turns the --output flag into a concrete format. Auto picks
// text on a terminal and JSON otherwise.
func ResolveFormat(requested string, terminal bool) (Format, error) {
	switch Format(strings.ToLower(requested)) {
	case "", FormatAuto:
		if terminal {
			return FormatText, nil
		}
		return FormatJSON, nil
	case FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, requested)
}

// Field is one line of text output. Fields with Children render as an
// indented section.
type Field struct {
	Key      string
	Value    interface{}
	Children []Field
}

func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

func Section(key string, children ...Field) Field {
	return Field{Key: key, Children: children}
}

type Printer struct {
	w      io.Writer
	format Format
}

func NewPrinter(w io.Writer, format Format) *Printer {
	return &Printer{w: w, format: format}
}

func (p *Printer) Format() Format {
	return p.format
}

// Print renders value as JSON, or title and fields as text.
func (p *Printer) Print(title string, value interface{}, fields ...Field) error {
	if p.format == FormatJSON {
		encoder := json.NewEncoder(p.w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(value)
	}

	if title != "" {
		_, err := fmt.Fprintln(p.w, title)
		if err != nil {
			return err
		}
	}

	pw := textio.NewPrefixWriter(p.w, "  ")
	err := writeFields(pw, fields)
	if err != nil {
		return err
	}
	return pw.Flush()
}

func keyWidth(fields []Field) int {
	width := 0
	for _, field := range fields {
		if field.Children == nil {
			width = max(width, len(field.Key))
		}
	}
	return width
}

func writeFields(w io.Writer, fields []Field) error {
	width := keyWidth(fields)
	for _, field := range fields {
		if field.Children != nil {
			_, err := fmt.Fprintf(w, "%s:\n", field.Key)
			if err != nil {
				return err
			}

			pw := textio.NewPrefixWriter(w, "  ")
			err = writeFields(pw, field.Children)
			if err != nil {
				return err
			}
			err = pw.Flush()
			if err != nil {
				return err
			}
			continue
		}

		_, err := fmt.Fprintf(w, "%-*s  %v\n", width+1, field.Key+":", field.Value)
		if err != nil {
			return err
		}
	}
	return nil
}
