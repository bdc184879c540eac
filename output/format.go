// Package output renders decoded eix data for humans and other programs.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/samber/lo"
	"gopkg.in/yaml.v2"

	"github.com/PowerDNS/eixdb/eix"
)

// Format is a package serialization format
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Formats lists all supported formats
var Formats = []Format{FormatJSON, FormatYAML}

// ParseFormat parses a format name, case-insensitive.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(s))
	if !lo.Contains(Formats, f) {
		return "", fmt.Errorf("output format not supported: %s (options: %s)",
			s, strings.Join(lo.Map(Formats, func(f Format, _ int) string {
				return string(f)
			}), ", "))
	}
	return f, nil
}

// PackageWriter writes a list of packages one at a time, so that a full
// cache file never has to be held in memory.
type PackageWriter interface {
	// Write adds a package to the list
	Write(p *eix.Package) error
	// Close terminates the list. It does not close the underlying writer.
	Close() error
}

// NewPackageWriter returns a PackageWriter for the given format.
func NewPackageWriter(w io.Writer, f Format) (PackageWriter, error) {
	switch f {
	case FormatJSON:
		return &jsonWriter{w: w}, nil
	case FormatYAML:
		return &yamlWriter{w: w}, nil
	default:
		return nil, fmt.Errorf("output format not supported: %s", f)
	}
}

// WritePackages writes all packages as a single document.
func WritePackages(w io.Writer, f Format, packages []*eix.Package) error {
	pw, err := NewPackageWriter(w, f)
	if err != nil {
		return err
	}
	for _, p := range packages {
		if err := pw.Write(p); err != nil {
			return err
		}
	}
	return pw.Close()
}

// jsonWriter writes a pretty printed JSON array. The output is identical to
// encoding the whole list with two space indentation. HTML characters are
// not escaped, dependency atoms are full of '<' and '>'.
type jsonWriter struct {
	w     io.Writer
	buf   bytes.Buffer
	count int
}

func (jw *jsonWriter) Write(p *eix.Package) error {
	jw.buf.Reset()
	enc := json.NewEncoder(&jw.buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("  ", "  ")
	if err := enc.Encode(p); err != nil {
		return err
	}
	data := bytes.TrimSuffix(jw.buf.Bytes(), []byte("\n"))
	sep := ",\n  "
	if jw.count == 0 {
		sep = "[\n  "
	}
	jw.count++
	if _, err := io.WriteString(jw.w, sep); err != nil {
		return err
	}
	_, err := jw.w.Write(data)
	return err
}

func (jw *jsonWriter) Close() error {
	end := "\n]\n"
	if jw.count == 0 {
		end = "[]\n"
	}
	_, err := io.WriteString(jw.w, end)
	return err
}

// yamlWriter writes a YAML sequence. Every package is marshalled as a list
// with one item, and these concatenate into a single sequence.
type yamlWriter struct {
	w     io.Writer
	count int
}

func (yw *yamlWriter) Write(p *eix.Package) error {
	data, err := yaml.Marshal([]*eix.Package{p})
	if err != nil {
		return err
	}
	yw.count++
	_, err = yw.w.Write(data)
	return err
}

func (yw *yamlWriter) Close() error {
	if yw.count == 0 {
		_, err := io.WriteString(yw.w, "[]\n")
		return err
	}
	return nil
}
