package reader

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
)

// Format defines a file format reader for extracting text.
type Format interface {
	Name() string
	Extensions() []string
	Extract(filename string) (string, error)
}

var registry []Format

// Register adds a format reader to the registry.
func Register(f Format) {
	registry = append(registry, f)
}

// ExtractText extracts text from a file, using a registered format or plain text fallback.
func ExtractText(filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, f := range registry {
		for _, e := range f.Extensions() {
			if ext == e {
				return f.Extract(filename)
			}
		}
	}
	return readPlainText(filename)
}

// SupportedFormats returns registered format names with their extensions.
func SupportedFormats() []string {
	var out []string
	for _, f := range registry {
		out = append(out, f.Name()+" ("+strings.Join(f.Extensions(), ", ")+")")
	}
	return out
}

// SupportedExtensions returns ".txt" followed by every registered extension.
func SupportedExtensions() []string {
	out := []string{".txt"}
	for _, f := range registry {
		out = append(out, f.Extensions()...)
	}
	return out
}

func readPlainText(filename string) (string, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return "", err
	}
	return DecodeText(data)
}

var (
	utf16LEBOM = []byte{0xFF, 0xFE}
	utf16BEBOM = []byte{0xFE, 0xFF}
)

// DecodeText converts raw file bytes to a string. UTF-16 input must carry a
// byte order mark. Anything else that is not valid UTF-8 is read as GB18030,
// which covers GBK and GB2312 files.
func DecodeText(data []byte) (string, error) {
	if bytes.HasPrefix(data, utf16LEBOM) || bytes.HasPrefix(data, utf16BEBOM) {
		out, err := unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder().Bytes(data)
		if err != nil {
			return "", fmt.Errorf("decode utf-16: %w", err)
		}
		return string(out), nil
	}
	if utf8.Valid(data) {
		return string(data), nil
	}
	out, err := simplifiedchinese.GB18030.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decode gb18030: %w", err)
	}
	return string(out), nil
}
