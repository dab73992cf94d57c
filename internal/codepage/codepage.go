// Package codepage maps between the single-byte code page spoken by the
// remote host and Go strings.
package codepage

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// DefaultName is the code page used when none is configured.
const DefaultName = "windows-1252"

// ErrUnknownCodePage is returned by Lookup for unsupported names.
var ErrUnknownCodePage = errors.New("unknown code page")

// replacement is written for runes the code page cannot represent.
const replacement = '?'

// CodePage decodes and encodes one single-byte character set.
type CodePage struct {
	name string
	cm   *charmap.Charmap
}

var codePages = map[string]*charmap.Charmap{
	"windows-1252": charmap.Windows1252,
	"cp1252":       charmap.Windows1252,
	"cp437":        charmap.CodePage437,
	"ibm437":       charmap.CodePage437,
	"iso-8859-1":   charmap.ISO8859_1,
	"latin1":       charmap.ISO8859_1,
}

// Lookup returns the code page registered under name. Names are matched
// case-insensitively; an empty name selects DefaultName.
func Lookup(name string) (*CodePage, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = DefaultName
	}
	cm, ok := codePages[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodePage, name)
	}
	return &CodePage{name: key, cm: cm}, nil
}

// Default returns the Windows-1252 code page.
func Default() *CodePage {
	return &CodePage{name: DefaultName, cm: charmap.Windows1252}
}

// Names returns the accepted code page names.
func Names() []string {
	return []string{"windows-1252", "cp1252", "cp437", "ibm437", "iso-8859-1", "latin1"}
}

// Name returns the canonical name the code page was looked up by.
func (c *CodePage) Name() string {
	return c.name
}

// DecodeByte returns the rune for b. Undefined positions decode to U+FFFD.
func (c *CodePage) DecodeByte(b byte) rune {
	return c.cm.DecodeByte(b)
}

// Decode converts a byte slice to a string.
func (c *CodePage) Decode(data []byte) string {
	var sb strings.Builder
	sb.Grow(len(data))
	for _, b := range data {
		sb.WriteRune(c.cm.DecodeByte(b))
	}
	return sb.String()
}

// Encode converts s to the code page, writing '?' for unrepresentable runes.
func (c *CodePage) Encode(s string) []byte {
	out := make([]byte, 0, utf8.RuneCountInString(s))
	for _, r := range s {
		b, ok := c.cm.EncodeRune(r)
		if !ok {
			b = replacement
		}
		out = append(out, b)
	}
	return out
}
