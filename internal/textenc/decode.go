// Package textenc turns raw log bytes into strings. Valid UTF-8 passes through
// unchanged; anything else is decoded with the locale's character set, or
// ISO-8859-1 when the locale is UTF-8 or unknown.
package textenc

import (
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
)

// Decoder converts log lines to UTF-8
type Decoder struct {
	name     string
	fallback encoding.Encoding
}

// LocaleCharset returns the character set named by LC_ALL, LC_CTYPE or LANG,
// in that order, or "" when none names one
func LocaleCharset() string {
	for _, key := range []string{"LC_ALL", "LC_CTYPE", "LANG"} {
		value := os.Getenv(key)
		if value == "" {
			continue
		}
		// language_TERRITORY.charset@modifier
		if i := strings.IndexByte(value, '@'); i >= 0 {
			value = value[:i]
		}
		if i := strings.IndexByte(value, '.'); i >= 0 {
			return value[i+1:]
		}
		return ""
	}
	return ""
}

// New returns a decoder falling back to charset for invalid UTF-8
func New(charset string) *Decoder {
	if enc, err := htmlindex.Get(charset); err == nil {
		if name, _ := htmlindex.Name(enc); name != "utf-8" {
			return &Decoder{name: name, fallback: enc}
		}
	}
	return &Decoder{name: "iso-8859-1", fallback: charmap.ISO8859_1}
}

// NewLocale returns a decoder for the process locale
func NewLocale() *Decoder {
	return New(LocaleCharset())
}

// Name returns the fallback charset name
func (d *Decoder) Name() string {
	return d.name
}

// String converts b to a string. recovered reports that b was not valid
// UTF-8 and went through the fallback charset.
func (d *Decoder) String(b []byte) (s string, recovered bool) {
	if utf8.Valid(b) {
		return string(b), false
	}

	out, err := d.fallback.NewDecoder().Bytes(b)
	if err != nil {
		return strings.ToValidUTF8(string(b), "�"), true
	}
	return string(out), true
}
