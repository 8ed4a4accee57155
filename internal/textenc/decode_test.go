package textenc

import "testing"

func TestLocaleCharset(t *testing.T) {
	tests := []struct {
		name     string
		lcAll    string
		lcCtype  string
		lang     string
		expected string
	}{
		{"lang only", "", "", "de_DE.ISO-8859-15", "ISO-8859-15"},
		{"lc_all wins", "ru_RU.KOI8-R", "en_US.UTF-8", "en_US.UTF-8", "KOI8-R"},
		{"lc_ctype before lang", "", "ja_JP.EUC-JP", "en_US.UTF-8", "EUC-JP"},
		{"modifier stripped", "", "", "de_DE.ISO-8859-15@euro", "ISO-8859-15"},
		{"no charset", "", "", "C", ""},
		{"unset", "", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LC_ALL", tt.lcAll)
			t.Setenv("LC_CTYPE", tt.lcCtype)
			t.Setenv("LANG", tt.lang)

			if got := LocaleCharset(); got != tt.expected {
				t.Fatalf("LocaleCharset() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestNew_FallsBackToLatin1(t *testing.T) {
	for _, charset := range []string{"", "UTF-8", "no-such-charset"} {
		if got := New(charset).Name(); got != "iso-8859-1" {
			t.Errorf("New(%q).Name() = %q, want iso-8859-1", charset, got)
		}
	}
}

func TestString(t *testing.T) {
	d := New("")

	if s, recovered := d.String([]byte("plain ascii ü")); s != "plain ascii ü" || recovered {
		t.Fatalf("valid UTF-8 = %q recovered=%v", s, recovered)
	}

	// "café" in ISO-8859-1
	s, recovered := d.String([]byte{'c', 'a', 'f', 0xe9})
	if !recovered {
		t.Fatal("recovered = false for invalid UTF-8")
	}
	if s != "café" {
		t.Fatalf("decoded = %q, want café", s)
	}
}

func TestString_LocaleCharset(t *testing.T) {
	d := New("KOI8-R")

	// "мир" in KOI8-R
	s, recovered := d.String([]byte{0xcd, 0xc9, 0xd2})
	if !recovered || s != "мир" {
		t.Fatalf("decoded = %q recovered=%v, want мир", s, recovered)
	}
}
