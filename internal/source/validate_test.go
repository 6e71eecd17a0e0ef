package source

import (
	"errors"
	"strings"
	"testing"

	"bookextract/internal/book"
)

func TestValidate(t *testing.T) {
	v := NewValidator(DefaultRules())

	tests := []struct {
		name   string
		url    string
		wantID book.Identifier
		reason Reason
	}{
		{"valid", "https://library.alkafeel.net/dic/book/?e=MTAyMw", "MTAyMw", ""},
		{"valid with other params", "https://library.alkafeel.net/dic/book/read.php?lang=ar&e=abc_12&p=3", "abc_12", ""},
		{"valid uppercase host", "https://LIBRARY.Alkafeel.NET/dic/book/?e=42", "42", ""},
		{"valid with port", "https://library.alkafeel.net:443/dic/book/?e=42", "42", ""},
		{"path without trailing slash", "https://library.alkafeel.net/dic/book?e=42", "42", ""},
		{"http rejected", "http://library.alkafeel.net/dic/book/?e=42", "", ReasonScheme},
		{"suffix spoof", "https://library.alkafeel.net.evil.com/dic/book/?e=42", "", ReasonHost},
		{"prefix spoof", "https://evil-library.alkafeel.net/dic/book/?e=42", "", ReasonHost},
		{"subdomain spoof", "https://x.library.alkafeel.net/dic/book/?e=42", "", ReasonHost},
		{"userinfo spoof", "https://library.alkafeel.net@evil.com/dic/book/?e=42", "", ReasonHost},
		{"wrong path", "https://library.alkafeel.net/dic/author/?e=42", "", ReasonPath},
		{"missing param", "https://library.alkafeel.net/dic/book/?x=42", "", ReasonMissingParam},
		{"empty param", "https://library.alkafeel.net/dic/book/?e=", "", ReasonMissingParam},
		{"traversal identifier", "https://library.alkafeel.net/dic/book/?e=..%2F..%2Fetc", "", ReasonBadIdentifier},
		{"control char identifier", "https://library.alkafeel.net/dic/book/?e=a%0Ab", "", ReasonBadIdentifier},
		{"malformed", "https://library.alkafeel.net/%zz", "", ReasonMalformed},
		{"no host", "https:///dic/book/?e=1", "", ReasonMalformed},
		{"empty", "", "", ReasonScheme},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := v.Validate(tt.url)
			if tt.reason == "" {
				if err != nil {
					t.Fatalf("Validate(%q) error = %v", tt.url, err)
				}
				if id != tt.wantID {
					t.Errorf("Validate(%q) = %q, want %q", tt.url, id, tt.wantID)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate(%q) = %q, want error", tt.url, id)
			}
			if !errors.Is(err, book.ErrInvalidURL) {
				t.Errorf("error %v is not ErrInvalidURL", err)
			}
			reason, ok := ReasonOf(err)
			if !ok || reason != tt.reason {
				t.Errorf("reason = %q, want %q", reason, tt.reason)
			}
		})
	}
}

func TestValidateIdempotent(t *testing.T) {
	v := NewValidator(DefaultRules())
	url := "https://library.alkafeel.net/dic/book/?e=MTAyMw"
	first, err := v.Validate(url)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		again, err := v.Validate(url)
		if err != nil || again != first {
			t.Fatalf("call %d: got %q, %v", i, again, err)
		}
	}
}

func TestSurrogate(t *testing.T) {
	a := Surrogate("https://evil.example/?e=1")
	b := Surrogate("https://evil.example/?e=1")
	c := Surrogate("https://evil.example/?e=2")
	if a != b {
		t.Errorf("Surrogate not deterministic: %q vs %q", a, b)
	}
	if a == c {
		t.Errorf("different URLs share surrogate %q", a)
	}
	if !strings.HasPrefix(string(a), "invalid-") || ValidateID(string(a)) != nil {
		t.Errorf("surrogate %q is not a safe identifier", a)
	}
}
