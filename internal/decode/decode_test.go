package decode

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"

	"bookextract/internal/book"
)

func TestDecodeRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, n := range []int{0, 1, 2, 3, 4, 57, 1024, 65537} {
		data := make([]byte, n)
		rng.Read(data)

		got, err := Decode(Encode(data))
		if err != nil {
			t.Fatalf("n=%d: Decode error = %v", n, err)
		}
		if !bytes.Equal(got, data) {
			t.Fatalf("n=%d: round trip mismatch", n)
		}
	}
}

func TestDecodeTolerated(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "JVBERi0xLjQ=", "%PDF-1.4"},
		{"surrounding whitespace", "  \n\tJVBERi0xLjQ=\r\n ", "%PDF-1.4"},
		{"wrapped lines", "JVBE\r\nRi0x\nLjQ=", "%PDF-1.4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.input)
			if err != nil {
				t.Fatalf("Decode(%q) error = %v", tt.input, err)
			}
			if string(got) != tt.want {
				t.Errorf("Decode(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDecodeEmpty(t *testing.T) {
	for _, input := range []string{"", "  \n\t "} {
		got, err := Decode(input)
		if err != nil {
			t.Fatalf("Decode(%q) error = %v", input, err)
		}
		if got == nil || len(got) != 0 {
			t.Errorf("Decode(%q) = %#v, want empty non-nil slice", input, got)
		}
	}
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"illegal character", "JVBE*i0xLjQ="},
		{"url-safe alphabet", "JVBE_i0xLjQ="},
		{"interior space", "JVBE Ri0xLjQ="},
		{"missing padding", "JVBERi0xLjQ"},
		{"bad padding", "JVBERi0xLj=="},
		{"non-canonical trailing bits", "JVBERi0xLjR="},
		{"truncated", "J"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.input)
			if err == nil {
				t.Fatalf("Decode(%q) = %q, want error", tt.input, got)
			}
			if !errors.Is(err, book.ErrDecode) {
				t.Errorf("error %v is not ErrDecode", err)
			}
		})
	}
}
