// Package source validates reader page URLs and reads URL lists.
package source

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"bookextract/internal/book"
)

// Reason is a machine-readable code for why a URL was rejected.
type Reason string

const (
	ReasonMalformed     Reason = "malformed"
	ReasonScheme        Reason = "scheme"
	ReasonHost          Reason = "host"
	ReasonPath          Reason = "path"
	ReasonMissingParam  Reason = "missing_param"
	ReasonBadIdentifier Reason = "bad_identifier"
)

// validIDPattern matches identifiers safe to use as file names.
var validIDPattern = regexp.MustCompile(`^[a-zA-Z0-9._=~-]+$`)

// Rules describes the accepted URL shape.
type Rules struct {
	Scheme string // e.g. "https"
	Host   string // compared exactly, case-insensitively
	Path   string // segment the path must contain, e.g. "/dic/book/"
	Param  string // query parameter carrying the identifier
}

// DefaultRules returns the rules for the library.alkafeel.net reader.
func DefaultRules() Rules {
	return Rules{
		Scheme: "https",
		Host:   "library.alkafeel.net",
		Path:   "/dic/book/",
		Param:  "e",
	}
}

// InvalidError is returned for URLs that do not match the Rules.
type InvalidError struct {
	URL    string
	Reason Reason
	Detail string
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("%s: %s", e.Reason, e.Detail)
}

// Validator checks reader URLs and extracts their identifiers.
type Validator struct {
	rules Rules
}

// NewValidator creates a Validator for the given rules.
func NewValidator(r Rules) *Validator {
	r.Host = strings.ToLower(r.Host)
	return &Validator{rules: r}
}

// Validate returns the identifier for a valid URL. Invalid URLs yield a
// *book.Error of kind invalid_url wrapping an *InvalidError.
func (v *Validator) Validate(rawURL string) (book.Identifier, error) {
	rawURL = strings.TrimSpace(rawURL)
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", v.invalid(rawURL, ReasonMalformed, err.Error())
	}
	if !strings.EqualFold(u.Scheme, v.rules.Scheme) {
		return "", v.invalid(rawURL, ReasonScheme, fmt.Sprintf("expected %s, got %q", v.rules.Scheme, u.Scheme))
	}
	if u.Hostname() == "" {
		return "", v.invalid(rawURL, ReasonMalformed, "URL has no host")
	}
	// Exact match only; suffix or subdomain look-alikes are rejected.
	if strings.ToLower(u.Hostname()) != v.rules.Host {
		return "", v.invalid(rawURL, ReasonHost, fmt.Sprintf("unexpected host %q", u.Hostname()))
	}
	if !strings.Contains(u.Path+"/", v.rules.Path) {
		return "", v.invalid(rawURL, ReasonPath, fmt.Sprintf("path %q does not contain %s", u.Path, v.rules.Path))
	}
	id := u.Query().Get(v.rules.Param)
	if id == "" {
		return "", v.invalid(rawURL, ReasonMissingParam, fmt.Sprintf("missing %q query parameter", v.rules.Param))
	}
	if err := ValidateID(id); err != nil {
		return "", v.invalid(rawURL, ReasonBadIdentifier, err.Error())
	}
	return book.Identifier(id), nil
}

func (v *Validator) invalid(rawURL string, reason Reason, detail string) error {
	return book.Errorf(book.KindInvalidURL, "%s: %w", rawURL, &InvalidError{URL: rawURL, Reason: reason, Detail: detail})
}

// ValidateID checks that an identifier is safe to use as a file name.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("identifier cannot be empty")
	}
	if len(id) > 200 {
		return fmt.Errorf("identifier too long: %d characters", len(id))
	}
	if !validIDPattern.MatchString(id) {
		return fmt.Errorf("identifier contains invalid characters: %q", id)
	}
	if strings.Contains(id, "..") {
		return fmt.Errorf("identifier contains path traversal: %q", id)
	}
	return nil
}

// ReasonOf returns the rejection reason carried by err, if any.
func ReasonOf(err error) (Reason, bool) {
	e, ok := book.AsError(err)
	if !ok {
		return "", false
	}
	if inv, ok := e.Err.(*InvalidError); ok {
		return inv.Reason, true
	}
	return "", false
}

// Surrogate derives a stable identifier for a URL that failed validation,
// so its failure still gets a metadata record.
func Surrogate(rawURL string) book.Identifier {
	sum := sha1.Sum([]byte(rawURL))
	return book.Identifier("invalid-" + hex.EncodeToString(sum[:])[:12])
}
