package cmd

import (
	"testing"

	"bookextract/internal/source"
)

func TestSmokeURLIsAcceptedReaderURL(t *testing.T) {
	id, err := source.NewValidator(source.DefaultRules()).Validate(smokeURL)
	if err != nil {
		t.Fatalf("Validate(%q) error = %v", smokeURL, err)
	}
	if id != "38c15-44c77-06464-07b96-de2b7-82795-3b" {
		t.Errorf("identifier = %q", id)
	}
}

func TestTestCommandRegistered(t *testing.T) {
	found, _, err := rootCmd.Find([]string{"test"})
	if err != nil {
		t.Fatalf("Find(test) error = %v", err)
	}
	if found != testCmd {
		t.Errorf("Find(test) = %q, want the test command", found.Name())
	}
	if err := testCmd.Args(testCmd, []string{"extra"}); err == nil {
		t.Error("test command accepted a positional argument")
	}
}
