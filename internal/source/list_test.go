package source

import (
	"strings"
	"testing"
)

func TestParseList(t *testing.T) {
	input := "\n# comment\nhttps://a/?e=1\n   \n  https://b/?e=2  \n#skip\nhttps://c/?e=3"
	got, err := ParseList(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"https://a/?e=1", "https://b/?e=2", "https://c/?e=3"}
	if len(got) != len(want) {
		t.Fatalf("got %d URLs, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("url[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestReadList(t *testing.T) {
	got, err := ReadList("testdata/urls.txt")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d URLs, want 3: %v", len(got), got)
	}
	if got[1] != "https://library.alkafeel.net/dic/book/index.php?e=abc_12" {
		t.Errorf("url[1] = %q", got[1])
	}
}

func TestReadListMissing(t *testing.T) {
	if _, err := ReadList("testdata/nope.txt"); err == nil {
		t.Error("expected error for missing file")
	}
}
