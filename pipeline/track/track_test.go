package track

import "testing"

func TestKey_Normalization(t *testing.T) {
	tests := []struct {
		name   string
		title  string
		artist string
		want   string
	}{
		{"simple", "Let It Be", "The Beatles", "let it be|the beatles"},
		{"case insensitive", "LET IT BE", "the BEATLES", "let it be|the beatles"},
		{"whitespace collapsed", "  Let   It  Be ", " The  Beatles ", "let it be|the beatles"},
		{"tabs and newlines", "Let\tIt\nBe", "The Beatles", "let it be|the beatles"},
		{"empty", "", "", "|"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Key(tt.title, tt.artist); got != tt.want {
				t.Errorf("Key(%q, %q) = %q, want %q", tt.title, tt.artist, got, tt.want)
			}
		})
	}
}

func TestKey_SameIdentityDifferentCasing(t *testing.T) {
	a := Descriptor{Title: "Let It Be", Artist: "The Beatles"}
	b := Descriptor{Title: "let it be", Artist: "THE  BEATLES"}
	if a.Key() != b.Key() {
		t.Errorf("expected identical keys, got %q and %q", a.Key(), b.Key())
	}
}

func TestKey_DistinctTracks(t *testing.T) {
	a := Descriptor{Title: "Let It Be", Artist: "The Beatles"}
	b := Descriptor{Title: "Let It Be", Artist: "Joe Cocker"}
	if a.Key() == b.Key() {
		t.Error("different artists must produce different keys")
	}
}
