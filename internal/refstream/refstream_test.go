package refstream

import (
	"strings"
	"testing"

	"github.com/mnohosten/pagingsim/internal/pager"
)

func TestParseTuples(t *testing.T) {
	entries, err := ParseTuples(strings.NewReader("0 R 1 W 2 r 3 w"))
	if err != nil {
		t.Fatalf("ParseTuples: %v", err)
	}
	want := []Entry{
		{Page: 0, Kind: pager.Read},
		{Page: 1, Kind: pager.Write},
		{Page: 2, Kind: pager.Read},
		{Page: 3, Kind: pager.Write},
	}
	if len(entries) != len(want) {
		t.Fatalf("got %d entries, want %d", len(entries), len(want))
	}
	for i, e := range entries {
		if e != want[i] {
			t.Fatalf("entry %d = %+v, want %+v", i, e, want[i])
		}
	}
}

func TestParseTuplesMissingKindIsBoundsError(t *testing.T) {
	_, err := ParseTuples(strings.NewReader("0 R 1"))
	if _, ok := err.(*pager.BoundsError); !ok {
		t.Fatalf("got %T, want *pager.BoundsError", err)
	}
}

func TestParseTuplesUnrecognizedKindIsBoundsError(t *testing.T) {
	_, err := ParseTuples(strings.NewReader("0 X"))
	if _, ok := err.(*pager.BoundsError); !ok {
		t.Fatalf("got %T, want *pager.BoundsError", err)
	}
}

func TestParseSynthetic(t *testing.T) {
	entries, err := ParseSynthetic(strings.NewReader("4 1 1 2 5"))
	if err != nil {
		t.Fatalf("ParseSynthetic: %v", err)
	}
	if len(entries) != 5 {
		t.Fatalf("got %d entries, want 5", len(entries))
	}
	for _, e := range entries {
		if e.Kind != pager.Read {
			t.Fatalf("synthetic entry kind = %v, want Read", e.Kind)
		}
	}
	if entries[0].Page != 4 || entries[4].Page != 5 {
		t.Fatalf("unexpected page sequence: %+v", entries)
	}
}

func TestParseSyntheticMalformedIsBoundsError(t *testing.T) {
	_, err := ParseSynthetic(strings.NewReader("1 not-a-number"))
	if _, ok := err.(*pager.BoundsError); !ok {
		t.Fatalf("got %T, want *pager.BoundsError", err)
	}
}
