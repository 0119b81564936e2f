// Package refstream parses reference-stream input into the
// (page, access kind) pairs a PagingEngine consumes. It provides
// parsers only; generating traces is left to external harnesses.
package refstream

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mnohosten/pagingsim/internal/pager"
)

// Entry is one parsed reference: a page number and the access kind to
// apply when it reaches the engine.
type Entry struct {
	Page PageID
	Kind pager.AccessKind
}

// PageID mirrors pager.PageID so callers that only import refstream
// never need the pager import just to name a page number.
type PageID = pager.PageID

// ParseTuples reads a whitespace-separated stream of
// (page_index, access_kind) pairs, access_kind one of 'R' or 'W', one
// pair per token group — e.g. "0 R 1 W 2 R".
func ParseTuples(r io.Reader) ([]Entry, error) {
	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)

	var entries []Entry
	for sc.Scan() {
		pageTok := sc.Text()
		page, err := strconv.Atoi(pageTok)
		if err != nil {
			return nil, &pager.BoundsError{Reason: fmt.Sprintf("malformed page index %q", pageTok)}
		}
		if page < 0 {
			return nil, &pager.BoundsError{Reason: fmt.Sprintf("negative page index %d", page)}
		}

		if !sc.Scan() {
			return nil, &pager.BoundsError{Reason: "reference record missing access kind"}
		}
		kindTok := strings.ToUpper(sc.Text())
		var kind pager.AccessKind
		switch kindTok {
		case "R":
			kind = pager.Read
		case "W":
			kind = pager.Write
		default:
			return nil, &pager.BoundsError{Reason: fmt.Sprintf("unrecognized access kind %q", kindTok)}
		}

		entries = append(entries, Entry{Page: PageID(page), Kind: kind})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("refstream: scan tuple stream: %w", err)
	}
	return entries, nil
}

// ParseSynthetic reads a whitespace-separated array of page indices,
// each treated as a read.
func ParseSynthetic(r io.Reader) ([]Entry, error) {
	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)

	var entries []Entry
	for sc.Scan() {
		tok := sc.Text()
		page, err := strconv.Atoi(tok)
		if err != nil {
			return nil, &pager.BoundsError{Reason: fmt.Sprintf("malformed page index %q", tok)}
		}
		if page < 0 {
			return nil, &pager.BoundsError{Reason: fmt.Sprintf("negative page index %d", page)}
		}
		entries = append(entries, Entry{Page: PageID(page), Kind: pager.Read})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("refstream: scan synthetic stream: %w", err)
	}
	return entries, nil
}
