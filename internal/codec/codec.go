// Package codec implements the reversible payload transform applied to the
// generated catalog files. It is obfuscation, not encryption: the goal is to
// keep casual scrapers away from the raw JSON, nothing more.
package codec

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Version markers. Decoding selects the substitution table from the marker,
// so tables can rotate without breaking previously published files.
const (
	VersionPrefix = "m2:"
)

const b64Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/="

// Each table is an involution over the base64 alphabet (applying it twice
// yields the input), so encode and decode share one lookup.
var tables = map[string]map[rune]rune{
	VersionPrefix: buildTable("ZYXWVUTSRQPONMLKJIHGFEDCBAzyxwvutsrqponmlkjihgfedcba9876543210/+="),
}

func buildTable(subst string) map[rune]rune {
	if len(subst) != len(b64Alphabet) {
		panic("codec: substitution table length mismatch")
	}
	t := make(map[rune]rune, len(subst))
	for i, r := range b64Alphabet {
		t[r] = rune(subst[i])
	}
	return t
}

// DecodeError reports a blob that could not be decoded. Callers treat it as
// recoverable: a payload without a known marker is read as plain JSON.
type DecodeError struct {
	Version string // Marker found on the blob ("" when absent)
	Reason  string
	Err     error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("codec: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("codec: %s", e.Reason)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Encode transforms plain bytes into an opaque versioned blob:
// base64, character substitution, reversal, version marker.
func Encode(plain []byte) string {
	b64 := base64.StdEncoding.EncodeToString(plain)
	mapped := substitute(b64, tables[VersionPrefix])
	return VersionPrefix + reverse(mapped)
}

// Decode inverts Encode exactly, selecting the substitution table from the
// blob's version marker.
func Decode(blob string) ([]byte, error) {
	prefix, rest, ok := splitMarker(blob)
	if !ok {
		return nil, &DecodeError{Reason: "missing version marker"}
	}
	table, ok := tables[prefix]
	if !ok {
		return nil, &DecodeError{Version: prefix, Reason: "unknown version marker"}
	}
	b64 := substitute(reverse(rest), table)
	plain, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, &DecodeError{Version: prefix, Reason: "malformed payload", Err: err}
	}
	return plain, nil
}

// IsEncoded reports whether s carries a known version marker.
func IsEncoded(s string) bool {
	prefix, _, ok := splitMarker(s)
	if !ok {
		return false
	}
	_, known := tables[prefix]
	return known
}

func splitMarker(s string) (prefix, rest string, ok bool) {
	i := strings.Index(s, ":")
	if i < 0 {
		return "", "", false
	}
	return s[:i+1], s[i+1:], true
}

func substitute(s string, table map[rune]rune) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if m, ok := table[r]; ok {
			b.WriteRune(m)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func reverse(s string) string {
	b := []byte(s) // base64 text is ASCII
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}
