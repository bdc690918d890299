package render

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/valyala/fasttemplate"
)

// Built-in text layouts.
const (
	// SumFormat mirrors the sha256sum family of tools.
	SumFormat = "{digest}  {path}\n"

	// CompareFormat is used when an expected digest was given.
	CompareFormat = "Comparing with: {expected}\n" +
		"Actual {ALGORITHM} hash: {digest}\n" +
		"{verdict}\n"
)

// ErrUnknownOutput is returned for an output kind other than text or json.
var ErrUnknownOutput = errors.New("unknown output")

// Result is the outcome of hashing one target.
type Result struct {
	Algorithm string `json:"algorithm"`
	Kind      string `json:"kind"`
	Path      string `json:"path"`
	Digest    string `json:"digest"`

	// Expected and Match are set only when a comparison was requested.
	Expected string `json:"expected,omitempty"`
	Match    *bool  `json:"match,omitempty"`

	// Files and Bytes carry the final progress counters of a folder.
	Files int   `json:"files,omitempty"`
	Bytes int64 `json:"bytes,omitempty"`
}

// Compared reports whether the result carries a verification outcome.
func (r Result) Compared() bool {
	return r.Match != nil
}

// Matched reports a successful comparison.
func (r Result) Matched() bool {
	return r.Match != nil && *r.Match
}

// WithMatch returns r carrying the comparison against expected.
func (r Result) WithMatch(expected string, match bool) Result {
	r.Expected = expected
	r.Match = &match

	return r
}

// Verdict is the human summary of a comparison.
func (r Result) Verdict() string {
	switch {
	case !r.Compared():
		return ""
	case *r.Match:
		return "Match!"
	default:
		return "Mismatch!"
	}
}

// Vars returns the placeholder values available to text formats.
func (r Result) Vars() map[string]interface{} {
	match := ""
	if r.Compared() {
		match = strconv.FormatBool(*r.Match)
	}

	return map[string]interface{}{
		"algorithm": r.Algorithm,
		"ALGORITHM": strings.ToUpper(r.Algorithm),
		"kind":      r.Kind,
		"path":      r.Path,
		"digest":    r.Digest,
		"expected":  r.Expected,
		"match":     match,
		"verdict":   r.Verdict(),
		"files":     strconv.Itoa(r.Files),
		"bytes":     strconv.FormatInt(r.Bytes, 10),
	}
}

// Text writes r using format. An empty format picks SumFormat, or
// CompareFormat when r carries a comparison. Unknown placeholders are
// written as-is.
func Text(w io.Writer, format string, r Result) error {
	const errCtx = "rendering text"

	if format == "" {
		format = SumFormat
		if r.Compared() {
			format = CompareFormat
		}
	}

	out := fasttemplate.ExecuteStringStd(format, "{", "}", r.Vars())

	if _, err := io.WriteString(w, out); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// JSON writes r as an indented JSON object followed by a newline.
func JSON(w io.Writer, r Result) error {
	const errCtx = "rendering json"

	buf, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	buf = append(buf, '\n')

	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// Write renders r as "text" or "json".
func Write(w io.Writer, output, format string, r Result) error {
	switch output {
	case "", "text":
		return Text(w, format, r)
	case "json":
		return JSON(w, r)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOutput, output)
	}
}
