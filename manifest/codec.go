package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/goccy/go-yaml"
)

// Encodings.
const (
	EncodingYAML = "yaml"
	EncodingJSON = "json"
)

// ErrUnknownEncoding is returned for an encoding other than yaml or json.
var ErrUnknownEncoding = errors.New("unknown encoding")

// EncodingFor guesses the encoding of a manifest file from its extension.
// Anything but .json is read as YAML.
func EncodingFor(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return EncodingJSON
	}

	return EncodingYAML
}

// Encode writes m to w.
func Encode(w io.Writer, m *Manifest, encoding string) error {
	const errCtx = "encoding manifest"

	var (
		buf []byte
		err error
	)

	switch encoding {
	case EncodingYAML:
		buf, err = yaml.Marshal(m)
	case EncodingJSON:
		buf, err = json.MarshalIndent(m, "", "  ")
		buf = append(buf, '\n')
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownEncoding, encoding)
	}

	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// Decode reads a manifest from r.
func Decode(r io.Reader, encoding string) (*Manifest, error) {
	const errCtx = "decoding manifest"

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	var m Manifest

	switch encoding {
	case EncodingYAML:
		err = yaml.NewDecoder(bytes.NewReader(raw)).Decode(&m)
	case EncodingJSON:
		err = json.Unmarshal(raw, &m)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownEncoding, encoding)
	}

	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	return &m, nil
}

// ReadFile decodes the manifest stored at path.
func ReadFile(path string) (m *Manifest, retErr error) {
	const errCtx = "reading manifest"

	fi, err := os.Open(path) //nolint:gosec // path from CLI argument
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	defer func() {
		if closeErr := fi.Close(); closeErr != nil && retErr == nil {
			retErr = fmt.Errorf("%s: %w", errCtx, closeErr)
		}
	}()

	m, err = Decode(fi, EncodingFor(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", errCtx, path, err)
	}

	return m, nil
}

// WriteFile stores m at path, encoded according to its extension.
func WriteFile(path string, m *Manifest) error {
	const errCtx = "writing manifest"

	var buf bytes.Buffer

	if err := Encode(&buf, m, EncodingFor(path)); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}
