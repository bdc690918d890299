package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/byte4ever/hasher/digest"
)

// Output formats.
const (
	OutputText = "text"
	OutputJSON = "json"
)

// ErrInvalid is returned when a configuration value is out of range.
var ErrInvalid = errors.New("invalid configuration")

// Config holds every setting of a hasher run.
type Config struct {
	// Algorithm is the default digest algorithm name.
	Algorithm string `yaml:"algorithm"`

	// Output selects "text" or "json" results.
	Output string `yaml:"output"`

	// Format is the text template for results. Empty means the built-in
	// layout.
	Format string `yaml:"format"`

	// Strict turns a verification mismatch into a failing exit code.
	Strict bool `yaml:"strict"`

	// Server configures the web front end.
	Server Server `yaml:"server"`

	// Bucket configures the S3 object source.
	Bucket Bucket `yaml:"bucket"`

	// Manifest configures manifest building.
	Manifest Manifest `yaml:"manifest"`
}

// Server holds the web front end settings.
type Server struct {
	// Addr is the listen address. The default binds the loopback
	// interface only.
	Addr string `yaml:"addr"`

	// MaxUploadBytes bounds the size of a request body.
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`

	// MaxExtractBytes bounds the total uncompressed size of an uploaded
	// ZIP archive.
	MaxExtractBytes int64 `yaml:"max_extract_bytes"`

	// ReadTimeout bounds reading a whole request, as a Go duration.
	ReadTimeout string `yaml:"read_timeout"`

	// ShutdownTimeout bounds graceful shutdown, as a Go duration.
	ShutdownTimeout string `yaml:"shutdown_timeout"`

	// AllowLocalPaths lets clients hash paths on the server host.
	AllowLocalPaths bool `yaml:"allow_local_paths"`
}

// Bucket holds the S3 client settings.
type Bucket struct {
	// Region is the AWS region. Empty falls back to the SDK chain.
	Region string `yaml:"region"`

	// Endpoint overrides the S3 endpoint, for S3 compatible stores.
	Endpoint string `yaml:"endpoint"`

	// PathStyle forces path-style addressing.
	PathStyle bool `yaml:"path_style"`

	// Profile selects a shared credentials profile.
	Profile string `yaml:"profile"`
}

// Manifest holds manifest building settings.
type Manifest struct {
	// Workers is the number of files hashed concurrently.
	Workers int `yaml:"workers"`

	// Encoding is "yaml" or "json".
	Encoding string `yaml:"encoding"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Algorithm: digest.DefaultAlgorithm.String(),
		Output:    OutputText,
		Server: Server{
			Addr:            "127.0.0.1:8080",
			MaxUploadBytes:  512 << 20,
			MaxExtractBytes: 2 << 30,
			ReadTimeout:     "5m",
			ShutdownTimeout: "10s",
			AllowLocalPaths: true,
		},
		Manifest: Manifest{
			Workers:  4,
			Encoding: "yaml",
		},
	}
}

// Load returns Default overlaid with the YAML file at path. An empty path
// returns Default unchanged.
func Load(path string) (Config, error) {
	const errCtx = "loading config"

	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path) //nolint:gosec // path from CLI flag
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", errCtx, err)
	}

	if err := Decode(bytes.NewReader(raw), &cfg); err != nil {
		return Config{}, fmt.Errorf("%s: %s: %w", errCtx, path, err)
	}

	return cfg, nil
}

// Decode overlays the YAML document read from r onto cfg and validates
// the result. Unknown keys are rejected and zero values fall back to
// Default.
func Decode(r io.Reader, cfg *Config) error {
	const errCtx = "decoding config"

	err := yaml.NewDecoder(r, yaml.DisallowUnknownField()).Decode(cfg)
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	cfg.fillDefaults()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

func (c *Config) fillDefaults() {
	def := Default()

	setString(&c.Algorithm, def.Algorithm)
	setString(&c.Output, def.Output)
	setString(&c.Server.Addr, def.Server.Addr)
	setString(&c.Server.ReadTimeout, def.Server.ReadTimeout)
	setString(&c.Server.ShutdownTimeout, def.Server.ShutdownTimeout)
	setString(&c.Manifest.Encoding, def.Manifest.Encoding)

	if c.Server.MaxUploadBytes == 0 {
		c.Server.MaxUploadBytes = def.Server.MaxUploadBytes
	}

	if c.Server.MaxExtractBytes == 0 {
		c.Server.MaxExtractBytes = def.Server.MaxExtractBytes
	}

	if c.Manifest.Workers == 0 {
		c.Manifest.Workers = def.Manifest.Workers
	}
}

func setString(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}

// Validate checks that every value is usable.
func (c Config) Validate() error {
	if _, err := digest.Resolve(c.Algorithm); err != nil {
		return err
	}

	switch c.Output {
	case OutputText, OutputJSON:
	default:
		return fmt.Errorf("%w: output %q", ErrInvalid, c.Output)
	}

	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf(
			"%w: server.max_upload_bytes %d",
			ErrInvalid, c.Server.MaxUploadBytes,
		)
	}

	if c.Server.MaxExtractBytes <= 0 {
		return fmt.Errorf(
			"%w: server.max_extract_bytes %d",
			ErrInvalid, c.Server.MaxExtractBytes,
		)
	}

	if _, err := c.Server.ReadTimeoutDuration(); err != nil {
		return err
	}

	if _, err := c.Server.ShutdownTimeoutDuration(); err != nil {
		return err
	}

	if c.Manifest.Workers < 1 {
		return fmt.Errorf(
			"%w: manifest.workers %d",
			ErrInvalid, c.Manifest.Workers,
		)
	}

	switch c.Manifest.Encoding {
	case "yaml", "json":
	default:
		return fmt.Errorf(
			"%w: manifest.encoding %q",
			ErrInvalid, c.Manifest.Encoding,
		)
	}

	return nil
}

// ReadTimeoutDuration parses ReadTimeout.
func (s Server) ReadTimeoutDuration() (time.Duration, error) {
	return parseDuration("server.read_timeout", s.ReadTimeout)
}

// ShutdownTimeoutDuration parses ShutdownTimeout.
func (s Server) ShutdownTimeoutDuration() (time.Duration, error) {
	return parseDuration("server.shutdown_timeout", s.ShutdownTimeout)
}

func parseDuration(key, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrInvalid, key, err)
	}

	if d < 0 {
		return 0, fmt.Errorf("%w: %s is negative", ErrInvalid, key)
	}

	return d, nil
}
