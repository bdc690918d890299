package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/byte4ever/hasher/bucket"
	"github.com/byte4ever/hasher/config"
	"github.com/byte4ever/hasher/digest"
)

// ConfigEnv names the environment variable holding a config file path.
const ConfigEnv = "HASHER_CONFIG"

// app is the state shared by every command of one invocation.
type app struct {
	stdout io.Writer
	stderr io.Writer
	logger *slog.Logger
	cfg    config.Config

	configPath string
	verbose    bool

	newSource func(config.Bucket) (*bucket.Source, error)
}

// Execute runs the command line with args, writing results to stdout and
// diagnostics to stderr.
func Execute(
	ctx context.Context,
	args []string,
	stdout io.Writer,
	stderr io.Writer,
) error {
	a := newApp(stdout, stderr)

	return a.execute(ctx, args)
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		stdout:    stdout,
		stderr:    stderr,
		logger:    slog.New(slog.NewTextHandler(stderr, nil)),
		cfg:       config.Default(),
		newSource: bucket.NewFromConfig,
	}
}

func (a *app) execute(ctx context.Context, args []string) error {
	root := a.rootCommand()
	root.SetArgs(args)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	return root.ExecuteContext(ctx)
}

func (a *app) rootCommand() *cobra.Command {
	var flags hashFlags

	root := &cobra.Command{
		Use:   "hasher <path>",
		Short: "Compute and verify digests of files and folders",
		Long: "Hasher computes a deterministic digest of a file or of a whole " +
			"directory tree, and optionally compares it with an expected value.",
		Args:              cobra.ExactArgs(1),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runHash(cmd, args[0], flags)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "YAML config file (default $"+ConfigEnv+")")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "log debug messages")
	pf.StringP("algo", "a", digest.DefaultAlgorithm.String(), "hash algorithm (md5, sha1, sha256, sha512)")
	pf.StringP("output", "o", config.OutputText, "output kind (text, json)")
	pf.String("format", "", "text template with {digest}, {path}, {algorithm}, {kind}, {expected}, {verdict}")

	f := root.Flags()
	f.StringVarP(&flags.compare, "compare", "c", "", "expected hash to compare against")
	f.BoolVar(&flags.strict, "strict", false, "exit with code 2 on mismatch")
	f.BoolVar(&flags.unzip, "unzip", false, "hash the content of a .zip archive as a folder")
	f.BoolVar(&flags.progress, "progress", false, "show a progress bar while hashing folders")
	f.BoolVar(&flags.saveSidecar, "save-sidecar", false, "store the digest in <path>.<algo>")
	f.BoolVar(&flags.checkSidecar, "check-sidecar", false, "compare with the digest stored in <path>.<algo>")

	root.AddCommand(
		a.algosCommand(),
		a.serveCommand(),
		a.manifestCommand(),
		a.s3Command(),
	)

	return root
}

// setup loads the configuration and applies persistent flag overrides.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	const errCtx = "loading settings"

	path := a.configPath
	if path == "" {
		path = os.Getenv(ConfigEnv)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	pf := cmd.Flags()

	if pf.Changed("algo") {
		cfg.Algorithm, _ = pf.GetString("algo")
	}

	if pf.Changed("output") {
		cfg.Output, _ = pf.GetString("output")
	}

	if pf.Changed("format") {
		cfg.Format, _ = pf.GetString("format")
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	level := slog.LevelInfo
	if a.verbose {
		level = slog.LevelDebug
	}

	a.logger = slog.New(slog.NewTextHandler(
		a.stderr,
		&slog.HandlerOptions{Level: level},
	))
	a.cfg = cfg

	a.logger.Debug(
		"settings",
		"config", path,
		"algorithm", cfg.Algorithm,
		"output", cfg.Output,
	)

	return nil
}
