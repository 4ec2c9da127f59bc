package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/TFMV/ctxgen/internal/ignore"
	"github.com/TFMV/ctxgen/internal/snapshot"
)

var (
	cfgFile string
	version = "0.1.0"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ctxgen [dir]",
	Short: "Snapshot a source tree as plain-text context for an LLM",
	Long: `ctxgen walks a source directory and writes a flat directory of text files,
one per source file, plus a file-tree.txt outline of everything it saw.

Binary files, oversized files and common build or dependency directories
are left out. The result can be handed to a language model as context.`,
	Version:       version,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := configFromViper(args)
		if err != nil {
			return err
		}
		logger := newLogger()
		defer logger.Sync()

		return runSnapshot(cmd.Context(), cmd, cfg, logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Config file (default is $HOME/.ctxgen.yaml)")
	flags.StringP("dir", "d", snapshot.DefaultRoot, "Directory to process")
	flags.StringP("output", "o", snapshot.DefaultOutputDir, "Output directory for generated files")
	flags.StringP("ignore", "i", "", "Additional names to ignore (comma-separated)")
	flags.IntP("max-files", "m", snapshot.DefaultMaxFiles, "Maximum number of files to process (-1 for no limit)")
	flags.Int64P("max-size", "s", snapshot.DefaultMaxSize, "Maximum file size in bytes (-1 for no limit)")
	flags.Int("max-depth", snapshot.DefaultMaxDepth, "Maximum directory depth (-1 for no limit)")
	flags.Bool("skip-hidden", false, "Skip hidden files and directories")
	flags.Bool("no-vcs-ignore", false, "Do not honour .gitignore, .ignore and global excludes")
	flags.BoolP("verbose", "v", false, "Enable verbose logging")
	flags.Bool("silent", false, "Disable all output except errors")
	flags.Bool("progress", false, "Show progress updates")

	// Bind flags to viper
	for _, name := range []string{
		"dir", "output", "ignore", "max-files", "max-size", "max-depth",
		"skip-hidden", "no-vcs-ignore", "verbose", "silent", "progress",
	} {
		viper.BindPFlag(name, flags.Lookup(name))
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		// Search config in home directory with name ".ctxgen" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".ctxgen")
	}

	viper.SetEnvPrefix("ctxgen")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// configFromViper builds the run configuration from flags, environment and
// config file. A positional directory argument overrides --dir.
func configFromViper(args []string) (snapshot.Config, error) {
	cfg := snapshot.Config{
		Root:        viper.GetString("dir"),
		OutputDir:   viper.GetString("output"),
		IgnoreNames: ignore.ParseNames(viper.GetString("ignore")),
		MaxFiles:    viper.GetInt("max-files"),
		MaxSize:     viper.GetInt64("max-size"),
		MaxDepth:    viper.GetInt("max-depth"),
		SkipHidden:  viper.GetBool("skip-hidden"),
		NoVCSIgnore: viper.GetBool("no-vcs-ignore"),
	}
	if len(args) > 0 {
		cfg.Root = args[0]
	}
	if err := cfg.Validate(); err != nil {
		return snapshot.Config{}, err
	}
	return cfg, nil
}

// newLogger picks the log level from --verbose and --silent.
func newLogger() *zap.Logger {
	switch {
	case viper.GetBool("verbose"):
		return snapshot.NewLogger(snapshot.LogLevelDebug)
	case viper.GetBool("silent"):
		return snapshot.NewLogger(snapshot.LogLevelError)
	default:
		return snapshot.NewLogger(snapshot.LogLevelInfo)
	}
}

// runSnapshot performs one run and prints its summary.
func runSnapshot(ctx context.Context, cmd *cobra.Command, cfg snapshot.Config, logger *zap.Logger) error {
	opts := snapshot.Options{Logger: logger}
	if viper.GetBool("progress") {
		opts.Progress = func(stats snapshot.Stats) {
			fmt.Fprintf(cmd.ErrOrStderr(), "\rProcessed: %d files, %d dirs, %d skipped, %d errors",
				stats.FilesProcessed, stats.DirsRendered,
				stats.SkippedBinary+stats.SkippedPathTooLong+stats.SkippedReadError, stats.Errors)
		}
	}

	stats, err := snapshot.Run(ctx, cfg, opts)
	if viper.GetBool("progress") && stats.FilesProcessed >= snapshot.ProgressInterval {
		fmt.Fprintln(cmd.ErrOrStderr())
	}
	if err != nil {
		return err
	}

	outputDir, _ := filepath.Abs(cfg.OutputDir)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Context files generated in: %s\n", outputDir)
	fmt.Fprintf(out, "Total files processed: %d\n", stats.FilesProcessed)
	return nil
}
