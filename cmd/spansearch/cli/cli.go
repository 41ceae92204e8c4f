// Package cli implements the spansearch command tree.
//
// Logging:
//   - The logger is built once per invocation from the loaded config
//   - A ComponentFilterHandler applies per-component level overrides
//   - Log records go to the command's error stream, results to its output
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"spansearch/internal/config"
	"spansearch/internal/logging"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app holds the state shared by the subcommands of one invocation.
type app struct {
	version string
	cfg     *config.Config
	logger  *slog.Logger
}

// NewRootCommand returns the spansearch command with all subcommands wired
// in.
func NewRootCommand(version string) *cobra.Command {
	a := &app{version: version, logger: logging.Discard()}

	cmd := &cobra.Command{
		Use:           "spansearch",
		Short:         "Positional span search over annotated corpora",
		Long:          "Compile KoralQuery documents into span queries and run them against index segments.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.String("config", "", "config file (default: spansearch.yaml in the working or home directory)")
	flags.String("home", "", "home directory (default: platform config dir)")
	flags.String("field", "", "token stream queries run against (default tokens)")
	flags.String("log-level", "", "default log level (default info)")
	flags.StringSlice("log-component", nil, "per-component log level, e.g. searcher=debug (repeatable)")
	flags.Int("parallelism", 0, "segments searched concurrently (default: number of CPUs)")
	flags.StringP("output", "o", "table", "output format: table or json")

	cmd.AddCommand(
		a.newCompileCmd(),
		a.newSearchCmd(),
		a.newMatchIDCmd(),
		a.newIndexCmd(),
		a.newTermsCmd(),
		a.newWatchCmd(),
		a.newVersionCmd(),
	)
	return cmd
}

// flagKeys maps persistent flags to config keys.
var flagKeys = map[string]string{
	"home":          config.KeyHome,
	"field":         config.KeyField,
	"log-level":     config.KeyLogLevel,
	"log-component": config.KeyComponentLevels,
	"parallelism":   config.KeyParallelism,
}

// setup loads the config and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	v := viper.New()
	for name, key := range flagKeys {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return err
		}
	}
	for name, key := range commandFlagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(v, path)
	if err != nil {
		return err
	}
	a.cfg = cfg

	levels, err := cfg.Levels()
	if err != nil {
		return err
	}
	a.logger = logging.New(cmd.ErrOrStderr(), cfg.Level(), levels)
	return nil
}

// commandFlagKeys maps subcommand flags to config keys. Only flags defined
// on the running command are bound.
var commandFlagKeys = map[string]string{
	"limit":         config.KeyLimit,
	"segments":      config.KeySegments,
	"compress":      config.KeyCompress,
	"cache-size":    config.KeyCacheSize,
	"posting-cache": config.KeyPostingCacheSize,
}

func (a *app) printer(cmd *cobra.Command) *printer {
	format, _ := cmd.Flags().GetString("output")
	return newPrinter(format, cmd.OutOrStdout())
}

// readInput resolves a command argument: "-" reads the command input,
// "@path" reads a file and anything else is taken literally.
func readInput(cmd *cobra.Command, arg string) ([]byte, error) {
	switch {
	case arg == "-":
		return io.ReadAll(cmd.InOrStdin())
	case strings.HasPrefix(arg, "@"):
		data, err := os.ReadFile(arg[1:])
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", arg[1:], err)
		}
		return data, nil
	default:
		return []byte(arg), nil
	}
}

func (a *app) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), a.version)
		},
	}
}
