package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/opskit/toolbox/internal/engine"
	"github.com/opskit/toolbox/internal/logger"
	"github.com/opskit/toolbox/internal/registry"
	"github.com/opskit/toolbox/internal/tui"
)

const scriptsEnvVar = "TOOLBOX_SCRIPTS"

type rootFlags struct {
	scriptsDir string
	logLevel   string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "toolbox",
		Short:         "Toolbox runs report plug-ins over files you pick",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Bare invocation launches the interactive window.
			return runWindow(flags)
		},
	}

	cmd.PersistentFlags().StringVar(&flags.scriptsDir, "scripts", "", "Directory holding plug-in scripts (default ./scripts, or $TOOLBOX_SCRIPTS)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(newListCmd(flags))
	cmd.AddCommand(newRunCmd(flags))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func newRootLogger(flags *rootFlags) (*logger.Logger, error) {
	level := flags.logLevel
	if flags.verbose {
		level = "debug"
	}
	return logger.New(logger.Options{
		Level:   level,
		Console: logger.DefaultConsole(os.Stderr),
		Writer:  os.Stderr,
	})
}

// resolveScriptsDir picks the plug-in directory: the --scripts flag wins,
// then $TOOLBOX_SCRIPTS, then ./scripts next to the working directory.
func resolveScriptsDir(flags *rootFlags) string {
	if flags.scriptsDir != "" {
		return flags.scriptsDir
	}
	if dir := os.Getenv(scriptsEnvVar); dir != "" {
		return dir
	}
	return "scripts"
}

func defaultRunCachePath() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine cache directory: %w", err)
	}
	return filepath.Join(base, "toolbox", "runs.json"), nil
}

// openToolbox wires the pieces every command needs: discovered plug-ins,
// the last-run cache, and a runner.
func openToolbox(flags *rootFlags) (*registry.Registry, *registry.RunCache, *engine.Runner, *logger.Logger, error) {
	log, err := newRootLogger(flags)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	dir := resolveScriptsDir(flags)
	reg, err := registry.Discover(dir, log)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to scan plug-in directory %s: %w", dir, err)
	}

	cachePath, err := defaultRunCachePath()
	if err != nil {
		return nil, nil, nil, nil, err
	}
	cache, err := registry.NewRunCache(cachePath)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to open run cache: %w", err)
	}

	return reg, cache, engine.NewRunner(log), log, nil
}

func runWindow(flags *rootFlags) error {
	reg, cache, runner, log, err := openToolbox(flags)
	if err != nil {
		return err
	}

	log.WithFields(map[string]any{"plugins": reg.Len(), "dir": reg.Dir()}).Debug("launching window")
	return tui.Run(reg, cache, runner, log)
}
