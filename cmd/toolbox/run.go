package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/opskit/toolbox/internal/provision"
	"github.com/opskit/toolbox/internal/registry"
)

type runOptions struct {
	inputs []string
}

func newRunCmd(rootFlags *rootFlags) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run <plugin>",
		Short: "Run a plug-in without the interactive window",
		Long: `Run a plug-in headlessly, supplying its inputs on the command line.

Each required input is matched by key:

  toolbox run "Payroll audit" --input BASE=payroll.csv --input DEMO=demographics.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHeadless(cmd, rootFlags, opts, args[0])
		},
	}

	cmd.Flags().StringArrayVarP(&opts.inputs, "input", "i", nil, "Input file as KEY=PATH (repeatable)")

	return cmd
}

func runHeadless(cmd *cobra.Command, rootFlags *rootFlags, opts *runOptions, name string) error {
	reg, cache, runner, log, err := openToolbox(rootFlags)
	if err != nil {
		return err
	}

	plugin, ok := reg.Get(name)
	if !ok {
		return fmt.Errorf("unknown plug-in %q; 'toolbox list' shows what %s provides", name, reg.Dir())
	}

	paths, err := parseInputs(opts.inputs)
	if err != nil {
		return err
	}

	sel := provision.SelectorFunc(func(_ context.Context, req provision.FileRequest) (string, error) {
		path, ok := paths[req.Key]
		if !ok {
			return "", fmt.Errorf("missing --input %s=PATH (%s)", req.Key, req.Label)
		}
		return path, nil
	})

	ctx := cmd.Context()
	request, err := provision.Provision(ctx, plugin.Meta, sel)
	if err != nil {
		return err
	}

	for key := range paths {
		if _, declared := plugin.Meta.RequiredFiles.Get(key); !declared {
			log.WithFields(map[string]any{"key": key}).Warn("input key not declared by plug-in, ignoring")
		}
	}

	_, ch := runner.Start(ctx, plugin, request)
	outcome := <-ch

	status := registry.RunSuccess
	if outcome.Failed() {
		status = registry.RunFailed
	}
	cache.Set(plugin.Name(), registry.CachedRun{
		Status:      status,
		Summary:     outcome.Summary(),
		CompletedAt: time.Now(),
	})
	if err := cache.Save(); err != nil {
		log.Error(err, "could not save run history")
	}

	if outcome.Failed() {
		fmt.Fprintln(cmd.ErrOrStderr(), outcome.Diagnostic())
		return fmt.Errorf("plug-in %q failed after %s", plugin.Name(), outcome.Duration.Round(time.Millisecond))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s finished in %s\n", plugin.Name(), outcome.Duration.Round(time.Millisecond))
	if outcome.Result != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "%v\n", outcome.Result)
	}
	return nil
}

func parseInputs(pairs []string) (map[string]string, error) {
	paths := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, path, found := strings.Cut(pair, "=")
		if !found || key == "" || path == "" {
			return nil, fmt.Errorf("invalid --input %q, expected KEY=PATH", pair)
		}
		paths[key] = path
	}
	return paths, nil
}
