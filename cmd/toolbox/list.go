package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/opskit/toolbox/internal/registry"
)

type listOptions struct {
	jsonOutput bool
}

func newListCmd(rootFlags *rootFlags) *cobra.Command {
	opts := &listOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List discovered plug-ins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, rootFlags, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output in JSON format")

	return cmd
}

func runList(cmd *cobra.Command, rootFlags *rootFlags, opts *listOptions) error {
	reg, cache, _, _, err := openToolbox(rootFlags)
	if err != nil {
		return err
	}

	plugins := reg.List()
	if len(plugins) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No plug-ins found in %s.\n", reg.Dir())
		fmt.Fprintln(cmd.OutOrStdout(), "\nDrop a .lua report script there and run 'toolbox list' again.")
		return nil
	}

	if opts.jsonOutput {
		return renderListJSON(cmd, plugins, cache)
	}

	return renderListTable(cmd, plugins, cache)
}

func renderListTable(cmd *cobra.Command, plugins []registry.Plugin, cache *registry.RunCache) error {
	writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)

	fmt.Fprintln(writer, "NAME\tSTATUS\tLAST RUN\tINPUTS\tDESCRIPTION")

	useUnicode := supportsUnicode(cmd.OutOrStdout())

	for _, p := range plugins {
		run, ok := cache.Get(p.Name())
		if !ok {
			run = registry.CachedRun{Status: registry.RunUnknown}
		}

		fmt.Fprintf(writer, "%s\t%s\t%s\t%d\t%s\n",
			p.Name(),
			formatStatus(run.Status, useUnicode),
			formatRelativeTime(run.CompletedAt),
			p.Meta.RequiredFiles.Len(),
			valueOrFallback(p.Meta.Description, "(no description)"),
		)
	}

	return writer.Flush()
}

type listJSONPlugin struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Path        string             `json:"path"`
	Inputs      []listJSONInput    `json:"inputs"`
	Status      registry.RunStatus `json:"status"`
	LastRun     time.Time          `json:"last_run"`
	Summary     string             `json:"summary,omitempty"`
}

type listJSONInput struct {
	Key    string `json:"key"`
	Label  string `json:"label"`
	Filter string `json:"filter,omitempty"`
}

type listJSONPayload struct {
	Version string           `json:"version"`
	Count   int              `json:"count"`
	Plugins []listJSONPlugin `json:"plugins"`
}

func renderListJSON(cmd *cobra.Command, plugins []registry.Plugin, cache *registry.RunCache) error {
	payload := listJSONPayload{
		Version: "1.0",
		Count:   len(plugins),
		Plugins: make([]listJSONPlugin, len(plugins)),
	}

	for i, p := range plugins {
		run, ok := cache.Get(p.Name())
		if !ok {
			run = registry.CachedRun{Status: registry.RunUnknown}
		}

		inputs := make([]listJSONInput, 0, p.Meta.RequiredFiles.Len())
		for _, entry := range p.Meta.RequiredFiles.Entries() {
			inputs = append(inputs, listJSONInput{
				Key:    entry.Key,
				Label:  entry.Label,
				Filter: p.Meta.Filter(entry.Key),
			})
		}

		payload.Plugins[i] = listJSONPlugin{
			Name:        p.Name(),
			Description: p.Meta.Description,
			Path:        p.Ref.Path,
			Inputs:      inputs,
			Status:      run.Status,
			LastRun:     run.CompletedAt,
			Summary:     run.Summary,
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(payload)
}

func supportsUnicode(writer any) bool {
	if file, ok := writer.(*os.File); ok {
		return term.IsTerminal(int(file.Fd()))
	}
	return false
}

func formatStatus(status registry.RunStatus, useUnicode bool) string {
	if useUnicode {
		return fmt.Sprintf("%s %s", status.Icon(), status.String())
	}
	return fmt.Sprintf("%s %s", status.IconFallback(), status.String())
}

func formatRelativeTime(ts time.Time) string {
	if ts.IsZero() {
		return "never"
	}

	delta := time.Since(ts)
	if delta < time.Minute {
		return "just now"
	}
	if delta < time.Hour {
		return fmt.Sprintf("%d minutes ago", int(delta.Minutes()))
	}
	if delta < 24*time.Hour {
		return fmt.Sprintf("%d hours ago", int(delta.Hours()))
	}

	return fmt.Sprintf("%d days ago", int(delta.Hours()/24))
}

func valueOrFallback(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
