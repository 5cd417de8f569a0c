package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/JakeFAU/progress-monitor/internal/app"
	"github.com/JakeFAU/progress-monitor/internal/registry"
)

// newConfigCmd creates the 'config' command group.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect monitor configuration",
	}
	cmd.AddCommand(newConfigShowCmd())
	return cmd
}

// newConfigShowCmd prints the inherited options of configured monitors as
// YAML. Every definition is validated on the way.
func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [monitor...]",
		Short: "Print resolved monitor options",
		Long: `Prints the options of each monitor after dotted-name inheritance. Names
that are not configured themselves resolve through their closest ancestor.
Without arguments every configured monitor is printed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd, args)
		},
	}
}

func showConfig(cmd *cobra.Command, names []string) error {
	e, err := resolveEnv(cmd.Context())
	if err != nil {
		return err
	}
	cfg := e.cfg
	cfg.Server.Listen = ""
	a, err := newApp(cfg, e.logger, app.Options{Stdout: io.Discard, Stderr: io.Discard})
	if err != nil {
		return err
	}
	defer func() { _ = a.Close(cmd.Context()) }()

	reg := a.GetRegistry()
	if len(names) == 0 {
		names = reg.Names()
	}
	resolved := make(map[string]registry.MonitorOptions, len(names))
	for _, name := range names {
		opts, err := reg.Resolve(name)
		if err != nil {
			return err
		}
		resolved[name] = opts
	}
	return writeYAML(cmd.OutOrStdout(), map[string]any{"monitors": resolved})
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return nil
}
