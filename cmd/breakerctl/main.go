// Command breakerctl is a one-shot operator CLI over a breaker.Registry:
// list circuits, print their status, and force a circuit open, closed, or
// back to guarded recovery. It is deliberately not an interactive console
// (spec.md's stated non-goal) — each invocation runs a single subcommand
// against the registry and exits.
//
// breakerctl has no IPC to a running process's in-memory Registry, so
// --config loads a template file (see package config) and instantiates one
// global-scope circuit per template into breaker.Global() before running
// the requested subcommand. This lets an operator inspect and exercise a
// known fleet of circuit definitions without wiring up a real service, and
// doubles as a smoke test for a template file before deploying it.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fenwick-labs/breaker"
	breakerconfig "github.com/fenwick-labs/breaker/config"
)

var configFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "breakerctl",
		Short: "Operator CLI for inspecting and controlling circuit breakers",
		Long: "breakerctl runs a single admin command against a breaker.Registry " +
			"and exits — list circuits, show status, or force a state transition.",
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to a template YAML file to load into the registry before running the command")

	rootCmd.AddCommand(listCmd(), statusCmd(), forceOpenCmd(), forceCloseCmd(), resetCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig populates breaker.Global() from --config, if given. Each
// defined template is instantiated once, at ScopeGlobal, under its own
// name, so the rest of the command sees it via breaker.Global().Find.
func loadConfig() error {
	if configFile == "" {
		return nil
	}
	ts, err := breakerconfig.LoadYAMLFile(configFile)
	if err != nil {
		return fmt.Errorf("load %s: %w", configFile, err)
	}
	factory := breaker.NewDynamicFactory(ts, breaker.Global())
	for _, name := range ts.Names() {
		if _, err := factory.DynamicCircuit(name, name, breaker.ScopeGlobal, nil, nil); err != nil {
			return fmt.Errorf("instantiate template %q: %w", name, err)
		}
	}
	return nil
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every circuit currently registered",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(); err != nil {
				return err
			}
			for _, st := range breaker.Global().AllStatus() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\tin_flight=%d\n", st.Name, st.State, st.InFlight)
			}
			return nil
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <name>",
		Short: "Show the status of one circuit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(); err != nil {
				return err
			}
			c, ok := breaker.Global().Find(args[0])
			if !ok {
				return fmt.Errorf("no circuit named %q", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "name\t%s\nstate\t%s\nin_flight\t%d\n", c.Name(), c.State(), c.InFlight())
			return nil
		},
	}
}

func forceOpenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "force-open <name>",
		Short: "Force a circuit into the Open state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(); err != nil {
				return err
			}
			if !breaker.Global().ForceOpen(args[0]) {
				return fmt.Errorf("no circuit named %q", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s forced open\n", args[0])
			return nil
		},
	}
}

func forceCloseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "force-close <name>",
		Short: "Force a circuit to Closed, ignoring dependency guards",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(); err != nil {
				return err
			}
			if !breaker.Global().ForceClose(args[0]) {
				return fmt.Errorf("no circuit named %q", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s forced closed\n", args[0])
			return nil
		},
	}
}

func resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset <name>",
		Short: "Attempt a guarded manual reset (denied if a dependency is still Open)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(); err != nil {
				return err
			}
			if err := breaker.Global().Reset(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s reset\n", args[0])
			return nil
		},
	}
}
