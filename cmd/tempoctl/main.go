// Command tempoctl is an operator CLI for the orchestrator core: submit
// scenarios, inspect their status, and check a service queue's depth,
// talking to the store directly the same way the HTTP server does.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"go-tempo/internal/config"
	"go-tempo/internal/publisher"
	"go-tempo/internal/query"
	"go-tempo/internal/store"
	"go-tempo/internal/template"
)

var (
	configFile string
	paramFlags []string
)

func main() {
	if err := buildRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "tempoctl",
		Short: "tempoctl operates the scenario orchestration core",
		Long: `tempoctl submits scenario templates, inspects scenario and
task status, and reports service queue depth against a running store.`,
	}

	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path (defaults + environment apply if omitted)")

	root.AddCommand(buildSubmitCommand())
	root.AddCommand(buildStatusCommand())
	root.AddCommand(buildQueueDepthCommand())

	return root
}

func buildSubmitCommand() *cobra.Command {
	var version string

	cmd := &cobra.Command{
		Use:   "submit <template>",
		Short: "Submit a scenario template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseParams(paramFlags)
			if err != nil {
				return err
			}
			return runSubmit(args[0], version, params)
		},
	}

	cmd.Flags().StringVar(&version, "version", "", "template version (defaults to the only registered version, else v1)")
	cmd.Flags().StringArrayVar(&paramFlags, "param", nil, "template parameter as key=value (repeatable)")

	return cmd
}

func buildStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status <scenario-id>",
		Short: "Show a scenario's task status summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(args[0])
		},
	}
}

func buildQueueDepthCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "queue-depth <service>",
		Short: "Show a service queue's current depth",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueueDepth(args[0])
		},
	}
}

func runSubmit(templateName, version string, params map[string]any) error {
	cfg, st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	registry, err := template.LoadDir(cfg.TemplateDir)
	if err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}

	pub := publisher.New(registry, st, nil)
	scenarioID, err := pub.Submit(context.Background(), templateName, version, params)
	if err != nil {
		return fmt.Errorf("submit failed: %w", err)
	}

	fmt.Println(scenarioID)
	return nil
}

func runStatus(scenarioID string) error {
	_, st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	q := query.New(st)
	summary, err := q.GetScenario(context.Background(), scenarioID)
	if err != nil {
		return fmt.Errorf("status failed: %w", err)
	}

	fmt.Printf("scenario %s (%s@%s)\n", summary.Scenario.ScenarioID, summary.Scenario.TemplateName, summary.Scenario.TemplateVersion)
	for status, n := range summary.Counts {
		fmt.Printf("  %-10s %d\n", status, n)
	}
	fmt.Printf("  stuck: %v  done: %v\n", summary.Stuck(), summary.Done())
	return nil
}

func runQueueDepth(service string) error {
	_, st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	q := query.New(st)
	depth, err := q.QueueDepth(context.Background(), service)
	if err != nil {
		return fmt.Errorf("queue-depth failed: %w", err)
	}

	fmt.Printf("%s: %d\n", service, depth)
	return nil
}

func openStore() (config.Config, *store.Store, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("failed to load config: %w", err)
	}

	st, err := store.New(context.Background(), cfg.StoreURL)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("failed to connect to store: %w", err)
	}

	return cfg, st, nil
}

func parseParams(flags []string) (map[string]any, error) {
	if len(flags) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(flags))
	for _, f := range flags {
		key, value, ok := strings.Cut(f, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --param %q, expected key=value", f)
		}

		var decoded any
		if err := json.Unmarshal([]byte(value), &decoded); err != nil {
			decoded = value
		}
		out[key] = decoded
	}
	return out, nil
}
