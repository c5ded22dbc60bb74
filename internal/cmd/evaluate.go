package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wardenhq/warden/internal/policy"
)

var evaluateFormat string

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <text>",
	Short: "Run an action request through the firewall",
	Long: `Classify an action request, evaluate it against the declared constraints,
and record the decision in the graph.

Examples:
  warden evaluate "Book a meeting with the client at 10pm"
  warden evaluate "Spend $1,500 on the new laptop"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEvaluate,
}

func init() {
	evaluateCmd.Flags().StringVar(&evaluateFormat, "format", "text", "Output format: text or json")
	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	ctx, span := tracer.Start(cmd.Context(), "evaluate")
	defer span.End()

	deps, cleanup, err := openDeps(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	records, err := deps.store.List(ctx, deps.cfg.DefaultUserID)
	if err != nil {
		return fmt.Errorf("loading constraints: %w", err)
	}

	engine := policy.NewEngine(deps.client)
	decision, err := engine.Evaluate(ctx, deps.cfg.DefaultUserID, strings.Join(args, " "), records)
	if err != nil {
		return fmt.Errorf("evaluating action: %w", err)
	}

	out := cmd.OutOrStdout()
	if evaluateFormat == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(decision)
	}

	if decision.OK {
		fmt.Fprintf(out, "APPROVED %s (%s)\n", decision.ActionID, decision.ActionType)
		fmt.Fprintf(out, "  %s\n", decision.Message)
		return nil
	}
	fmt.Fprintf(out, "BLOCKED %s (%s)\n", decision.ActionID, decision.ActionType)
	fmt.Fprintf(out, "  %s\n", decision.Message)
	for _, v := range decision.Violations {
		fmt.Fprintf(out, "  violates %s %s: %q\n", v.Severity, v.Type, v.Text)
	}
	if len(decision.Alternatives) > 0 {
		fmt.Fprintln(out, "Try instead:")
		for _, alt := range decision.Alternatives {
			fmt.Fprintf(out, "  - %s\n", alt)
		}
	}
	return nil
}
