package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wardenhq/warden/internal/policy"
)

var declareFormat string

var declareCmd = &cobra.Command{
	Use:   "declare <text>",
	Short: "Declare a behavioral constraint in plain language",
	Long: `Parse a plain-language constraint, persist it, and mirror it into the graph.

Examples:
  warden declare "No meetings after 9pm"
  warden declare "Budget cap $1000"
  warden declare "Never share datasets with external contractors"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDeclare,
}

func init() {
	declareCmd.Flags().StringVar(&declareFormat, "format", "text", "Output format: text or json")
	rootCmd.AddCommand(declareCmd)
}

func runDeclare(cmd *cobra.Command, args []string) error {
	ctx, span := tracer.Start(cmd.Context(), "declare")
	defer span.End()

	text := strings.Join(args, " ")
	con, err := policy.ParseConstraint(text)
	if err != nil {
		var perr *policy.ParseError
		if errors.As(err, &perr) {
			return fmt.Errorf("%s", perr.Message)
		}
		return err
	}

	deps, cleanup, err := openDeps(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	rec := con.Record()
	if err := deps.store.Put(ctx, deps.cfg.DefaultUserID, rec); err != nil {
		return fmt.Errorf("persisting constraint: %w", err)
	}
	if err := deps.client.UpsertConstraint(ctx, deps.cfg.DefaultUserID, con); err != nil {
		return fmt.Errorf("mirroring constraint to graph: %w", err)
	}

	out := cmd.OutOrStdout()
	if declareFormat == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	}
	fmt.Fprintf(out, "Registered %s %s (%s)\n", rec.Severity, rec.Type, rec.ID)
	fmt.Fprintf(out, "  %q\n", rec.Text)
	return nil
}
