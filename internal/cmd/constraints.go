package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wardenhq/warden/internal/constraint"
)

var constraintsFormat string

var constraintsCmd = &cobra.Command{
	Use:   "constraints",
	Short: "Manage declared constraints",
}

var constraintsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the declared constraints",
	RunE:  constraintsList,
}

var constraintsImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import constraint records from a JSON file",
	Long: `Import a JSON array of constraint records. Each record is validated
against the record schema before anything is written; a single invalid
record rejects the whole file.`,
	Args: cobra.ExactArgs(1),
	RunE: constraintsImport,
}

func init() {
	constraintsListCmd.Flags().StringVar(&constraintsFormat, "format", "text", "Output format: text or json")
	constraintsCmd.AddCommand(constraintsListCmd)
	constraintsCmd.AddCommand(constraintsImportCmd)
	rootCmd.AddCommand(constraintsCmd)
}

func constraintsList(cmd *cobra.Command, _ []string) error {
	ctx, span := tracer.Start(cmd.Context(), "constraints.list")
	defer span.End()

	deps, cleanup, err := openDeps(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	records, err := deps.store.List(ctx, deps.cfg.DefaultUserID)
	if err != nil {
		return fmt.Errorf("listing constraints: %w", err)
	}

	out := cmd.OutOrStdout()
	if constraintsFormat == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	if len(records) == 0 {
		fmt.Fprintln(out, "No constraints declared.")
		return nil
	}
	for _, rec := range records {
		fmt.Fprintf(out, "%s  %-26s %s  %q\n", rec.ID, rec.Type, rec.Severity, rec.Text)
	}
	fmt.Fprintf(out, "%d constraint(s)\n", len(records))
	return nil
}

func constraintsImport(cmd *cobra.Command, args []string) error {
	ctx, span := tracer.Start(cmd.Context(), "constraints.import")
	defer span.End()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parsing %s: expected a JSON array of records: %w", args[0], err)
	}

	// Validate everything up front so a bad record cannot leave a partial import.
	records := make([]constraint.Record, 0, len(raw))
	for i, item := range raw {
		if err := constraint.ValidateRecordJSON(item); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		var m map[string]any
		if err := json.Unmarshal(item, &m); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		records = append(records, constraint.DecodeRecord(m).Normalize())
	}

	deps, cleanup, err := openDeps(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	for _, rec := range records {
		if err := deps.store.Put(ctx, deps.cfg.DefaultUserID, rec); err != nil {
			return fmt.Errorf("persisting %s: %w", rec.ID, err)
		}
		con, err := rec.Typed()
		if err != nil {
			return fmt.Errorf("record %s: %w", rec.ID, err)
		}
		if err := deps.client.UpsertConstraint(ctx, deps.cfg.DefaultUserID, con); err != nil {
			return fmt.Errorf("mirroring %s to graph: %w", rec.ID, err)
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d constraint(s)\n", len(records))
	return nil
}
