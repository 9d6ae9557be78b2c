package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	appmigrate "github.com/vmshift/vmshift/internal/app/migrate"
	"github.com/vmshift/vmshift/internal/cli/ui"
	"github.com/vmshift/vmshift/internal/domain/resource"
)

var (
	runsStateFile  string
	runsShowOutput string
	runsDeleteYes  bool
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect recorded migration runs",
	Long: `Inspect the local record of migration runs.

Every migration persists its state after each pipeline transition, so a
run interrupted mid-flight still shows how far it got and which resources
had been created.`,
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all recorded runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := appmigrate.NewRunStore(runsStateFile)
		if err != nil {
			return err
		}

		runs := store.List()
		if len(runs) == 0 {
			ui.Info("No migration runs recorded")
			return nil
		}

		table := ui.NewTable("ID", "VM", "TARGET", "STATE", "RESULT", "UPDATED")
		for _, run := range runs {
			result := "ok"
			if run.Failed {
				result = "failed"
			} else if !run.State.Terminal() {
				result = "in progress"
			}
			table.AddRow(
				run.ID,
				resource.NameOf(run.SourceID),
				run.Target.Region,
				string(run.State),
				result,
				run.UpdatedAt.Local().Format(time.RFC3339),
			)
		}
		fmt.Print(table.Render())
		return nil
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show the full record of one run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := appmigrate.NewRunStore(runsStateFile)
		if err != nil {
			return err
		}

		run, err := store.Get(args[0])
		if err != nil {
			return err
		}

		var data []byte
		switch runsShowOutput {
		case "yaml":
			data, err = yaml.Marshal(run)
		case "json":
			data, err = json.MarshalIndent(run, "", "  ")
		default:
			return fmt.Errorf("unsupported output format: %s (valid: json, yaml)", runsShowOutput)
		}
		if err != nil {
			return fmt.Errorf("failed to render run: %w", err)
		}

		fmt.Println(string(data))
		return nil
	},
}

var runsDeleteCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Delete a run record",
	Long: `Delete a run record from the local state file.

Only the record is removed; no Azure resources are touched.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := appmigrate.NewRunStore(runsStateFile)
		if err != nil {
			return err
		}

		run, err := store.Get(args[0])
		if err != nil {
			return err
		}

		if !runsDeleteYes {
			prompt := fmt.Sprintf("Delete run %s (%s)?", run.ID, resource.NameOf(run.SourceID))
			if !ui.Confirm(prompt, false) {
				ui.Info("Aborted")
				return nil
			}
		}

		if err := store.Delete(run.ID); err != nil {
			return err
		}

		if !IsQuiet() {
			ui.Success(fmt.Sprintf("Deleted run %s", run.ID))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsDeleteCmd)

	runsCmd.PersistentFlags().StringVar(&runsStateFile, "state-file", "", "run state file (default is $HOME/.vmshift/runs.json)")
	runsShowCmd.Flags().StringVarP(&runsShowOutput, "output", "o", "yaml", "output format (json, yaml)")
	runsDeleteCmd.Flags().BoolVarP(&runsDeleteYes, "yes", "y", false, "skip the confirmation prompt")
}
