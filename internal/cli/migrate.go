package cli

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	appmigrate "github.com/vmshift/vmshift/internal/app/migrate"
	"github.com/vmshift/vmshift/internal/cli/ui"
	"github.com/vmshift/vmshift/internal/domain/migration"
	"github.com/vmshift/vmshift/internal/domain/resource"
	"github.com/vmshift/vmshift/internal/infrastructure/azure"
)

// pipelineStages is the number of reported stage transitions after Started.
const pipelineStages = 9

var (
	migrateSubscription     string
	migrateCopyTimeout      time.Duration
	migrateOSPollInterval   time.Duration
	migrateDataPollInterval time.Duration
	migrateCleanup          bool
	migrateStateFile        string
	migrateNoUI             bool
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate <vm-resource-id> <target-region> <target-resource-group> <target-vnet> <target-subnet>",
	Short: "Migrate a virtual machine to another region",
	Long: `Migrate an Azure virtual machine to another region.

The migrate command deallocates the source VM, snapshots its OS and data
disks, copies the snapshots into the target region, rebuilds the disks and
network interface there, and recreates the VM attached to them. Data disks
are reattached at their original LUNs.

The source VM is left deallocated in its original resource group. The
target virtual network and subnet must already exist; the target resource
group is created if missing.

Examples:
  # Migrate a VM to westeurope
  vmshift migrate /subscriptions/SUB/resourceGroups/rg1/providers/Microsoft.Compute/virtualMachines/vm1 \
    westeurope rg-west vnet-west default

  # Allow slow copies more time and poll data disks less often
  vmshift migrate <vm-resource-id> eastus2 rg2 vnet2 subnet2 \
    --copy-timeout 4h --data-poll-interval 1m

  # Delete everything created so far if the migration fails
  vmshift migrate <vm-resource-id> eastus2 rg2 vnet2 subnet2 --cleanup-on-failure`,
	Args: cobra.ExactArgs(5),
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)

	migrateCmd.Flags().StringVar(&migrateSubscription, "subscription", "", "Azure subscription ID (default from AZURE_SUBSCRIPTION_ID)")
	migrateCmd.Flags().DurationVar(&migrateCopyTimeout, "copy-timeout", 2*time.Hour, "maximum wait per snapshot copy")
	migrateCmd.Flags().DurationVar(&migrateOSPollInterval, "os-poll-interval", 10*time.Second, "poll interval for the OS disk snapshot copy")
	migrateCmd.Flags().DurationVar(&migrateDataPollInterval, "data-poll-interval", 30*time.Second, "poll interval for data disk snapshot copies")
	migrateCmd.Flags().BoolVar(&migrateCleanup, "cleanup-on-failure", false, "delete created target resources if the migration fails")
	migrateCmd.Flags().StringVar(&migrateStateFile, "state-file", "", "run state file (default is $HOME/.vmshift/runs.json)")
	migrateCmd.Flags().BoolVar(&migrateNoUI, "no-ui", false, "plain text progress instead of the interactive view")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	sourceID := args[0]
	target := migration.Target{
		Region:        args[1],
		ResourceGroup: args[2],
		VNet:          args[3],
		Subnet:        args[4],
	}

	if !IsQuiet() {
		ui.Header("vmshift - Cross-Region VM Migration")
		ui.Info(fmt.Sprintf("Source: %s", resource.NameOf(sourceID)))
		ui.Info(fmt.Sprintf("Target: %s / %s", target.Region, target.ResourceGroup))
		ui.Info(fmt.Sprintf("Network: %s/%s", target.VNet, target.Subnet))
		ui.Divider()
	}

	svc, err := buildService()
	if err != nil {
		return err
	}

	var run *appmigrate.Run
	if IsQuiet() || migrateNoUI {
		run, err = runPlain(cmd, svc, sourceID, target)
	} else {
		run, err = runInteractive(cmd, svc, sourceID, target)
	}

	if err != nil {
		if run != nil {
			ui.Error(fmt.Sprintf("Migration failed in state %s: %v", run.State, err))
			if !migrateCleanup {
				ui.Warning("Created resources were left in place for inspection")
			}
			ui.Info(fmt.Sprintf("Inspect with: vmshift runs show %s", run.ID))
		}
		return fmt.Errorf("migration failed: %w", err)
	}

	if !IsQuiet() {
		ui.Divider()
		ui.Success("Migration completed successfully")
		ui.Info(fmt.Sprintf("Target VM: %s", run.Context.TargetVMID))
		ui.Info(fmt.Sprintf("Run ID: %s", run.ID))
		ui.Warning("The source VM is still deallocated in its original resource group")
	}

	return nil
}

// buildService assembles the Azure provider, run store, and pipeline service
// from flags and the environment.
func buildService() (*appmigrate.Service, error) {
	credCfg := azure.NewCredentialConfig().WithSubscriptionID(migrateSubscription)

	subscriptionID, err := credCfg.GetSubscriptionID()
	if err != nil {
		return nil, err
	}

	cred, err := credCfg.GetCredential()
	if err != nil {
		return nil, err
	}

	provider, err := azure.NewProvider(subscriptionID, cred)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure clients: %w", err)
	}

	store, err := appmigrate.NewRunStore(migrateStateFile)
	if err != nil {
		return nil, err
	}

	opts := appmigrate.Options{
		OSPollInterval:   migrateOSPollInterval,
		DataPollInterval: migrateDataPollInterval,
		CopyTimeout:      migrateCopyTimeout,
		CleanupOnFailure: migrateCleanup,
	}

	return appmigrate.NewService(provider, opts).WithStore(store), nil
}

// runPlain executes the migration printing one line per stage transition.
func runPlain(cmd *cobra.Command, svc *appmigrate.Service, sourceID string, target migration.Target) (*appmigrate.Run, error) {
	stage := 0
	svc.WithProgress(func(ev appmigrate.ProgressEvent) {
		if IsQuiet() {
			return
		}
		if ev.CopyPercent >= 0 {
			fmt.Printf("  %s: %.1f%%\n", ev.Message, ev.CopyPercent)
			return
		}
		stage++
		fmt.Println(ui.SimpleProgress(stage, pipelineStages, ev.Message))
	})

	return svc.Run(cmd.Context(), sourceID, target)
}

// migrateResult carries the pipeline outcome out of its goroutine.
type migrateResult struct {
	run *appmigrate.Run
	err error
}

// runInteractive executes the migration behind a live terminal view.
func runInteractive(cmd *cobra.Command, svc *appmigrate.Service, sourceID string, target migration.Target) (*appmigrate.Run, error) {
	p := tea.NewProgram(ui.NewMigrationModel())

	svc.WithProgress(func(ev appmigrate.ProgressEvent) {
		if ev.CopyPercent >= 0 {
			p.Send(ui.CopyMsg{Message: ev.Message, Percent: ev.CopyPercent})
			return
		}
		p.Send(ui.StageMsg{Stage: string(ev.State), Message: ev.Message})
	})

	// The result is buffered before DoneMsg is sent, so a view quit by
	// DoneMsg always finds it; a view quit early does not.
	results := make(chan migrateResult, 1)
	go func() {
		run, err := svc.Run(cmd.Context(), sourceID, target)
		results <- migrateResult{run: run, err: err}
		p.Send(ui.DoneMsg{Err: err})
	}()

	if _, err := p.Run(); err != nil {
		return nil, fmt.Errorf("terminal UI failed: %w", err)
	}

	return awaitResult(results)
}

// awaitResult returns the pipeline outcome if it has finished, or an
// interruption error when the view was quit while the pipeline still runs.
func awaitResult(results <-chan migrateResult) (*appmigrate.Run, error) {
	select {
	case res := <-results:
		return res.run, res.err
	default:
		return nil, fmt.Errorf("migration interrupted; check `vmshift runs` for its recorded state")
	}
}
