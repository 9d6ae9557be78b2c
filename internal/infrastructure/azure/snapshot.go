package azure

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/compute/armcompute/v5"

	"github.com/vmshift/vmshift/internal/domain/migration"
	"github.com/vmshift/vmshift/internal/domain/resource"
)

// DeallocateVM stops and deallocates the source VM, blocking until the
// operation completes. Snapshotting disks of a running VM risks
// inconsistent data.
func (p *Provider) DeallocateVM(ctx context.Context, id resource.ID) error {
	p.log.Info("deallocating source VM", "vm", id.Name, "resource_group", id.ResourceGroup)

	poller, err := p.compute.NewVirtualMachinesClient().BeginDeallocate(ctx, id.ResourceGroup, id.Name, nil)
	if err != nil {
		return fmt.Errorf("failed to start deallocation of %s: %w", id.Name, err)
	}

	if _, err := poller.PollUntilDone(ctx, nil); err != nil {
		return fmt.Errorf("deallocation of %s did not complete: %w", id.Name, err)
	}

	return nil
}

// CreateSnapshot creates one incremental snapshot of a managed disk and
// returns the snapshot's resource ID.
func (p *Provider) CreateSnapshot(ctx context.Context, spec migration.SnapshotSpec) (string, error) {
	p.log.Info("creating snapshot", "name", spec.Name, "disk", spec.SourceDiskID)

	snapshot := armcompute.Snapshot{
		Location: to.Ptr(spec.Region),
		Properties: &armcompute.SnapshotProperties{
			Incremental: to.Ptr(true),
			CreationData: &armcompute.CreationData{
				CreateOption:     to.Ptr(armcompute.DiskCreateOptionCopy),
				SourceResourceID: to.Ptr(spec.SourceDiskID),
			},
		},
	}

	poller, err := p.compute.NewSnapshotsClient().BeginCreateOrUpdate(ctx, spec.ResourceGroup, spec.Name, snapshot, nil)
	if err != nil {
		return "", fmt.Errorf("failed to start snapshot %s: %w", spec.Name, err)
	}

	resp, err := poller.PollUntilDone(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("snapshot %s did not complete: %w", spec.Name, err)
	}

	if resp.ID == nil {
		return "", fmt.Errorf("snapshot %s completed without an identifier", spec.Name)
	}
	return *resp.ID, nil
}
