package azure

import (
	"context"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/compute/armcompute/v5"

	"github.com/vmshift/vmshift/internal/domain/migration"
	"github.com/vmshift/vmshift/internal/pkg/poll"
)

const provisioningSucceeded = "Succeeded"

// CopySnapshot starts a CopyStart-based snapshot copy into the target region
// and blocks until the background copy finishes. Completion requires both a
// Succeeded provisioning state and a reported completion percent of 100;
// the ARM PUT finishes long before the data transfer does.
func (p *Provider) CopySnapshot(ctx context.Context, spec migration.CopySpec) (string, error) {
	p.log.Info("copying snapshot cross-region",
		"source", spec.SourceSnapshotID,
		"target", spec.TargetName,
		"region", spec.TargetRegion)

	client := p.compute.NewSnapshotsClient()

	copySnapshot := armcompute.Snapshot{
		Location: to.Ptr(spec.TargetRegion),
		Properties: &armcompute.SnapshotProperties{
			Incremental: to.Ptr(true),
			CreationData: &armcompute.CreationData{
				CreateOption:     to.Ptr(armcompute.DiskCreateOptionCopyStart),
				SourceResourceID: to.Ptr(spec.SourceSnapshotID),
			},
		},
	}

	poller, err := client.BeginCreateOrUpdate(ctx, spec.TargetGroup, spec.TargetName, copySnapshot, nil)
	if err != nil {
		return "", fmt.Errorf("failed to start copy of %s: %w", spec.TargetName, err)
	}

	resp, err := poller.PollUntilDone(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("copy request for %s was not accepted: %w", spec.TargetName, err)
	}
	if resp.ID == nil {
		return "", fmt.Errorf("snapshot copy %s has no identifier", spec.TargetName)
	}

	interval := spec.PollInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}

	err = poll.Until(ctx, poll.Config{Interval: interval, Timeout: spec.Timeout}, func(ctx context.Context) (bool, error) {
		snap, err := client.Get(ctx, spec.TargetGroup, spec.TargetName, nil)
		if err != nil {
			return false, fmt.Errorf("failed to check copy %s: %w", spec.TargetName, err)
		}
		return copyDone(snap.Snapshot, spec.OnProgress)
	})
	if err != nil {
		return "", fmt.Errorf("waiting for snapshot copy %s: %w", spec.TargetName, err)
	}

	return *resp.ID, nil
}

// copyDone evaluates the completion signal of a snapshot copy: provisioning
// state Succeeded with the completion percent, when the API reports one, at
// 100. Anything short of 100 keeps waiting.
func copyDone(snap armcompute.Snapshot, onProgress func(float64)) (bool, error) {
	if snap.Properties == nil {
		return false, nil
	}

	state := deref(snap.Properties.ProvisioningState)
	if state == "Failed" {
		return false, fmt.Errorf("snapshot copy entered Failed provisioning state")
	}

	percent := float64(100)
	if snap.Properties.CompletionPercent != nil {
		percent = float64(*snap.Properties.CompletionPercent)
	}
	if onProgress != nil {
		onProgress(percent)
	}

	return state == provisioningSucceeded && percent >= 100, nil
}
