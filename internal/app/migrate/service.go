// Package migrate orchestrates the cross-region VM migration pipeline.
package migrate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/vmshift/vmshift/internal/domain/migration"
	"github.com/vmshift/vmshift/internal/domain/resource"
	"github.com/vmshift/vmshift/internal/pkg/logger"
)

// Options controls pipeline timing and failure behavior.
type Options struct {
	// OSPollInterval is the delay between OS snapshot copy probes.
	OSPollInterval time.Duration

	// DataPollInterval is the delay between data snapshot copy probes.
	DataPollInterval time.Duration

	// CopyTimeout bounds each snapshot copy wait.
	CopyTimeout time.Duration

	// CleanupOnFailure deletes created target resources in reverse order
	// when the pipeline aborts. Off by default: the spec behavior is to
	// leave partial state for manual remediation.
	CleanupOnFailure bool
}

// DefaultOptions mirror the original tool's polling cadence.
func DefaultOptions() Options {
	return Options{
		OSPollInterval:   10 * time.Second,
		DataPollInterval: 30 * time.Second,
		CopyTimeout:      2 * time.Hour,
	}
}

// ProgressEvent reports a pipeline stage transition or copy progress.
type ProgressEvent struct {
	State   migration.State `json:"state"`
	Message string          `json:"message"`

	// CopyPercent is the completion percent of an ongoing snapshot copy,
	// or -1 when the event is not a copy update.
	CopyPercent float64 `json:"copy_percent"`
}

// ProgressCallback is called as the pipeline advances.
type ProgressCallback func(event ProgressEvent)

// Service runs migrations against a cloud provider.
type Service struct {
	provider migration.Provider
	store    *RunStore
	opts     Options
	progress ProgressCallback
	log      *slog.Logger

	// now is swappable for deterministic snapshot names in tests.
	now func() time.Time
}

// NewService creates a migration service.
func NewService(p migration.Provider, opts Options) *Service {
	return &Service{
		provider: p,
		opts:     opts,
		log:      logger.Default(),
		now:      time.Now,
	}
}

// WithStore enables run persistence.
func (s *Service) WithStore(store *RunStore) *Service {
	s.store = store
	return s
}

// WithProgress sets the progress callback.
func (s *Service) WithProgress(cb ProgressCallback) *Service {
	s.progress = cb
	return s
}

// Run executes the full pipeline for one VM. The returned Run reflects the
// final state even on error; failures halt immediately and leave created
// resources in place unless CleanupOnFailure is set.
func (s *Service) Run(ctx context.Context, sourceID string, target migration.Target) (*Run, error) {
	src, err := resource.Parse(sourceID)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(src.Provider, "Microsoft.Compute") || !strings.EqualFold(src.Type, "virtualMachines") {
		return nil, fmt.Errorf("%w: not a virtual machine identifier: %q", resource.ErrMalformedID, sourceID)
	}

	mc := migration.NewContext(src, target)
	run := &Run{ID: "unsaved", SourceID: mc.SourceID, Target: target, State: mc.State, Context: mc}
	if s.store != nil {
		run, err = s.store.Create(mc)
		if err != nil {
			return nil, err
		}
	}

	log := logger.WithRun(run.ID).With(slog.String("vm", src.Name))
	cleanup := NewCleanupList()

	if err := s.execute(ctx, run, mc, cleanup, log); err != nil {
		run.Failed = true
		run.Error = err.Error()
		s.persist(run, log)

		if s.opts.CleanupOnFailure {
			log.Warn("migration failed, deleting created target resources", "state", mc.State)
			// The run context may be canceled; cleanup still has to finish.
			s.cleanupAfterFailure(context.WithoutCancel(ctx), cleanup, log)
		}
		return run, err
	}

	s.persist(run, log)
	return run, nil
}

// execute walks the pipeline stages in order, advancing the state machine
// after each one.
func (s *Service) execute(ctx context.Context, run *Run, mc *migration.Context, cleanup *CleanupList, log *slog.Logger) error {
	if err := s.collectMetadata(ctx, mc); err != nil {
		return err
	}
	s.report(run, mc, "collected source configuration")

	if err := s.deallocateSource(ctx, mc); err != nil {
		return err
	}
	s.report(run, mc, "source VM deallocated")

	if err := s.createSnapshots(ctx, mc, cleanup); err != nil {
		return err
	}
	s.report(run, mc, fmt.Sprintf("created %d snapshot(s)", len(mc.Snapshots)))

	if err := s.copySnapshots(ctx, mc, cleanup); err != nil {
		return err
	}
	s.report(run, mc, "snapshots copied to target region")

	if err := s.createDisks(ctx, mc, cleanup); err != nil {
		return err
	}
	s.report(run, mc, fmt.Sprintf("created %d managed disk(s)", len(mc.TargetDiskIDs)))

	if err := s.buildNetwork(ctx, mc, cleanup); err != nil {
		return err
	}
	s.report(run, mc, "target network interface ready")

	if err := s.createVM(ctx, mc, cleanup); err != nil {
		return err
	}
	s.report(run, mc, "virtual machine created in target region")

	if err := s.attachDataDisks(ctx, mc); err != nil {
		return err
	}
	s.report(run, mc, "data disks attached")

	if err := mc.Advance(migration.StateComplete); err != nil {
		return err
	}
	s.report(run, mc, "migration complete")
	log.Info("migration complete", "target_vm", mc.TargetVMID)
	return nil
}

func (s *Service) collectMetadata(ctx context.Context, mc *migration.Context) error {
	vm, err := s.provider.CollectSourceVM(ctx, mc.Source)
	if err != nil {
		return fmt.Errorf("collecting source configuration: %w", err)
	}
	mc.VM = vm
	return mc.Advance(migration.StateMetadataCollected)
}

func (s *Service) deallocateSource(ctx context.Context, mc *migration.Context) error {
	if err := s.provider.DeallocateVM(ctx, mc.Source); err != nil {
		return fmt.Errorf("deallocating source VM: %w", err)
	}
	return mc.Advance(migration.StateSourceDeallocated)
}

// createSnapshots snapshots every disk, OS first then data disks in
// ascending LUN order, in the source resource group.
func (s *Service) createSnapshots(ctx context.Context, mc *migration.Context, cleanup *CleanupList) error {
	ts := s.now()
	dataIndex := 0

	for _, disk := range mc.VM.Disks() {
		index := 0
		if disk.Role == migration.RoleData {
			index = dataIndex
			dataIndex++
		}
		name := migration.SnapshotName(mc.Source.Name, disk.Role, index, ts)

		// Registered before the create: a snapshot whose provisioning
		// poll fails may still exist and must be swept.
		cleanup.Register(migration.ResourceRef{
			Kind:          migration.KindSnapshot,
			ResourceGroup: mc.Source.ResourceGroup,
			Name:          name,
		})

		id, err := s.provider.CreateSnapshot(ctx, migration.SnapshotSpec{
			ResourceGroup: mc.Source.ResourceGroup,
			Name:          name,
			Region:        mc.VM.Location,
			SourceDiskID:  disk.ID,
		})
		if err != nil {
			return fmt.Errorf("snapshotting disk %s: %w", disk.Name, err)
		}

		mc.Snapshots = append(mc.Snapshots, migration.Snapshot{
			Disk:     disk,
			Name:     name,
			SourceID: id,
		})
	}

	return mc.Advance(migration.StateSnapshotsCreated)
}

// copySnapshots replicates each snapshot into the target region. The target
// resource group is ensured first since the copies land in it.
func (s *Service) copySnapshots(ctx context.Context, mc *migration.Context, cleanup *CleanupList) error {
	if err := s.provider.EnsureResourceGroup(ctx, mc.Target.ResourceGroup, mc.Target.Region); err != nil {
		return fmt.Errorf("ensuring target resource group: %w", err)
	}

	for i := range mc.Snapshots {
		snap := &mc.Snapshots[i]
		snap.TargetName = migration.CopyName(snap.Name, mc.Target.Region)

		interval := s.opts.DataPollInterval
		if snap.Disk.Role == migration.RoleOS {
			interval = s.opts.OSPollInterval
		}

		// The target snapshot exists as soon as the copy is accepted, so
		// a timed-out completion wait must still sweep it.
		cleanup.Register(migration.ResourceRef{
			Kind:          migration.KindSnapshot,
			ResourceGroup: mc.Target.ResourceGroup,
			Name:          snap.TargetName,
		})

		targetID, err := s.provider.CopySnapshot(ctx, migration.CopySpec{
			SourceSnapshotID: snap.SourceID,
			TargetGroup:      mc.Target.ResourceGroup,
			TargetName:       snap.TargetName,
			TargetRegion:     mc.Target.Region,
			PollInterval:     interval,
			Timeout:          s.opts.CopyTimeout,
			OnProgress: func(percent float64) {
				s.emit(ProgressEvent{
					State:       mc.State,
					Message:     fmt.Sprintf("copying %s", snap.TargetName),
					CopyPercent: percent,
				})
			},
		})
		if err != nil {
			return fmt.Errorf("copying snapshot %s: %w", snap.Name, err)
		}

		snap.TargetID = targetID
		snap.CopyState = "Succeeded"
	}

	return mc.Advance(migration.StateSnapshotsCopied)
}

// createDisks rebuilds one managed disk per copied snapshot with the
// recorded original SKU. Zonal VMs get zonal disks.
func (s *Service) createDisks(ctx context.Context, mc *migration.Context, cleanup *CleanupList) error {
	dataIndex := 0

	for _, snap := range mc.Snapshots {
		index := 0
		if snap.Disk.Role == migration.RoleData {
			index = dataIndex
			dataIndex++
		}
		name := migration.TargetDiskName(mc.Source.Name, snap.Disk.Role, index)

		cleanup.Register(migration.ResourceRef{
			Kind:          migration.KindDisk,
			ResourceGroup: mc.Target.ResourceGroup,
			Name:          name,
		})

		id, err := s.provider.CreateDiskFromSnapshot(ctx, migration.DiskSpec{
			ResourceGroup: mc.Target.ResourceGroup,
			Name:          name,
			Region:        mc.Target.Region,
			Zone:          mc.VM.Zone,
			SKU:           snap.Disk.SKU,
			SnapshotID:    snap.TargetID,
		})
		if err != nil {
			return fmt.Errorf("creating disk %s: %w", name, err)
		}

		mc.TargetDiskIDs = append(mc.TargetDiskIDs, id)
	}

	return mc.Advance(migration.StateDisksCreated)
}

// buildNetwork resolves the target subnet and recreates the NIC, plus an
// NSG shell and a fresh public IP when the source had them.
func (s *Service) buildNetwork(ctx context.Context, mc *migration.Context, cleanup *CleanupList) error {
	subnetID, err := s.provider.ResolveSubnet(ctx, mc.Target.ResourceGroup, mc.Target.VNet, mc.Target.Subnet)
	if err != nil {
		return fmt.Errorf("resolving target subnet: %w", err)
	}
	mc.VM.Network.TargetSubnetID = subnetID

	if mc.VM.Network.SourceNSGID != "" {
		name := migration.TargetNSGName(mc.Source.Name)
		cleanup.Register(migration.ResourceRef{
			Kind:          migration.KindSecurityGroup,
			ResourceGroup: mc.Target.ResourceGroup,
			Name:          name,
		})
		id, err := s.provider.CreateSecurityGroupShell(ctx, mc.Target.ResourceGroup, name, mc.Target.Region)
		if err != nil {
			return fmt.Errorf("creating security group shell: %w", err)
		}
		mc.VM.Network.TargetNSGID = id
	}

	if mc.VM.Network.SourcePublicIPID != "" {
		name := migration.TargetPublicIPName(mc.Source.Name)
		cleanup.Register(migration.ResourceRef{
			Kind:          migration.KindPublicIP,
			ResourceGroup: mc.Target.ResourceGroup,
			Name:          name,
		})
		id, err := s.provider.CreatePublicIP(ctx, mc.Target.ResourceGroup, name, mc.Target.Region)
		if err != nil {
			return fmt.Errorf("creating public IP: %w", err)
		}
		mc.VM.Network.TargetPublicIPID = id
	}

	nicName := migration.TargetNICName(mc.Source.Name)
	cleanup.Register(migration.ResourceRef{
		Kind:          migration.KindNIC,
		ResourceGroup: mc.Target.ResourceGroup,
		Name:          nicName,
	})
	nicID, err := s.provider.CreateNetworkInterface(ctx, migration.NICSpec{
		ResourceGroup:         mc.Target.ResourceGroup,
		Name:                  nicName,
		Region:                mc.Target.Region,
		SubnetID:              subnetID,
		NSGID:                 mc.VM.Network.TargetNSGID,
		PublicIPID:            mc.VM.Network.TargetPublicIPID,
		AcceleratedNetworking: mc.VM.AcceleratedNetworking,
	})
	if err != nil {
		return fmt.Errorf("creating network interface: %w", err)
	}
	mc.VM.Network.TargetNICID = nicID

	return mc.Advance(migration.StateNetworkBuilt)
}

func (s *Service) createVM(ctx context.Context, mc *migration.Context, cleanup *CleanupList) error {
	cleanup.Register(migration.ResourceRef{
		Kind:          migration.KindVM,
		ResourceGroup: mc.Target.ResourceGroup,
		Name:          mc.Source.Name,
	})

	id, err := s.provider.CreateVM(ctx, migration.VMSpec{
		ResourceGroup: mc.Target.ResourceGroup,
		Name:          mc.Source.Name,
		Region:        mc.Target.Region,
		Size:          mc.VM.Size,
		OSType:        mc.VM.OSType,
		Zone:          mc.VM.Zone,
		Tags:          mc.VM.Tags,
		OSDiskID:      mc.TargetDiskIDs[0],
		NICID:         mc.VM.Network.TargetNICID,
	})
	if err != nil {
		return fmt.Errorf("creating virtual machine: %w", err)
	}

	mc.TargetVMID = id

	return mc.Advance(migration.StateVMCreated)
}

// attachDataDisks attaches each rebuilt data disk at its original LUN, one
// at a time in ascending LUN order.
func (s *Service) attachDataDisks(ctx context.Context, mc *migration.Context) error {
	dataIndex := 0
	for i, snap := range mc.Snapshots {
		if snap.Disk.Role != migration.RoleData {
			continue
		}
		name := migration.TargetDiskName(mc.Source.Name, migration.RoleData, dataIndex)
		dataIndex++

		err := s.provider.AttachDataDisk(ctx, migration.AttachSpec{
			ResourceGroup: mc.Target.ResourceGroup,
			VMName:        mc.Source.Name,
			DiskID:        mc.TargetDiskIDs[i],
			DiskName:      name,
			LUN:           snap.Disk.LUN,
		})
		if err != nil {
			return fmt.Errorf("attaching data disk %s at LUN %d: %w", name, snap.Disk.LUN, err)
		}
	}

	return mc.Advance(migration.StateDisksAttached)
}

func (s *Service) report(run *Run, mc *migration.Context, message string) {
	run.State = mc.State
	s.emit(ProgressEvent{State: mc.State, Message: message, CopyPercent: -1})
	// Persisting per transition keeps `vmshift runs` accurate even if the
	// process dies mid-pipeline.
	if s.store != nil && run.ID != "unsaved" {
		if err := s.store.Update(run); err != nil {
			s.log.Warn("failed to persist run state", "error", err)
		}
	}
}

func (s *Service) emit(event ProgressEvent) {
	if s.progress != nil {
		s.progress(event)
	}
}

func (s *Service) persist(run *Run, log *slog.Logger) {
	if s.store == nil || run.ID == "unsaved" {
		return
	}
	if err := s.store.Update(run); err != nil {
		log.Warn("failed to persist run", "error", err)
	}
}

func (s *Service) cleanupAfterFailure(ctx context.Context, cleanup *CleanupList, log *slog.Logger) {
	if failed := cleanup.Execute(ctx, s.provider, log); failed > 0 {
		log.Error("some target resources could not be deleted", "failed", failed)
	}
}
