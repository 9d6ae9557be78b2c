package migration

import (
	"context"
	"time"

	"github.com/vmshift/vmshift/internal/domain/resource"
)

// ResourceKind classifies created target resources for deletion.
type ResourceKind string

const (
	KindSnapshot      ResourceKind = "snapshot"
	KindDisk          ResourceKind = "disk"
	KindSecurityGroup ResourceKind = "nsg"
	KindPublicIP      ResourceKind = "publicip"
	KindNIC           ResourceKind = "nic"
	KindVM            ResourceKind = "vm"
)

// ResourceRef names a concrete resource for cleanup.
type ResourceRef struct {
	Kind          ResourceKind `json:"kind"`
	ResourceGroup string       `json:"resource_group"`
	Name          string       `json:"name"`
	ID            string       `json:"id"`
}

// SnapshotSpec requests an incremental snapshot of a source disk.
type SnapshotSpec struct {
	ResourceGroup string
	Name          string
	Region        string
	SourceDiskID  string
}

// CopySpec requests a cross-region snapshot copy and blocks until complete.
type CopySpec struct {
	SourceSnapshotID string
	TargetGroup      string
	TargetName       string
	TargetRegion     string

	// PollInterval is the delay between completion probes.
	PollInterval time.Duration

	// Timeout bounds the whole wait; zero falls back to the poller default.
	Timeout time.Duration

	// OnProgress, when set, receives completion percent updates in [0,100].
	OnProgress func(percent float64)
}

// DiskSpec requests a managed disk built from a copied snapshot.
type DiskSpec struct {
	ResourceGroup string
	Name          string
	Region        string
	Zone          string
	SKU           string
	SnapshotID    string
}

// NICSpec requests the target network interface.
type NICSpec struct {
	ResourceGroup         string
	Name                  string
	Region                string
	SubnetID              string
	NSGID                 string
	PublicIPID            string
	AcceleratedNetworking bool
}

// VMSpec requests the reconstructed VM, attaching an existing OS disk.
type VMSpec struct {
	ResourceGroup string
	Name          string
	Region        string
	Size          string
	OSType        string
	Zone          string
	Tags          map[string]string
	OSDiskID      string
	NICID         string
}

// AttachSpec attaches one existing data disk to the reconstructed VM at its
// original LUN.
type AttachSpec struct {
	ResourceGroup string
	VMName        string
	DiskID        string
	DiskName      string
	LUN           int32
}

// Provider is the cloud operation surface the pipeline drives. The Azure
// implementation lives in internal/infrastructure/azure; tests substitute a
// fake.
type Provider interface {
	// CollectSourceVM reads the VM, its primary NIC, and per-disk SKUs.
	CollectSourceVM(ctx context.Context, id resource.ID) (*SourceVM, error)

	// DeallocateVM stops the source VM, blocking until done.
	DeallocateVM(ctx context.Context, id resource.ID) error

	// CreateSnapshot creates an incremental snapshot and returns its ID.
	CreateSnapshot(ctx context.Context, spec SnapshotSpec) (string, error)

	// CopySnapshot copies a snapshot into the target region, waits for
	// completion, and returns the copy's ID.
	CopySnapshot(ctx context.Context, spec CopySpec) (string, error)

	// EnsureResourceGroup creates the target group if absent.
	EnsureResourceGroup(ctx context.Context, name, region string) error

	// CreateDiskFromSnapshot builds a managed disk and returns its ID.
	CreateDiskFromSnapshot(ctx context.Context, spec DiskSpec) (string, error)

	// ResolveSubnet returns the ID of a subnet by group/vnet/name.
	ResolveSubnet(ctx context.Context, group, vnet, subnet string) (string, error)

	// CreateSecurityGroupShell creates an empty NSG and returns its ID.
	CreateSecurityGroupShell(ctx context.Context, group, name, region string) (string, error)

	// CreatePublicIP creates a static Standard-SKU address and returns its ID.
	CreatePublicIP(ctx context.Context, group, name, region string) (string, error)

	// CreateNetworkInterface creates the target NIC and returns its ID.
	CreateNetworkInterface(ctx context.Context, spec NICSpec) (string, error)

	// CreateVM reconstructs the VM and returns its ID.
	CreateVM(ctx context.Context, spec VMSpec) (string, error)

	// AttachDataDisk attaches one data disk at its recorded LUN.
	AttachDataDisk(ctx context.Context, spec AttachSpec) error

	// Delete removes a previously created resource, blocking until done.
	Delete(ctx context.Context, ref ResourceRef) error
}
