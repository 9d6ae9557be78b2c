// Package migration defines the state carried through a cross-region VM
// migration and the contract the pipeline drives against the cloud.
package migration

import (
	"fmt"

	"github.com/vmshift/vmshift/internal/domain/resource"
)

// DiskRole distinguishes the OS disk from data disks.
type DiskRole string

const (
	RoleOS   DiskRole = "os"
	RoleData DiskRole = "data"
)

// Disk describes one managed disk of the source VM.
type Disk struct {
	// ID is the full ARM identifier of the source disk.
	ID string `json:"id"`

	// Name is the disk resource name.
	Name string `json:"name"`

	// SKU is the storage account type, e.g. Premium_LRS.
	SKU string `json:"sku"`

	// Role is RoleOS or RoleData.
	Role DiskRole `json:"role"`

	// LUN is the logical unit number for data disks; -1 for the OS disk.
	LUN int32 `json:"lun"`

	// SizeGB is the provisioned disk size.
	SizeGB int32 `json:"size_gb,omitempty"`
}

// Snapshot tracks one disk snapshot through creation and cross-region copy.
type Snapshot struct {
	// Disk is the source disk the snapshot was taken from.
	Disk Disk `json:"disk"`

	// Name is the snapshot resource name in the source region.
	Name string `json:"name"`

	// SourceID is the ARM identifier of the snapshot in the source region.
	SourceID string `json:"source_id"`

	// TargetName is the copy's resource name in the target region.
	TargetName string `json:"target_name,omitempty"`

	// TargetID is the ARM identifier of the completed copy.
	TargetID string `json:"target_id,omitempty"`

	// CopyState is the last observed provisioning state of the copy.
	CopyState string `json:"copy_state,omitempty"`
}

// NetworkContext holds interface, NSG, public IP, and subnet identifiers for
// source and target sides.
type NetworkContext struct {
	SourceNICID      string `json:"source_nic_id,omitempty"`
	SourceNSGID      string `json:"source_nsg_id,omitempty"`
	SourcePublicIPID string `json:"source_public_ip_id,omitempty"`

	TargetSubnetID   string `json:"target_subnet_id,omitempty"`
	TargetNSGID      string `json:"target_nsg_id,omitempty"`
	TargetPublicIPID string `json:"target_public_ip_id,omitempty"`
	TargetNICID      string `json:"target_nic_id,omitempty"`
}

// SourceVM is the configuration collected from the source VM and its primary
// network interface. Optional fields stay zero-valued when absent.
type SourceVM struct {
	Size                  string            `json:"size"`
	Location              string            `json:"location"`
	OSType                string            `json:"os_type"`
	Zone                  string            `json:"zone,omitempty"`
	Tags                  map[string]string `json:"tags,omitempty"`
	AcceleratedNetworking bool              `json:"accelerated_networking"`

	OSDisk    Disk   `json:"os_disk"`
	DataDisks []Disk `json:"data_disks,omitempty"`

	Network NetworkContext `json:"network"`
}

// Disks returns the OS disk followed by the data disks in ascending LUN
// order, the order snapshots are taken in.
func (v *SourceVM) Disks() []Disk {
	disks := make([]Disk, 0, 1+len(v.DataDisks))
	disks = append(disks, v.OSDisk)
	disks = append(disks, v.DataDisks...)
	return disks
}

// Target names the destination of a migration.
type Target struct {
	Region        string `json:"region"`
	ResourceGroup string `json:"resource_group"`
	VNet          string `json:"vnet"`
	Subnet        string `json:"subnet"`
}

// Context is the accumulated state of one migration run. Fields are written
// once by the stage that produces them and read by later stages.
type Context struct {
	// Source identifies the VM being migrated.
	Source resource.ID `json:"-"`

	// SourceID is the raw source identifier, kept for persistence.
	SourceID string `json:"source_id"`

	// Target is the destination region/group/network.
	Target Target `json:"target"`

	// VM is the collected source configuration.
	VM *SourceVM `json:"vm,omitempty"`

	// Snapshots are the per-disk snapshots, OS first then data disks in
	// ascending LUN order.
	Snapshots []Snapshot `json:"snapshots,omitempty"`

	// TargetDiskIDs maps each snapshot index to the disk created from it.
	TargetDiskIDs []string `json:"target_disk_ids,omitempty"`

	// TargetVMID is the reconstructed VM's identifier.
	TargetVMID string `json:"target_vm_id,omitempty"`

	// State is the current pipeline state.
	State State `json:"state"`
}

// NewContext starts a migration context in StateStarted.
func NewContext(source resource.ID, target Target) *Context {
	return &Context{
		Source:   source,
		SourceID: source.String(),
		Target:   target,
		State:    StateStarted,
	}
}

// Advance moves the context to the next pipeline state, rejecting anything
// but the single legal successor.
func (c *Context) Advance(to State) error {
	if c.State.Next() != to {
		return fmt.Errorf("illegal transition %s -> %s", c.State, to)
	}
	c.State = to
	return nil
}
