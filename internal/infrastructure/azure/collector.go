package azure

import (
	"context"
	"fmt"
	"sort"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/compute/armcompute/v5"

	"github.com/vmshift/vmshift/internal/domain/migration"
	"github.com/vmshift/vmshift/internal/domain/resource"
)

// CollectSourceVM queries the source VM, its primary network interface, and
// the SKU of each attached disk. Optional fields (zone, NSG, public IP,
// tags) default to zero values when absent.
func (p *Provider) CollectSourceVM(ctx context.Context, id resource.ID) (*migration.SourceVM, error) {
	vmResp, err := p.compute.NewVirtualMachinesClient().Get(ctx, id.ResourceGroup, id.Name, nil)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: virtual machine %s", ErrResourceNotFound, id.Name)
		}
		return nil, fmt.Errorf("failed to get virtual machine %s: %w", id.Name, err)
	}

	vm := vmResp.VirtualMachine
	if vm.Properties == nil {
		return nil, fmt.Errorf("%w: virtual machine %s has no properties", ErrResourceNotFound, id.Name)
	}

	src := &migration.SourceVM{
		Location: deref(vm.Location),
		Tags:     derefTags(vm.Tags),
	}

	if vm.Properties.HardwareProfile != nil && vm.Properties.HardwareProfile.VMSize != nil {
		src.Size = string(*vm.Properties.HardwareProfile.VMSize)
	}
	if len(vm.Zones) > 0 {
		src.Zone = deref(vm.Zones[0])
	}

	if err := p.collectDisks(ctx, vm, src); err != nil {
		return nil, err
	}

	if err := p.collectNetwork(ctx, vm, src); err != nil {
		return nil, err
	}

	return src, nil
}

// collectDisks extracts the OS disk and data disks, looking up each disk's
// SKU individually since the VM model does not carry it.
func (p *Provider) collectDisks(ctx context.Context, vm armcompute.VirtualMachine, src *migration.SourceVM) error {
	storage := vm.Properties.StorageProfile
	if storage == nil || storage.OSDisk == nil {
		return fmt.Errorf("virtual machine has no storage profile")
	}

	osDisk := storage.OSDisk
	if osDisk.OSType != nil {
		src.OSType = string(*osDisk.OSType)
	}

	if osDisk.ManagedDisk == nil || osDisk.ManagedDisk.ID == nil {
		return fmt.Errorf("OS disk of the source VM is not a managed disk")
	}

	disk, err := p.describeDisk(ctx, *osDisk.ManagedDisk.ID)
	if err != nil {
		return fmt.Errorf("failed to describe OS disk: %w", err)
	}
	disk.Role = migration.RoleOS
	disk.LUN = -1
	src.OSDisk = disk

	for _, dd := range storage.DataDisks {
		if dd == nil || dd.ManagedDisk == nil || dd.ManagedDisk.ID == nil {
			continue
		}
		disk, err := p.describeDisk(ctx, *dd.ManagedDisk.ID)
		if err != nil {
			return fmt.Errorf("failed to describe data disk %s: %w", deref(dd.Name), err)
		}
		disk.Role = migration.RoleData
		if dd.Lun != nil {
			disk.LUN = *dd.Lun
		}
		src.DataDisks = append(src.DataDisks, disk)
	}

	// Attachment order later depends on ascending original LUNs.
	sort.Slice(src.DataDisks, func(i, j int) bool {
		return src.DataDisks[i].LUN < src.DataDisks[j].LUN
	})

	return nil
}

// describeDisk resolves a disk ID to its name, SKU, and size.
func (p *Provider) describeDisk(ctx context.Context, diskID string) (migration.Disk, error) {
	id, err := resource.Parse(diskID)
	if err != nil {
		return migration.Disk{}, err
	}

	resp, err := p.compute.NewDisksClient().Get(ctx, id.ResourceGroup, id.Name, nil)
	if err != nil {
		return migration.Disk{}, err
	}

	d := migration.Disk{ID: diskID, Name: id.Name}
	if resp.SKU != nil && resp.SKU.Name != nil {
		d.SKU = string(*resp.SKU.Name)
	}
	if resp.Properties != nil && resp.Properties.DiskSizeGB != nil {
		d.SizeGB = *resp.Properties.DiskSizeGB
	}
	return d, nil
}

// collectNetwork reads the primary NIC's security group, public IP, and
// accelerated-networking flag.
func (p *Provider) collectNetwork(ctx context.Context, vm armcompute.VirtualMachine, src *migration.SourceVM) error {
	nicID := primaryNICID(vm)
	if nicID == "" {
		return fmt.Errorf("%w: source VM has no network interface", ErrResourceNotFound)
	}

	id, err := resource.Parse(nicID)
	if err != nil {
		return fmt.Errorf("failed to parse NIC identifier %q: %w", nicID, err)
	}

	resp, err := p.network.NewInterfacesClient().Get(ctx, id.ResourceGroup, id.Name, nil)
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: network interface %s", ErrResourceNotFound, id.Name)
		}
		return fmt.Errorf("failed to get network interface %s: %w", id.Name, err)
	}

	src.Network.SourceNICID = nicID

	props := resp.Properties
	if props == nil {
		return nil
	}

	if props.EnableAcceleratedNetworking != nil {
		src.AcceleratedNetworking = *props.EnableAcceleratedNetworking
	}
	if props.NetworkSecurityGroup != nil && props.NetworkSecurityGroup.ID != nil {
		src.Network.SourceNSGID = *props.NetworkSecurityGroup.ID
	}

	for _, cfg := range props.IPConfigurations {
		if cfg == nil || cfg.Properties == nil {
			continue
		}
		if cfg.Properties.PublicIPAddress != nil && cfg.Properties.PublicIPAddress.ID != nil {
			src.Network.SourcePublicIPID = *cfg.Properties.PublicIPAddress.ID
			break
		}
	}

	return nil
}

// primaryNICID picks the NIC flagged primary, or the first one attached.
func primaryNICID(vm armcompute.VirtualMachine) string {
	if vm.Properties == nil || vm.Properties.NetworkProfile == nil {
		return ""
	}

	nics := vm.Properties.NetworkProfile.NetworkInterfaces
	for _, nic := range nics {
		if nic == nil || nic.ID == nil {
			continue
		}
		if nic.Properties != nil && nic.Properties.Primary != nil && *nic.Properties.Primary {
			return *nic.ID
		}
	}

	for _, nic := range nics {
		if nic != nil && nic.ID != nil {
			return *nic.ID
		}
	}
	return ""
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefTags(tags map[string]*string) map[string]string {
	if len(tags) == 0 {
		return nil
	}
	out := make(map[string]string, len(tags))
	for k, v := range tags {
		out[k] = deref(v)
	}
	return out
}
