package azure

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/compute/armcompute/v5"

	"github.com/vmshift/vmshift/internal/domain/migration"
)

// CreateVM reconstructs the VM in the target region by attaching the
// already-built OS disk and NIC. Size, OS type, zone, and tags carry over
// from the source.
func (p *Provider) CreateVM(ctx context.Context, spec migration.VMSpec) (string, error) {
	p.log.Info("creating virtual machine", "name", spec.Name, "region", spec.Region, "size", spec.Size)

	osDisk := &armcompute.OSDisk{
		CreateOption: to.Ptr(armcompute.DiskCreateOptionTypesAttach),
		ManagedDisk:  &armcompute.ManagedDiskParameters{ID: to.Ptr(spec.OSDiskID)},
	}
	if spec.OSType != "" {
		osDisk.OSType = to.Ptr(armcompute.OperatingSystemTypes(spec.OSType))
	}

	vm := armcompute.VirtualMachine{
		Location: to.Ptr(spec.Region),
		Tags:     tagPtrs(spec.Tags),
		Properties: &armcompute.VirtualMachineProperties{
			HardwareProfile: &armcompute.HardwareProfile{
				VMSize: to.Ptr(armcompute.VirtualMachineSizeTypes(spec.Size)),
			},
			StorageProfile: &armcompute.StorageProfile{
				OSDisk: osDisk,
			},
			NetworkProfile: &armcompute.NetworkProfile{
				NetworkInterfaces: []*armcompute.NetworkInterfaceReference{
					{
						ID: to.Ptr(spec.NICID),
						Properties: &armcompute.NetworkInterfaceReferenceProperties{
							Primary: to.Ptr(true),
						},
					},
				},
			},
		},
	}
	if spec.Zone != "" {
		vm.Zones = []*string{to.Ptr(spec.Zone)}
	}

	poller, err := p.compute.NewVirtualMachinesClient().BeginCreateOrUpdate(ctx, spec.ResourceGroup, spec.Name, vm, nil)
	if err != nil {
		return "", fmt.Errorf("failed to start virtual machine %s: %w", spec.Name, err)
	}

	resp, err := poller.PollUntilDone(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("virtual machine %s did not complete: %w", spec.Name, err)
	}
	if resp.ID == nil {
		return "", fmt.Errorf("virtual machine %s completed without an identifier", spec.Name)
	}
	return *resp.ID, nil
}

// AttachDataDisk attaches one existing data disk to the reconstructed VM at
// its original LUN. Disks attach one at a time in ascending LUN order; the
// provider rejects LUN collisions.
func (p *Provider) AttachDataDisk(ctx context.Context, spec migration.AttachSpec) error {
	p.log.Info("attaching data disk", "vm", spec.VMName, "disk", spec.DiskName, "lun", spec.LUN)

	client := p.compute.NewVirtualMachinesClient()

	current, err := client.Get(ctx, spec.ResourceGroup, spec.VMName, nil)
	if err != nil {
		return fmt.Errorf("failed to get virtual machine %s: %w", spec.VMName, err)
	}
	if current.Properties == nil || current.Properties.StorageProfile == nil {
		return fmt.Errorf("virtual machine %s has no storage profile", spec.VMName)
	}

	storage := current.Properties.StorageProfile
	storage.DataDisks = append(storage.DataDisks, &armcompute.DataDisk{
		CreateOption: to.Ptr(armcompute.DiskCreateOptionTypesAttach),
		Lun:          to.Ptr(spec.LUN),
		Name:         to.Ptr(spec.DiskName),
		ManagedDisk:  &armcompute.ManagedDiskParameters{ID: to.Ptr(spec.DiskID)},
	})

	poller, err := client.BeginUpdate(ctx, spec.ResourceGroup, spec.VMName, armcompute.VirtualMachineUpdate{
		Properties: &armcompute.VirtualMachineProperties{
			StorageProfile: storage,
		},
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to start attach of %s: %w", spec.DiskName, err)
	}

	if _, err := poller.PollUntilDone(ctx, nil); err != nil {
		return fmt.Errorf("attach of %s did not complete: %w", spec.DiskName, err)
	}
	return nil
}

// Delete removes a created target resource, blocking until done. Used by
// the cleanup sweep after a failed run.
func (p *Provider) Delete(ctx context.Context, ref migration.ResourceRef) error {
	p.log.Info("deleting resource", "kind", ref.Kind, "name", ref.Name, "resource_group", ref.ResourceGroup)

	switch ref.Kind {
	case migration.KindVM:
		poller, err := p.compute.NewVirtualMachinesClient().BeginDelete(ctx, ref.ResourceGroup, ref.Name, nil)
		if err != nil {
			return err
		}
		_, err = poller.PollUntilDone(ctx, nil)
		return err
	case migration.KindDisk:
		poller, err := p.compute.NewDisksClient().BeginDelete(ctx, ref.ResourceGroup, ref.Name, nil)
		if err != nil {
			return err
		}
		_, err = poller.PollUntilDone(ctx, nil)
		return err
	case migration.KindSnapshot:
		poller, err := p.compute.NewSnapshotsClient().BeginDelete(ctx, ref.ResourceGroup, ref.Name, nil)
		if err != nil {
			return err
		}
		_, err = poller.PollUntilDone(ctx, nil)
		return err
	case migration.KindNIC:
		poller, err := p.network.NewInterfacesClient().BeginDelete(ctx, ref.ResourceGroup, ref.Name, nil)
		if err != nil {
			return err
		}
		_, err = poller.PollUntilDone(ctx, nil)
		return err
	case migration.KindPublicIP:
		poller, err := p.network.NewPublicIPAddressesClient().BeginDelete(ctx, ref.ResourceGroup, ref.Name, nil)
		if err != nil {
			return err
		}
		_, err = poller.PollUntilDone(ctx, nil)
		return err
	case migration.KindSecurityGroup:
		poller, err := p.network.NewSecurityGroupsClient().BeginDelete(ctx, ref.ResourceGroup, ref.Name, nil)
		if err != nil {
			return err
		}
		_, err = poller.PollUntilDone(ctx, nil)
		return err
	default:
		return fmt.Errorf("unknown resource kind %q", ref.Kind)
	}
}

func tagPtrs(tags map[string]string) map[string]*string {
	if len(tags) == 0 {
		return nil
	}
	out := make(map[string]*string, len(tags))
	for k, v := range tags {
		out[k] = to.Ptr(v)
	}
	return out
}
