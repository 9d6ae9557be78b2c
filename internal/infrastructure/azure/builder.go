package azure

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/compute/armcompute/v5"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/network/armnetwork/v4"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armresources"

	"github.com/vmshift/vmshift/internal/domain/migration"
)

// EnsureResourceGroup creates the target resource group. The create is
// idempotent; a failure is logged and swallowed because "already exists"
// under restricted permissions is the common case.
func (p *Provider) EnsureResourceGroup(ctx context.Context, name, region string) error {
	_, err := p.resources.NewResourceGroupsClient().CreateOrUpdate(ctx, name, armresources.ResourceGroup{
		Location: to.Ptr(region),
	}, nil)
	if err != nil {
		p.log.Warn("resource group create failed, continuing", "resource_group", name, "error", err)
	}
	return nil
}

// CreateDiskFromSnapshot builds a managed disk in the target region from a
// copied snapshot, preserving the original SKU and, for zonal disks, the
// zone.
func (p *Provider) CreateDiskFromSnapshot(ctx context.Context, spec migration.DiskSpec) (string, error) {
	p.log.Info("creating managed disk", "name", spec.Name, "sku", spec.SKU, "snapshot", spec.SnapshotID)

	disk := armcompute.Disk{
		Location: to.Ptr(spec.Region),
		Properties: &armcompute.DiskProperties{
			CreationData: &armcompute.CreationData{
				CreateOption:     to.Ptr(armcompute.DiskCreateOptionCopy),
				SourceResourceID: to.Ptr(spec.SnapshotID),
			},
		},
	}
	if spec.SKU != "" {
		disk.SKU = &armcompute.DiskSKU{
			Name: to.Ptr(armcompute.DiskStorageAccountTypes(spec.SKU)),
		}
	}
	if spec.Zone != "" {
		disk.Zones = []*string{to.Ptr(spec.Zone)}
	}

	poller, err := p.compute.NewDisksClient().BeginCreateOrUpdate(ctx, spec.ResourceGroup, spec.Name, disk, nil)
	if err != nil {
		return "", fmt.Errorf("failed to start disk %s: %w", spec.Name, err)
	}

	resp, err := poller.PollUntilDone(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("disk %s did not complete: %w", spec.Name, err)
	}
	if resp.ID == nil {
		return "", fmt.Errorf("disk %s completed without an identifier", spec.Name)
	}
	return *resp.ID, nil
}

// ResolveSubnet returns the identifier of the named subnet in the target
// virtual network.
func (p *Provider) ResolveSubnet(ctx context.Context, group, vnet, subnet string) (string, error) {
	resp, err := p.network.NewSubnetsClient().Get(ctx, group, vnet, subnet, nil)
	if err != nil {
		if isNotFound(err) {
			return "", fmt.Errorf("%w: subnet %s in vnet %s", ErrResourceNotFound, subnet, vnet)
		}
		return "", fmt.Errorf("failed to resolve subnet %s/%s: %w", vnet, subnet, err)
	}
	if resp.ID == nil {
		return "", fmt.Errorf("subnet %s/%s has no identifier", vnet, subnet)
	}
	return *resp.ID, nil
}

// CreateSecurityGroupShell creates an empty network security group in the
// target region. Rule replication is not automated; rules must be recreated
// manually after migration.
func (p *Provider) CreateSecurityGroupShell(ctx context.Context, group, name, region string) (string, error) {
	p.log.Info("creating security group shell", "name", name, "region", region)

	poller, err := p.network.NewSecurityGroupsClient().BeginCreateOrUpdate(ctx, group, name, armnetwork.SecurityGroup{
		Location: to.Ptr(region),
	}, nil)
	if err != nil {
		return "", fmt.Errorf("failed to start security group %s: %w", name, err)
	}

	resp, err := poller.PollUntilDone(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("security group %s did not complete: %w", name, err)
	}
	if resp.ID == nil {
		return "", fmt.Errorf("security group %s completed without an identifier", name)
	}
	return *resp.ID, nil
}

// CreatePublicIP creates a new static Standard-SKU public IP. The original
// address is not preserved; public IPs are not portable across regions.
func (p *Provider) CreatePublicIP(ctx context.Context, group, name, region string) (string, error) {
	p.log.Info("creating public IP", "name", name, "region", region)

	poller, err := p.network.NewPublicIPAddressesClient().BeginCreateOrUpdate(ctx, group, name, armnetwork.PublicIPAddress{
		Location: to.Ptr(region),
		SKU: &armnetwork.PublicIPAddressSKU{
			Name: to.Ptr(armnetwork.PublicIPAddressSKUNameStandard),
		},
		Properties: &armnetwork.PublicIPAddressPropertiesFormat{
			PublicIPAllocationMethod: to.Ptr(armnetwork.IPAllocationMethodStatic),
		},
	}, nil)
	if err != nil {
		return "", fmt.Errorf("failed to start public IP %s: %w", name, err)
	}

	resp, err := poller.PollUntilDone(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("public IP %s did not complete: %w", name, err)
	}
	if resp.ID == nil {
		return "", fmt.Errorf("public IP %s completed without an identifier", name)
	}
	return *resp.ID, nil
}

// CreateNetworkInterface creates the target NIC on the resolved subnet,
// optionally attaching the recreated NSG and public IP and carrying over
// the accelerated-networking flag.
func (p *Provider) CreateNetworkInterface(ctx context.Context, spec migration.NICSpec) (string, error) {
	p.log.Info("creating network interface", "name", spec.Name, "subnet", spec.SubnetID)

	ipConfig := &armnetwork.InterfaceIPConfiguration{
		Name: to.Ptr("ipconfig1"),
		Properties: &armnetwork.InterfaceIPConfigurationPropertiesFormat{
			Subnet:                    &armnetwork.Subnet{ID: to.Ptr(spec.SubnetID)},
			PrivateIPAllocationMethod: to.Ptr(armnetwork.IPAllocationMethodDynamic),
		},
	}
	if spec.PublicIPID != "" {
		ipConfig.Properties.PublicIPAddress = &armnetwork.PublicIPAddress{ID: to.Ptr(spec.PublicIPID)}
	}

	nic := armnetwork.Interface{
		Location: to.Ptr(spec.Region),
		Properties: &armnetwork.InterfacePropertiesFormat{
			EnableAcceleratedNetworking: to.Ptr(spec.AcceleratedNetworking),
			IPConfigurations:            []*armnetwork.InterfaceIPConfiguration{ipConfig},
		},
	}
	if spec.NSGID != "" {
		nic.Properties.NetworkSecurityGroup = &armnetwork.SecurityGroup{ID: to.Ptr(spec.NSGID)}
	}

	poller, err := p.network.NewInterfacesClient().BeginCreateOrUpdate(ctx, spec.ResourceGroup, spec.Name, nic, nil)
	if err != nil {
		return "", fmt.Errorf("failed to start network interface %s: %w", spec.Name, err)
	}

	resp, err := poller.PollUntilDone(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("network interface %s did not complete: %w", spec.Name, err)
	}
	if resp.ID == nil {
		return "", fmt.Errorf("network interface %s completed without an identifier", spec.Name)
	}
	return *resp.ID, nil
}
