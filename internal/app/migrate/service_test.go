package migrate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/vmshift/vmshift/internal/domain/migration"
	"github.com/vmshift/vmshift/internal/domain/resource"
)

const sourceVMID = "/subscriptions/S/resourceGroups/rg1/providers/Microsoft.Compute/virtualMachines/vm1"

var testTarget = migration.Target{
	Region:        "eastus2",
	ResourceGroup: "rg-target",
	VNet:          "vnet-target",
	Subnet:        "subnet-default",
}

// fakeProvider records every pipeline call and fabricates identifiers the
// way ARM would.
type fakeProvider struct {
	vm *migration.SourceVM

	failOn string
	calls  []string

	snapshots []migration.SnapshotSpec
	copies    []migration.CopySpec
	disks     []migration.DiskSpec
	attaches  []migration.AttachSpec
	deleted   []migration.ResourceRef

	ensuredGroups []string
	createdVM     *migration.VMSpec
	nic           *migration.NICSpec
}

func (f *fakeProvider) fail(op string) error {
	f.calls = append(f.calls, op)
	if f.failOn == op {
		return fmt.Errorf("injected %s failure", op)
	}
	return nil
}

func (f *fakeProvider) id(group, typ, name string) string {
	return fmt.Sprintf("/subscriptions/S/resourceGroups/%s/providers/%s/%s", group, typ, name)
}

func (f *fakeProvider) CollectSourceVM(ctx context.Context, id resource.ID) (*migration.SourceVM, error) {
	if err := f.fail("collect"); err != nil {
		return nil, err
	}
	return f.vm, nil
}

func (f *fakeProvider) DeallocateVM(ctx context.Context, id resource.ID) error {
	return f.fail("deallocate")
}

func (f *fakeProvider) CreateSnapshot(ctx context.Context, spec migration.SnapshotSpec) (string, error) {
	if err := f.fail("snapshot"); err != nil {
		return "", err
	}
	f.snapshots = append(f.snapshots, spec)
	return f.id(spec.ResourceGroup, "Microsoft.Compute/snapshots", spec.Name), nil
}

func (f *fakeProvider) CopySnapshot(ctx context.Context, spec migration.CopySpec) (string, error) {
	if err := f.fail("copy"); err != nil {
		return "", err
	}
	if spec.OnProgress != nil {
		spec.OnProgress(100)
	}
	f.copies = append(f.copies, spec)
	return f.id(spec.TargetGroup, "Microsoft.Compute/snapshots", spec.TargetName), nil
}

func (f *fakeProvider) EnsureResourceGroup(ctx context.Context, name, region string) error {
	if err := f.fail("ensure_group"); err != nil {
		return err
	}
	f.ensuredGroups = append(f.ensuredGroups, name)
	return nil
}

func (f *fakeProvider) CreateDiskFromSnapshot(ctx context.Context, spec migration.DiskSpec) (string, error) {
	if err := f.fail("disk"); err != nil {
		return "", err
	}
	f.disks = append(f.disks, spec)
	return f.id(spec.ResourceGroup, "Microsoft.Compute/disks", spec.Name), nil
}

func (f *fakeProvider) ResolveSubnet(ctx context.Context, group, vnet, subnet string) (string, error) {
	if err := f.fail("subnet"); err != nil {
		return "", err
	}
	return f.id(group, "Microsoft.Network/virtualNetworks", vnet) + "/subnets/" + subnet, nil
}

func (f *fakeProvider) CreateSecurityGroupShell(ctx context.Context, group, name, region string) (string, error) {
	if err := f.fail("nsg"); err != nil {
		return "", err
	}
	return f.id(group, "Microsoft.Network/networkSecurityGroups", name), nil
}

func (f *fakeProvider) CreatePublicIP(ctx context.Context, group, name, region string) (string, error) {
	if err := f.fail("pip"); err != nil {
		return "", err
	}
	return f.id(group, "Microsoft.Network/publicIPAddresses", name), nil
}

func (f *fakeProvider) CreateNetworkInterface(ctx context.Context, spec migration.NICSpec) (string, error) {
	if err := f.fail("nic"); err != nil {
		return "", err
	}
	f.nic = &spec
	return f.id(spec.ResourceGroup, "Microsoft.Network/networkInterfaces", spec.Name), nil
}

func (f *fakeProvider) CreateVM(ctx context.Context, spec migration.VMSpec) (string, error) {
	if err := f.fail("vm"); err != nil {
		return "", err
	}
	f.createdVM = &spec
	return f.id(spec.ResourceGroup, "Microsoft.Compute/virtualMachines", spec.Name), nil
}

func (f *fakeProvider) AttachDataDisk(ctx context.Context, spec migration.AttachSpec) error {
	if err := f.fail("attach"); err != nil {
		return err
	}
	f.attaches = append(f.attaches, spec)
	return nil
}

func (f *fakeProvider) Delete(ctx context.Context, ref migration.ResourceRef) error {
	f.deleted = append(f.deleted, ref)
	return nil
}

func sourceWithDisks(dataDisks int) *migration.SourceVM {
	vm := &migration.SourceVM{
		Size:                  "Standard_D4s_v5",
		Location:              "westeurope",
		OSType:                "Linux",
		Tags:                  map[string]string{"env": "prod"},
		AcceleratedNetworking: true,
		OSDisk: migration.Disk{
			ID:   "/subscriptions/S/resourceGroups/rg1/providers/Microsoft.Compute/disks/vm1-osdisk",
			Name: "vm1-osdisk",
			SKU:  "Premium_LRS",
			Role: migration.RoleOS,
			LUN:  -1,
		},
		Network: migration.NetworkContext{
			SourceNICID: "/subscriptions/S/resourceGroups/rg1/providers/Microsoft.Network/networkInterfaces/vm1-nic",
		},
	}
	for i := 0; i < dataDisks; i++ {
		vm.DataDisks = append(vm.DataDisks, migration.Disk{
			ID:   fmt.Sprintf("/subscriptions/S/resourceGroups/rg1/providers/Microsoft.Compute/disks/vm1-data%d", i),
			Name: fmt.Sprintf("vm1-data%d", i),
			SKU:  "StandardSSD_LRS",
			Role: migration.RoleData,
			LUN:  int32(i),
		})
	}
	return vm
}

func newTestService(f *fakeProvider) *Service {
	s := NewService(f, DefaultOptions())
	s.now = func() time.Time { return time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC) }
	return s
}

func TestService_EndToEnd(t *testing.T) {
	fake := &fakeProvider{vm: sourceWithDisks(2)}
	fake.vm.Network.SourceNSGID = "/subscriptions/S/resourceGroups/rg1/providers/Microsoft.Network/networkSecurityGroups/vm1-nsg"
	fake.vm.Network.SourcePublicIPID = "/subscriptions/S/resourceGroups/rg1/providers/Microsoft.Network/publicIPAddresses/vm1-ip"

	run, err := newTestService(fake).Run(context.Background(), sourceVMID, testTarget)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if run.State != migration.StateComplete {
		t.Errorf("final state = %s, want Complete", run.State)
	}

	// Snapshots: OS first, then data disks, deterministic names.
	wantSnapshots := []string{
		"vm1-os0-snapshot-20260831120000",
		"vm1-data0-snapshot-20260831120000",
		"vm1-data1-snapshot-20260831120000",
	}
	if len(fake.snapshots) != len(wantSnapshots) {
		t.Fatalf("snapshot count = %d, want %d", len(fake.snapshots), len(wantSnapshots))
	}
	for i, want := range wantSnapshots {
		if fake.snapshots[i].Name != want {
			t.Errorf("snapshot %d = %q, want %q", i, fake.snapshots[i].Name, want)
		}
	}

	// Copies embed the target region and land in the target group.
	if len(fake.copies) != 3 {
		t.Fatalf("copy count = %d, want 3", len(fake.copies))
	}
	if fake.copies[0].TargetName != "vm1-os0-snapshot-20260831120000-eastus2" {
		t.Errorf("OS copy name = %q", fake.copies[0].TargetName)
	}
	if fake.copies[0].TargetGroup != "rg-target" {
		t.Errorf("copy target group = %q, want rg-target", fake.copies[0].TargetGroup)
	}

	// Target group ensured before the first copy.
	foundEnsure := false
	for _, call := range fake.calls {
		if call == "ensure_group" {
			foundEnsure = true
		}
		if call == "copy" && !foundEnsure {
			t.Error("resource group must be ensured before copying snapshots")
			break
		}
	}

	// Disks keep the recorded SKUs.
	if len(fake.disks) != 3 {
		t.Fatalf("disk count = %d, want 3", len(fake.disks))
	}
	if fake.disks[0].SKU != "Premium_LRS" || fake.disks[1].SKU != "StandardSSD_LRS" {
		t.Errorf("disk SKUs = %q, %q", fake.disks[0].SKU, fake.disks[1].SKU)
	}

	// NIC carries the accelerated-networking flag plus NSG and public IP.
	if fake.nic == nil || !fake.nic.AcceleratedNetworking {
		t.Error("NIC must carry accelerated networking")
	}
	if fake.nic.NSGID == "" || fake.nic.PublicIPID == "" {
		t.Error("NIC must reference the recreated NSG and public IP")
	}
	if !strings.HasSuffix(fake.nic.SubnetID, "/subnets/subnet-default") {
		t.Errorf("NIC subnet = %q", fake.nic.SubnetID)
	}

	// VM preserves source configuration.
	if fake.createdVM == nil {
		t.Fatal("VM was not created")
	}
	if fake.createdVM.Name != "vm1" || fake.createdVM.Region != "eastus2" || fake.createdVM.ResourceGroup != "rg-target" {
		t.Errorf("created VM = %+v", fake.createdVM)
	}
	if fake.createdVM.Size != "Standard_D4s_v5" || fake.createdVM.OSType != "Linux" {
		t.Errorf("VM size/OS = %q/%q", fake.createdVM.Size, fake.createdVM.OSType)
	}
	if fake.createdVM.Tags["env"] != "prod" {
		t.Error("VM tags not carried over")
	}

	// Data disks attach after VM creation, ascending LUN order.
	if len(fake.attaches) != 2 {
		t.Fatalf("attach count = %d, want 2", len(fake.attaches))
	}
	for i, a := range fake.attaches {
		if a.LUN != int32(i) {
			t.Errorf("attach %d LUN = %d, want %d", i, a.LUN, i)
		}
	}
	vmIdx := indexOf(fake.calls, "vm")
	attachIdx := indexOf(fake.calls, "attach")
	if attachIdx < vmIdx {
		t.Error("data disks must attach after VM creation")
	}
}

func TestService_NoDataDisks(t *testing.T) {
	fake := &fakeProvider{vm: sourceWithDisks(0)}

	run, err := newTestService(fake).Run(context.Background(), sourceVMID, testTarget)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if run.State != migration.StateComplete {
		t.Errorf("final state = %s, want Complete", run.State)
	}

	if len(fake.snapshots) != 1 || len(fake.copies) != 1 || len(fake.disks) != 1 {
		t.Errorf("expected exactly one snapshot/copy/disk, got %d/%d/%d",
			len(fake.snapshots), len(fake.copies), len(fake.disks))
	}
	if len(fake.attaches) != 0 {
		t.Errorf("no attach calls expected, got %d", len(fake.attaches))
	}
}

func TestService_RejectsNonVMIdentifier(t *testing.T) {
	fake := &fakeProvider{vm: sourceWithDisks(0)}
	svc := newTestService(fake)

	cases := []string{
		"not-an-id",
		"/subscriptions/S/resourceGroups/rg1/providers/Microsoft.Compute/disks/d1",
		"/subscriptions/S/resourceGroups/rg1/providers/Microsoft.Network/networkInterfaces/n1",
	}
	for _, id := range cases {
		if _, err := svc.Run(context.Background(), id, testTarget); !errors.Is(err, resource.ErrMalformedID) {
			t.Errorf("Run(%q) = %v, want ErrMalformedID", id, err)
		}
	}
	if len(fake.calls) != 0 {
		t.Errorf("no provider calls expected for invalid input, got %v", fake.calls)
	}
}

func TestService_FailureHaltsWithoutCleanup(t *testing.T) {
	fake := &fakeProvider{vm: sourceWithDisks(1), failOn: "disk"}

	run, err := newTestService(fake).Run(context.Background(), sourceVMID, testTarget)
	if err == nil {
		t.Fatal("expected error")
	}
	if !run.Failed || run.Error == "" {
		t.Error("run must record the failure")
	}
	if run.State != migration.StateSnapshotsCopied {
		t.Errorf("state = %s, want SnapshotsCopied (last completed stage)", run.State)
	}
	if fake.createdVM != nil {
		t.Error("pipeline must halt before VM creation")
	}
	if len(fake.deleted) != 0 {
		t.Errorf("default behavior leaves resources in place, deleted %d", len(fake.deleted))
	}
}

func TestService_CleanupOnFailureReverseOrder(t *testing.T) {
	fake := &fakeProvider{vm: sourceWithDisks(1), failOn: "vm"}

	opts := DefaultOptions()
	opts.CleanupOnFailure = true
	svc := NewService(fake, opts)
	svc.now = func() time.Time { return time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC) }

	if _, err := svc.Run(context.Background(), sourceVMID, testTarget); err == nil {
		t.Fatal("expected error")
	}

	// 2 source snapshots + 2 copies + 2 disks + NIC, plus the VM whose
	// create failed: it may exist half-provisioned and gets swept too.
	if len(fake.deleted) != 8 {
		t.Fatalf("deleted %d resources, want 8", len(fake.deleted))
	}
	if fake.deleted[0].Kind != migration.KindVM {
		t.Errorf("first deletion = %s, want the VM (reverse creation order)", fake.deleted[0].Kind)
	}
	if fake.deleted[1].Kind != migration.KindNIC {
		t.Errorf("second deletion = %s, want the NIC", fake.deleted[1].Kind)
	}
	last := fake.deleted[len(fake.deleted)-1]
	if last.Kind != migration.KindSnapshot || last.ResourceGroup != "rg1" {
		t.Errorf("last deletion = %+v, want the first source snapshot", last)
	}
}

func TestService_CleanupSweepsAbortedCopy(t *testing.T) {
	// A copy that fails mid-wait has already created the target snapshot;
	// cleanup must delete it even though no identifier was ever returned.
	fake := &fakeProvider{vm: sourceWithDisks(0), failOn: "copy"}

	opts := DefaultOptions()
	opts.CleanupOnFailure = true
	svc := NewService(fake, opts)
	svc.now = func() time.Time { return time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC) }

	if _, err := svc.Run(context.Background(), sourceVMID, testTarget); err == nil {
		t.Fatal("expected error")
	}

	// Target copy first, then the source snapshot.
	if len(fake.deleted) != 2 {
		t.Fatalf("deleted %d resources, want 2", len(fake.deleted))
	}
	copyRef := fake.deleted[0]
	if copyRef.Kind != migration.KindSnapshot || copyRef.ResourceGroup != "rg-target" {
		t.Errorf("first deletion = %+v, want the target snapshot copy", copyRef)
	}
	if copyRef.Name != "vm1-os0-snapshot-20260831120000-eastus2" {
		t.Errorf("copy name = %q", copyRef.Name)
	}
	srcRef := fake.deleted[1]
	if srcRef.ResourceGroup != "rg1" || srcRef.Name != "vm1-os0-snapshot-20260831120000" {
		t.Errorf("second deletion = %+v, want the source snapshot", srcRef)
	}
}

func TestService_PersistsRunPerTransition(t *testing.T) {
	fake := &fakeProvider{vm: sourceWithDisks(0)}

	store, err := NewRunStore(t.TempDir() + "/runs.json")
	if err != nil {
		t.Fatalf("store: %v", err)
	}

	svc := newTestService(fake).WithStore(store)
	run, err := svc.Run(context.Background(), sourceVMID, testTarget)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, err := store.Get(run.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.State != migration.StateComplete {
		t.Errorf("stored state = %s, want Complete", stored.State)
	}
	if stored.Context == nil || stored.Context.TargetVMID == "" {
		t.Error("stored run must carry the final context")
	}
}

func TestService_ProgressEvents(t *testing.T) {
	fake := &fakeProvider{vm: sourceWithDisks(0)}

	var states []migration.State
	var copyPercents []float64
	svc := newTestService(fake).WithProgress(func(e ProgressEvent) {
		if e.CopyPercent >= 0 {
			copyPercents = append(copyPercents, e.CopyPercent)
			return
		}
		states = append(states, e.State)
	})

	if _, err := svc.Run(context.Background(), sourceVMID, testTarget); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if states[len(states)-1] != migration.StateComplete {
		t.Errorf("last reported state = %s, want Complete", states[len(states)-1])
	}
	if len(copyPercents) == 0 || copyPercents[len(copyPercents)-1] != 100 {
		t.Errorf("copy progress = %v, want trailing 100", copyPercents)
	}
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}
