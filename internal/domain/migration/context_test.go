package migration

import (
	"testing"

	"github.com/vmshift/vmshift/internal/domain/resource"
)

func testSource(t *testing.T) resource.ID {
	t.Helper()
	id, err := resource.Parse("/subscriptions/S/resourceGroups/rg1/providers/Microsoft.Compute/virtualMachines/vm1")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return id
}

func TestStateOrder(t *testing.T) {
	want := []State{
		StateStarted,
		StateMetadataCollected,
		StateSourceDeallocated,
		StateSnapshotsCreated,
		StateSnapshotsCopied,
		StateDisksCreated,
		StateNetworkBuilt,
		StateVMCreated,
		StateDisksAttached,
		StateComplete,
	}

	s := StateStarted
	for i := 1; i < len(want); i++ {
		next := s.Next()
		if next != want[i] {
			t.Fatalf("%s.Next() = %s, want %s", s, next, want[i])
		}
		s = next
	}
	if !s.Terminal() {
		t.Errorf("expected %s to be terminal", s)
	}
	if s.Next() != "" {
		t.Errorf("terminal state should have no successor, got %s", s.Next())
	}
}

func TestContext_AdvanceLinear(t *testing.T) {
	c := NewContext(testSource(t), Target{Region: "eastus2", ResourceGroup: "rg-target"})
	if c.State != StateStarted {
		t.Fatalf("initial state = %s, want Started", c.State)
	}

	for next := c.State.Next(); next != ""; next = c.State.Next() {
		if err := c.Advance(next); err != nil {
			t.Fatalf("advance to %s: %v", next, err)
		}
	}
	if c.State != StateComplete {
		t.Errorf("final state = %s, want Complete", c.State)
	}
}

func TestContext_AdvanceRejectsSkips(t *testing.T) {
	c := NewContext(testSource(t), Target{})
	if err := c.Advance(StateSnapshotsCreated); err == nil {
		t.Error("expected error skipping states")
	}
	if err := c.Advance(StateStarted); err == nil {
		t.Error("expected error on self transition")
	}
	if c.State != StateStarted {
		t.Errorf("failed transitions must not move state, got %s", c.State)
	}
}

func TestSourceVM_DisksOrder(t *testing.T) {
	vm := &SourceVM{
		OSDisk: Disk{Name: "vm1-os", Role: RoleOS, LUN: -1},
		DataDisks: []Disk{
			{Name: "vm1-data0", Role: RoleData, LUN: 0},
			{Name: "vm1-data1", Role: RoleData, LUN: 1},
		},
	}

	disks := vm.Disks()
	if len(disks) != 3 {
		t.Fatalf("expected 3 disks, got %d", len(disks))
	}
	if disks[0].Role != RoleOS {
		t.Errorf("first disk must be the OS disk, got %s", disks[0].Role)
	}
	for i := 1; i < len(disks); i++ {
		if disks[i].LUN != int32(i-1) {
			t.Errorf("disk %d LUN = %d, want %d", i, disks[i].LUN, i-1)
		}
	}
}

func TestStateValid(t *testing.T) {
	if !StateVMCreated.Valid() {
		t.Error("VmCreated should be valid")
	}
	if State("Rollback").Valid() {
		t.Error("unknown state should be invalid")
	}
}
