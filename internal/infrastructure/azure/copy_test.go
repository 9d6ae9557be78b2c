package azure

import (
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/compute/armcompute/v5"
)

func snapshotWith(state string, percent *float32) armcompute.Snapshot {
	return armcompute.Snapshot{
		Properties: &armcompute.SnapshotProperties{
			ProvisioningState: to.Ptr(state),
			CompletionPercent: percent,
		},
	}
}

func TestCopyDone_CompleteAt100(t *testing.T) {
	done, err := copyDone(snapshotWith("Succeeded", to.Ptr[float32](100)), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !done {
		t.Error("expected done at 100 percent")
	}
}

func TestCopyDone_NotDoneBelow100(t *testing.T) {
	// 99.99 must never count as complete, even with a Succeeded state.
	for _, percent := range []float32{0, 50, 99.9, 99.99} {
		done, err := copyDone(snapshotWith("Succeeded", to.Ptr(percent)), nil)
		if err != nil {
			t.Fatalf("unexpected error at %v: %v", percent, err)
		}
		if done {
			t.Errorf("copy must not be done at %v percent", percent)
		}
	}
}

func TestCopyDone_NotDoneWhileCreating(t *testing.T) {
	done, err := copyDone(snapshotWith("Creating", to.Ptr[float32](100)), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if done {
		t.Error("copy must not be done before provisioning succeeds")
	}
}

func TestCopyDone_NilPercentFallsBackToState(t *testing.T) {
	done, err := copyDone(snapshotWith("Succeeded", nil), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !done {
		t.Error("a Succeeded copy without a percent field should count as done")
	}
}

func TestCopyDone_FailedStateErrors(t *testing.T) {
	if _, err := copyDone(snapshotWith("Failed", nil), nil); err == nil {
		t.Error("expected error for Failed provisioning state")
	}
}

func TestCopyDone_ReportsProgress(t *testing.T) {
	var got float64
	_, err := copyDone(snapshotWith("Creating", to.Ptr[float32](42)), func(p float64) { got = p })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 42 {
		t.Errorf("progress = %v, want 42", got)
	}
}

func TestCopyDone_NoPropertiesKeepsWaiting(t *testing.T) {
	done, err := copyDone(armcompute.Snapshot{}, nil)
	if err != nil || done {
		t.Errorf("empty snapshot: done=%v err=%v, want waiting", done, err)
	}
}
