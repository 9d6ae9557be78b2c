package migration

import (
	"fmt"
	"time"
)

// snapshotTimestampLayout is the UTC timestamp embedded in snapshot names.
const snapshotTimestampLayout = "20060102150405"

// SnapshotName builds the deterministic name of a disk snapshot:
// <vm>-<role><index>-snapshot-<timestamp>. Index counts within the role, so
// the OS snapshot is always <vm>-os0-... and data snapshots follow their
// position in LUN order.
func SnapshotName(vmName string, role DiskRole, index int, ts time.Time) string {
	return fmt.Sprintf("%s-%s%d-snapshot-%s", vmName, role, index, ts.UTC().Format(snapshotTimestampLayout))
}

// CopyName embeds the target region into the name of a snapshot copy.
func CopyName(snapshotName, region string) string {
	return snapshotName + "-" + region
}

// TargetDiskName names the managed disk rebuilt from a copied snapshot.
func TargetDiskName(vmName string, role DiskRole, index int) string {
	return fmt.Sprintf("%s-%s%d", vmName, role, index)
}

// TargetNICName names the reconstructed network interface.
func TargetNICName(vmName string) string { return vmName + "-nic" }

// TargetNSGName names the recreated security group shell.
func TargetNSGName(vmName string) string { return vmName + "-nsg" }

// TargetPublicIPName names the replacement public IP.
func TargetPublicIPName(vmName string) string { return vmName + "-pip" }
