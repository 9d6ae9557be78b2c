// Package resource models Azure Resource Manager identifiers.
package resource

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedID indicates a resource identifier missing a required segment.
var ErrMalformedID = errors.New("malformed resource identifier")

// ID is a parsed ARM resource identifier.
type ID struct {
	// SubscriptionID is the subscription GUID segment.
	SubscriptionID string

	// ResourceGroup is the resource group name segment.
	ResourceGroup string

	// Provider is the resource provider namespace, e.g. Microsoft.Compute.
	Provider string

	// Type is the resource type path under the provider, e.g.
	// virtualMachines or virtualNetworks/subnets for child resources.
	Type string

	// Name is the name of the innermost resource.
	Name string

	raw string
}

// Parse splits an ARM resource identifier of the form
// /subscriptions/<sub>/resourceGroups/<rg>/providers/<ns>/<type>/<name>[/<childType>/<childName>...]
// into its components. Path tokens are matched case-insensitively.
func Parse(raw string) (ID, error) {
	segments := splitPath(raw)

	// Minimum shape: subscriptions/<sub>/resourceGroups/<rg>/providers/<ns>/<type>/<name>
	if len(segments) < 8 {
		return ID{}, fmt.Errorf("%w: %q", ErrMalformedID, raw)
	}

	if !strings.EqualFold(segments[0], "subscriptions") ||
		!strings.EqualFold(segments[2], "resourceGroups") ||
		!strings.EqualFold(segments[4], "providers") {
		return ID{}, fmt.Errorf("%w: %q", ErrMalformedID, raw)
	}

	id := ID{
		SubscriptionID: segments[1],
		ResourceGroup:  segments[3],
		Provider:       segments[5],
		raw:            "/" + strings.Join(segments, "/"),
	}

	// Remaining segments alternate type/name pairs for the resource and any
	// child resources.
	rest := segments[6:]
	if len(rest)%2 != 0 {
		return ID{}, fmt.Errorf("%w: %q", ErrMalformedID, raw)
	}

	var types []string
	for i := 0; i < len(rest); i += 2 {
		types = append(types, rest[i])
		id.Name = rest[i+1]
	}
	id.Type = strings.Join(types, "/")

	for _, part := range []string{id.SubscriptionID, id.ResourceGroup, id.Provider, id.Type, id.Name} {
		if part == "" {
			return ID{}, fmt.Errorf("%w: %q", ErrMalformedID, raw)
		}
	}

	return id, nil
}

// String returns the canonical identifier.
func (id ID) String() string {
	if id.raw != "" {
		return id.raw
	}
	return fmt.Sprintf("/subscriptions/%s/resourceGroups/%s/providers/%s/%s/%s",
		id.SubscriptionID, id.ResourceGroup, id.Provider, id.Type, id.Name)
}

// NameOf extracts the innermost resource name from a raw identifier, or ""
// if the identifier cannot be parsed. Used for optional references (NSG,
// public IP) where a missing or odd identifier must not fail collection.
func NameOf(raw string) string {
	id, err := Parse(raw)
	if err != nil {
		return ""
	}
	return id.Name
}

func splitPath(raw string) []string {
	var segments []string
	for _, s := range strings.Split(strings.Trim(raw, "/"), "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}
