package azure

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/compute/armcompute/v5"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/network/armnetwork/v4"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armresources"

	"github.com/vmshift/vmshift/internal/domain/migration"
	"github.com/vmshift/vmshift/internal/pkg/logger"
	"github.com/vmshift/vmshift/pkg/version"
)

// ErrResourceNotFound indicates a source resource lookup returned nothing.
var ErrResourceNotFound = errors.New("resource not found")

var _ migration.Provider = (*Provider)(nil)

// Provider drives VM migration operations against ARM. It implements
// migration.Provider.
type Provider struct {
	subscriptionID string

	compute   *armcompute.ClientFactory
	network   *armnetwork.ClientFactory
	resources *armresources.ClientFactory

	log *slog.Logger
}

// NewProvider builds ARM client factories for the given subscription.
func NewProvider(subscriptionID string, cred azcore.TokenCredential) (*Provider, error) {
	opts := &arm.ClientOptions{
		ClientOptions: policy.ClientOptions{
			Telemetry: policy.TelemetryOptions{ApplicationID: version.UserAgent()},
		},
	}

	compute, err := armcompute.NewClientFactory(subscriptionID, cred, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create compute client: %w", err)
	}

	network, err := armnetwork.NewClientFactory(subscriptionID, cred, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create network client: %w", err)
	}

	resources, err := armresources.NewClientFactory(subscriptionID, cred, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create resources client: %w", err)
	}

	return &Provider{
		subscriptionID: subscriptionID,
		compute:        compute,
		network:        network,
		resources:      resources,
		log:            logger.With(slog.String("subscription", subscriptionID)),
	}, nil
}

// SubscriptionID returns the subscription the provider operates in.
func (p *Provider) SubscriptionID() string {
	return p.subscriptionID
}

// isNotFound reports whether err is an ARM 404.
func isNotFound(err error) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound
}
