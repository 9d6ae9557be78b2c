// Package azure implements the migration.Provider contract against the
// Azure Resource Manager API.
package azure

import (
	"fmt"
	"os"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
)

// CredentialSource indicates how credentials were obtained.
type CredentialSource string

const (
	// CredentialSourceDefault uses the DefaultAzureCredential chain.
	CredentialSourceDefault CredentialSource = "default"

	// CredentialSourceServicePrincipal uses a service principal from the
	// environment.
	CredentialSourceServicePrincipal CredentialSource = "service_principal"

	// CredentialSourceManagedIdentity uses managed identity.
	CredentialSourceManagedIdentity CredentialSource = "managed_identity"
)

// CredentialConfig holds configuration for Azure authentication.
type CredentialConfig struct {
	// SubscriptionID is the Azure subscription ID. When empty it is read
	// from AZURE_SUBSCRIPTION_ID.
	SubscriptionID string

	// Source indicates how credentials should be obtained.
	Source CredentialSource
}

// NewCredentialConfig creates a credential configuration with defaults.
func NewCredentialConfig() *CredentialConfig {
	return &CredentialConfig{Source: DetectCredentialSource()}
}

// WithSubscriptionID sets the subscription ID.
func (c *CredentialConfig) WithSubscriptionID(subscriptionID string) *CredentialConfig {
	c.SubscriptionID = subscriptionID
	return c
}

// DetectCredentialSource detects how Azure credentials are configured.
func DetectCredentialSource() CredentialSource {
	if os.Getenv("AZURE_CLIENT_ID") != "" &&
		os.Getenv("AZURE_CLIENT_SECRET") != "" &&
		os.Getenv("AZURE_TENANT_ID") != "" {
		return CredentialSourceServicePrincipal
	}

	if os.Getenv("AZURE_CLIENT_ID") != "" && os.Getenv("AZURE_CLIENT_SECRET") == "" {
		return CredentialSourceManagedIdentity
	}

	return CredentialSourceDefault
}

// GetCredential returns an Azure credential. All supported sources are
// resolved by the DefaultAzureCredential chain; the source only records how
// the environment was recognized.
func (c *CredentialConfig) GetCredential() (azcore.TokenCredential, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build credential chain: %w", err)
	}
	return cred, nil
}

// GetSubscriptionID returns the subscription ID, falling back to the
// environment when not explicitly configured.
func (c *CredentialConfig) GetSubscriptionID() (string, error) {
	if c.SubscriptionID != "" {
		return c.SubscriptionID, nil
	}

	if subID := os.Getenv("AZURE_SUBSCRIPTION_ID"); subID != "" {
		return subID, nil
	}

	return "", fmt.Errorf("could not determine Azure subscription ID")
}
