package app

import (
	"strings"

	apperrors "github.com/substratehq/provision/internal/platform/errors"
)

// Provider identifies a supported cloud provider.
type Provider string

const (
	ProviderAWS   Provider = "aws"
	ProviderAzure Provider = "azure"
)

// IsValid reports whether the provider is supported.
func (p Provider) IsValid() bool {
	switch p {
	case ProviderAWS, ProviderAzure:
		return true
	default:
		return false
	}
}

// ParseProvider canonicalizes a provider label (case-insensitive).
func ParseProvider(value string) (Provider, bool) {
	provider := Provider(strings.ToLower(strings.TrimSpace(value)))
	return provider, provider.IsValid()
}

// Infrastructure is the tagged union NotSelected | Selected{provider}.
//
// The zero value means no infrastructure has been selected. Selected values
// are built only through AWS and Azure, so a region is required exactly when
// the provider demands one. RestoredInfrastructure is the trusting path for
// persistence rehydration; FromPersisted revalidates what it produces.
type Infrastructure struct {
	selected bool
	provider Provider
	region   string
}

// AWS selects Amazon Web Services infrastructure in the given region.
// A region is required for AWS.
func AWS(region string) (Infrastructure, error) {
	region = strings.TrimSpace(region)
	if region == "" {
		return Infrastructure{}, apperrors.New(apperrors.CodeAppRegionRequired, "aws infrastructure requires a region")
	}
	return Infrastructure{selected: true, provider: ProviderAWS, region: region}, nil
}

// Azure selects Microsoft Azure infrastructure. Azure takes no region.
func Azure() Infrastructure {
	return Infrastructure{selected: true, provider: ProviderAzure}
}

// RestoredInfrastructure rebuilds an infrastructure value from persisted
// fields without validating them. Persisted data is untrusted; callers must
// route the resulting snapshot through FromPersisted before acting on it.
func RestoredInfrastructure(selected bool, provider Provider, region string) Infrastructure {
	if !selected {
		return Infrastructure{}
	}
	return Infrastructure{selected: true, provider: provider, region: region}
}

// Selected reports whether infrastructure has been chosen.
func (i Infrastructure) Selected() bool {
	return i.selected
}

// Provider returns the chosen provider, or "" when not selected.
func (i Infrastructure) Provider() Provider {
	return i.provider
}

// Region returns the chosen region, or "" when the provider has none.
func (i Infrastructure) Region() string {
	return i.region
}

// Valid reports whether the value is structurally sound: either nothing is
// selected, or a supported provider is set and a region is present exactly
// when the provider requires one.
func (i Infrastructure) Valid() bool {
	if !i.selected {
		return i.provider == "" && i.region == ""
	}
	switch i.provider {
	case ProviderAWS:
		return i.region != ""
	case ProviderAzure:
		return i.region == ""
	default:
		return false
	}
}
