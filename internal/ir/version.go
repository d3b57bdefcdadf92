package ir

// Version constants recorded by Init and Migrate.
const (
	// RegistryName identifies the registry in its version marker.
	RegistryName = "namereg"

	// RegistryVersion is the version written by Init and Migrate.
	RegistryVersion = "0.1.0"
)

// CurrentVersion returns the marker for this build.
func CurrentVersion() ContractVersion {
	return ContractVersion{Contract: RegistryName, Version: RegistryVersion}
}
