package models

// ContainerVersion is the format version written into every container this
// module produces. Imports accept any non-empty version string so containers
// exported by newer builds remain readable.
const ContainerVersion = "1.0"

// VaultContainer is the unit of persistence and of import/export: the full
// list of wrapped records plus a format version. It is serialized to JSON
// and stored whole under a single blob-store key.
type VaultContainer struct {
	Version string         `json:"version"`
	Records []SecureRecord `json:"records"`
}

// NewVaultContainer returns an empty container of the current format version.
func NewVaultContainer() VaultContainer {
	return VaultContainer{
		Version: ContainerVersion,
		Records: make([]SecureRecord, 0),
	}
}
