package extract

import "encoding/json"

// SchemaVersion is the semantic version of the output contract (top-level
// keys and their semantics). Bumped on breaking changes.
const SchemaVersion = "1.0.0"

// GeneratorVersion identifies the producing tool, recorded in every output
// for traceability.
const GeneratorVersion = "0.1.0"

// ValidatedOutput is the terminal artifact: the merged record stamped with
// the contract version and the run metadata. Immutable once produced; handed
// to downstream collaborators unchanged. The JSON shape is identical for
// single-chunk and multi-chunk runs.
type ValidatedOutput struct {
	SchemaVersion    string         `json:"schema_version"`
	GeneratorVersion string         `json:"generator_version"`
	Schema           CarrierSchema  `json:"schema"`
	FieldMappings    []FieldMapping `json:"field_mappings"`
	Constraints      []Entry        `json:"constraints"`
	EdgeCases        []Entry        `json:"edge_cases"`
	Metadata         RunMetadata    `json:"extraction_metadata"`
}

// VersionMismatch describes an output produced under a different contract
// version than the one this package implements.
type VersionMismatch struct {
	FileVersion    string
	CurrentVersion string
}

// CheckSchemaVersion inspects a previously produced output document and
// reports a mismatch when its schema_version differs from the current
// contract. Documents without a version are treated as legacy and pass.
func CheckSchemaVersion(raw []byte) (*VersionMismatch, error) {
	var probe struct {
		SchemaVersion *string `json:"schema_version"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, err
	}
	if probe.SchemaVersion == nil || *probe.SchemaVersion == "" {
		return nil, nil
	}
	if *probe.SchemaVersion != SchemaVersion {
		return &VersionMismatch{FileVersion: *probe.SchemaVersion, CurrentVersion: SchemaVersion}, nil
	}
	return nil, nil
}
