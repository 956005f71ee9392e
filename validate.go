package extract

import (
	"fmt"
	"strings"
)

// CheckRecord inspects a merged record against the output contract and
// returns every violation found; it never stops at the first defect and
// never mutates the record.
func CheckRecord(rec MergedRecord) []Violation {
	var vs []Violation
	add := func(path, format string, args ...any) {
		vs = append(vs, Violation{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if rec.Schema == nil {
		add("schema", "missing")
		return vs
	}
	sch := rec.Schema

	if strings.TrimSpace(sch.Name) == "" {
		add("schema.name", "must not be empty")
	}
	if strings.TrimSpace(sch.BaseURL) == "" {
		add("schema.base_url", "must not be empty")
	}
	if len(sch.Endpoints) == 0 {
		add("schema.endpoints", "at least one endpoint required")
	}

	for i, ep := range sch.Endpoints {
		path := fmt.Sprintf("schema.endpoints[%d]", i)
		method := strings.ToUpper(strings.TrimSpace(ep.Method))
		if !httpMethods[method] {
			add(path+".method", "invalid HTTP method %q", ep.Method)
		}
		if !strings.HasPrefix(ep.Path, "/") {
			add(path+".path", "must start with /; got %q", ep.Path)
		}
		for j, r := range ep.Responses {
			if r.StatusCode < 100 || r.StatusCode > 599 {
				add(fmt.Sprintf("%s.responses[%d].status_code", path, j),
					"must be in [100,599]; got %d", r.StatusCode)
			}
		}
		if ep.Request != nil {
			for j, p := range ep.Request.Parameters {
				ppath := fmt.Sprintf("%s.request.parameters[%d]", path, j)
				if strings.TrimSpace(p.Name) == "" {
					add(ppath+".name", "must not be empty")
				}
				if p.Location != "" && !paramLocations[p.Location] {
					add(ppath+".location", "invalid location %q", p.Location)
				}
				if p.Type != "" && !paramTypes[p.Type] {
					add(ppath+".type", "invalid type %q", p.Type)
				}
			}
		}
	}

	for i, a := range sch.Authentication {
		if !authTypes[a.Type] {
			add(fmt.Sprintf("schema.authentication[%d].type", i), "invalid auth type %q", a.Type)
		}
	}
	for i, r := range sch.RateLimits {
		if r.Requests <= 0 {
			add(fmt.Sprintf("schema.rate_limits[%d].requests", i),
				"must be positive; got %d", r.Requests)
		}
	}

	for i, m := range rec.FieldMappings {
		path := fmt.Sprintf("field_mappings[%d]", i)
		if strings.TrimSpace(m.CarrierField) == "" {
			add(path+".carrier_field", "must not be empty")
		}
		if strings.TrimSpace(m.UniversalField) == "" {
			add(path+".universal_field", "must not be empty")
		}
	}
	return vs
}

// Validate checks the merged record against the versioned contract and, on
// success, freezes it into a ValidatedOutput tagged with the current contract
// version and the supplied run metadata.
func Validate(rec MergedRecord, meta RunMetadata) (*ValidatedOutput, error) {
	if vs := CheckRecord(rec); len(vs) > 0 {
		return nil, &ValidationError{Violations: vs}
	}
	out := &ValidatedOutput{
		SchemaVersion:    SchemaVersion,
		GeneratorVersion: GeneratorVersion,
		Schema:           *rec.Schema,
		FieldMappings:    rec.FieldMappings,
		Constraints:      rec.Constraints,
		EdgeCases:        rec.EdgeCases,
		Metadata:         meta,
	}
	if out.FieldMappings == nil {
		out.FieldMappings = []FieldMapping{}
	}
	if out.Constraints == nil {
		out.Constraints = []Entry{}
	}
	if out.EdgeCases == nil {
		out.EdgeCases = []Entry{}
	}
	return out, nil
}
