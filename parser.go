package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Alternate top-level keys the model sometimes wraps list answers in.
var (
	mappingAltKeys    = []string{"field_mappings", "fieldMappings", "mappings"}
	constraintAltKeys = []string{"constraints", "constraint", "rules"}
	edgeCaseAltKeys   = []string{"edge_cases", "edgeCases"}
)

// ExtractJSON locates the JSON payload inside a free-form completion answer.
// It tolerates raw JSON, JSON fenced in a markdown code block, and JSON
// surrounded by explanatory prose.
func ExtractJSON(raw []byte) (json.RawMessage, error) {
	s := stripFences(string(raw))

	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return nil, errors.New("no JSON object or array found")
	}
	var end int
	if s[start] == '{' {
		end = strings.LastIndexByte(s, '}')
	} else {
		end = strings.LastIndexByte(s, ']')
	}
	if end <= start {
		return nil, errors.New("unbalanced JSON span")
	}
	span := s[start : end+1]
	if !json.Valid([]byte(span)) {
		return nil, errors.New("located span is not valid JSON")
	}
	return json.RawMessage(span), nil
}

// stripFences unwraps a leading markdown code fence, with or without a
// language tag.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, "```json"); i >= 0 {
		rest := s[i+len("```json"):]
		if j := strings.Index(rest, "```"); j >= 0 {
			return strings.TrimSpace(rest[:j])
		}
	} else if i := strings.Index(s, "```"); i >= 0 {
		rest := s[i+len("```"):]
		if j := strings.Index(rest, "```"); j >= 0 {
			body := strings.TrimSpace(rest[:j])
			body = strings.TrimPrefix(body, "json")
			return strings.TrimSpace(body)
		}
	}
	return s
}

// ParseResponse turns one raw completion answer into a typed PartialResult
// for the given (chunk, kind) pair. Failures come back as
// *MalformedResponseError carrying the chunk index and kind.
func ParseResponse(chunk int, kind ExtractionKind, raw []byte) (PartialResult, error) {
	payload, err := ExtractJSON(raw)
	if err != nil {
		return PartialResult{}, &MalformedResponseError{Chunk: chunk, Kind: kind, Err: err}
	}

	pr := PartialResult{Chunk: chunk, Kind: kind}
	switch kind {
	case KindSchema:
		var sch CarrierSchema
		if err := json.Unmarshal(payload, &sch); err != nil {
			return PartialResult{}, &MalformedResponseError{Chunk: chunk, Kind: kind, Err: err}
		}
		pr.Schema = &sch
	case KindFieldMapping:
		mappings, err := decodeList[FieldMapping](payload, mappingAltKeys)
		if err != nil {
			return PartialResult{}, &MalformedResponseError{Chunk: chunk, Kind: kind, Err: err}
		}
		pr.Mappings = mappings
	case KindConstraint:
		entries, err := decodeList[Entry](payload, constraintAltKeys)
		if err != nil {
			return PartialResult{}, &MalformedResponseError{Chunk: chunk, Kind: kind, Err: err}
		}
		pr.Entries = entries
	case KindEdgeCase:
		entries, err := decodeList[Entry](payload, edgeCaseAltKeys)
		if err != nil {
			return PartialResult{}, &MalformedResponseError{Chunk: chunk, Kind: kind, Err: err}
		}
		pr.Entries = entries
	default:
		return PartialResult{}, &MalformedResponseError{Chunk: chunk, Kind: kind,
			Err: fmt.Errorf("unknown extraction kind %q", kind)}
	}
	return pr, nil
}

// decodeList decodes a JSON array of T. When the model wrapped the array in
// an object, the known alternate keys are tried in order.
func decodeList[T any](payload json.RawMessage, altKeys []string) ([]T, error) {
	trimmed := strings.TrimSpace(string(payload))
	if strings.HasPrefix(trimmed, "[") {
		var out []T
		if err := json.Unmarshal(payload, &out); err != nil {
			return nil, err
		}
		return out, nil
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(payload, &wrapper); err != nil {
		return nil, err
	}
	for _, key := range altKeys {
		inner, ok := wrapper[key]
		if !ok {
			continue
		}
		var out []T
		if err := json.Unmarshal(inner, &out); err != nil {
			return nil, fmt.Errorf("key %q: %w", key, err)
		}
		return out, nil
	}
	return nil, fmt.Errorf("object payload has none of the expected keys %v", altKeys)
}
