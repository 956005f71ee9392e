package extract

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// MergedRecord is the deduplicated union of all partial results across all
// chunks: one merged schema object plus one list per remaining kind. Mutable
// only inside the merge fold; frozen once validation succeeds.
type MergedRecord struct {
	Schema        *CarrierSchema `json:"schema"`
	FieldMappings []FieldMapping `json:"field_mappings"`
	Constraints   []Entry        `json:"constraints"`
	EdgeCases     []Entry        `json:"edge_cases"`
}

type mergeConfig struct {
	preferLater bool
}

// MergeOption adjusts merge policy.
type MergeOption func(*mergeConfig)

// PreferLaterDuplicates makes the merger keep the later chunk's entry when a
// list-kind dedup key collides. The default keeps the first-seen entry, on
// the assumption that earlier chunks are less context-fragmented; that
// assumption is a policy choice, which is why it is switchable.
func PreferLaterDuplicates() MergeOption {
	return func(c *mergeConfig) { c.preferLater = true }
}

// MergeResults folds partial results into one MergedRecord. The fold always
// runs in ascending chunk-index order regardless of completion order, so the
// outcome is deterministic. Merging never fails; zero partials for a kind
// just leaves that kind's list empty.
func MergeResults(partials []PartialResult, opts ...MergeOption) MergedRecord {
	var cfg mergeConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	ordered := make([]PartialResult, len(partials))
	copy(ordered, partials)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Chunk != ordered[j].Chunk {
			return ordered[i].Chunk < ordered[j].Chunk
		}
		return kindRank(ordered[i].Kind) < kindRank(ordered[j].Kind)
	})

	acc := MergedRecord{
		FieldMappings: []FieldMapping{},
		Constraints:   []Entry{},
		EdgeCases:     []Entry{},
	}
	for _, p := range ordered {
		acc = foldPartial(acc, p, cfg)
	}
	return acc
}

func kindRank(k ExtractionKind) int {
	for i, kk := range Kinds() {
		if k == kk {
			return i
		}
	}
	return len(Kinds())
}

// foldPartial produces a new record with one partial folded in.
func foldPartial(acc MergedRecord, p PartialResult, cfg mergeConfig) MergedRecord {
	switch p.Kind {
	case KindSchema:
		if p.Schema != nil {
			acc.Schema = mergeSchema(acc.Schema, p.Schema)
		}
	case KindFieldMapping:
		acc.FieldMappings = mergeMappings(acc.FieldMappings, p.Mappings, cfg)
	case KindConstraint:
		acc.Constraints = mergeEntries(acc.Constraints, p.Entries, cfg)
	case KindEdgeCase:
		acc.EdgeCases = mergeEntries(acc.EdgeCases, p.Entries, cfg)
	}
	return acc
}

// mergeSchema combines two schema observations. Top-level scalars are set on
// the first non-empty observation and never clobbered by a later empty one.
// Endpoints dedupe by (normalized path, method); on collision the later
// observation wins on scalar fields while parameters and responses are
// unioned, because a later chunk may describe the same endpoint with only
// partial detail.
func mergeSchema(acc, next *CarrierSchema) *CarrierSchema {
	if acc == nil {
		cp := *next
		return &cp
	}
	out := *acc

	out.Name = firstNonEmpty(out.Name, next.Name)
	out.BaseURL = firstNonEmpty(out.BaseURL, next.BaseURL)
	out.Version = firstNonEmpty(out.Version, next.Version)
	out.Description = firstNonEmpty(out.Description, next.Description)
	out.DocumentationURL = firstNonEmpty(out.DocumentationURL, next.DocumentationURL)

	out.Endpoints = mergeEndpoints(out.Endpoints, next.Endpoints)
	out.Authentication = mergeAuth(out.Authentication, next.Authentication)
	out.RateLimits = mergeRateLimits(out.RateLimits, next.RateLimits)
	return &out
}

func firstNonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return a
	}
	return b
}

func mergeEndpoints(acc, next []Endpoint) []Endpoint {
	if len(next) == 0 {
		return acc
	}
	out := make([]Endpoint, len(acc))
	copy(out, acc)
	index := make(map[string]int, len(out))
	for i, e := range out {
		index[endpointKey(e)] = i
	}
	for _, e := range next {
		i, seen := index[endpointKey(e)]
		if !seen {
			index[endpointKey(e)] = len(out)
			out = append(out, e)
			continue
		}
		out[i] = overlayEndpoint(out[i], e)
	}
	return out
}

// overlayEndpoint applies a later observation of the same endpoint: scalars
// from the later chunk win when set, list-valued sub-fields are unioned.
func overlayEndpoint(earlier, later Endpoint) Endpoint {
	out := earlier
	if strings.TrimSpace(later.Summary) != "" {
		out.Summary = later.Summary
	}
	if strings.TrimSpace(later.Description) != "" {
		out.Description = later.Description
	}
	if later.AuthRequired {
		out.AuthRequired = true
	}
	out.Request = mergeRequest(earlier.Request, later.Request)
	out.Responses = mergeResponses(earlier.Responses, later.Responses)
	out.Tags = unionStrings(earlier.Tags, later.Tags)
	return out
}

func mergeRequest(earlier, later *RequestSchema) *RequestSchema {
	if later == nil {
		return earlier
	}
	if earlier == nil {
		cp := *later
		return &cp
	}
	out := *earlier
	if strings.TrimSpace(later.ContentType) != "" {
		out.ContentType = later.ContentType
	}
	if later.BodySchema != nil {
		out.BodySchema = later.BodySchema
	}
	out.Parameters = mergeParameters(earlier.Parameters, later.Parameters)
	return &out
}

func mergeParameters(acc, next []Parameter) []Parameter {
	if len(next) == 0 {
		return acc
	}
	out := make([]Parameter, len(acc))
	copy(out, acc)
	seen := make(map[string]bool, len(out))
	for _, p := range out {
		seen[paramKey(p)] = true
	}
	for _, p := range next {
		if !seen[paramKey(p)] {
			seen[paramKey(p)] = true
			out = append(out, p)
		}
	}
	return out
}

func paramKey(p Parameter) string {
	return strings.ToLower(strings.TrimSpace(p.Name)) + "\x00" + strings.ToLower(p.Location)
}

func mergeResponses(acc, next []ResponseSchema) []ResponseSchema {
	if len(next) == 0 {
		return acc
	}
	out := make([]ResponseSchema, len(acc))
	copy(out, acc)
	seen := make(map[int]bool, len(out))
	for _, r := range out {
		seen[r.StatusCode] = true
	}
	for _, r := range next {
		if !seen[r.StatusCode] {
			seen[r.StatusCode] = true
			out = append(out, r)
		}
	}
	return out
}

func mergeAuth(acc, next []AuthMethod) []AuthMethod {
	if len(next) == 0 {
		return acc
	}
	out := make([]AuthMethod, len(acc))
	copy(out, acc)
	seen := make(map[string]bool, len(out))
	key := func(a AuthMethod) string {
		return a.Type + "\x00" + strings.ToLower(a.ParameterName)
	}
	for _, a := range out {
		seen[key(a)] = true
	}
	for _, a := range next {
		if !seen[key(a)] {
			seen[key(a)] = true
			out = append(out, a)
		}
	}
	return out
}

func mergeRateLimits(acc, next []RateLimit) []RateLimit {
	if len(next) == 0 {
		return acc
	}
	out := make([]RateLimit, len(acc))
	copy(out, acc)
	seen := make(map[string]bool, len(out))
	key := func(r RateLimit) string {
		return strings.ToLower(strings.TrimSpace(r.Period)) + "\x00" + strconv.Itoa(r.Requests)
	}
	for _, r := range out {
		seen[key(r)] = true
	}
	for _, r := range next {
		if !seen[key(r)] {
			seen[key(r)] = true
			out = append(out, r)
		}
	}
	return out
}

func unionStrings(a, b []string) []string {
	if len(b) == 0 {
		return a
	}
	out := make([]string, len(a))
	copy(out, a)
	seen := make(map[string]bool, len(out))
	for _, s := range out {
		seen[s] = true
	}
	for _, s := range b {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// mergeMappings dedupes by (carrier field, universal field), both fold-cased
// and trimmed.
func mergeMappings(acc, next []FieldMapping, cfg mergeConfig) []FieldMapping {
	if len(next) == 0 {
		return acc
	}
	out := make([]FieldMapping, len(acc))
	copy(out, acc)
	index := make(map[string]int, len(out))
	for i, m := range out {
		index[mappingKey(m)] = i
	}
	for _, m := range next {
		i, seen := index[mappingKey(m)]
		if !seen {
			index[mappingKey(m)] = len(out)
			out = append(out, m)
			continue
		}
		if cfg.preferLater {
			out[i] = m
		}
	}
	return out
}

// mergeEntries dedupes constraints and edge cases by content fingerprint.
func mergeEntries(acc, next []Entry, cfg mergeConfig) []Entry {
	if len(next) == 0 {
		return acc
	}
	out := make([]Entry, len(acc))
	copy(out, acc)
	index := make(map[string]int, len(out))
	for i, e := range out {
		index[fingerprint(e)] = i
	}
	for _, e := range next {
		fp := fingerprint(e)
		i, seen := index[fp]
		if !seen {
			index[fp] = len(out)
			out = append(out, e)
			continue
		}
		if cfg.preferLater {
			out[i] = e
		}
	}
	return out
}

// fingerprint hashes an entry's normalized field set, independent of key
// order. Nil values are dropped and string values trimmed before hashing, so
// cosmetic differences between chunks do not defeat deduplication.
func fingerprint(e Entry) string {
	canon := normalizeValue(map[string]any(e))
	b, err := json.Marshal(canon) // map keys marshal in sorted order
	if err != nil {
		b = []byte("unhashable")
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if val == nil {
				continue
			}
			out[k] = normalizeValue(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalizeValue(val)
		}
		return out
	case string:
		return strings.TrimSpace(t)
	}
	return v
}
