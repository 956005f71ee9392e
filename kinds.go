package extract

import "fmt"

// ExtractionKind identifies which structured shape a completion call is
// expected to return.
type ExtractionKind string

const (
	KindSchema       ExtractionKind = "schema"
	KindFieldMapping ExtractionKind = "field_mapping"
	KindConstraint   ExtractionKind = "constraint"
	KindEdgeCase     ExtractionKind = "edge_case"
)

// Kinds lists every extraction kind in the order the merger folds them.
func Kinds() []ExtractionKind {
	return []ExtractionKind{KindSchema, KindFieldMapping, KindConstraint, KindEdgeCase}
}

func (k ExtractionKind) valid() bool {
	switch k {
	case KindSchema, KindFieldMapping, KindConstraint, KindEdgeCase:
		return true
	}
	return false
}

// Chunk is one bounded slice of the source text. Start and End are rune
// offsets into the source ([Start, End) span); Text is the substring itself.
type Chunk struct {
	Index int
	Start int
	End   int
	Text  string
}

// PartialResult is the parsed output of one (chunk, kind) completion call.
// Exactly one payload field is set, selected by Kind. Never mutated after
// creation.
type PartialResult struct {
	Chunk int
	Kind  ExtractionKind

	Schema   *CarrierSchema
	Mappings []FieldMapping
	Entries  []Entry // constraints or edge cases, depending on Kind
}

func (p PartialResult) String() string {
	return fmt.Sprintf("partial{chunk=%d kind=%s}", p.Chunk, p.Kind)
}
