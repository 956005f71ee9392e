package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON_FencedBlock(t *testing.T) {
	raw := "```json\n{\"a\":1}\n```"
	payload, err := ExtractJSON([]byte(raw))
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(payload))
}

func TestExtractJSON_FencedBlockWithoutLanguageTag(t *testing.T) {
	raw := "```\n{\"a\":1}\n```"
	payload, err := ExtractJSON([]byte(raw))
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(payload))
}

func TestExtractJSON_SurroundingProse(t *testing.T) {
	raw := `Here is the result: {"a":1} — done.`
	payload, err := ExtractJSON([]byte(raw))
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(payload))
}

func TestExtractJSON_Array(t *testing.T) {
	raw := `The mappings are: [{"carrier_field":"trk"}] as requested.`
	payload, err := ExtractJSON([]byte(raw))
	require.NoError(t, err)
	assert.JSONEq(t, `[{"carrier_field":"trk"}]`, string(payload))
}

func TestExtractJSON_NotJSON(t *testing.T) {
	_, err := ExtractJSON([]byte("not json at all"))
	require.Error(t, err)
}

func TestParseResponse_NotJSONCarriesChunkAndKind(t *testing.T) {
	_, err := ParseResponse(3, KindConstraint, []byte("not json at all"))
	var malformed *MalformedResponseError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, 3, malformed.Chunk)
	assert.Equal(t, KindConstraint, malformed.Kind)
}

func TestParseResponse_Schema(t *testing.T) {
	raw := `{"name":"DHL","base_url":"https://api.dhl.com","endpoints":[{"path":"/track","method":"GET","summary":"Track"}]}`
	pr, err := ParseResponse(0, KindSchema, []byte(raw))
	require.NoError(t, err)
	require.NotNil(t, pr.Schema)
	assert.Equal(t, "DHL", pr.Schema.Name)
	require.Len(t, pr.Schema.Endpoints, 1)
	assert.Equal(t, "/track", pr.Schema.Endpoints[0].Path)
}

func TestParseResponse_MappingsBareArray(t *testing.T) {
	raw := `[{"carrier_field":"trk_num","universal_field":"tracking_number"}]`
	pr, err := ParseResponse(1, KindFieldMapping, []byte(raw))
	require.NoError(t, err)
	require.Len(t, pr.Mappings, 1)
	assert.Equal(t, "trk_num", pr.Mappings[0].CarrierField)
}

func TestParseResponse_MappingsAltKeyUnwrap(t *testing.T) {
	for _, raw := range []string{
		`{"field_mappings":[{"carrier_field":"a","universal_field":"b"}]}`,
		`{"fieldMappings":[{"carrier_field":"a","universal_field":"b"}]}`,
		`{"mappings":[{"carrier_field":"a","universal_field":"b"}]}`,
	} {
		pr, err := ParseResponse(0, KindFieldMapping, []byte(raw))
		require.NoError(t, err, raw)
		require.Len(t, pr.Mappings, 1, raw)
	}
}

func TestParseResponse_ConstraintsAltKeyUnwrap(t *testing.T) {
	raw := `{"rules":[{"field":"weight","rule":"grams only"}]}`
	pr, err := ParseResponse(0, KindConstraint, []byte(raw))
	require.NoError(t, err)
	require.Len(t, pr.Entries, 1)
	assert.Equal(t, "weight", pr.Entries[0]["field"])
}

func TestParseResponse_EdgeCasesAltKeyUnwrap(t *testing.T) {
	raw := `{"edgeCases":[{"type":"surcharge","requirement":"remote area"}]}`
	pr, err := ParseResponse(0, KindEdgeCase, []byte(raw))
	require.NoError(t, err)
	require.Len(t, pr.Entries, 1)
}

func TestParseResponse_ObjectWithoutRecognizedKey(t *testing.T) {
	raw := `{"unexpected":[1,2,3]}`
	_, err := ParseResponse(0, KindFieldMapping, []byte(raw))
	var malformed *MalformedResponseError
	require.ErrorAs(t, err, &malformed)
}

func TestParseResponse_FencedSchemaWithProse(t *testing.T) {
	raw := "Sure! Here's the schema you asked for:\n```json\n" +
		`{"name":"C","base_url":"https://x.com","endpoints":[{"path":"/a","method":"GET","summary":"A"}]}` +
		"\n```\nLet me know if you need anything else."
	pr, err := ParseResponse(0, KindSchema, []byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "C", pr.Schema.Name)
}
