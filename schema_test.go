package extract

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthMethod_TypeNormalization(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"api_key", "api_key"},
		{"APIKEY", "api_key"},
		{"api-key", "api_key"},
		{"X-API-Key header", "api_key"},
		{"bearer", "bearer"},
		{"JWT", "bearer"},
		{"token", "bearer"},
		{"basic", "basic"},
		{"Digest", "basic"},
		{"oauth", "oauth2"},
		{"OAuth 2.0", "oauth2"},
		{"ws-security", "custom"},
		{"soap_header", "custom"},
		{"username_token", "custom"},
		{"", "custom"},
		{"something else", "custom"},
	}
	for _, tc := range cases {
		var a AuthMethod
		raw, _ := json.Marshal(map[string]string{"type": tc.in})
		require.NoError(t, json.Unmarshal(raw, &a))
		assert.Equal(t, tc.want, a.Type, "type %q", tc.in)
	}
}

func TestAuthMethod_DisplayNameGenerated(t *testing.T) {
	var a AuthMethod
	require.NoError(t, json.Unmarshal([]byte(`{"type":"jwt"}`), &a))
	assert.Equal(t, "Bearer Token Authentication", a.Name)
	assert.Equal(t, "header", a.Location)

	require.NoError(t, json.Unmarshal([]byte(`{"type":"basic","name":"My Auth","location":"query"}`), &a))
	assert.Equal(t, "My Auth", a.Name)
	assert.Equal(t, "query", a.Location)
}

func TestRateLimit_LimitAlias(t *testing.T) {
	var r RateLimit
	require.NoError(t, json.Unmarshal([]byte(`{"limit":100,"period":"1 minute"}`), &r))
	assert.Equal(t, 100, r.Requests)

	require.NoError(t, json.Unmarshal([]byte(`{"requests":50,"limit":100,"period":"1 hour"}`), &r))
	assert.Equal(t, 50, r.Requests, "requests wins over limit when both present")
}

func TestEndpointKey_Normalization(t *testing.T) {
	a := Endpoint{Path: "/Track/", Method: "get"}
	b := Endpoint{Path: "/track", Method: "GET"}
	assert.Equal(t, endpointKey(a), endpointKey(b))

	c := Endpoint{Path: "/track", Method: "POST"}
	assert.NotEqual(t, endpointKey(b), endpointKey(c))

	root := Endpoint{Path: "/", Method: "GET"}
	assert.Equal(t, "/ GET", endpointKey(root), "root path keeps its slash")
}

func TestMappingKey_Normalization(t *testing.T) {
	a := FieldMapping{CarrierField: " Trk_Num ", UniversalField: "tracking_number"}
	b := FieldMapping{CarrierField: "trk_num", UniversalField: "Tracking_Number"}
	assert.Equal(t, mappingKey(a), mappingKey(b))
}
