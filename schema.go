package extract

import (
	"encoding/json"
	"strings"
)

// HTTP methods accepted by the contract.
var httpMethods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "DELETE": true,
	"PATCH": true, "HEAD": true, "OPTIONS": true,
}

// Parameter locations accepted by the contract.
var paramLocations = map[string]bool{
	"query": true, "path": true, "header": true, "body": true, "form_data": true,
}

// Parameter types accepted by the contract.
var paramTypes = map[string]bool{
	"string": true, "integer": true, "number": true, "boolean": true,
	"array": true, "object": true, "date": true, "datetime": true,
}

// Auth method types accepted by the contract.
var authTypes = map[string]bool{
	"api_key": true, "bearer": true, "basic": true, "oauth2": true, "custom": true,
}

// CarrierSchema is the universal carrier format: the single merged API
// description all carrier documentation is reduced to.
type CarrierSchema struct {
	Name             string       `json:"name"`
	BaseURL          string       `json:"base_url"`
	Version          string       `json:"version,omitempty"`
	Description      string       `json:"description,omitempty"`
	Endpoints        []Endpoint   `json:"endpoints"`
	Authentication   []AuthMethod `json:"authentication,omitempty"`
	RateLimits       []RateLimit  `json:"rate_limits,omitempty"`
	DocumentationURL string       `json:"documentation_url,omitempty"`
}

// Endpoint describes one API operation.
type Endpoint struct {
	Path         string           `json:"path"`
	Method       string           `json:"method"`
	Summary      string           `json:"summary,omitempty"`
	Description  string           `json:"description,omitempty"`
	Request      *RequestSchema   `json:"request,omitempty"`
	Responses    []ResponseSchema `json:"responses,omitempty"`
	AuthRequired bool             `json:"authentication_required,omitempty"`
	Tags         []string         `json:"tags,omitempty"`
}

// RequestSchema describes the request side of an endpoint.
type RequestSchema struct {
	ContentType string         `json:"content_type,omitempty"`
	BodySchema  map[string]any `json:"body_schema,omitempty"`
	Parameters  []Parameter    `json:"parameters,omitempty"`
}

// Parameter is one request parameter.
type Parameter struct {
	Name        string `json:"name"`
	Type        string `json:"type,omitempty"`
	Location    string `json:"location,omitempty"`
	Required    bool   `json:"required,omitempty"`
	Description string `json:"description,omitempty"`
	Default     any    `json:"default,omitempty"`
	Example     any    `json:"example,omitempty"`
	Enum        []any  `json:"enum,omitempty"`
}

// ResponseSchema describes one possible endpoint response.
type ResponseSchema struct {
	StatusCode  int            `json:"status_code"`
	ContentType string         `json:"content_type,omitempty"`
	BodySchema  map[string]any `json:"body_schema,omitempty"`
	Description string         `json:"description,omitempty"`
}

// AuthMethod describes one way of authenticating against the API.
type AuthMethod struct {
	Type          string `json:"type"`
	Name          string `json:"name,omitempty"`
	Description   string `json:"description,omitempty"`
	Location      string `json:"location,omitempty"`
	Scheme        string `json:"scheme,omitempty"`
	ParameterName string `json:"parameter_name,omitempty"`
}

// UnmarshalJSON normalizes loose auth-type spellings the model produces
// (jwt, apikey, ws-security, ...) into the contract's fixed set and fills in
// a display name when the model omitted one.
func (a *AuthMethod) UnmarshalJSON(data []byte) error {
	type alias AuthMethod
	var raw alias
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*a = AuthMethod(raw)
	a.Type = normalizeAuthType(a.Type)
	if a.Name == "" {
		a.Name = authDisplayName(a.Type)
	}
	if a.Location == "" {
		a.Location = "header"
	}
	return nil
}

func normalizeAuthType(t string) string {
	t = strings.ToLower(strings.TrimSpace(t))
	if t == "" {
		return "custom"
	}
	if authTypes[t] {
		return t
	}
	switch t {
	case "apikey", "api-key":
		return "api_key"
	case "token", "jwt":
		return "bearer"
	case "digest":
		return "basic"
	case "ws-security", "ws_security", "soap", "soap_header", "username_token":
		return "custom"
	}
	switch {
	case strings.Contains(t, "bearer"), strings.Contains(t, "token"):
		return "bearer"
	case strings.Contains(t, "basic"), strings.Contains(t, "digest"):
		return "basic"
	case strings.Contains(t, "oauth"):
		return "oauth2"
	case strings.Contains(t, "api") && strings.Contains(t, "key"):
		return "api_key"
	}
	return "custom"
}

func authDisplayName(t string) string {
	switch t {
	case "api_key":
		return "API Key Authentication"
	case "bearer":
		return "Bearer Token Authentication"
	case "basic":
		return "Basic Authentication"
	case "oauth2":
		return "OAuth 2.0 Authentication"
	}
	return "Custom Authentication"
}

// RateLimit is one documented rate limit.
type RateLimit struct {
	Requests    int    `json:"requests"`
	Period      string `json:"period,omitempty"`
	Description string `json:"description,omitempty"`
}

// UnmarshalJSON accepts the alternate key "limit" the model sometimes uses
// instead of "requests".
func (r *RateLimit) UnmarshalJSON(data []byte) error {
	type alias RateLimit
	var raw struct {
		alias
		Limit *int `json:"limit"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = RateLimit(raw.alias)
	if r.Requests == 0 && raw.Limit != nil {
		r.Requests = *raw.Limit
	}
	return nil
}

// FieldMapping maps one carrier field name to its universal counterpart,
// with whatever validation metadata the documentation specifies.
type FieldMapping struct {
	CarrierField   string   `json:"carrier_field"`
	UniversalField string   `json:"universal_field"`
	Description    string   `json:"description,omitempty"`
	Required       bool     `json:"required,omitempty"`
	Type           string   `json:"type,omitempty"`
	MinLength      int      `json:"min_length,omitempty"`
	MaxLength      int      `json:"max_length,omitempty"`
	Pattern        string   `json:"pattern,omitempty"`
	EnumValues     []string `json:"enum_values,omitempty"`
}

// Entry is a loosely-shaped constraint or edge-case object. The model decides
// which keys are present; the contract only fingerprints and carries them.
type Entry map[string]any

// normalizePath lowercases an endpoint path and trims a trailing slash so
// "/Track/" and "/track" dedupe to the same endpoint.
func normalizePath(p string) string {
	p = strings.TrimSpace(strings.ToLower(p))
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	return p
}

// endpointKey is the dedup key for endpoints: normalized path + upper method.
func endpointKey(e Endpoint) string {
	return normalizePath(e.Path) + " " + strings.ToUpper(strings.TrimSpace(e.Method))
}

// mappingKey is the dedup key for field mappings.
func mappingKey(m FieldMapping) string {
	return strings.ToLower(strings.TrimSpace(m.CarrierField)) + "\x00" +
		strings.ToLower(strings.TrimSpace(m.UniversalField))
}
