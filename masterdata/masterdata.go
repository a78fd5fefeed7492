// Package masterdata loads the static Timetables API document that ships
// with the tool. The document is an OpenAPI description; its schema
// components define the vocabulary of the station data plane (connection
// statuses, delay sources, EVA numbers) and are extracted into typed form so
// the rest of the code can validate values against them.
package masterdata

import (
	"crypto/sha256"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ValidationError reports a structurally unusable masterdata document.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "masterdata: " + e.Reason }

// Info is the document's info section.
type Info struct {
	Title          string
	Version        string
	Description    string
	ContactEmail   string
	TermsOfService string
	IBMName        string
}

// Property is one property of an object schema.
type Property struct {
	Ref          string
	Description  string
	Type         string
	Format       string
	XMLAttribute bool
}

// ObjectSchema is an object component with its required fields.
type ObjectSchema struct {
	Description string
	Type        string
	Required    []string
	Properties  map[string]Property
}

// EnumSchema is a string component restricted to a fixed value set.
type EnumSchema struct {
	Description string
	Type        string
	Values      []string
}

// Masterdata is the parsed Timetables document. Raw keeps the full document
// for parts no typed accessor covers; Hash fingerprints the file bytes for
// traceability.
type Masterdata struct {
	OpenAPI            string
	Info               Info
	Connection         *ObjectSchema
	ConnectionStatus   *EnumSchema
	DelaySource        *EnumSchema
	DistributorType    *EnumSchema
	DistributorMessage map[string]any
	TimetableStop      map[string]any
	Raw                map[string]any
	Hash               string
	Stations           *StationIndex
}

// Load reads and parses a masterdata file.
func Load(path string) (*Masterdata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read masterdata: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a Timetables document.
func Parse(data []byte) (*Masterdata, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("invalid yaml: %v", err)}
	}
	if len(raw) == 0 {
		return nil, &ValidationError{Reason: "document is empty"}
	}

	md := &Masterdata{
		OpenAPI:  str(raw, "openapi"),
		Raw:      raw,
		Hash:     fmt.Sprintf("%x", sha256.Sum256(data)),
		Stations: NewStationIndex(),
	}
	info := subMap(raw, "info")
	if info == nil {
		return nil, &ValidationError{Reason: "missing info section"}
	}
	md.Info = parseInfo(info)

	schemas := subMap(subMap(raw, "components"), "schemas")
	if s := subMap(schemas, "connection"); s != nil {
		md.Connection = parseObjectSchema(s)
	}
	if s := subMap(schemas, "connectionStatus"); s != nil {
		md.ConnectionStatus = parseEnumSchema(s)
	}
	if s := subMap(schemas, "delaySource"); s != nil {
		md.DelaySource = parseEnumSchema(s)
	}
	if s := subMap(schemas, "distributorType"); s != nil {
		md.DistributorType = parseEnumSchema(s)
	}
	md.DistributorMessage = subMap(schemas, "distributorMessage")
	md.TimetableStop = subMap(schemas, "timetableStop")

	if err := md.validate(); err != nil {
		return nil, err
	}
	return md, nil
}

// Enum values the rest of the code depends on; a document missing them is
// from a different API and gets rejected.
var (
	requiredConnectionStatuses = []string{"w", "n", "a"}
	requiredDelaySources       = []string{"L", "NA", "NM", "V", "IA", "IM", "A"}
)

func (m *Masterdata) validate() error {
	if m.Info.Title == "" {
		return &ValidationError{Reason: "info.title is missing or empty"}
	}
	if m.Info.Version == "" {
		return &ValidationError{Reason: "info.version is missing or empty"}
	}
	if m.OpenAPI == "" {
		return &ValidationError{Reason: "openapi version is missing"}
	}
	if m.ConnectionStatus != nil {
		if missing := missingValues(m.ConnectionStatus.Values, requiredConnectionStatuses); len(missing) > 0 {
			return &ValidationError{Reason: fmt.Sprintf("connectionStatus enum is missing %v", missing)}
		}
	}
	if m.DelaySource != nil {
		if missing := missingValues(m.DelaySource.Values, requiredDelaySources); len(missing) > 0 {
			return &ValidationError{Reason: fmt.Sprintf("delaySource enum is missing %v", missing)}
		}
	}
	return nil
}

// ValidateConnectionStatus reports whether s is a known connection status.
func (m *Masterdata) ValidateConnectionStatus(s string) bool {
	return m.ConnectionStatus != nil && contains(m.ConnectionStatus.Values, s)
}

// ValidateDelaySource reports whether s is a known delay source.
func (m *Masterdata) ValidateDelaySource(s string) bool {
	return m.DelaySource != nil && contains(m.DelaySource.Values, s)
}

// ValidateEVA reports whether n is a plausible EVA station number. EVA
// numbers have 6 to 8 digits.
func ValidateEVA(n int) bool {
	return n >= 100000 && n <= 99999999
}

// SchemaSummary describes what the loaded document provides.
type SchemaSummary struct {
	OpenAPIVersion         string          `json:"openapi_version"`
	APITitle               string          `json:"api_title"`
	APIVersion             string          `json:"api_version"`
	Hash                   string          `json:"data_hash"`
	AvailableSchemas       map[string]bool `json:"available_schemas"`
	ConnectionStatusValues []string        `json:"connection_status_values"`
	DelaySourceValues      []string        `json:"delay_source_values"`
	StationIndexSize       int             `json:"station_index_size"`
}

// SchemaSummary collects a diagnostic overview of the document.
func (m *Masterdata) SchemaSummary() SchemaSummary {
	s := SchemaSummary{
		OpenAPIVersion: m.OpenAPI,
		APITitle:       m.Info.Title,
		APIVersion:     m.Info.Version,
		Hash:           m.Hash,
		AvailableSchemas: map[string]bool{
			"connection":          m.Connection != nil,
			"connection_status":   m.ConnectionStatus != nil,
			"delay_source":        m.DelaySource != nil,
			"distributor_message": m.DistributorMessage != nil,
			"distributor_type":    m.DistributorType != nil,
			"timetable_stop":      m.TimetableStop != nil,
		},
		StationIndexSize: m.Stations.Len(),
	}
	if m.ConnectionStatus != nil {
		s.ConnectionStatusValues = m.ConnectionStatus.Values
	}
	if m.DelaySource != nil {
		s.DelaySourceValues = m.DelaySource.Values
	}
	return s
}

func parseInfo(m map[string]any) Info {
	return Info{
		Title:          str(m, "title"),
		Version:        str(m, "version"),
		Description:    str(m, "description"),
		ContactEmail:   str(subMap(m, "contact"), "email"),
		TermsOfService: str(m, "termsOfService"),
		IBMName:        str(m, "x-ibm-name"),
	}
}

func parseObjectSchema(m map[string]any) *ObjectSchema {
	s := &ObjectSchema{
		Description: str(m, "description"),
		Type:        str(m, "type"),
		Required:    strSlice(m, "required"),
		Properties:  map[string]Property{},
	}
	if s.Type == "" {
		s.Type = "object"
	}
	for name, v := range subMap(m, "properties") {
		p, ok := v.(map[string]any)
		if !ok {
			continue
		}
		s.Properties[name] = Property{
			Ref:          str(p, "$ref"),
			Description:  str(p, "description"),
			Type:         str(p, "type"),
			Format:       str(p, "format"),
			XMLAttribute: boolVal(subMap(p, "xml"), "attribute"),
		}
	}
	return s
}

func parseEnumSchema(m map[string]any) *EnumSchema {
	s := &EnumSchema{
		Description: str(m, "description"),
		Type:        str(m, "type"),
		Values:      strSlice(m, "enum"),
	}
	if s.Type == "" {
		s.Type = "string"
	}
	return s
}

func subMap(m map[string]any, key string) map[string]any {
	v, _ := m[key].(map[string]any)
	return v
}

func str(m map[string]any, key string) string {
	v, _ := m[key].(string)
	return v
}

func boolVal(m map[string]any, key string) bool {
	v, _ := m[key].(bool)
	return v
}

func strSlice(m map[string]any, key string) []string {
	raw, _ := m[key].([]any)
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func contains(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}

func missingValues(have []string, want []string) []string {
	var missing []string
	for _, w := range want {
		if !contains(have, w) {
			missing = append(missing, w)
		}
	}
	return missing
}
