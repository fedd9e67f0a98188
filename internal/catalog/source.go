package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Source delivers the raw catalog, newest first where the source knows
// creation times.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]RawRecord, error)
}

//go:embed products.yaml
var seedCatalog []byte

// StaticSource serves a YAML document of products.
type StaticSource struct {
	data []byte
}

// NewStaticSource returns a source over the built-in seed catalog.
func NewStaticSource() *StaticSource {
	return &StaticSource{data: seedCatalog}
}

// NewStaticSourceFromYAML returns a source over data.
func NewStaticSourceFromYAML(data []byte) *StaticSource {
	return &StaticSource{data: data}
}

func (s *StaticSource) Name() string { return "static" }

// Fetch decodes the document on every call; it is small and never changes.
func (s *StaticSource) Fetch(_ context.Context) ([]RawRecord, error) {
	var records []RawRecord
	if err := yaml.Unmarshal(s.data, &records); err != nil {
		return nil, fmt.Errorf("decode static catalog: %w", err)
	}
	return records, nil
}

// decodeRecords reads a JSON array of products keeping numbers exact.
func decodeRecords(r io.Reader) ([]RawRecord, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var records []RawRecord
	if err := dec.Decode(&records); err != nil {
		return nil, err
	}
	return records, nil
}

// decodeRecord reads a single JSON product document keeping numbers exact.
func decodeRecord(doc []byte) (RawRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()

	var rec RawRecord
	if err := dec.Decode(&rec); err != nil {
		return nil, err
	}
	return rec, nil
}
