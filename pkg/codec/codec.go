// Package codec converts typed records to and from the raw field maps the
// remote store speaks, and resolves typed field accessors to stored field
// names through a static per-type table.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/docstore/docstore.go/pkg/constants"
)

// FieldMap is the generic key-value form of one document's fields.
type FieldMap = map[string]any

// Audit field names injected when a descriptor enables timestamps.
const (
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
)

var ErrNilRecord = errors.New("codec: nil record")

// Descriptor binds a record type to its collection mapping. The canonical
// path of a document is Root/Version/Name/<id>. Fields maps accessor names
// to stored field names; it is the compile-time-checked replacement for
// reflective member lookup, written once per record type.
type Descriptor[T any] struct {
	Root    string
	Version string
	Name    string

	// Timestamps controls whether createdAt/updatedAt sentinels are added
	// on write for this record type.
	Timestamps bool

	Fields map[string]string
}

// CollectionPath returns the canonical collection prefix for this type.
func (d Descriptor[T]) CollectionPath() string {
	return strings.Join([]string{d.Root, d.Version, d.Name}, constants.PathSeparator)
}

// PathFor returns the canonical path of the document with the given id.
func (d Descriptor[T]) PathFor(id string) string {
	return d.CollectionPath() + constants.PathSeparator + id
}

// Encode converts a record into a raw field map. An unencodable record is a
// programming error to the layers above; here it is reported as a plain
// error so the caller can decide how loudly to fail.
func (d Descriptor[T]) Encode(record *T) (FieldMap, error) {
	if record == nil {
		return nil, ErrNilRecord
	}
	raw, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("codec: encode %s: %w", d.Name, err)
	}
	var fields FieldMap
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("codec: encode %s: %w", d.Name, err)
	}
	if fields == nil {
		fields = FieldMap{}
	}
	return fields, nil
}

// Decode converts a raw field map back into a typed record. Unknown fields
// (such as injected audit fields) are ignored; a type mismatch on a known
// field is a decode error.
func (d Descriptor[T]) Decode(fields FieldMap) (*T, error) {
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("codec: decode %s: %w", d.Name, err)
	}
	record := new(T)
	if err := json.NewDecoder(bytes.NewReader(raw)).Decode(record); err != nil {
		return nil, fmt.Errorf("codec: decode %s: %w", d.Name, err)
	}
	return record, nil
}

// ResolveField maps a typed field accessor to its stored field name. An
// accessor missing from the table means the field is not representable as a
// stored name, which is a bug in the calling code, so this panics.
func (d Descriptor[T]) ResolveField(accessor string) string {
	name, ok := d.Fields[accessor]
	if !ok {
		panic(fmt.Sprintf("codec: field accessor %q is not resolvable for %s", accessor, d.Name))
	}
	return name
}
