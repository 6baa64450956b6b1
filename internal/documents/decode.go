package documents

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	dErrors "docval/pkg/domain-errors"
)

// Record is implemented by the three document types.
type Record interface {
	Validate() error
	requiredFields() []string
}

type record[T any] interface {
	*T
	Record
}

// Decode unmarshals an extraction payload into T and validates it. Every
// required field must be present and non-null; unknown fields are ignored.
// Failures carry CodeDocumentInvalid.
func Decode[T any, P record[T]](kind Kind, data []byte) (*T, error) {
	var rec T
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeDocumentInvalid,
			fmt.Sprintf("failed to decode %s data from extraction response", kind))
	}

	fields := missingFields(data, P(&rec).requiredFields())
	if err := P(&rec).Validate(); err != nil {
		var verr *ValidationError
		if !errors.As(err, &verr) {
			return nil, dErrors.Wrap(err, dErrors.CodeDocumentInvalid,
				fmt.Sprintf("failed to validate %s data from extraction response", kind))
		}
		for _, f := range verr.Fields {
			if !covered(fields, f) {
				fields = append(fields, f)
			}
		}
	}
	if len(fields) > 0 {
		return nil, dErrors.Wrap(&ValidationError{Kind: kind, Fields: fields}, dErrors.CodeDocumentInvalid,
			fmt.Sprintf("failed to validate %s data from extraction response", kind))
	}
	return &rec, nil
}

// missingFields walks data along each dotted path and returns the paths that
// are absent or null, in declaration order. A segment ending in [] must be a
// list; the rest of the path then applies to every element. A missing parent
// is reported once and its children are not.
func missingFields(data []byte, paths []string) []string {
	var missing []string
	report := func(p string) {
		if !slices.Contains(missing, p) {
			missing = append(missing, p)
		}
	}
	for _, path := range paths {
		walkRequired(data, strings.Split(path, "."), "", report)
	}
	return missing
}

func walkRequired(raw []byte, segs []string, prefix string, report func(string)) {
	// a non-object leaves obj nil and every lookup misses
	var obj map[string]json.RawMessage
	_ = json.Unmarshal(raw, &obj)

	name, each := strings.CutSuffix(segs[0], "[]")
	path := name
	if prefix != "" {
		path = prefix + "." + name
	}
	val, ok := obj[name]
	if !ok || isNull(val) {
		report(path)
		return
	}

	rest := segs[1:]
	if !each {
		if len(rest) > 0 {
			walkRequired(val, rest, path, report)
		}
		return
	}
	var items []json.RawMessage
	if err := json.Unmarshal(val, &items); err != nil {
		report(path)
		return
	}
	for i, item := range items {
		itemPath := fmt.Sprintf("%s[%d]", path, i)
		if isNull(item) {
			report(itemPath)
			continue
		}
		if len(rest) > 0 {
			walkRequired(item, rest, itemPath, report)
		}
	}
}

// covered reports whether field or one of its parents is already listed.
func covered(fields []string, field string) bool {
	return slices.ContainsFunc(fields, func(f string) bool {
		return field == f || strings.HasPrefix(field, f+".") || strings.HasPrefix(field, f+"[")
	})
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
