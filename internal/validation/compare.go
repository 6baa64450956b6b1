package validation

// SourceValue is one document's already-normalized value for a field.
type SourceValue struct {
	Source string
	Value  string
}

// CompareDocuments emits one inconsistency for every unordered pair of sources
// whose values are both non-empty and differ. Pairs are visited in declaration
// order (i < j), so three mutually different sources yield three entries and a
// single divergent source among N yields N-1. Empty values never participate.
func CompareDocuments(field string, values []SourceValue, message string, severity Severity) []Inconsistency {
	var out []Inconsistency
	for i := 0; i < len(values); i++ {
		a := values[i]
		if a.Value == "" {
			continue
		}
		for j := i + 1; j < len(values); j++ {
			b := values[j]
			if b.Value == "" || a.Value == b.Value {
				continue
			}
			out = append(out, Inconsistency{
				Field:    field,
				Message:  message,
				Severity: severity,
				Values: map[string]string{
					a.Source: a.Value,
					b.Source: b.Value,
				},
			})
		}
	}
	return out
}
