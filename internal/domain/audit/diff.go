package audit

import "time"

// Diff compares two snapshots of tracked fields and returns the fields whose
// values differ. An empty result means the caller should skip the audit write
// entirely; no-op edits never reach the ledger.
func Diff(oldFields, newFields map[string]interface{}) Changes {
	changes := make(Changes)
	for field, newVal := range newFields {
		oldVal := oldFields[field]
		if equal(oldVal, newVal) {
			continue
		}
		changes[field] = FieldChange{Old: normalize(oldVal), New: normalize(newVal)}
	}
	return changes
}

func equal(a, b interface{}) bool {
	at, aok := asTime(a)
	bt, bok := asTime(b)
	if aok && bok {
		return at.Equal(bt)
	}
	if aok != bok {
		return false
	}
	return a == b
}

// normalize converts time values to RFC 3339 strings so the stored diff is
// lossless and stable across readers.
func normalize(v interface{}) interface{} {
	if t, ok := asTime(v); ok {
		return t.UTC().Format(time.RFC3339)
	}
	return v
}

func asTime(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, true
	}
	return time.Time{}, false
}
