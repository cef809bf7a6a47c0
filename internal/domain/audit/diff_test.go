package audit

import (
	"testing"
	"time"
)

func TestDiff_Empty(t *testing.T) {
	old := map[string]interface{}{"motif": "checkup", "amount": 50.0}
	changes := Diff(old, map[string]interface{}{"motif": "checkup", "amount": 50.0})
	if len(changes) != 0 {
		t.Errorf("expected empty diff, got %v", changes)
	}
}

func TestDiff_SingleField(t *testing.T) {
	old := map[string]interface{}{"motif": "checkup", "amount": 50.0}
	changes := Diff(old, map[string]interface{}{"motif": "follow-up", "amount": 50.0})
	if len(changes) != 1 {
		t.Fatalf("expected 1 change, got %d", len(changes))
	}
	fc, ok := changes["motif"]
	if !ok {
		t.Fatal("expected motif change")
	}
	if fc.Old != "checkup" || fc.New != "follow-up" {
		t.Errorf("unexpected pair: %+v", fc)
	}
}

func TestDiff_NumbersStayNumbers(t *testing.T) {
	changes := Diff(
		map[string]interface{}{"amount": 50.0},
		map[string]interface{}{"amount": 75.0},
	)
	fc := changes["amount"]
	if _, ok := fc.New.(float64); !ok {
		t.Errorf("expected numeric new value, got %T", fc.New)
	}
}

func TestDiff_TimesRenderAsRFC3339(t *testing.T) {
	before := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	after := time.Date(2025, 3, 2, 14, 30, 0, 0, time.UTC)
	changes := Diff(
		map[string]interface{}{"scheduled_at": before},
		map[string]interface{}{"scheduled_at": after},
	)
	fc, ok := changes["scheduled_at"]
	if !ok {
		t.Fatal("expected scheduled_at change")
	}
	if fc.Old != "2025-03-01T09:00:00Z" {
		t.Errorf("unexpected old: %v", fc.Old)
	}
	if fc.New != "2025-03-02T14:30:00Z" {
		t.Errorf("unexpected new: %v", fc.New)
	}
}

func TestDiff_EqualTimesInDifferentZones(t *testing.T) {
	utc := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	paris := utc.In(time.FixedZone("CET", 3600))
	changes := Diff(
		map[string]interface{}{"scheduled_at": utc},
		map[string]interface{}{"scheduled_at": paris},
	)
	if len(changes) != 0 {
		t.Errorf("same instant should not diff, got %v", changes)
	}
}

func TestDiff_NilToValue(t *testing.T) {
	changes := Diff(
		map[string]interface{}{"doctor_id": nil},
		map[string]interface{}{"doctor_id": "d-2"},
	)
	fc, ok := changes["doctor_id"]
	if !ok {
		t.Fatal("expected doctor_id change")
	}
	if fc.Old != nil || fc.New != "d-2" {
		t.Errorf("unexpected pair: %+v", fc)
	}
}
