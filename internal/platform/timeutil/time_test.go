package timeutil

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTimeMarshalJSON(t *testing.T) {
	ts := time.Date(2024, 1, 15, 12, 30, 0, 123456789, time.FixedZone("EET", 2*60*60))
	data, err := json.Marshal(NewTime(ts))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if got := string(data); got != `"2024-01-15T10:30:00.123Z"` {
		t.Fatalf("unexpected JSON %s", got)
	}
}

func TestTimeUnmarshalJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"millis", `"2024-01-15T10:30:00.123Z"`, time.Date(2024, 1, 15, 10, 30, 0, 123000000, time.UTC)},
		{"seconds", `"2024-01-15T10:30:00Z"`, time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)},
		{"offset", `"2024-01-15T12:30:00+02:00"`, time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Time
			if err := json.Unmarshal([]byte(tt.input), &got); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Fatalf("got %v, want %v", got.Time, tt.want)
			}
		})
	}
}

func TestTimeUnmarshalJSONNullPreservesValue(t *testing.T) {
	orig := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	got := NewTime(orig)
	if err := json.Unmarshal([]byte("null"), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !got.Equal(orig) {
		t.Fatalf("null should preserve value, got %v", got.Time)
	}
}

func TestTimeUnmarshalJSONRejectsGarbage(t *testing.T) {
	for _, input := range []string{`12345`, `"yesterday"`, `"2024-01-15`} {
		var got Time
		if err := got.UnmarshalJSON([]byte(input)); err == nil {
			t.Errorf("expected error for %s", input)
		}
	}
}

func TestFixedClock(t *testing.T) {
	ts := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	clock := Fixed(ts)
	if !clock().Equal(ts) || !clock().Equal(ts) {
		t.Fatal("fixed clock should always return the same instant")
	}
	if UTC().Location() != time.UTC {
		t.Fatal("UTC clock should report UTC")
	}
}
