package timeutil

import (
	"fmt"
	"strings"
	"time"
)

// RFC3339Millis is the wire format for API timestamps.
const RFC3339Millis = "2006-01-02T15:04:05.000Z"

// RFC3339Micros is used for log timestamps.
const RFC3339Micros = "2006-01-02T15:04:05.000000Z"

// Clock returns the current instant. Services take a Clock so tests can pin time.
type Clock func() time.Time

// UTC is the production Clock.
func UTC() time.Time {
	return time.Now().UTC()
}

// Fixed returns a Clock that always reports t.
func Fixed(t time.Time) Clock {
	return func() time.Time { return t }
}

// Time is a time.Time that always encodes as UTC with millisecond precision,
// e.g. "2024-01-15T10:30:00.000Z". Decoding null leaves the value unchanged.
type Time struct {
	time.Time
}

// NewTime wraps t.
func NewTime(t time.Time) Time {
	return Time{Time: t}
}

// String implements fmt.Stringer using the wire format.
func (t Time) String() string {
	return t.UTC().Format(RFC3339Millis)
}

// MarshalJSON implements json.Marshaler.
func (t Time) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler and accepts any RFC 3339 variant.
func (t *Time) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	unquoted, ok := strings.CutPrefix(s, `"`)
	if !ok {
		return fmt.Errorf("timeutil: expected JSON string, got %s", s)
	}
	unquoted, ok = strings.CutSuffix(unquoted, `"`)
	if !ok {
		return fmt.Errorf("timeutil: unterminated JSON string %s", s)
	}
	parsed, err := time.Parse(time.RFC3339Nano, unquoted)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}
