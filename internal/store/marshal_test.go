package store

import (
	"database/sql"
	"testing"
	"time"
)

func TestMarshalArgs_SortedAndUnescaped(t *testing.T) {
	got, err := marshalArgs(map[string]string{"victim": "B", "killer": "A", "reason": "<tea>"})
	if err != nil {
		t.Fatalf("marshalArgs() failed: %v", err)
	}
	want := `{"killer":"A","reason":"<tea>","victim":"B"}`
	if got != want {
		t.Errorf("marshalArgs() = %s, want %s", got, want)
	}
}

func TestMarshalArgs_Empty(t *testing.T) {
	got, err := marshalArgs(nil)
	if err != nil || got != "{}" {
		t.Errorf("marshalArgs(nil) = %q, %v", got, err)
	}
	args, err := unmarshalArgs("{}")
	if err != nil || args == nil || len(args) != 0 {
		t.Errorf("unmarshalArgs({}) = %v, %v", args, err)
	}
}

func TestUnmarshalArgs_Invalid(t *testing.T) {
	if _, err := unmarshalArgs("{not json"); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestTime_UTCNanos(t *testing.T) {
	loc := time.FixedZone("CEST", 2*60*60)
	in := time.Date(2024, 5, 1, 14, 0, 0, 123456789, loc)

	s := formatTime(in)
	if s != "2024-05-01T12:00:00.123456789Z" {
		t.Errorf("formatTime() = %s", s)
	}
	out, err := parseTime(s)
	if err != nil || !out.Equal(in) {
		t.Errorf("parseTime() = %v, %v", out, err)
	}

	nt, err := parseNullTime(sql.NullString{})
	if err != nil || nt != nil {
		t.Errorf("parseNullTime(NULL) = %v, %v", nt, err)
	}
	if v := nullTime(nil); v.Valid {
		t.Error("nullTime(nil) must be NULL")
	}
}
