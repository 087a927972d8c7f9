package domain

import (
	"reflect"
	"testing"
)

func TestParseTicketStatus(t *testing.T) {
	for _, valid := range []string{"open", "in_progress", "closed"} {
		status, err := ParseTicketStatus(valid)
		if err != nil {
			t.Errorf("ParseTicketStatus(%q) error = %v", valid, err)
		}
		if string(status) != valid {
			t.Errorf("ParseTicketStatus(%q) = %q", valid, status)
		}
	}

	for _, invalid := range []string{"", "OPEN", "resolved", "in progress", "done"} {
		if _, err := ParseTicketStatus(invalid); err == nil {
			t.Errorf("ParseTicketStatus(%q) accepted", invalid)
		}
	}
}

func TestImagePathsRoundTrip(t *testing.T) {
	paths := []string{"/uploads/a.jpg", "/uploads/b.png"}
	if got := DecodeImagePaths(EncodeImagePaths(paths)); !reflect.DeepEqual(got, paths) {
		t.Errorf("round trip = %v, want %v", got, paths)
	}
}

func TestEncodeImagePathsEmpty(t *testing.T) {
	if got := EncodeImagePaths(nil); got != "[]" {
		t.Errorf("EncodeImagePaths(nil) = %q, want []", got)
	}
	if got := EncodeImagePaths([]string{}); got != "[]" {
		t.Errorf("EncodeImagePaths(empty) = %q, want []", got)
	}
}

func TestDecodeImagePathsDegradesToEmpty(t *testing.T) {
	tests := []string{"", "not json", "{\"a\":1}", "null", "[1,2]"}
	for _, raw := range tests {
		got := DecodeImagePaths(raw)
		if got == nil || len(got) != 0 {
			t.Errorf("DecodeImagePaths(%q) = %v, want empty list", raw, got)
		}
	}
}
