package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestStamp_AssignsIDAndCreatedAtOnce(t *testing.T) {
	now := time.Date(2024, 6, 3, 8, 0, 0, 0, time.FixedZone("x", 3600))

	var a Appointment
	if err := a.Stamp(now); err != nil {
		t.Fatalf("Stamp error: %v", err)
	}
	if !strings.HasPrefix(a.ID, "apt_") {
		t.Fatalf("id = %q, want apt_ prefix", a.ID)
	}
	if a.CreatedAt.Location() != time.UTC || !a.CreatedAt.Equal(now) {
		t.Fatalf("created_at = %v, want %v in UTC", a.CreatedAt, now)
	}

	id := a.ID
	if err := a.Stamp(now.Add(time.Hour)); err != nil {
		t.Fatalf("Stamp error: %v", err)
	}
	if a.ID != id || !a.CreatedAt.Equal(now) {
		t.Fatalf("Stamp overwrote assigned fields")
	}
}

func TestIdempotentAppointmentID_Deterministic(t *testing.T) {
	a := IdempotentAppointmentID("k1")
	b := IdempotentAppointmentID("k1")
	c := IdempotentAppointmentID("k2")
	if a != b {
		t.Fatalf("ids differ: %s vs %s", a, b)
	}
	if a == c {
		t.Fatalf("expected different ids, got %s", a)
	}
	if !strings.HasPrefix(a, "apt_") || len(a) != len("apt_")+32 {
		t.Fatalf("id = %q, want apt_ + 32 hex", a)
	}
}

func TestParseCustomerID(t *testing.T) {
	tests := []struct {
		raw     string
		want    CustomerID
		wantErr bool
	}{
		{raw: ``, want: 0},
		{raw: `null`, want: 0},
		{raw: `""`, want: 0},
		{raw: `1`, want: 1},
		{raw: `"42"`, want: 42},
		{raw: `" 7 "`, want: 7},
		{raw: `"abc"`, wantErr: true},
		{raw: `-3`, wantErr: true},
		{raw: `1.5`, wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseCustomerID(json.RawMessage(tt.raw))
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidCustomerID) {
				t.Fatalf("ParseCustomerID(%s) error = %v, want %v", tt.raw, err, ErrInvalidCustomerID)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseCustomerID(%s) error: %v", tt.raw, err)
		}
		if got != tt.want {
			t.Fatalf("ParseCustomerID(%s) = %d, want %d", tt.raw, got, tt.want)
		}
	}
}

func TestAppointmentJSON_OmitsEmptyMetadata(t *testing.T) {
	a := Appointment{
		ID:         "apt_1",
		CustomerID: 1,
		Date:       "2024-06-03",
		Time:       "09:00",
		CreatedAt:  time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	b, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	want := `{"id":"apt_1","customerId":1,"date":"2024-06-03","time":"09:00","createdAt":"2024-06-01T00:00:00Z"}`
	if string(b) != want {
		t.Fatalf("json = %s, want %s", b, want)
	}
}
