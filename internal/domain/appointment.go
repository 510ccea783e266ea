package domain

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const appointmentIDPrefix = "apt_"

// CustomerID references a customer owned by the external directory. Zero means unset.
type CustomerID int64

type Appointment struct {
	bun.BaseModel `bun:"table:appointments"`

	ID         string     `bun:"id,pk" json:"id"`
	CustomerID CustomerID `bun:"customer_id,notnull" json:"customerId"`
	Date       string     `bun:"date,notnull" json:"date"`
	Time       string     `bun:"time,notnull" json:"time"`
	Plan       string     `bun:"plan" json:"plan,omitempty"`
	Service    string     `bun:"service" json:"service,omitempty"`
	Notes      string     `bun:"notes" json:"notes,omitempty"`
	CreatedAt  time.Time  `bun:"created_at,notnull" json:"createdAt"`
}

func (a *Appointment) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	if _, ok := query.(*bun.InsertQuery); ok {
		return a.Stamp(time.Now())
	}
	return nil
}

// Stamp assigns the id and creation time if they are not already set.
func (a *Appointment) Stamp(now time.Time) error {
	if a.ID == "" {
		id, err := NewAppointmentID()
		if err != nil {
			return err
		}
		a.ID = id
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now.UTC()
	}
	return nil
}

// SameBooking reports whether b describes the same booking request as a,
// ignoring the server-assigned fields.
func (a Appointment) SameBooking(b Appointment) bool {
	return a.CustomerID == b.CustomerID &&
		a.Date == b.Date &&
		a.Time == b.Time &&
		a.Plan == b.Plan &&
		a.Service == b.Service &&
		a.Notes == b.Notes
}

func NewAppointmentID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return formatAppointmentID(id), nil
}

// IdempotentAppointmentID derives a stable id from a client supplied key.
func IdempotentAppointmentID(key string) string {
	return formatAppointmentID(uuid.NewSHA1(uuid.NameSpaceOID, []byte("pestbook:book:"+key)))
}

func formatAppointmentID(id uuid.UUID) string {
	return appointmentIDPrefix + strings.ReplaceAll(id.String(), "-", "")
}

var ErrInvalidCustomerID = errors.New("invalid customerId")

// ParseCustomerID accepts a JSON number or a numeric string. Absent, null and
// empty values yield zero.
func ParseCustomerID(raw json.RawMessage) (CustomerID, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return 0, nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return 0, ErrInvalidCustomerID
		}
		s = strings.TrimSpace(str)
		if s == "" {
			return 0, nil
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0, ErrInvalidCustomerID
	}
	return CustomerID(n), nil
}
