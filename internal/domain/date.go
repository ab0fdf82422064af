package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// Date is a calendar date with no time-of-day component. Transactions and
// balance snapshots are keyed by the tenant's local calendar date, so the
// zero point of the day never matters and is normalized away.
type Date struct {
	t time.Time
}

// NewDate truncates t to its calendar date, keeping t's location out of the
// result entirely.
func NewDate(t time.Time) Date {
	return Date{t: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{t: t}, nil
}

func (d Date) AddDays(n int) Date {
	return Date{t: d.t.AddDate(0, 0, n)}
}

func (d Date) Before(other Date) bool { return d.t.Before(other.t) }

func (d Date) Equal(other Date) bool { return d.t.Equal(other.t) }

func (d Date) IsZero() bool { return d.t.IsZero() }

func (d Date) String() string { return d.t.Format(dateLayout) }

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// AccountDate is the composite identity of one account's balance snapshot:
// "<account uuid>|<yyyy-mm-dd>". Within an account partition the string
// sorts lexicographically by date.
type AccountDate struct {
	AccountID uuid.UUID
	Date      Date
}

func NewAccountDate(accountID uuid.UUID, date Date) AccountDate {
	return AccountDate{AccountID: accountID, Date: date}
}

// ParseAccountDate parses "<uuid>|<yyyy-mm-dd>".
func ParseAccountDate(s string) (AccountDate, error) {
	parts := strings.Split(s, "|")
	if len(parts) != 2 {
		return AccountDate{}, fmt.Errorf("invalid account date id %q", s)
	}
	accountID, err := uuid.Parse(parts[0])
	if err != nil || accountID == uuid.Nil {
		return AccountDate{}, fmt.Errorf("invalid account id in %q", s)
	}
	date, err := ParseDate(parts[1])
	if err != nil {
		return AccountDate{}, err
	}
	return AccountDate{AccountID: accountID, Date: date}, nil
}

func (a AccountDate) String() string {
	return a.AccountID.String() + "|" + a.Date.String()
}

func (a AccountDate) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.String() + `"`), nil
}

func (a *AccountDate) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := ParseAccountDate(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
