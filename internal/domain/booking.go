package domain

import (
	"net/mail"
	"regexp"
	"strings"
	"time"
)

// DateLayout is the only accepted calendar date format.
const DateLayout = "2006-01-02"

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Booking is a hotel room booking.
type Booking struct {
	ID           int    `json:"id"`
	RoomID       int    `json:"roomId"`
	Title        string `json:"title"`
	FirstName    string `json:"firstName"`
	Surname      string `json:"surname"`
	Email        string `json:"email"`
	CheckInDate  string `json:"checkInDate"`
	CheckOutDate string `json:"checkOutDate"`
}

func (b Booking) GetID() int { return b.ID }

func (b Booking) WithID(id int) Booking {
	b.ID = id
	return b
}

// Validate checks required fields, the email address, and that the stay
// ends strictly after it starts.
func (b Booking) Validate() error {
	if b.RoomID <= 0 {
		return Invalid("'roomId' field is required")
	}
	if err := requireFields(
		"title", b.Title,
		"firstName", b.FirstName,
		"surname", b.Surname,
		"email", b.Email,
		"checkInDate", b.CheckInDate,
		"checkOutDate", b.CheckOutDate,
	); err != nil {
		return err
	}
	if !validEmail(b.Email) {
		return Invalid("'email' is not a valid email address")
	}
	in, err := ParseDate(b.CheckInDate)
	if err != nil {
		return Invalid("'checkInDate' must be a date in YYYY-MM-DD format")
	}
	out, err := ParseDate(b.CheckOutDate)
	if err != nil {
		return Invalid("'checkOutDate' must be a date in YYYY-MM-DD format")
	}
	if !out.After(in) {
		return Invalid("'checkOutDate' must be after 'checkInDate'")
	}
	return nil
}

// MatchesTerm reports whether term appears in the email, first name, or
// surname, ignoring case.
func (b Booking) MatchesTerm(term string) bool {
	return containsFold(b.Email, term) ||
		containsFold(b.FirstName, term) ||
		containsFold(b.Surname, term)
}

// Covers reports whether day falls within the stay, both ends included.
// Bookings with unparseable dates cover nothing.
func (b Booking) Covers(day time.Time) bool {
	in, err := ParseDate(b.CheckInDate)
	if err != nil {
		return false
	}
	out, err := ParseDate(b.CheckOutDate)
	if err != nil {
		return false
	}
	return !day.Before(in) && !day.After(out)
}

// ParseDate parses a YYYY-MM-DD calendar date at UTC midnight.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if !datePattern.MatchString(s) {
		return time.Time{}, Invalid("invalid date %q", s)
	}
	return time.Parse(DateLayout, s)
}

func validEmail(s string) bool {
	s = strings.TrimSpace(s)
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return false
	}
	return addr.Address == s && addr.Name == ""
}
