package domain

import "time"

type Appointment struct {
	ID             string     `db:"id" json:"id"`
	ClientName     string     `db:"client_name" json:"clientName"`
	Phone          string     `db:"phone" json:"phone,omitempty"`
	Date           string     `db:"date" json:"date"`
	Time           string     `db:"time" json:"time"`
	Notes          *string    `db:"notes" json:"notes,omitempty"`
	ReminderSentAt *time.Time `db:"reminder_sent_at" json:"reminderSentAt,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updatedAt"`
}

// AppointmentPatch carries an update; nil fields are left untouched.
type AppointmentPatch struct {
	ClientName *string
	Phone      *string
	Date       *string
	Time       *string
	Notes      *string
}

// Apply merges the supplied fields into a.
func (p AppointmentPatch) Apply(a *Appointment) {
	if p.ClientName != nil {
		a.ClientName = *p.ClientName
	}
	if p.Phone != nil {
		a.Phone = *p.Phone
	}
	if p.Date != nil {
		a.Date = *p.Date
	}
	if p.Time != nil {
		a.Time = *p.Time
	}
	if p.Notes != nil {
		notes := *p.Notes
		a.Notes = &notes
	}
}

// StartsAt combines Date and Time in loc.
func (a Appointment) StartsAt(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation("2006-01-02 15:04", a.Date+" "+a.Time, loc)
}

type Contact struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Phone     string    `db:"phone" json:"phone"`
	Notes     *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Clone returns a copy that shares no pointers with a.
func (a Appointment) Clone() Appointment {
	a.Notes = clonePtr(a.Notes)
	a.ReminderSentAt = clonePtr(a.ReminderSentAt)
	return a
}

func (c Contact) Clone() Contact {
	c.Notes = clonePtr(c.Notes)
	return c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
