package teacher

import (
	"time"

	"github.com/trezcool/madrasa/core"
)

type Teacher struct {
	ID         string    `json:"id" db:"id"`
	Name       string    `json:"name" db:"name"`
	Phone      string    `json:"phone" db:"phone"`
	Percentage float64   `json:"percentage" db:"percentage"` // share of each taught student's fee, 0-100
	Active     bool      `json:"active" db:"active"`
	Notes      string    `json:"notes" db:"notes"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"` // UTC
}

// NewTeacher contains information needed to create a new Teacher.
type NewTeacher struct {
	Name       string  `json:"name" validate:"required,min=2"`
	Phone      string  `json:"phone" validate:"omitempty,phone"`
	Percentage float64 `json:"percentage" validate:"min=0,max=100"`
	Active     *bool   `json:"active"`
	Notes      string  `json:"notes"`
}

// UpdateTeacher defines what information may be provided to modify an existing Teacher.
// Nil fields keep their current value.
type UpdateTeacher struct {
	Name       *string  `json:"name"`
	Phone      *string  `json:"phone"`
	Percentage *float64 `json:"percentage"`
	Active     *bool    `json:"active"`
	Notes      *string  `json:"notes"`
}

// Merge overlays the provided fields on orig.
func (ut UpdateTeacher) Merge(orig Teacher) NewTeacher {
	active := orig.Active
	nt := NewTeacher{
		Name:       orig.Name,
		Phone:      orig.Phone,
		Percentage: orig.Percentage,
		Active:     &active,
		Notes:      orig.Notes,
	}
	if ut.Name != nil {
		nt.Name = *ut.Name
	}
	if ut.Phone != nil {
		nt.Phone = *ut.Phone
	}
	if ut.Percentage != nil {
		nt.Percentage = *ut.Percentage
	}
	if ut.Active != nil {
		nt.Active = ut.Active
	}
	if ut.Notes != nil {
		nt.Notes = *ut.Notes
	}
	return nt
}

type QueryFilter struct {
	Search string `query:"search"`
	Active *bool  `query:"active"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Active == nil
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
