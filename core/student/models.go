package student

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/madrasa/core"
)

type SubscriptionType string

// Subscription types
const (
	Monthly    SubscriptionType = "monthly"
	Weekly     SubscriptionType = "weekly"
	PerSession SubscriptionType = "per_session"
	Course     SubscriptionType = "course"
)

var SubscriptionTypes = []SubscriptionType{Monthly, Weekly, PerSession, Course}

func (t SubscriptionType) IsValid() bool {
	for _, st := range SubscriptionTypes {
		if t == st {
			return true
		}
	}
	return false
}

// IsTimeBased reports whether the subscription lives on its start & end dates rather than on a session count.
func (t SubscriptionType) IsTimeBased() bool { return t != PerSession }

type Category string

// Categories
const (
	CategoryAutism               Category = "autism"
	CategoryLearningDifficulties Category = "learning_difficulties"
	CategoryMemoryIssues         Category = "memory_issues"
	CategoryMedicalConditions    Category = "medical_conditions"
	CategoryPreparatory          Category = "preparatory"
)

var Categories = []Category{
	CategoryAutism,
	CategoryLearningDifficulties,
	CategoryMemoryIssues,
	CategoryMedicalConditions,
	CategoryPreparatory,
}

func (c Category) IsValid() bool {
	for _, cat := range Categories {
		if c == cat {
			return true
		}
	}
	return false
}

type Student struct {
	ID                    string           `json:"id" db:"id"`
	Name                  string           `json:"name" db:"name"`
	Category              Category         `json:"category" db:"category"`
	Age                   int              `json:"age" db:"age"`
	Phone                 string           `json:"phone" db:"phone"`
	TeacherID             null.String      `json:"teacher_id" db:"teacher_id"`
	SubscriptionType      SubscriptionType `json:"subscription_type" db:"subscription_type"`
	SubscriptionFee       int64            `json:"subscription_fee" db:"subscription_fee"`
	SubscriptionStartDate null.Time        `json:"subscription_start_date" db:"subscription_start_date"` // UTC
	SubscriptionEndDate   null.Time        `json:"subscription_end_date" db:"subscription_end_date"`     // UTC
	SessionsRemaining     int              `json:"sessions_remaining" db:"sessions_remaining"`           // per_session only
	LastPaymentDate       null.Time        `json:"last_payment_date" db:"last_payment_date"`             // UTC
	Active                bool             `json:"active" db:"active"`
	Notes                 string           `json:"notes" db:"notes"`
	CreatedAt             time.Time        `json:"created_at" db:"created_at"` // UTC
	UpdatedAt             time.Time        `json:"updated_at" db:"updated_at"` // UTC
}

func (s Student) IsPerSession() bool { return s.SubscriptionType == PerSession }

// Snapshot is a Student along with its subscription state evaluated at a given instant.
type Snapshot struct {
	Student
	Status        Status `json:"status"`
	DaysRemaining *int   `json:"days_remaining"` // time-based subscriptions with an end date only
}

// NewStudent contains information needed to create a new Student.
type NewStudent struct {
	Name                  string           `json:"name" validate:"required,min=2"`
	Category              Category         `json:"category" validate:"required,stdcategory"`
	Age                   int              `json:"age" validate:"min=3,max=18"`
	Phone                 string           `json:"phone" validate:"required,min=10,phone"`
	TeacherID             string           `json:"teacher_id" validate:"omitempty,uuid"`
	SubscriptionType      SubscriptionType `json:"subscription_type" validate:"required,subtype"`
	SubscriptionFee       int64            `json:"subscription_fee" validate:"min=1000"`
	SubscriptionStartDate *time.Time       `json:"subscription_start_date"`
	SubscriptionEndDate   *time.Time       `json:"subscription_end_date"`
	SessionsRemaining     int              `json:"sessions_remaining" validate:"min=0"`
	Active                *bool            `json:"active"`
	Notes                 string           `json:"notes"`
}

func (ns *NewStudent) clean() {
	ns.Name = core.CleanString(ns.Name)
	ns.Phone = core.CleanString(ns.Phone)
	ns.TeacherID = core.CleanString(ns.TeacherID, true /* lower */)
	ns.Notes = core.CleanString(ns.Notes)
	ns.Category = Category(core.CleanString(string(ns.Category), true /* lower */))
	ns.SubscriptionType = SubscriptionType(core.CleanString(string(ns.SubscriptionType), true /* lower */))
	if ns.SubscriptionType == "" {
		ns.SubscriptionType = Monthly
	}
}

// UpdateStudent defines what information may be provided to modify an existing Student.
// Nil fields keep their current value.
type UpdateStudent struct {
	Name                  *string           `json:"name"`
	Category              *Category         `json:"category"`
	Age                   *int              `json:"age"`
	Phone                 *string           `json:"phone"`
	TeacherID             *string           `json:"teacher_id"` // "" unassigns the teacher
	SubscriptionType      *SubscriptionType `json:"subscription_type"`
	SubscriptionFee       *int64            `json:"subscription_fee"`
	SubscriptionStartDate *time.Time        `json:"subscription_start_date"`
	SubscriptionEndDate   *time.Time        `json:"subscription_end_date"`
	SessionsRemaining     *int              `json:"sessions_remaining"`
	Active                *bool             `json:"active"`
	Notes                 *string           `json:"notes"`
}

// Merge overlays the provided fields on orig.
func (us UpdateStudent) Merge(orig Student) NewStudent {
	active := orig.Active
	ns := NewStudent{
		Name:                  orig.Name,
		Category:              orig.Category,
		Age:                   orig.Age,
		Phone:                 orig.Phone,
		TeacherID:             orig.TeacherID.String,
		SubscriptionType:      orig.SubscriptionType,
		SubscriptionFee:       orig.SubscriptionFee,
		SubscriptionStartDate: orig.SubscriptionStartDate.Ptr(),
		SubscriptionEndDate:   orig.SubscriptionEndDate.Ptr(),
		SessionsRemaining:     orig.SessionsRemaining,
		Active:                &active,
		Notes:                 orig.Notes,
	}
	if us.Name != nil {
		ns.Name = *us.Name
	}
	if us.Category != nil {
		ns.Category = *us.Category
	}
	if us.Age != nil {
		ns.Age = *us.Age
	}
	if us.Phone != nil {
		ns.Phone = *us.Phone
	}
	if us.TeacherID != nil {
		ns.TeacherID = *us.TeacherID
	}
	if us.SubscriptionType != nil {
		ns.SubscriptionType = *us.SubscriptionType
	}
	if us.SubscriptionFee != nil {
		ns.SubscriptionFee = *us.SubscriptionFee
	}
	if us.SubscriptionStartDate != nil {
		ns.SubscriptionStartDate = us.SubscriptionStartDate
	}
	if us.SubscriptionEndDate != nil {
		ns.SubscriptionEndDate = us.SubscriptionEndDate
	}
	if us.SessionsRemaining != nil {
		ns.SessionsRemaining = *us.SessionsRemaining
	}
	if us.Active != nil {
		ns.Active = us.Active
	}
	if us.Notes != nil {
		ns.Notes = *us.Notes
	}
	return ns
}

type QueryFilter struct {
	Search           string           `query:"search"`
	TeacherID        string           `query:"teacher_id"`
	Active           *bool            `query:"active"`
	SubscriptionType SubscriptionType `query:"subscription_type"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.TeacherID == "" && qf.Active == nil && qf.SubscriptionType == ""
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.TeacherID = core.CleanString(qf.TeacherID, true /* lower */)
	qf.SubscriptionType = SubscriptionType(core.CleanString(string(qf.SubscriptionType), true /* lower */))
}

func nullTime(t *time.Time) null.Time {
	if t == nil || t.IsZero() {
		return null.Time{}
	}
	return null.TimeFrom(t.UTC())
}
