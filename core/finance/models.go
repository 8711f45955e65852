package finance

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/madrasa/core"
)

type Type string

// Transaction types
const (
	Income  Type = "income"
	Expense Type = "expense"
)

func (t Type) IsValid() bool { return t == Income || t == Expense }

type Category string

// Categories
const (
	CategorySubscription  Category = "subscription"
	CategoryTeacherPayout Category = "teacher_payout"
	CategoryAds           Category = "ads"
	CategoryUtilities     Category = "utilities"
	CategorySalary        Category = "salary"
	CategorySupplies      Category = "supplies"
	CategoryMaintenance   Category = "maintenance"
	CategoryTuition       Category = "tuition"
	CategoryOther         Category = "other"
)

var Categories = []Category{
	CategorySubscription,
	CategoryTeacherPayout,
	CategoryAds,
	CategoryUtilities,
	CategorySalary,
	CategorySupplies,
	CategoryMaintenance,
	CategoryTuition,
	CategoryOther,
}

func (c Category) IsValid() bool {
	for _, cat := range Categories {
		if c == cat {
			return true
		}
	}
	return false
}

// Transaction is an entry of the ledger. Amount is always positive; its meaning derives from Type.
type Transaction struct {
	ID          string      `json:"id" db:"id"`
	Type        Type        `json:"type" db:"type"`
	Category    Category    `json:"category" db:"category"`
	Amount      int64       `json:"amount" db:"amount"`
	Description string      `json:"description" db:"description"`
	Date        time.Time   `json:"date" db:"date"` // UTC
	StudentID   null.String `json:"student_id" db:"student_id"`
	TeacherID   null.String `json:"teacher_id" db:"teacher_id"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"` // UTC
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"` // UTC
}

// Signed returns the amount as it affects the balance.
func (tx Transaction) Signed() int64 {
	if tx.Type == Expense {
		return -tx.Amount
	}
	return tx.Amount
}

// NewTransaction contains information needed to create a new Transaction.
type NewTransaction struct {
	Type        Type       `json:"type" validate:"required,txtype"`
	Category    Category   `json:"category" validate:"required,txcategory"`
	Amount      int64      `json:"amount" validate:"gt=0"`
	Description string     `json:"description"`
	Date        *time.Time `json:"date"` // defaults to now
	StudentID   string     `json:"student_id" validate:"omitempty,uuid"`
	TeacherID   string     `json:"teacher_id" validate:"omitempty,uuid"`
}

func (nt *NewTransaction) clean() {
	nt.Type = Type(core.CleanString(string(nt.Type), true /* lower */))
	nt.Category = Category(core.CleanString(string(nt.Category), true /* lower */))
	nt.Description = core.CleanString(nt.Description)
	nt.StudentID = core.CleanString(nt.StudentID, true /* lower */)
	nt.TeacherID = core.CleanString(nt.TeacherID, true /* lower */)
}

// UpdateTransaction is an administrative correction of a Transaction. Nil fields keep their current value.
type UpdateTransaction struct {
	Type        *Type      `json:"type"`
	Category    *Category  `json:"category"`
	Amount      *int64     `json:"amount"`
	Description *string    `json:"description"`
	Date        *time.Time `json:"date"`
	StudentID   *string    `json:"student_id"`
	TeacherID   *string    `json:"teacher_id"`
}

// Merge overlays the provided fields on orig.
func (ut UpdateTransaction) Merge(orig Transaction) NewTransaction {
	date := orig.Date
	nt := NewTransaction{
		Type:        orig.Type,
		Category:    orig.Category,
		Amount:      orig.Amount,
		Description: orig.Description,
		Date:        &date,
		StudentID:   orig.StudentID.String,
		TeacherID:   orig.TeacherID.String,
	}
	if ut.Type != nil {
		nt.Type = *ut.Type
	}
	if ut.Category != nil {
		nt.Category = *ut.Category
	}
	if ut.Amount != nil {
		nt.Amount = *ut.Amount
	}
	if ut.Description != nil {
		nt.Description = *ut.Description
	}
	if ut.Date != nil {
		nt.Date = ut.Date
	}
	if ut.StudentID != nil {
		nt.StudentID = *ut.StudentID
	}
	if ut.TeacherID != nil {
		nt.TeacherID = *ut.TeacherID
	}
	return nt
}

type QueryFilter struct {
	Search    string    `query:"search"`
	Type      Type      `query:"type"`
	Category  Category  `query:"category"`
	StudentID string    `query:"student_id"`
	TeacherID string    `query:"teacher_id"`
	DateFrom  time.Time `query:"-"` // inclusive
	DateTo    time.Time `query:"-"` // exclusive
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Type == "" && qf.Category == "" && qf.StudentID == "" && qf.TeacherID == "" &&
		qf.DateFrom.IsZero() && qf.DateTo.IsZero()
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Type = Type(core.CleanString(string(qf.Type), true /* lower */))
	qf.Category = Category(core.CleanString(string(qf.Category), true /* lower */))
	qf.StudentID = core.CleanString(qf.StudentID, true /* lower */)
	qf.TeacherID = core.CleanString(qf.TeacherID, true /* lower */)
}

// Summary sums the ledger over a period.
type Summary struct {
	From    time.Time `json:"from"`
	To      time.Time `json:"to"`
	Income  int64     `json:"income"`
	Expense int64     `json:"expense"`
	Net     int64     `json:"net"`
}
