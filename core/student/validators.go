package student

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/madrasa/core"
)

var (
	subTypeTag  = "subtype"
	subTypeText = "invalid subscription type"

	categoryTag  = "stdcategory"
	categoryText = "invalid student category"

	endBeforeStartTag  = "endbeforestart"
	endBeforeStartText = "subscription end date cannot be before its start date"
)

// InitValidators registers the student validators & their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(subTypeTag, subTypeValidation)
	core.RegisterCustomTranslation(validate, translator, subTypeTag, subTypeText)

	_ = validate.RegisterValidation(categoryTag, categoryValidation)
	core.RegisterCustomTranslation(validate, translator, categoryTag, categoryText)

	validate.RegisterStructValidation(newStudentStructValidation, NewStudent{})
	core.RegisterCustomTranslation(validate, translator, endBeforeStartTag, endBeforeStartText)
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.clean()
	return validate.Struct(ns)
}

// Custom Validators

func subTypeValidation(fl validator.FieldLevel) bool {
	return SubscriptionType(fl.Field().String()).IsValid()
}

func categoryValidation(fl validator.FieldLevel) bool {
	return Category(fl.Field().String()).IsValid()
}

// newStudentStructValidation checks that time-based subscriptions do not end before they start.
func newStudentStructValidation(sl validator.StructLevel) {
	ns, ok := sl.Current().Interface().(NewStudent)
	if !ok || !ns.SubscriptionType.IsTimeBased() {
		return
	}
	if ns.SubscriptionStartDate != nil && ns.SubscriptionEndDate != nil &&
		ns.SubscriptionEndDate.Before(*ns.SubscriptionStartDate) {
		sl.ReportError(ns.SubscriptionEndDate, "subscription_end_date", "SubscriptionEndDate", endBeforeStartTag, "")
	}
}
