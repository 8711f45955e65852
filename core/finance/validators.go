package finance

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/madrasa/core"
)

var (
	typeTag  = "txtype"
	typeText = "transaction type must be one of income or expense"

	categoryTag  = "txcategory"
	categoryText = "invalid transaction category"
)

// InitValidators registers the ledger validators & their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(typeTag, func(fl validator.FieldLevel) bool {
		return Type(fl.Field().String()).IsValid()
	})
	core.RegisterCustomTranslation(validate, translator, typeTag, typeText)

	_ = validate.RegisterValidation(categoryTag, func(fl validator.FieldLevel) bool {
		return Category(fl.Field().String()).IsValid()
	})
	core.RegisterCustomTranslation(validate, translator, categoryTag, categoryText)
}

func (nt *NewTransaction) Validate(validate *validator.Validate) error {
	nt.clean()
	return validate.Struct(nt)
}
