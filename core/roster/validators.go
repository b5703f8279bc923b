package roster

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/mahudhurio/core"
)

var (
	classIDTag  = "classid"
	classIDText = "invalid class identifier"
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(classIDTag, classIDValidation)
	core.RegisterCustomTranslation(validate, translator, classIDTag, classIDText)
}

func classIDValidation(fl validator.FieldLevel) bool {
	return core.ValidDocumentKey(fl.Field().String())
}
