package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/siempreabierto/internal/domain"
	apperrors "github.com/siempreabierto/internal/pkg/errors"
	"github.com/siempreabierto/internal/pkg/geo"
)

// MinPublicLocationLength - минимальная длина описания места встречи
const MinPublicLocationLength = 10

// privateAddress - признаки точного домашнего адреса в описании места
var privateAddress = regexp.MustCompile(
	`(?i)(?:^|[^\p{L}\p{N}])(?:calle|avenida|avda|portal|piso|n[uú]mero|nº|mi casa|domicilio|urbanizaci[oó]n)(?:$|[^\p{L}\p{N}])` +
		`|(?:^|[^\p{L}\p{N}])c/`)

var validate *validator.Validate

func init() {
	validate = validator.New()

	// Имена полей в ошибках берём из json тегов
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	mustRegister("public_location", validatePublicLocation)
	mustRegister("no_private_address", func(fl validator.FieldLevel) bool {
		return CheckNoPrivateAddress(fl.Field().String()) == ""
	})
	mustRegister("region", func(fl validator.FieldLevel) bool {
		return geo.IsValidRegion(fl.Field().String())
	})
	mustRegister("category", func(fl validator.FieldLevel) bool {
		return domain.IsValidCategory(fl.Field().String())
	})
	mustRegister("restriction_type", func(fl validator.FieldLevel) bool {
		return isOneOf(fl.Field().String(), domain.RestrictionTypes)
	})
	mustRegister("vehicle_type", func(fl validator.FieldLevel) bool {
		return domain.IsValidVehicleType(fl.Field().String())
	})
}

func mustRegister(tag string, fn validator.Func) {
	if err := validate.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register validation %q: %v", tag, err))
	}
}

func isOneOf(v string, options []string) bool {
	for _, o := range options {
		if o == v {
			return true
		}
	}
	return false
}

func validatePublicLocation(fl validator.FieldLevel) bool {
	return CheckPublicLocation(fl.Field().String()) == ""
}

// CheckPublicLocation проверяет описание публичного места встречи.
// Возвращает причину отказа или пустую строку.
func CheckPublicLocation(text string) string {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < MinPublicLocationLength {
		return fmt.Sprintf("describe the location better (at least %d characters)", MinPublicLocationLength)
	}
	return CheckNoPrivateAddress(text)
}

// CheckNoPrivateAddress - то же правило для свободного текста, без минимальной длины
func CheckNoPrivateAddress(text string) string {
	if privateAddress.MatchString(text) {
		return "use a public reference point (fuel station, service area, km marker), not an exact address"
	}
	return ""
}

// Validate - валидация структуры. Ошибки валидации возвращаются как ErrValidation
// с причиной по каждому полю в details.
func Validate(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.ErrValidation.WithReason(err.Error())
	}

	details := make(map[string]interface{}, len(verrs))
	for _, fe := range verrs {
		details[fe.Field()] = reason(fe)
	}
	return apperrors.ErrValidation.WithDetails(details)
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "latitude", "longitude":
		return "must be a valid " + fe.Tag()
	case "public_location":
		if r := CheckPublicLocation(fmt.Sprint(fe.Value())); r != "" {
			return r
		}
		return "is not a valid public location"
	case "no_private_address":
		if r := CheckNoPrivateAddress(fmt.Sprint(fe.Value())); r != "" {
			return r
		}
		return "must not contain a private address"
	case "region":
		return "unknown region code"
	case "category":
		return "unknown place category"
	case "restriction_type":
		return "unknown restriction type"
	case "vehicle_type":
		return "unknown vehicle type"
	default:
		return "failed on " + fe.Tag()
	}
}

// GetValidator - получить валидатор для кастомной конфигурации
func GetValidator() *validator.Validate {
	return validate
}
