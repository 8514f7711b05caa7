package usecase

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	domainErrors "github.com/polkiloo/melodiemacher/internal/domain/errors"
)

// Genres offered in the order form.
var Genres = []string{"pop", "schlager", "rock", "ballade", "akustik", "rap", "country", "jazz", "kinderlied"}

// OrderForm is the customer submitted order data.
type OrderForm struct {
	CustomerName  string `json:"customerName" validate:"required,min=2,max=100"`
	CustomerEmail string `json:"customerEmail" validate:"required,email,max=254"`

	RecipientName string `json:"recipientName" validate:"required,max=100"`
	Occasion      string `json:"occasion" validate:"required,max=100"`
	OccasionDate  string `json:"occasionDate" validate:"omitempty,datetime=2006-01-02"`
	Relationship  string `json:"relationship" validate:"required,max=100"`
	Story         string `json:"story" validate:"required,min=20,max=5000"`
	Genre         string `json:"genre" validate:"required,genre"`
	Mood          int    `json:"mood" validate:"required,min=1,max=5"`
	AllowEnglish  bool   `json:"allowEnglish"`

	PackageType     string `json:"packageType" validate:"required,oneof=basis plus premium"`
	Bundle          string `json:"selectedBundle" validate:"omitempty,oneof=none hochzeits-bundle perfekt-bundle"`
	BumpKaraoke     bool   `json:"bumpKaraoke"`
	BumpRush        bool   `json:"bumpRush"`
	BumpGift        bool   `json:"bumpGift"`
	HasCustomLyrics bool   `json:"hasCustomLyrics"`
	CustomLyrics    string `json:"customLyrics" validate:"required_if=HasCustomLyrics true,max=5000"`

	ReferralCode string `json:"referralCode" validate:"omitempty,max=32,alphanum"`
	UTMSource    string `json:"utmSource" validate:"max=200"`
	UTMMedium    string `json:"utmMedium" validate:"max=200"`
	UTMCampaign  string `json:"utmCampaign" validate:"max=200"`
}

// FormValidator checks order forms.
type FormValidator struct {
	validate *validator.Validate
}

// NewFormValidator configures validation rules for order forms.
func NewFormValidator() *FormValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("genre", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		for _, g := range Genres {
			if g == value {
				return true
			}
		}
		return false
	})
	return &FormValidator{validate: v}
}

// Validate trims the form in place and reports every failing field.
func (v *FormValidator) Validate(form *OrderForm) error {
	trimForm(form)

	err := v.validate.Struct(form)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	result := &domainErrors.ValidationError{}
	for _, fe := range fieldErrs {
		result.Fields = append(result.Fields, domainErrors.FieldError{
			Field:   fe.Field(),
			Rule:    fe.Tag(),
			Message: germanMessage(fe),
		})
	}
	return result
}

func trimForm(form *OrderForm) {
	for _, s := range []*string{
		&form.CustomerName, &form.CustomerEmail, &form.RecipientName, &form.Occasion,
		&form.OccasionDate, &form.Relationship, &form.Story, &form.Genre, &form.PackageType,
		&form.Bundle, &form.ReferralCode, &form.UTMSource, &form.UTMMedium, &form.UTMCampaign,
	} {
		*s = strings.TrimSpace(*s)
	}
	form.CustomerEmail = strings.ToLower(form.CustomerEmail)
	form.Genre = strings.ToLower(form.Genre)
	form.ReferralCode = strings.ToUpper(form.ReferralCode)
	if strings.TrimSpace(form.CustomLyrics) == "" {
		form.CustomLyrics = ""
	}
}

func germanMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Dieses Feld ist erforderlich."
	case "required_if":
		return "Bitte gib deinen eigenen Songtext ein."
	case "email":
		return "Bitte gib eine gültige E-Mail-Adresse ein."
	case "datetime":
		return "Bitte gib ein Datum im Format JJJJ-MM-TT an."
	case "oneof", "genre":
		return "Bitte wähle eine der angebotenen Optionen."
	case "alphanum":
		return "Der Code darf nur Buchstaben und Ziffern enthalten."
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Bitte gib mindestens %s Zeichen ein.", fe.Param())
		}
		return fmt.Sprintf("Der Wert muss mindestens %s sein.", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Bitte gib höchstens %s Zeichen ein.", fe.Param())
		}
		return fmt.Sprintf("Der Wert darf höchstens %s sein.", fe.Param())
	}
	return "Ungültige Eingabe."
}
