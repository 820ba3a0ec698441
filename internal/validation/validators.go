package validation

import (
	"fmt"
	"net/mail"
	"strings"
)

// RequiredFields must be present for a row to be importable.
var RequiredFields = []string{"nom", "prenom"}

var validators = map[string]func(string) string{
	"email":                        validateEmail,
	"telephone":                    validatePhone,
	"date_naissance":               validateDateValue,
	"date_situation_matrimoniale":  validateDateValue,
	"date_evenement_professionnel": validateDateValue,
	"date_ouverture":               validateDateValue,
	"code_postal":                  validatePostalCode,
	"civilite":                     validateCivilite,
	"situation_matrimoniale":       validateSituationMatrimoniale,
	"revenus_annuels":              validateNumeric,
}

func validatorFor(field string) func(string) string {
	if fn, ok := validators[field]; ok {
		return fn
	}
	if base, found := strings.CutPrefix(field, "conjoint_"); found {
		if fn, ok := validators[base]; ok {
			return fn
		}
	}
	if m := enfantPrefixPattern.FindStringSubmatch(field); m != nil {
		if fn, ok := validators[m[1]]; ok {
			return fn
		}
	}
	return nil
}

// Result is the outcome of ValidateAndNormalize for one row.
type Result struct {
	Data   map[string]any    `json:"data"`
	Errors map[string]string `json:"errors,omitempty"`
	Valid  bool              `json:"is_valid"`
}

// ValidateAndNormalize canonicalizes the mapped row, then validates the
// canonical values.
func ValidateAndNormalize(data map[string]any) Result {
	normalized := Normalize(data)
	errors := Validate(normalized)
	return Result{Data: normalized, Errors: errors, Valid: len(errors) == 0}
}

// Validate checks required fields and runs per-field format validators
// over the top-level scalar values.
func Validate(data map[string]any) map[string]string {
	errors := make(map[string]string)

	for _, field := range RequiredFields {
		if isEmptyValue(data[field]) {
			errors[field] = fmt.Sprintf("Le champ %s est obligatoire", field)
		}
	}

	for field, value := range data {
		s, ok := value.(string)
		if !ok || s == "" {
			continue
		}
		if fn := validatorFor(field); fn != nil {
			if msg := fn(s); msg != "" {
				errors[field] = msg
			}
		}
	}

	if len(errors) == 0 {
		return nil
	}
	return errors
}

func isEmptyValue(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	default:
		return false
	}
}

func validateEmail(value string) string {
	if _, err := mail.ParseAddress(strings.ToLower(strings.TrimSpace(value))); err != nil {
		return "Format d'email invalide"
	}
	return ""
}

func validatePhone(value string) string {
	cleaned := phoneSeparators.ReplaceAllString(value, "")
	cleaned = phoneForeign.ReplaceAllString(cleaned, "")
	if !phonePattern.MatchString(cleaned) {
		return "Format de téléphone invalide (attendu: 0X XX XX XX XX ou +33...)"
	}
	return ""
}

func validateDateValue(value string) string {
	if _, err := ParseDate(value); err != nil {
		return "Format de date invalide"
	}
	return ""
}

func validatePostalCode(value string) string {
	if len(digitsOnly.ReplaceAllString(value, "")) != 5 {
		return "Code postal invalide (5 chiffres attendus)"
	}
	return ""
}

func validateCivilite(value string) string {
	switch foldForComparison(value) {
	case "m", "mr", "monsieur", "mme", "madame", "mlle", "mademoiselle", "m.":
		return ""
	}
	return "Civilité invalide (M., Mme, Mlle)"
}

// validSituationsMatrimoniales accepts both input spellings and the
// canonical values produced by normalization.
var validSituationsMatrimoniales = map[string]bool{
	"celibataire": true, "single": true,
	"marie": true, "mariee": true, "married": true,
	"pacse": true, "pacsee": true,
	"divorce": true, "divorcee": true, "divorced": true,
	"veuf": true, "veuve": true, "widowed": true,
	"separe": true, "separee": true, "separated": true,
	"concubin": true, "concubine": true, "union libre": true, "concubinage": true,
	"marie(e)": true, "pacse(e)": true, "divorce(e)": true, "veuf/veuve": true, "separe(e)": true,
}

func validateSituationMatrimoniale(value string) string {
	if !validSituationsMatrimoniales[foldForComparison(value)] {
		return "Situation matrimoniale non reconnue"
	}
	return ""
}

func validateNumeric(value string) string {
	if _, ok := parseNumber(value); !ok {
		return "Valeur numérique invalide"
	}
	return ""
}
