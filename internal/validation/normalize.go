// Package validation normalizes mapped rows into canonical values and
// reports per-field validation errors, both in French as the rest of
// the product surface.
package validation

import (
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/rpattn/crmimport/internal/catalog"
)

// normalizerFor maps base field names to their normalizer. Conjoint and
// enfant keys resolve through their base field.
var normalizers = map[string]func(string) any{
	"civilite":        normalizeCivilite,
	"nom":             normalizeNameValue,
	"nom_jeune_fille": normalizeNameValue,
	"prenom":          normalizeNameValue,
	"lieu_naissance":  normalizeNameValue,
	"ville":           normalizeNameValue,
	"nationalite":     normalizeNameValue,

	"email":       normalizeEmail,
	"telephone":   normalizePhone,
	"code_postal": normalizePostalCode,
	"adresse":     normalizeAddress,

	"date_naissance":               normalizeDate,
	"date_situation_matrimoniale":  normalizeDate,
	"date_evenement_professionnel": normalizeDate,
	"date_ouverture":               normalizeDate,

	"revenus_annuels": normalizeNumber,

	"fumeur":                  normalizeBoolean,
	"chef_entreprise":         normalizeBoolean,
	"travailleur_independant": normalizeBoolean,
	"mandataire_social":       normalizeBoolean,
	"risques_professionnels":  normalizeBoolean,
	"activites_sportives":     normalizeBoolean,
	"fiscalement_a_charge":    normalizeBoolean,
	"garde_alternee":          normalizeBoolean,

	"situation_matrimoniale": normalizeSituationMatrimoniale,
	"situation_actuelle":     normalizeSituationActuelle,
}

var enfantPrefixPattern = regexp.MustCompile(`^enfant\d+_(.+)$`)

func normalizerFor(field string) func(string) any {
	if fn, ok := normalizers[field]; ok {
		return fn
	}
	if base, found := strings.CutPrefix(field, "conjoint_"); found {
		if fn, ok := normalizers[base]; ok {
			return fn
		}
	}
	if m := enfantPrefixPattern.FindStringSubmatch(field); m != nil {
		if fn, ok := normalizers[m[1]]; ok {
			return fn
		}
	}
	return nil
}

// Normalize canonicalizes a mapped row in place-shape: blank scalars
// become nil, known fields get their canonical form, nested sections
// are normalized column-by-column off their catalog types.
func Normalize(data map[string]any) map[string]any {
	normalized := make(map[string]any, len(data))
	for key, value := range data {
		normalized[key] = value
	}

	for key, value := range normalized {
		s, isString := value.(string)
		if isString && strings.TrimSpace(s) == "" {
			normalized[key] = nil
			continue
		}
		if !isString {
			continue
		}
		if fn := normalizerFor(key); fn != nil {
			normalized[key] = fn(s)
		}
	}

	if conjoint, ok := normalized["conjoint"].(map[string]any); ok {
		normalized["conjoint"] = normalizeSection(catalog.TableConjoint, conjoint)
	}

	if enfants, ok := normalized["enfants"].([]map[string]any); ok {
		kept := make([]map[string]any, 0, len(enfants))
		for _, enfant := range enfants {
			cleaned := normalizeEnfant(enfant)
			if len(cleaned) > 0 {
				kept = append(kept, cleaned)
			}
		}
		normalized["enfants"] = kept
	}

	if raw, ok := normalized["_nombre_enfants"].(string); ok {
		normalized["_nombre_enfants"] = normalizeInteger(raw)
	}

	for key, value := range normalized {
		table, isBucket := strings.CutPrefix(key, "_")
		if !isBucket {
			continue
		}
		switch section := value.(type) {
		case map[string]any:
			normalized[key] = normalizeSection(table, section)
		case []map[string]any:
			kept := make([]map[string]any, 0, len(section))
			for _, slot := range section {
				cleaned := normalizeSection(table, slot)
				if len(cleaned) > 0 {
					kept = append(kept, cleaned)
				}
			}
			normalized[key] = kept
		}
	}

	return normalized
}

// normalizeSection canonicalizes section columns by their declared
// type. Empty values are dropped rather than nulled so empty sections
// can be detected and skipped.
func normalizeSection(table string, section map[string]any) map[string]any {
	normalized := make(map[string]any, len(section))
	for column, value := range section {
		s, isString := value.(string)
		if !isString {
			if value != nil {
				normalized[column] = value
			}
			continue
		}
		if strings.TrimSpace(s) == "" {
			continue
		}

		if fn := normalizerFor(column); fn != nil {
			normalized[column] = fn(s)
			continue
		}

		columnType, known := catalog.ColumnType(table, column)
		if !known {
			normalized[column] = s
			continue
		}
		switch columnType {
		case catalog.TypeDate:
			normalized[column] = normalizeDate(s)
		case catalog.TypeDecimal:
			normalized[column] = normalizeNumber(s)
		case catalog.TypeInteger:
			if column == "annee_acquisition" {
				normalized[column] = normalizeYear(s)
			} else {
				normalized[column] = normalizeInteger(s)
			}
		case catalog.TypeBoolean:
			normalized[column] = normalizeBoolean(s)
		default:
			normalized[column] = strings.TrimSpace(s)
		}
	}
	return normalized
}

// normalizeEnfant splits the composite nom_prenom column before the
// per-column pass.
func normalizeEnfant(enfant map[string]any) map[string]any {
	prepared := make(map[string]any, len(enfant))
	for column, value := range enfant {
		s, isString := value.(string)
		if isString && strings.TrimSpace(s) == "" {
			continue
		}
		if column == "nom_prenom" && isString {
			nom, prenom := SplitNomPrenom(s)
			if nom != "" {
				prepared["nom"] = titleCase(nom)
			}
			if prenom != "" {
				prepared["prenom"] = titleCase(prenom)
			}
			continue
		}
		prepared[column] = value
	}
	return normalizeSection(catalog.TableEnfant, prepared)
}

// SplitNomPrenom splits a combined name cell. An all-uppercase first
// word is taken as the family name ("DUPONT Emma"), otherwise the
// order is assumed given-name first ("Emma Dupont").
func SplitNomPrenom(value string) (nom, prenom string) {
	parts := strings.Fields(strings.TrimSpace(value))
	if len(parts) >= 2 {
		first := parts[0]
		rest := strings.Join(parts[1:], " ")
		if strings.ToUpper(first) == first {
			return first, rest
		}
		return rest, first
	}
	return "", value
}

// ==================== scalar normalizers ====================

func normalizeCivilite(value string) any {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "m", "mr", "monsieur", "m.":
		return "Monsieur"
	case "mme", "madame", "mlle", "mademoiselle":
		return "Madame"
	default:
		return nil
	}
}

var titleCaser = cases.Title(language.French)

func titleCase(value string) string {
	return titleCaser.String(strings.TrimSpace(value))
}

func normalizeNameValue(value string) any {
	return titleCase(value)
}

func normalizeAddress(value string) any {
	return strings.TrimSpace(value)
}

func normalizeEmail(value string) any {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if _, err := mail.ParseAddress(normalized); err != nil {
		return nil
	}
	return normalized
}

var (
	phoneSeparators = regexp.MustCompile(`[\s.\-()]`)
	phoneForeign    = regexp.MustCompile(`[^0-9+]`)
	phonePattern    = regexp.MustCompile(`^(\+33|0)[0-9]{9,}$`)
	digitsOnly      = regexp.MustCompile(`[^0-9]`)
)

func normalizePhone(value string) any {
	cleaned := phoneSeparators.ReplaceAllString(value, "")
	cleaned = phoneForeign.ReplaceAllString(cleaned, "")
	if !phonePattern.MatchString(cleaned) {
		return nil
	}
	return cleaned
}

func normalizePostalCode(value string) any {
	cleaned := digitsOnly.ReplaceAllString(value, "")
	if len(cleaned) != 5 {
		return nil
	}
	return cleaned
}

var numberJunk = regexp.MustCompile(`[^0-9.\-]`)

func parseNumber(value string) (float64, bool) {
	if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
		return f, true
	}
	cleaned := strings.ReplaceAll(value, " ", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	cleaned = numberJunk.ReplaceAllString(cleaned, "")
	f, err := strconv.ParseFloat(cleaned, 64)
	return f, err == nil
}

func normalizeNumber(value string) any {
	if f, ok := parseNumber(value); ok {
		return f
	}
	return nil
}

func normalizeInteger(value string) any {
	if f, ok := parseNumber(value); ok {
		if f < 0 {
			return int(f - 0.5)
		}
		return int(f + 0.5)
	}
	return nil
}

func normalizeYear(value string) any {
	if n := normalizeInteger(value); n != nil {
		year := n.(int)
		if year >= 1900 && year <= 2100 {
			return year
		}
	}
	if t, err := ParseDate(value); err == nil {
		return t.Year()
	}
	return nil
}

var (
	truthyValues = map[string]bool{"true": true, "1": true, "oui": true, "yes": true, "vrai": true, "ok": true, "o": true, "x": true, "checked": true}
	falsyValues  = map[string]bool{"false": true, "0": true, "non": true, "no": true, "faux": true, "n": true, "": true, "unchecked": true}
)

func normalizeBoolean(value string) any {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if truthyValues[normalized] {
		return true
	}
	if falsyValues[normalized] {
		return false
	}
	if f, err := strconv.ParseFloat(normalized, 64); err == nil {
		return f != 0
	}
	return nil
}

func normalizeSituationMatrimoniale(value string) any {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "célibataire", "celibataire", "single":
		return "Célibataire"
	case "marié", "marie", "mariée", "mariee", "married":
		return "Marié(e)"
	case "pacsé", "pacse", "pacsée", "pacsee":
		return "Pacsé(e)"
	case "divorcé", "divorce", "divorcée", "divorcee", "divorced":
		return "Divorcé(e)"
	case "veuf", "veuve", "widowed":
		return "Veuf/Veuve"
	case "séparé", "separe", "séparée", "separee", "separated":
		return "Séparé(e)"
	case "concubin", "concubine", "union libre", "concubinage":
		return "Union libre"
	default:
		return value
	}
}

func normalizeSituationActuelle(value string) any {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "actif", "en activité", "en activite", "salarié", "salarie", "emploi":
		return "Actif"
	case "retraité", "retraite", "retired", "à la retraite":
		return "Retraité"
	case "chômage", "chomage", "chômeur", "chomeur", "sans emploi", "demandeur emploi":
		return "Chômage"
	case "étudiant", "etudiant", "student":
		return "Étudiant"
	case "invalide", "invalidité", "invalidite":
		return "Invalide"
	case "au foyer", "parent foyer", "sans activité":
		return "Au foyer"
	default:
		return value
	}
}

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldForComparison lowercases and strips accents for tolerant
// comparisons.
func foldForComparison(value string) string {
	lowered := strings.ToLower(strings.TrimSpace(value))
	if folded, _, err := transform.String(foldTransformer, lowered); err == nil {
		return folded
	}
	return lowered
}
