package validation

import (
	"testing"
)

func TestParseDateFormats(t *testing.T) {
	cases := map[string]string{
		"1990-01-15":      "1990-01-15",
		"15/01/1990":      "1990-01-15",
		"15-01-1990":      "1990-01-15",
		"15.01.1990":      "1990-01-15",
		"15/01/90":        "1990-01-15",
		"15 janvier 1990": "1990-01-15",
		"1er mars 2000":   "2000-03-01",
		"3 août 1985":     "1985-08-03",
	}
	for in, want := range cases {
		parsed, err := ParseDate(in)
		if err != nil {
			t.Errorf("ParseDate(%q) failed: %v", in, err)
			continue
		}
		if got := parsed.Format("2006-01-02"); got != want {
			t.Errorf("ParseDate(%q) = %s, want %s", in, got, want)
		}
	}
	for _, in := range []string{"", "pas une date", "99/99/9999"} {
		if _, err := ParseDate(in); err == nil {
			t.Errorf("ParseDate(%q) should fail", in)
		}
	}
}

func TestNormalizeScalars(t *testing.T) {
	data := map[string]any{
		"civilite":               "mr",
		"nom":                    "  DUPONT ",
		"prenom":                 "jean",
		"email":                  " Jean.Dupont@Example.COM ",
		"telephone":              "06 12 34 56 78",
		"code_postal":            "75 011",
		"date_naissance":         "15/01/1990",
		"revenus_annuels":        "45 000,50 €",
		"fumeur":                 "Oui",
		"situation_matrimoniale": "marié",
		"situation_actuelle":     "salarié",
		"adresse":                " 1 rue de la Paix ",
		"profession":             "",
	}

	normalized := Normalize(data)

	if normalized["civilite"] != "Monsieur" {
		t.Errorf("civilite: %v", normalized["civilite"])
	}
	if normalized["nom"] != "Dupont" || normalized["prenom"] != "Jean" {
		t.Errorf("names not title-cased: %v / %v", normalized["nom"], normalized["prenom"])
	}
	if normalized["email"] != "jean.dupont@example.com" {
		t.Errorf("email: %v", normalized["email"])
	}
	if normalized["telephone"] != "0612345678" {
		t.Errorf("telephone: %v", normalized["telephone"])
	}
	if normalized["code_postal"] != "75011" {
		t.Errorf("code_postal: %v", normalized["code_postal"])
	}
	if normalized["date_naissance"] != "1990-01-15" {
		t.Errorf("date_naissance: %v", normalized["date_naissance"])
	}
	if normalized["revenus_annuels"] != 45000.50 {
		t.Errorf("revenus_annuels: %v", normalized["revenus_annuels"])
	}
	if normalized["fumeur"] != true {
		t.Errorf("fumeur: %v", normalized["fumeur"])
	}
	if normalized["situation_matrimoniale"] != "Marié(e)" {
		t.Errorf("situation_matrimoniale: %v", normalized["situation_matrimoniale"])
	}
	if normalized["situation_actuelle"] != "Actif" {
		t.Errorf("situation_actuelle: %v", normalized["situation_actuelle"])
	}
	if normalized["profession"] != nil {
		t.Errorf("empty string should become nil, got %v", normalized["profession"])
	}
}

func TestNormalizeInvalidValuesBecomeNil(t *testing.T) {
	normalized := Normalize(map[string]any{
		"email":       "pas-un-email",
		"telephone":   "1234",
		"code_postal": "ABC",
		"civilite":    "docteur",
	})
	for _, field := range []string{"email", "telephone", "code_postal", "civilite"} {
		if normalized[field] != nil {
			t.Errorf("%s should normalize to nil, got %v", field, normalized[field])
		}
	}
}

func TestNormalizeConjointSection(t *testing.T) {
	normalized := Normalize(map[string]any{
		"conjoint": map[string]any{
			"nom":             "  durand ",
			"datedenaissance": "03/05/1985",
			"fumeur":          "non",
			"email":           "MARIE@EXAMPLE.COM",
		},
	})
	conjoint := normalized["conjoint"].(map[string]any)
	if conjoint["nom"] != "Durand" {
		t.Errorf("conjoint nom: %v", conjoint["nom"])
	}
	if conjoint["datedenaissance"] != "1985-05-03" {
		t.Errorf("conjoint datedenaissance: %v", conjoint["datedenaissance"])
	}
	if conjoint["fumeur"] != false {
		t.Errorf("conjoint fumeur: %v", conjoint["fumeur"])
	}
	if conjoint["email"] != "marie@example.com" {
		t.Errorf("conjoint email: %v", conjoint["email"])
	}
}

func TestNormalizeEnfantsCompositeAndFiltering(t *testing.T) {
	normalized := Normalize(map[string]any{
		"enfants": []map[string]any{
			{"nom_prenom": "DUPONT Emma", "datedenaissance": "01/09/2015"},
			{"nom_prenom": "Lucas Dupont"},
			{"nom_prenom": "   "},
		},
		"_nombre_enfants": "2",
	})

	enfants := normalized["enfants"].([]map[string]any)
	if len(enfants) != 2 {
		t.Fatalf("expected empty enfant filtered out, got %d", len(enfants))
	}
	if enfants[0]["nom"] != "Dupont" || enfants[0]["prenom"] != "Emma" {
		t.Errorf("uppercase-first split wrong: %+v", enfants[0])
	}
	if enfants[0]["datedenaissance"] != "2015-09-01" {
		t.Errorf("enfant birthdate: %v", enfants[0]["datedenaissance"])
	}
	if enfants[1]["nom"] != "Dupont" || enfants[1]["prenom"] != "Lucas" {
		t.Errorf("given-name-first split wrong: %+v", enfants[1])
	}
	if normalized["_nombre_enfants"] != 2 {
		t.Errorf("nombre_enfants: %v", normalized["_nombre_enfants"])
	}
}

func TestSplitNomPrenomSinglePart(t *testing.T) {
	nom, prenom := SplitNomPrenom("Emma")
	if nom != "" || prenom != "Emma" {
		t.Fatalf("single token should be the given name, got nom=%q prenom=%q", nom, prenom)
	}
}

func TestNormalizeFinancialSlots(t *testing.T) {
	normalized := Normalize(map[string]any{
		"_client_passif": []map[string]any{
			{"montant_remboursement": "850,00", "duree_restante": "120", "nature": " Prêt immobilier "},
			{"montant_remboursement": ""},
		},
		"_client_bien_immobilier": []map[string]any{
			{"annee_acquisition": "15/06/2010", "valeur_acquisition": "250 000"},
		},
	})

	passifs := normalized["_client_passif"].([]map[string]any)
	if len(passifs) != 1 {
		t.Fatalf("empty slot should be dropped, got %d", len(passifs))
	}
	if passifs[0]["montant_remboursement"] != 850.0 {
		t.Errorf("montant_remboursement: %v", passifs[0]["montant_remboursement"])
	}
	if passifs[0]["duree_restante"] != 120 {
		t.Errorf("duree_restante: %v", passifs[0]["duree_restante"])
	}
	if passifs[0]["nature"] != "Prêt immobilier" {
		t.Errorf("nature: %v", passifs[0]["nature"])
	}

	biens := normalized["_client_bien_immobilier"].([]map[string]any)
	if biens[0]["annee_acquisition"] != 2010 {
		t.Errorf("year extracted from date: %v", biens[0]["annee_acquisition"])
	}
	if biens[0]["valeur_acquisition"] != 250000.0 {
		t.Errorf("valeur_acquisition: %v", biens[0]["valeur_acquisition"])
	}
}

func TestValidateRequiredFields(t *testing.T) {
	errors := Validate(map[string]any{"prenom": "Jean"})
	if errors["nom"] != "Le champ nom est obligatoire" {
		t.Fatalf("unexpected errors: %v", errors)
	}
	if _, present := errors["prenom"]; present {
		t.Fatalf("prenom is set and should not error: %v", errors)
	}
}

func TestValidateFormats(t *testing.T) {
	errors := Validate(map[string]any{
		"nom":                    "Dupont",
		"prenom":                 "Jean",
		"email":                  "pas-un-email",
		"telephone":              "123",
		"date_naissance":         "pas une date",
		"code_postal":            "ABC",
		"civilite":               "docteur",
		"situation_matrimoniale": "inconnu",
	})

	want := map[string]string{
		"email":                  "Format d'email invalide",
		"telephone":              "Format de téléphone invalide (attendu: 0X XX XX XX XX ou +33...)",
		"date_naissance":         "Format de date invalide",
		"code_postal":            "Code postal invalide (5 chiffres attendus)",
		"civilite":               "Civilité invalide (M., Mme, Mlle)",
		"situation_matrimoniale": "Situation matrimoniale non reconnue",
	}
	for field, message := range want {
		if errors[field] != message {
			t.Errorf("%s: got %q, want %q", field, errors[field], message)
		}
	}
}

func TestValidateConjointPrefixResolution(t *testing.T) {
	errors := Validate(map[string]any{
		"nom":            "Dupont",
		"prenom":         "Jean",
		"conjoint_email": "pas-un-email",
	})
	if errors["conjoint_email"] != "Format d'email invalide" {
		t.Fatalf("conjoint prefix not resolved: %v", errors)
	}
}

func TestValidateAndNormalize(t *testing.T) {
	result := ValidateAndNormalize(map[string]any{
		"nom":    "dupont",
		"prenom": "jean",
		"email":  "jean@example.com",
	})
	if !result.Valid || len(result.Errors) != 0 {
		t.Fatalf("expected valid row, got %+v", result.Errors)
	}
	if result.Data["nom"] != "Dupont" {
		t.Fatalf("normalization not applied: %v", result.Data["nom"])
	}

	result = ValidateAndNormalize(map[string]any{"prenom": "jean"})
	if result.Valid {
		t.Fatal("missing nom should be invalid")
	}
}

func TestNormalizeBooleanVariants(t *testing.T) {
	truthy := []string{"oui", "Oui", "1", "x", "OK", "vrai", "yes", "checked", "2"}
	for _, v := range truthy {
		if got := normalizeBoolean(v); got != true {
			t.Errorf("normalizeBoolean(%q) = %v, want true", v, got)
		}
	}
	falsy := []string{"non", "0", "no", "faux", "n", "", "unchecked"}
	for _, v := range falsy {
		if got := normalizeBoolean(v); got != false {
			t.Errorf("normalizeBoolean(%q) = %v, want false", v, got)
		}
	}
	if got := normalizeBoolean("peut-être"); got != nil {
		t.Errorf("normalizeBoolean(ambiguous) = %v, want nil", got)
	}
}
