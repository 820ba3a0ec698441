package catalog

import "testing"

func TestParseKeyMainFields(t *testing.T) {
	fk, ok := ParseKey("nom")
	if !ok {
		t.Fatalf("expected nom to parse")
	}
	if fk.Kind != KindMain || fk.Table != TableClient || fk.Column != "nom" {
		t.Fatalf("unexpected key: %+v", fk)
	}
}

func TestParseKeySingularRenames(t *testing.T) {
	cases := map[string]struct {
		table  string
		column string
	}{
		"conjoint_date_naissance":      {TableConjoint, "datedenaissance"},
		"conjoint_situation_actuelle":  {TableConjoint, "situation_actuelle_statut"},
		"retraite_complementaire_mise_en_place": {TableRetraite, "complementaire_retraite_mise_en_place"},
		"epargne_montant_disponible":   {TableEpargne, "montant_epargne_disponible"},
		"epargne_estimation_patrimoine": {TableEpargne, "actifs_financiers_total"},
		"actif_date_ouverture":         {TableActif, "date_ouverture_souscription"},
		"bien_valeur_actuelle":         {TableBienImmo, "valeur_actuelle_estimee"},
		"passif_capital_restant":       {TablePassif, "capital_restant_du"},
	}
	for key, want := range cases {
		fk, ok := ParseKey(key)
		if !ok {
			t.Fatalf("expected %s to parse", key)
		}
		if fk.Table != want.table || fk.Column != want.column {
			t.Errorf("%s: got table=%s column=%s, want table=%s column=%s",
				key, fk.Table, fk.Column, want.table, want.column)
		}
	}
}

func TestParseKeyRepeatable(t *testing.T) {
	fk, ok := ParseKey("enfant3_date_naissance")
	if !ok {
		t.Fatalf("expected enfant3_date_naissance to parse")
	}
	if fk.Kind != KindRepeatable || fk.Table != TableEnfant || fk.Column != "datedenaissance" || fk.Index != 3 {
		t.Fatalf("unexpected key: %+v", fk)
	}

	fk, ok = ParseKey("enfant2_nom_prenom")
	if !ok || !fk.Composite {
		t.Fatalf("expected enfant2_nom_prenom to parse as composite, got %+v ok=%v", fk, ok)
	}

	fk, ok = ParseKey("revenu2_montant")
	if !ok {
		t.Fatalf("expected revenu2_montant to parse")
	}
	if fk.Table != TableRevenu || fk.Column != "montant" || fk.Index != 2 {
		t.Fatalf("unexpected key: %+v", fk)
	}

	if _, ok := ParseKey("enfant11_nom"); ok {
		t.Fatalf("enfant11_nom exceeds the slot limit and should not parse")
	}
	if _, ok := ParseKey("revenu6_montant"); ok {
		t.Fatalf("revenu6_montant exceeds the slot limit and should not parse")
	}
}

func TestParseKeyUnknown(t *testing.T) {
	for _, key := range []string{"", "mystery_field", "foo3_bar", "enfant1_inexistant"} {
		if _, ok := ParseKey(key); ok {
			t.Errorf("expected %q to be rejected", key)
		}
	}
}

func TestTargetKeysAllParse(t *testing.T) {
	keys := TargetKeys()
	if len(keys) == 0 {
		t.Fatal("expected a non-empty key list")
	}
	for _, key := range keys {
		if _, ok := ParseKey(key); !ok {
			t.Errorf("catalog key %q does not parse", key)
		}
		if _, ok := Lookup(key); !ok {
			t.Errorf("catalog key %q has no spec", key)
		}
	}
}

func TestRequiredFields(t *testing.T) {
	for _, key := range []string{"nom", "prenom"} {
		s, ok := Lookup(key)
		if !ok || !s.Required {
			t.Errorf("expected %s to be required", key)
		}
	}
}

func TestLabels(t *testing.T) {
	cases := map[string]string{
		"nom":                     "Nom",
		"date_naissance":          "Date de naissance",
		"conjoint_date_naissance": "Date de naissance (conjoint)",
		"enfant2_nom_prenom":      "Nom et prénom #2",
		"revenu3_montant":         "Montant #3",
		"epargne_disponible":      "Épargne disponible",
	}
	for key, want := range cases {
		if got := Label(key); got != want {
			t.Errorf("Label(%q) = %q, want %q", key, got, want)
		}
	}
}

func TestTableConfig(t *testing.T) {
	enfant, ok := TableConfig(TableEnfant)
	if !ok {
		t.Fatal("expected enfant table config")
	}
	if !enfant.Multiple || enfant.MaxItems != 10 {
		t.Fatalf("unexpected enfant config: %+v", enfant)
	}
	if _, ok := TableConfig("unknown"); ok {
		t.Fatal("expected unknown table to be absent")
	}
}
