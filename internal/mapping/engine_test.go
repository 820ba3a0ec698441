package mapping

import (
	"testing"

	"github.com/rpattn/crmimport/internal/domain"
)

func suggestionFor(t *testing.T, columns []string, column string) domain.SuggestedMapping {
	t.Helper()
	for _, s := range Suggest(columns) {
		if s.SourceColumn == column {
			return s
		}
	}
	t.Fatalf("no suggestion produced for %q", column)
	return domain.SuggestedMapping{}
}

func TestSuggestExactMatch(t *testing.T) {
	s := suggestionFor(t, []string{"nom"}, "nom")
	if s.TargetField != "nom" || s.Confidence != 1.0 {
		t.Fatalf("unexpected suggestion: %+v", s)
	}
	if s.Method != "exact" {
		t.Fatalf("expected exact method, got %q", s.Method)
	}
}

func TestSuggestAccentsAndCase(t *testing.T) {
	cases := map[string]string{
		"Prénom":            "prenom",
		"Téléphone":         "telephone",
		"Date de Naissance": "date_naissance",
		"E-mail":            "email",
		"Code Postal":       "code_postal",
	}
	for column, want := range cases {
		s := suggestionFor(t, []string{column}, column)
		if s.TargetField != want {
			t.Errorf("%q: suggested %q (%.3f), want %q", column, s.TargetField, s.Confidence, want)
		}
	}
}

func TestSuggestAliases(t *testing.T) {
	cases := map[string]string{
		"lastname":        "nom",
		"birthdate":       "date_naissance",
		"courriel":        "email",
		"nb enfants":      "nombre_enfants",
		"prenom conjoint": "conjoint_prenom",
		"enfant 1":        "enfant1_nom_prenom",
	}
	for column, want := range cases {
		s := suggestionFor(t, []string{column}, column)
		if s.TargetField != want {
			t.Errorf("%q: suggested %q (%.3f), want %q", column, s.TargetField, s.Confidence, want)
		}
		if s.Confidence < 0.95 {
			t.Errorf("%q: alias hit should score at least 0.95, got %.3f", column, s.Confidence)
		}
	}
}

func TestSuggestBelowFloorLeavesColumnUnmapped(t *testing.T) {
	s := suggestionFor(t, []string{"zzz_colonne_inconnue_42"}, "zzz_colonne_inconnue_42")
	if s.TargetField != "" {
		t.Fatalf("expected no suggestion, got %q at %.3f", s.TargetField, s.Confidence)
	}
}

func TestSuggestAlternativesSortedAndCapped(t *testing.T) {
	s := suggestionFor(t, []string{"date de naissance"}, "date de naissance")
	if len(s.Alternatives) == 0 || len(s.Alternatives) > 5 {
		t.Fatalf("expected 1..5 alternatives, got %d", len(s.Alternatives))
	}
	for i := 1; i < len(s.Alternatives); i++ {
		if s.Alternatives[i].Confidence > s.Alternatives[i-1].Confidence {
			t.Fatalf("alternatives not sorted: %+v", s.Alternatives)
		}
	}
}

func TestNormalizeForMatching(t *testing.T) {
	cases := map[string]string{
		"Prénom  Conjoint": "prenom conjoint",
		"nom_de_famille":   "nom de famille",
		"É-mail!":          "email",
		"  Ville ":         "ville",
	}
	for in, want := range cases {
		if got := normalizeForMatching(in); got != want {
			t.Errorf("normalizeForMatching(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSimilarTextPercent(t *testing.T) {
	if pct := similarTextPercent("abc", "abc"); pct != 100 {
		t.Fatalf("identical strings should score 100, got %.1f", pct)
	}
	if pct := similarTextPercent("abc", "xyz"); pct != 0 {
		t.Fatalf("disjoint strings should score 0, got %.1f", pct)
	}
	if pct := similarTextPercent("telephone", "telephon"); pct < 90 {
		t.Fatalf("near-identical strings should score high, got %.1f", pct)
	}
}

func TestWordOverlap(t *testing.T) {
	if got := wordOverlap("date naissance conjoint", "date naissance"); got <= 0.4 {
		t.Fatalf("expected overlap above 0.4, got %.3f", got)
	}
	if got := wordOverlap("nom", "ville"); got != 0 {
		t.Fatalf("expected no overlap, got %.3f", got)
	}
}

func TestApplyRouting(t *testing.T) {
	raw := map[string]string{
		"Nom":          "Dupont",
		"Conjoint Nom": "Durand",
		"Enfant 2":     "DUPONT Emma",
		"Nb Enfants":   "2",
		"Mensualite":   "850",
		"Mutuelle":     "Alan",
	}
	mappings := []domain.ColumnMapping{
		{SourceColumn: "Nom", TargetField: "nom"},
		{SourceColumn: "Conjoint Nom", TargetField: "conjoint_nom"},
		{SourceColumn: "Enfant 2", TargetField: "enfant2_nom_prenom"},
		{SourceColumn: "Nb Enfants", TargetField: "nombre_enfants"},
		{SourceColumn: "Mensualite", TargetField: "passif_montant_remboursement"},
		{SourceColumn: "Mutuelle", TargetField: "sante_contrat_en_place"},
		{SourceColumn: "Absente", TargetField: "ville"},
		{SourceColumn: "Ignoree", TargetField: ""},
	}

	mapped := Apply(raw, mappings)

	if mapped["nom"] != "Dupont" {
		t.Fatalf("client field not mapped: %+v", mapped)
	}
	conjoint, ok := mapped["conjoint"].(map[string]any)
	if !ok || conjoint["nom"] != "Durand" {
		t.Fatalf("conjoint bucket wrong: %+v", mapped["conjoint"])
	}
	enfants, ok := mapped["enfants"].([]map[string]any)
	if !ok || len(enfants) != 2 || enfants[1]["nom_prenom"] != "DUPONT Emma" {
		t.Fatalf("enfants bucket wrong: %+v", mapped["enfants"])
	}
	if mapped["_nombre_enfants"] != "2" {
		t.Fatalf("nombre_enfants not routed: %+v", mapped)
	}
	passifs, ok := mapped["_client_passif"].([]map[string]any)
	if !ok || len(passifs) != 1 || passifs[0]["montant_remboursement"] != "850" {
		t.Fatalf("passif bucket wrong: %+v", mapped["_client_passif"])
	}
	sante, ok := mapped["_sante_souhaits"].(map[string]any)
	if !ok || sante["contrat_en_place"] != "Alan" {
		t.Fatalf("sante bucket wrong: %+v", mapped["_sante_souhaits"])
	}
	if _, present := mapped["ville"]; present {
		t.Fatal("missing source column should not be mapped")
	}
}

func TestValidateMappings(t *testing.T) {
	errs := ValidateMappings([]domain.ColumnMapping{
		{SourceColumn: "Nom", TargetField: "nom"},
		{SourceColumn: "Mystere", TargetField: "champ_inexistant"},
		{SourceColumn: "Ignoree", TargetField: ""},
	})
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %v", errs)
	}
	want := "Champ cible invalide: champ_inexistant pour la colonne Mystere"
	if errs[0] != want {
		t.Fatalf("got %q, want %q", errs[0], want)
	}
}
