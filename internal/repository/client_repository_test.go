package repository

import "testing"

func TestPatchConjointFillsOnlyEmptyFields(t *testing.T) {
	existing := map[string]any{
		"nom":       "Dupont",
		"prenom":    "Claire",
		"telephone": "",
	}
	incoming := map[string]any{
		"nom":            "Durand",
		"telephone":      "0612345678",
		"date_naissance": "1985-02-10",
		"email":          "",
	}

	patched, changed := patchConjoint(existing, incoming)
	if !changed {
		t.Fatal("expected the patch to report a change")
	}

	// Stored values win over imported ones.
	if patched["nom"] != "Dupont" {
		t.Fatalf("expected nom to be kept, got %v", patched["nom"])
	}
	// Empty stored fields are filled in.
	if patched["telephone"] != "0612345678" {
		t.Fatalf("expected telephone to be filled, got %v", patched["telephone"])
	}
	// New fields are added.
	if patched["date_naissance"] != "1985-02-10" {
		t.Fatalf("expected date_naissance to be added, got %v", patched["date_naissance"])
	}
	// Empty incoming values never land.
	if _, ok := patched["email"]; ok {
		t.Fatalf("expected empty email to be dropped, got %v", patched["email"])
	}
}

func TestPatchConjointNoChangeWhenNothingToFill(t *testing.T) {
	existing := map[string]any{"nom": "Dupont", "prenom": "Claire"}
	incoming := map[string]any{"nom": "Durand", "prenom": "Anne"}

	patched, changed := patchConjoint(existing, incoming)
	if changed {
		t.Fatalf("expected no change, got %v", patched)
	}
	if patched["nom"] != "Dupont" || patched["prenom"] != "Claire" {
		t.Fatalf("unexpected patch result: %v", patched)
	}
}
