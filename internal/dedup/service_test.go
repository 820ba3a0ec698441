package dedup

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/rpattn/crmimport/internal/domain"
)

type stubSearcher struct {
	clients []domain.Client
}

func (s *stubSearcher) FindByEmail(_ context.Context, _ uuid.UUID, email string) ([]domain.Client, error) {
	var out []domain.Client
	for _, c := range s.clients {
		if strings.EqualFold(c.Email(), email) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *stubSearcher) FindByTelephone(_ context.Context, _ uuid.UUID, digits string) ([]domain.Client, error) {
	var out []domain.Client
	for _, c := range s.clients {
		stored := digitPattern.ReplaceAllString(c.Telephone(), "")
		if stored != "" && strings.Contains(stored, digits) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *stubSearcher) FindByName(_ context.Context, _ uuid.UUID, nom, prenom string) ([]domain.Client, error) {
	var out []domain.Client
	for _, c := range s.clients {
		cn, cp := strings.ToLower(c.Nom()), strings.ToLower(c.Prenom())
		n, p := strings.ToLower(nom), strings.ToLower(prenom)
		if (strings.Contains(cn, n) && strings.Contains(cp, p)) ||
			(strings.Contains(cn, p) && strings.Contains(cp, n)) {
			out = append(out, c)
		}
	}
	return out, nil
}

func storedClient(teamID uuid.UUID, attrs map[string]string) domain.Client {
	return domain.NewClient(teamID, attrs)
}

func TestFindDuplicatesFullMatch(t *testing.T) {
	teamID := uuid.New()
	existing := storedClient(teamID, map[string]string{
		"nom":            "Dupont",
		"prenom":         "Jean",
		"email":          "jean@example.com",
		"telephone":      "0612345678",
		"date_naissance": "1990-01-15",
	})
	svc := NewService(&stubSearcher{clients: []domain.Client{existing}}, nil)

	check, err := svc.FindDuplicates(context.Background(), teamID, map[string]any{
		"nom":            "Dupont",
		"prenom":         "Jean",
		"email":          "jean@example.com",
		"telephone":      "06 12 34 56 78",
		"date_naissance": "1990-01-15",
	})
	if err != nil {
		t.Fatalf("FindDuplicates failed: %v", err)
	}

	if !check.HasDuplicates {
		t.Fatal("expected duplicates")
	}
	if check.ConfidenceLevel != "medium" {
		t.Fatalf("expected medium confidence, got %s (%.2f)", check.ConfidenceLevel, check.Confidence)
	}
	// email 0.35 + name 0.10 + birthdate 0.30; phone signal is skipped
	// once the client already matched on email.
	if check.Confidence < 0.74 || check.Confidence > 0.76 {
		t.Fatalf("unexpected confidence %.3f", check.Confidence)
	}
	if check.BestMatch == nil || check.BestMatch.ClientID != existing.ID {
		t.Fatalf("unexpected best match: %+v", check.BestMatch)
	}
	reasons := strings.Join(check.BestMatch.Reasons, "|")
	for _, want := range []string{"Email identique", "Nom et prénom similaires", "Date de naissance identique"} {
		if !strings.Contains(reasons, want) {
			t.Errorf("missing reason %q in %q", want, reasons)
		}
	}
}

func TestFindDuplicatesEmailOnlyIsFlagged(t *testing.T) {
	teamID := uuid.New()
	existing := storedClient(teamID, map[string]string{
		"nom": "Dupont", "prenom": "Jean", "email": "jean@example.com",
	})
	svc := NewService(&stubSearcher{clients: []domain.Client{existing}}, nil)

	check, err := svc.FindDuplicates(context.Background(), teamID, map[string]any{
		"email": "jean@example.com",
	})
	if err != nil {
		t.Fatalf("FindDuplicates failed: %v", err)
	}
	if !check.HasDuplicates {
		t.Fatalf("an exact email hit alone must flag the row: %+v", check)
	}
	if check.Confidence < 0.34 || check.Confidence > 0.36 {
		t.Fatalf("unexpected confidence %.3f", check.Confidence)
	}
	if check.BestMatch == nil || check.BestMatch.ClientID != existing.ID {
		t.Fatalf("unexpected best match: %+v", check.BestMatch)
	}
}

func TestFindDuplicatesAccentAndCaseTolerantNames(t *testing.T) {
	teamID := uuid.New()
	existing := storedClient(teamID, map[string]string{
		"nom": "Léveillé", "prenom": "François", "date_naissance": "1980-06-01",
	})
	svc := NewService(&stubSearcher{clients: []domain.Client{existing}}, nil)

	check, err := svc.FindDuplicates(context.Background(), teamID, map[string]any{
		"nom":            "LEVEILLE",
		"prenom":         "Francois",
		"date_naissance": "01/06/1980",
	})
	if err != nil {
		t.Fatalf("FindDuplicates failed: %v", err)
	}
	if len(check.Matches) != 1 {
		t.Fatalf("expected a name match, got %+v", check.Matches)
	}
	reasons := strings.Join(check.Matches[0].Reasons, "|")
	if !strings.Contains(reasons, "Date de naissance identique") {
		t.Fatalf("birthdate formats should compare equal: %q", reasons)
	}
}

func TestFindDuplicatesSwappedNames(t *testing.T) {
	svc := NewService(&stubSearcher{}, nil)
	if got := svc.nameSimilarity("Jean", "Dupont", "Dupont", "Jean"); got != 1 {
		t.Fatalf("swapped names should score 1.0, got %.3f", got)
	}
}

func TestFindDuplicatesNoSignals(t *testing.T) {
	svc := NewService(&stubSearcher{}, nil)
	check, err := svc.FindDuplicates(context.Background(), uuid.New(), map[string]any{
		"nom": "Nouveau", "prenom": "Client",
	})
	if err != nil {
		t.Fatalf("FindDuplicates failed: %v", err)
	}
	if check.HasDuplicates || check.ConfidenceLevel != "none" || len(check.Matches) != 0 {
		t.Fatalf("expected clean result, got %+v", check)
	}
}

func TestCompareRows(t *testing.T) {
	svc := NewService(nil, nil)

	a := map[string]any{
		"nom": "Dupont", "prenom": "Jean",
		"email": "jean@example.com", "telephone": "0612345678",
		"date_naissance": "1990-01-15",
	}
	b := map[string]any{
		"nom": "DUPONT", "prenom": "jean",
		"email": "JEAN@EXAMPLE.COM", "telephone": "06.12.34.56.78",
		"date_naissance": "1990-01-15",
	}
	score := svc.CompareRows(a, b)
	if score != 1.0 {
		t.Fatalf("full agreement should score 1.0, got %.3f", score)
	}

	c := map[string]any{"nom": "Martin", "prenom": "Sophie"}
	if score := svc.CompareRows(a, c); score != 0 {
		t.Fatalf("unrelated rows should score 0, got %.3f", score)
	}
}

func TestCheckBatchOnlyEarlierRows(t *testing.T) {
	svc := NewService(nil, nil)
	rows := []map[string]any{
		{"nom": "Dupont", "prenom": "Jean", "email": "jean@example.com", "telephone": "0612345678"},
		{"nom": "Martin", "prenom": "Sophie"},
		{"nom": "Dupont", "prenom": "Jean", "email": "jean@example.com", "telephone": "0612345678"},
	}

	flagged := svc.CheckBatch(rows[2], rows, 3)
	if len(flagged) != 1 || flagged[0].RowNumber != 1 {
		t.Fatalf("expected collision with row 1 only, got %+v", flagged)
	}
	if flagged[0].Score < thresholdMedium {
		t.Fatalf("flagged score below threshold: %.3f", flagged[0].Score)
	}

	if flagged := svc.CheckBatch(rows[0], rows, 1); flagged != nil {
		t.Fatalf("first row has no earlier rows, got %+v", flagged)
	}
}
