// Package dedup scores normalized import rows against the existing
// client base and against sibling rows of the same file.
package dedup

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/rpattn/crmimport/internal/domain"
)

// Signal weights. They sum to 1.0 for a client matching on every axis.
const (
	weightEmail     = 0.35
	weightTelephone = 0.25
	weightBirthdate = 0.30
	weightName      = 0.10
)

// Confidence thresholds.
const (
	thresholdHigh   = 0.9
	thresholdMedium = 0.7
	thresholdLow    = 0.5
)

// nameMatchFloor is the similarity below which two names are not
// considered the same person.
const nameMatchFloor = 0.8

// DuplicateThreshold is the confidence at which a row is held for
// manual review instead of being imported as a fresh client. A single
// exact email hit is enough to hold a row.
const DuplicateThreshold = weightEmail

// ClientSearcher supplies duplicate candidates from the client base.
type ClientSearcher interface {
	FindByEmail(ctx context.Context, teamID uuid.UUID, email string) ([]domain.Client, error)
	FindByTelephone(ctx context.Context, teamID uuid.UUID, digits string) ([]domain.Client, error)
	FindByName(ctx context.Context, teamID uuid.UUID, nom, prenom string) ([]domain.Client, error)
}

// Similarity rates two folded name strings in [0,1].
type Similarity func(a, b string) float64

// Service runs duplicate detection for one team's imports.
type Service struct {
	clients    ClientSearcher
	similarity Similarity
	log        *logrus.Logger
}

func NewService(clients ClientSearcher, log *logrus.Logger) *Service {
	return &Service{clients: clients, similarity: editDistanceSimilarity, log: log}
}

// FindDuplicates matches one normalized row against stored clients.
// Email and phone hits are exact signals; name hits are fuzzy and carry
// the birthdate bonus.
func (s *Service) FindDuplicates(ctx context.Context, teamID uuid.UUID, data map[string]any) (domain.DuplicateCheck, error) {
	matches := make(map[uuid.UUID]*domain.DuplicateMatch)
	order := make([]uuid.UUID, 0, 8)

	record := func(client domain.Client, score float64, reason string) {
		m, seen := matches[client.ID]
		if !seen {
			m = &domain.DuplicateMatch{
				ClientID:      client.ID,
				Nom:           client.Nom(),
				Prenom:        client.Prenom(),
				Email:         client.Email(),
				Telephone:     client.Telephone(),
				DateNaissance: client.DateNaissance(),
			}
			matches[client.ID] = m
			order = append(order, client.ID)
		}
		m.Score += score
		m.Reasons = append(m.Reasons, reason)
	}

	if email := stringField(data, "email"); email != "" {
		candidates, err := s.clients.FindByEmail(ctx, teamID, email)
		if err != nil {
			return domain.DuplicateCheck{}, fmt.Errorf("failed to search clients by email: %w", err)
		}
		for _, client := range candidates {
			record(client, weightEmail, "Email identique")
		}
	}

	if digits := phoneDigits(stringField(data, "telephone")); digits != "" {
		candidates, err := s.clients.FindByTelephone(ctx, teamID, digits)
		if err != nil {
			return domain.DuplicateCheck{}, fmt.Errorf("failed to search clients by telephone: %w", err)
		}
		for _, client := range candidates {
			if _, seen := matches[client.ID]; seen {
				continue
			}
			record(client, weightTelephone, "Téléphone identique")
		}
	}

	nom := stringField(data, "nom")
	prenom := stringField(data, "prenom")
	if nom != "" && prenom != "" {
		candidates, err := s.clients.FindByName(ctx, teamID, nom, prenom)
		if err != nil {
			return domain.DuplicateCheck{}, fmt.Errorf("failed to search clients by name: %w", err)
		}
		birthdate := stringField(data, "date_naissance")
		for _, client := range candidates {
			nameScore := s.nameSimilarity(nom, prenom, client.Nom(), client.Prenom())
			if nameScore >= nameMatchFloor {
				record(client, weightName*nameScore, "Nom et prénom similaires")
				if birthdate != "" && sameBirthdate(birthdate, client.DateNaissance()) {
					record(client, weightBirthdate, "Date de naissance identique")
				}
			}
		}
	}

	list := make([]domain.DuplicateMatch, 0, len(order))
	for _, id := range order {
		list = append(list, *matches[id])
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].Score > list[j].Score })

	check := domain.DuplicateCheck{ConfidenceLevel: "none", Matches: []domain.DuplicateMatch{}}
	if len(list) > 0 {
		confidence := list[0].Score
		if confidence > 1 {
			confidence = 1
		}
		check.Confidence = confidence
		check.ConfidenceLevel = confidenceLevel(confidence)
		check.HasDuplicates = confidence >= DuplicateThreshold
		if len(list) > 5 {
			list = list[:5]
		}
		check.Matches = list
		best := list[0]
		check.BestMatch = &best
	}

	if s.log != nil && check.HasDuplicates {
		s.log.WithFields(logrus.Fields{
			"team_id":    teamID,
			"confidence": check.Confidence,
			"level":      check.ConfidenceLevel,
			"matches":    len(check.Matches),
		}).Debug("duplicate candidates found")
	}
	return check, nil
}

// CheckBatch compares a row against the rows that precede it in the
// same file and flags collisions at medium confidence or above.
func (s *Service) CheckBatch(data map[string]any, batch []map[string]any, rowNumber int) []domain.BatchDuplicate {
	var flagged []domain.BatchDuplicate
	for index, other := range batch {
		if index+1 >= rowNumber {
			continue
		}
		score := s.CompareRows(data, other)
		if score >= thresholdMedium {
			flagged = append(flagged, domain.BatchDuplicate{RowNumber: index + 1, Score: score})
		}
	}
	return flagged
}

// CompareRows scores two normalized rows on the same signals used
// against the client base.
func (s *Service) CompareRows(a, b map[string]any) float64 {
	score := 0.0

	emailA, emailB := stringField(a, "email"), stringField(b, "email")
	if emailA != "" && strings.EqualFold(emailA, emailB) {
		score += weightEmail
	}

	phoneA, phoneB := phoneDigits(stringField(a, "telephone")), phoneDigits(stringField(b, "telephone"))
	if phoneA != "" && phoneA == phoneB {
		score += weightTelephone
	}

	nameScore := s.nameSimilarity(
		stringField(a, "nom"), stringField(a, "prenom"),
		stringField(b, "nom"), stringField(b, "prenom"))
	if nameScore >= nameMatchFloor {
		score += weightName * nameScore
		if sameBirthdate(stringField(a, "date_naissance"), stringField(b, "date_naissance")) {
			score += weightBirthdate
		}
	}

	if score > 1 {
		score = 1
	}
	return score
}

// nameSimilarity takes the better of the direct and the swapped
// pairing, so "Jean Dupont" still matches a record stored as
// nom=Jean, prenom=Dupont.
func (s *Service) nameSimilarity(nomA, prenomA, nomB, prenomB string) float64 {
	fa, fb := foldName(nomA), foldName(nomB)
	ga, gb := foldName(prenomA), foldName(prenomB)

	direct := s.similarity(fa, fb) * s.similarity(ga, gb)
	inverse := s.similarity(fa, gb) * s.similarity(ga, fb)
	if inverse > direct {
		return inverse
	}
	return direct
}

func editDistanceSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	distance := levenshtein.ComputeDistance(a, b)
	return 1 - float64(distance)/float64(maxLen)
}

func confidenceLevel(confidence float64) string {
	switch {
	case confidence >= thresholdHigh:
		return "high"
	case confidence >= thresholdMedium:
		return "medium"
	case confidence >= thresholdLow:
		return "low"
	default:
		return "none"
	}
}

var (
	nonLetters     = regexp.MustCompile(`[^a-z]`)
	nameDeaccenter = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// foldName lowercases, strips accents and keeps letters only.
func foldName(name string) string {
	lowered := strings.ToLower(strings.TrimSpace(name))
	if folded, _, err := transform.String(nameDeaccenter, lowered); err == nil {
		lowered = folded
	}
	return nonLetters.ReplaceAllString(lowered, "")
}

func phoneDigits(phone string) string {
	return digitPattern.ReplaceAllString(phone, "")
}

var digitPattern = regexp.MustCompile(`[^0-9]`)

func sameBirthdate(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return normalizeBirthdate(a) == normalizeBirthdate(b)
}

// normalizeBirthdate tolerates the two storage shapes (ISO and
// DD/MM/YYYY) without pulling in the full date parser.
func normalizeBirthdate(value string) string {
	value = strings.TrimSpace(value)
	if len(value) == 10 && value[2] == '/' && value[5] == '/' {
		return value[6:] + "-" + value[3:5] + "-" + value[:2]
	}
	return value
}

func stringField(data map[string]any, key string) string {
	if s, ok := data[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}
