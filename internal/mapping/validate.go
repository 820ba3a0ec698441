package mapping

import (
	"fmt"

	"github.com/rpattn/crmimport/internal/catalog"
	"github.com/rpattn/crmimport/internal/domain"
)

// ValidateMappings rejects mappings pointing at unknown target fields.
// Empty targets mean "ignore this column" and are allowed.
func ValidateMappings(columnMappings []domain.ColumnMapping) []string {
	var errs []string
	for _, cm := range columnMappings {
		if cm.TargetField == "" {
			continue
		}
		if _, ok := catalog.ParseKey(cm.TargetField); !ok {
			errs = append(errs, fmt.Sprintf(
				"Champ cible invalide: %s pour la colonne %s", cm.TargetField, cm.SourceColumn))
		}
	}
	return errs
}
