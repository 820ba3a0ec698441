package mapping

import (
	"fmt"

	"github.com/rpattn/crmimport/internal/catalog"
	"github.com/rpattn/crmimport/internal/domain"
)

// Section bucket keys produced by Apply for non-client tables. Related
// hasMany tables hold []map[string]any slots, hasOne tables hold a
// single map.
const (
	KeyConjoint      = "conjoint"
	KeyEnfants       = "enfants"
	KeyNombreEnfants = "_nombre_enfants"
)

// Apply routes one raw row through the column mappings into the nested
// structure the normalizer and the writer consume: flat client fields
// at the top level, related sections in their buckets.
func Apply(rawData map[string]string, columnMappings []domain.ColumnMapping) map[string]any {
	mapped := make(map[string]any)

	for _, cm := range columnMappings {
		if cm.TargetField == "" {
			continue
		}
		value, ok := rawData[cm.SourceColumn]
		if !ok {
			continue
		}

		key, ok := catalog.ParseKey(cm.TargetField)
		if !ok {
			continue
		}

		switch {
		case key.Column == "_meta":
			mapped[KeyNombreEnfants] = value

		case key.Table == catalog.TableClient:
			mapped[key.Column] = value

		case key.Table == catalog.TableConjoint:
			sectionMap(mapped, KeyConjoint)[key.Column] = value

		case key.Table == catalog.TableEnfant:
			sectionSlot(mapped, KeyEnfants, key.Index)[key.Column] = value

		case key.Kind == catalog.KindRepeatable:
			index := key.Index
			if index < 1 {
				index = 1
			}
			sectionSlot(mapped, bucketKey(key.Table), index)[key.Column] = value

		default:
			table, _ := catalog.TableConfig(key.Table)
			if table.Multiple {
				sectionSlot(mapped, bucketKey(key.Table), 1)[key.Column] = value
			} else {
				sectionMap(mapped, bucketKey(key.Table))[key.Column] = value
			}
		}
	}

	return mapped
}

func bucketKey(table string) string {
	return fmt.Sprintf("_%s", table)
}

func sectionMap(mapped map[string]any, key string) map[string]any {
	if section, ok := mapped[key].(map[string]any); ok {
		return section
	}
	section := make(map[string]any)
	mapped[key] = section
	return section
}

// sectionSlot returns the 1-based slot of a repeatable section, growing
// the slice as needed.
func sectionSlot(mapped map[string]any, key string, index int) map[string]any {
	slots, _ := mapped[key].([]map[string]any)
	for len(slots) < index {
		slots = append(slots, make(map[string]any))
	}
	mapped[key] = slots
	return slots[index-1]
}
