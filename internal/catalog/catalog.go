// Package catalog is the registry of every CRM field an import can
// target: the client record itself plus its related sections (conjoint,
// enfants, santé, prévoyance, retraite, épargne, revenus, actifs,
// biens immobiliers, passifs, autres épargnes, entreprise,
// questionnaire risque).
package catalog

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// FieldType classifies a target field for normalization purposes.
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeText    FieldType = "text"
	TypeDate    FieldType = "date"
	TypeBoolean FieldType = "boolean"
	TypeInteger FieldType = "integer"
	TypeDecimal FieldType = "decimal"
	TypeJSON    FieldType = "json"
	TypeEnum    FieldType = "enum"
)

// Kind discriminates the closed set of field key shapes.
type Kind int

const (
	// KindMain targets a column on the client record itself.
	KindMain Kind = iota
	// KindSingular targets a hasOne section (conjoint, sante_souhaits, ...).
	KindSingular
	// KindRepeatable targets one slot of a hasMany section (enfant, revenus, ...).
	KindRepeatable
)

// FieldKey is a parsed mapping target.
type FieldKey struct {
	Kind      Kind
	Table     string
	Column    string
	Index     int // 1-based, KindRepeatable only
	Composite bool
}

// FieldSpec describes one addressable target key.
type FieldSpec struct {
	Key       string
	Table     string
	Column    string
	Type      FieldType
	Index     int
	Composite bool
	Required  bool
}

// Table describes one CRM section reachable from an import.
type Table struct {
	Name     string
	Label    string
	Relation string // principal, hasOne, hasMany
	Multiple bool
	MaxItems int
	Prefix   string // contains {n} for repeatable tables
}

// FieldOption is a selectable target for mapping UIs.
type FieldOption struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Group string `json:"group"`
	Table string `json:"table"`
	Index int    `json:"index,omitempty"`
}

const (
	TableClient        = "client"
	TableConjoint      = "conjoint"
	TableEnfant        = "enfant"
	TableSante         = "sante_souhaits"
	TablePrevoyance    = "bae_prevoyance"
	TableRetraite      = "bae_retraite"
	TableEpargne       = "bae_epargne"
	TableRevenu        = "client_revenu"
	TableActif         = "client_actif_financier"
	TableBienImmo      = "client_bien_immobilier"
	TablePassif        = "client_passif"
	TableAutreEpargne  = "client_autre_epargne"
	TableEntreprise    = "entreprise"
	TableQuestionnaire = "questionnaire_risque"
)

var tables = []Table{
	{Name: TableClient, Label: "Client", Relation: "principal"},
	{Name: TableConjoint, Label: "Conjoint", Relation: "hasOne", Prefix: "conjoint_"},
	{Name: TableEnfant, Label: "Enfants", Relation: "hasMany", Multiple: true, MaxItems: 10, Prefix: "enfant{n}_"},
	{Name: TableSante, Label: "Santé / Mutuelle", Relation: "hasOne", Prefix: "sante_"},
	{Name: TablePrevoyance, Label: "Prévoyance", Relation: "hasOne", Prefix: "prevoyance_"},
	{Name: TableRetraite, Label: "Retraite", Relation: "hasOne", Prefix: "retraite_"},
	{Name: TableEpargne, Label: "Épargne", Relation: "hasOne", Prefix: "epargne_"},
	{Name: TableRevenu, Label: "Revenus", Relation: "hasMany", Multiple: true, MaxItems: 5, Prefix: "revenu{n}_"},
	{Name: TableActif, Label: "Actifs Financiers", Relation: "hasMany", Multiple: true, MaxItems: 10, Prefix: "actif{n}_"},
	{Name: TableBienImmo, Label: "Biens Immobiliers", Relation: "hasMany", Multiple: true, MaxItems: 10, Prefix: "bien_immo{n}_"},
	{Name: TablePassif, Label: "Passifs / Emprunts", Relation: "hasMany", Multiple: true, MaxItems: 10, Prefix: "passif{n}_"},
	{Name: TableAutreEpargne, Label: "Autres Épargnes", Relation: "hasMany", Multiple: true, MaxItems: 5, Prefix: "autre_epargne{n}_"},
	{Name: TableEntreprise, Label: "Entreprise", Relation: "hasOne", Prefix: "entreprise_"},
	{Name: TableQuestionnaire, Label: "Questionnaire Risque", Relation: "hasOne", Prefix: "risque_"},
}

// ClientFields lists the directly mappable client columns, in catalog order.
var ClientFields = []FieldSpec{
	{Key: "civilite", Type: TypeEnum},
	{Key: "nom", Type: TypeString, Required: true},
	{Key: "nom_jeune_fille", Type: TypeString},
	{Key: "prenom", Type: TypeString, Required: true},
	{Key: "date_naissance", Type: TypeDate},
	{Key: "lieu_naissance", Type: TypeString},
	{Key: "nationalite", Type: TypeString},
	{Key: "situation_matrimoniale", Type: TypeString},
	{Key: "date_situation_matrimoniale", Type: TypeDate},
	{Key: "situation_actuelle", Type: TypeString},
	{Key: "date_evenement_professionnel", Type: TypeDate},
	{Key: "profession", Type: TypeString},
	{Key: "statut", Type: TypeString},
	{Key: "chef_entreprise", Type: TypeBoolean},
	{Key: "travailleur_independant", Type: TypeBoolean},
	{Key: "mandataire_social", Type: TypeBoolean},
	{Key: "risques_professionnels", Type: TypeBoolean},
	{Key: "details_risques_professionnels", Type: TypeText},
	{Key: "revenus_annuels", Type: TypeDecimal},
	{Key: "adresse", Type: TypeString},
	{Key: "code_postal", Type: TypeString},
	{Key: "ville", Type: TypeString},
	{Key: "residence_fiscale", Type: TypeString},
	{Key: "telephone", Type: TypeString},
	{Key: "email", Type: TypeString},
	{Key: "fumeur", Type: TypeBoolean},
	{Key: "activites_sportives", Type: TypeBoolean},
	{Key: "details_activites_sportives", Type: TypeText},
	{Key: "niveau_activites_sportives", Type: TypeString},
	{Key: "km_parcourus_annuels", Type: TypeInteger},
}

// spec is shorthand for the section tables below.
type spec struct {
	key    string
	column string
	typ    FieldType
}

var conjointFields = []spec{
	{"conjoint_nom", "nom", TypeString},
	{"conjoint_nom_jeune_fille", "nom_jeune_fille", TypeString},
	{"conjoint_prenom", "prenom", TypeString},
	{"conjoint_date_naissance", "datedenaissance", TypeDate},
	{"conjoint_lieu_naissance", "lieudenaissance", TypeString},
	{"conjoint_nationalite", "nationalite", TypeString},
	{"conjoint_telephone", "telephone", TypeString},
	{"conjoint_email", "email", TypeString},
	{"conjoint_adresse", "adresse", TypeString},
	{"conjoint_code_postal", "code_postal", TypeString},
	{"conjoint_ville", "ville", TypeString},
	{"conjoint_profession", "profession", TypeString},
	{"conjoint_situation_professionnelle", "situation_professionnelle", TypeString},
	{"conjoint_situation_chomage", "situation_chomage", TypeString},
	{"conjoint_statut", "statut", TypeString},
	{"conjoint_chef_entreprise", "chef_entreprise", TypeBoolean},
	{"conjoint_travailleur_independant", "travailleur_independant", TypeBoolean},
	{"conjoint_mandataire_social", "mandataire_social", TypeBoolean},
	{"conjoint_situation_actuelle", "situation_actuelle_statut", TypeString},
	{"conjoint_date_evenement_professionnel", "date_evenement_professionnel", TypeDate},
	{"conjoint_risques_professionnels", "risques_professionnels", TypeBoolean},
	{"conjoint_details_risques_professionnels", "details_risques_professionnels", TypeText},
	{"conjoint_revenus_annuels", "revenus_annuels", TypeDecimal},
	{"conjoint_fumeur", "fumeur", TypeBoolean},
	{"conjoint_activites_sportives", "activites_sportives", TypeBoolean},
	{"conjoint_niveau_activite_sportive", "niveau_activite_sportive", TypeString},
	{"conjoint_details_activites_sportives", "details_activites_sportives", TypeText},
	{"conjoint_km_parcourus_annuels", "km_parcourus_annuels", TypeInteger},
}

// enfantColumns maps the per-child column suffixes. nom_prenom is a
// composite column split into nom/prenom during normalization.
var enfantColumns = []spec{
	{"nom", "nom", TypeString},
	{"prenom", "prenom", TypeString},
	{"nom_prenom", "nom_prenom", TypeString},
	{"date_naissance", "datedenaissance", TypeDate},
	{"fiscalement_a_charge", "fiscalement_a_charge", TypeBoolean},
	{"garde_alternee", "garde_alternee", TypeBoolean},
}

var santeFields = []spec{
	{"sante_contrat_en_place", "contrat_en_place", TypeString},
	{"sante_budget_mensuel_maximum", "budget_mensuel_maximum", TypeDecimal},
	{"sante_niveau_hospitalisation", "niveau_hospitalisation", TypeInteger},
	{"sante_niveau_chambre_particuliere", "niveau_chambre_particuliere", TypeInteger},
	{"sante_niveau_medecin_generaliste", "niveau_medecin_generaliste", TypeInteger},
	{"sante_niveau_analyses_imagerie", "niveau_analyses_imagerie", TypeInteger},
	{"sante_niveau_auxiliaires_medicaux", "niveau_auxiliaires_medicaux", TypeInteger},
	{"sante_niveau_pharmacie", "niveau_pharmacie", TypeInteger},
	{"sante_niveau_dentaire", "niveau_dentaire", TypeInteger},
	{"sante_niveau_optique", "niveau_optique", TypeInteger},
	{"sante_niveau_protheses_auditives", "niveau_protheses_auditives", TypeInteger},
	{"sante_souhaite_medecine_douce", "souhaite_medecine_douce", TypeBoolean},
	{"sante_souhaite_cures_thermales", "souhaite_cures_thermales", TypeBoolean},
	{"sante_souhaite_autres_protheses", "souhaite_autres_protheses", TypeBoolean},
	{"sante_souhaite_protection_juridique", "souhaite_protection_juridique", TypeBoolean},
	{"sante_souhaite_protection_juridique_conjoint", "souhaite_protection_juridique_conjoint", TypeBoolean},
}

var prevoyanceFields = []spec{
	{"prevoyance_contrat_en_place", "contrat_en_place", TypeString},
	{"prevoyance_date_effet", "date_effet", TypeDate},
	{"prevoyance_cotisations", "cotisations", TypeDecimal},
	{"prevoyance_souhaite_couverture_invalidite", "souhaite_couverture_invalidite", TypeBoolean},
	{"prevoyance_revenu_a_garantir", "revenu_a_garantir", TypeDecimal},
	{"prevoyance_souhaite_couvrir_charges_professionnelles", "souhaite_couvrir_charges_professionnelles", TypeBoolean},
	{"prevoyance_montant_annuel_charges_professionnelles", "montant_annuel_charges_professionnelles", TypeDecimal},
	{"prevoyance_garantir_totalite_charges_professionnelles", "garantir_totalite_charges_professionnelles", TypeBoolean},
	{"prevoyance_montant_charges_professionnelles_a_garantir", "montant_charges_professionnelles_a_garantir", TypeDecimal},
	{"prevoyance_duree_indemnisation_souhaitee", "duree_indemnisation_souhaitee", TypeString},
	{"prevoyance_capital_deces_souhaite", "capital_deces_souhaite", TypeDecimal},
	{"prevoyance_garanties_obseques", "garanties_obseques", TypeDecimal},
	{"prevoyance_rente_enfants", "rente_enfants", TypeDecimal},
	{"prevoyance_rente_conjoint", "rente_conjoint", TypeDecimal},
	{"prevoyance_payeur", "payeur", TypeString},
}

var retraiteFields = []spec{
	{"retraite_revenus_annuels", "revenus_annuels", TypeDecimal},
	{"retraite_revenus_annuels_foyer", "revenus_annuels_foyer", TypeDecimal},
	{"retraite_impot_revenu", "impot_revenu", TypeDecimal},
	{"retraite_nombre_parts_fiscales", "nombre_parts_fiscales", TypeDecimal},
	{"retraite_tmi", "tmi", TypeString},
	{"retraite_impot_paye_n_1", "impot_paye_n_1", TypeDecimal},
	{"retraite_age_depart_retraite", "age_depart_retraite", TypeInteger},
	{"retraite_age_depart_retraite_conjoint", "age_depart_retraite_conjoint", TypeInteger},
	{"retraite_pourcentage_revenu_a_maintenir", "pourcentage_revenu_a_maintenir", TypeDecimal},
	{"retraite_contrat_en_place", "contrat_en_place", TypeString},
	{"retraite_bilan_retraite_disponible", "bilan_retraite_disponible", TypeBoolean},
	{"retraite_complementaire_mise_en_place", "complementaire_retraite_mise_en_place", TypeBoolean},
	{"retraite_designation_etablissement", "designation_etablissement", TypeString},
	{"retraite_cotisations_annuelles", "cotisations_annuelles", TypeDecimal},
	{"retraite_titulaire", "titulaire", TypeString},
}

var epargneFields = []spec{
	{"epargne_disponible", "epargne_disponible", TypeBoolean},
	{"epargne_montant_disponible", "montant_epargne_disponible", TypeDecimal},
	{"epargne_donation_realisee", "donation_realisee", TypeBoolean},
	{"epargne_donation_forme", "donation_forme", TypeString},
	{"epargne_donation_date", "donation_date", TypeDate},
	{"epargne_donation_montant", "donation_montant", TypeDecimal},
	{"epargne_donation_beneficiaires", "donation_beneficiaires", TypeString},
	{"epargne_capacite_estimee", "capacite_epargne_estimee", TypeDecimal},
	{"epargne_estimation_patrimoine", "actifs_financiers_total", TypeDecimal},
	{"epargne_actifs_financiers_pourcentage", "actifs_financiers_pourcentage", TypeDecimal},
	{"epargne_actifs_financiers_total", "actifs_financiers_total", TypeDecimal},
	{"epargne_actifs_financiers_details", "actifs_financiers_details", TypeJSON},
	{"epargne_actifs_immo_pourcentage", "actifs_immo_pourcentage", TypeDecimal},
	{"epargne_actifs_immo_total", "actifs_immo_total", TypeDecimal},
	{"epargne_actifs_immo_details", "actifs_immo_details", TypeJSON},
	{"epargne_actifs_autres_pourcentage", "actifs_autres_pourcentage", TypeDecimal},
	{"epargne_actifs_autres_total", "actifs_autres_total", TypeDecimal},
	{"epargne_actifs_autres_details", "actifs_autres_details", TypeJSON},
	{"epargne_passifs_total_emprunts", "passifs_total_emprunts", TypeDecimal},
	{"epargne_passifs_details", "passifs_details", TypeJSON},
	{"epargne_charges_totales", "charges_totales", TypeDecimal},
	{"epargne_charges_details", "charges_details", TypeJSON},
	{"epargne_situation_financiere", "situation_financiere_revenus_charges", TypeText},
}

var revenuFields = []spec{
	{"revenu_nature", "nature", TypeString},
	{"revenu_details", "details", TypeString},
	{"revenu_periodicite", "periodicite", TypeString},
	{"revenu_montant", "montant", TypeDecimal},
}

var actifFields = []spec{
	{"actif_nature", "nature", TypeString},
	{"actif_etablissement", "etablissement", TypeString},
	{"actif_detenteur", "detenteur", TypeString},
	{"actif_date_ouverture", "date_ouverture_souscription", TypeDate},
	{"actif_valeur", "valeur_actuelle", TypeDecimal},
}

var bienImmoFields = []spec{
	{"bien_designation", "designation", TypeString},
	{"bien_detenteur", "detenteur", TypeString},
	{"bien_forme_propriete", "forme_propriete", TypeString},
	{"bien_valeur_actuelle", "valeur_actuelle_estimee", TypeDecimal},
	{"bien_annee_acquisition", "annee_acquisition", TypeInteger},
	{"bien_valeur_acquisition", "valeur_acquisition", TypeDecimal},
}

var passifFields = []spec{
	{"passif_nature", "nature", TypeString},
	{"passif_preteur", "preteur", TypeString},
	{"passif_periodicite", "periodicite", TypeString},
	{"passif_montant_remboursement", "montant_remboursement", TypeDecimal},
	{"passif_capital_restant", "capital_restant_du", TypeDecimal},
	{"passif_duree_restante", "duree_restante", TypeInteger},
}

var autreEpargneFields = []spec{
	{"autre_epargne_designation", "designation", TypeString},
	{"autre_epargne_detenteur", "detenteur", TypeString},
	{"autre_epargne_valeur", "valeur", TypeDecimal},
}

var entrepriseFields = []spec{
	{"entreprise_chef_entreprise", "chef_entreprise", TypeBoolean},
	{"entreprise_statut", "statut", TypeString},
	{"entreprise_travailleur_independant", "travailleur_independant", TypeBoolean},
	{"entreprise_mandataire_social", "mandataire_social", TypeBoolean},
}

var risqueFields = []spec{
	{"risque_score_global", "score_global", TypeInteger},
	{"risque_profil_calcule", "profil_calcule", TypeString},
	{"risque_recommandation", "recommandation", TypeText},
}

const maxEnfants = 10

// specIndex is the flat target key space, built once at init.
var specIndex = buildSpecIndex()

func buildSpecIndex() map[string]FieldSpec {
	index := make(map[string]FieldSpec, 256)

	for _, field := range ClientFields {
		field.Table = TableClient
		field.Column = field.Key
		index[field.Key] = field
	}

	addSection := func(table string, fields []spec) {
		for _, f := range fields {
			index[f.key] = FieldSpec{Key: f.key, Table: table, Column: f.column, Type: f.typ}
		}
	}
	addSection(TableConjoint, conjointFields)
	addSection(TableSante, santeFields)
	addSection(TablePrevoyance, prevoyanceFields)
	addSection(TableRetraite, retraiteFields)
	addSection(TableEpargne, epargneFields)
	addSection(TableRevenu, revenuFields)
	addSection(TableActif, actifFields)
	addSection(TableBienImmo, bienImmoFields)
	addSection(TablePassif, passifFields)
	addSection(TableAutreEpargne, autreEpargneFields)
	addSection(TableEntreprise, entrepriseFields)
	addSection(TableQuestionnaire, risqueFields)

	for i := 1; i <= maxEnfants; i++ {
		for _, col := range enfantColumns {
			key := fmt.Sprintf("enfant%d_%s", i, col.key)
			index[key] = FieldSpec{
				Key:       key,
				Table:     TableEnfant,
				Column:    col.column,
				Type:      col.typ,
				Index:     i,
				Composite: col.key == "nom_prenom",
			}
		}
	}

	// Household child count rides along with the enfant section but is
	// stored on the client record.
	index["nombre_enfants"] = FieldSpec{Key: "nombre_enfants", Table: TableEnfant, Column: "_meta", Type: TypeInteger}

	return index
}

// Lookup resolves a flat target key to its spec.
func Lookup(key string) (FieldSpec, bool) {
	s, ok := specIndex[key]
	return s, ok
}

// columnTypes indexes table/column pairs, built lazily off specIndex.
var columnTypes = buildColumnTypes()

func buildColumnTypes() map[string]FieldType {
	index := make(map[string]FieldType, len(specIndex))
	for _, s := range specIndex {
		index[s.Table+"."+s.Column] = s.Type
	}
	return index
}

// ColumnType reports the value type of a section column.
func ColumnType(table, column string) (FieldType, bool) {
	t, ok := columnTypes[table+"."+column]
	return t, ok
}

// TargetKeys returns every addressable flat key, client fields first.
func TargetKeys() []string {
	keys := make([]string, 0, len(specIndex))
	for _, field := range ClientFields {
		keys = append(keys, field.Key)
	}
	orderedSections := [][]spec{
		conjointFields, santeFields, prevoyanceFields, retraiteFields,
		epargneFields, revenuFields, actifFields, bienImmoFields,
		passifFields, autreEpargneFields, entrepriseFields, risqueFields,
	}
	for _, section := range orderedSections {
		for _, f := range section {
			keys = append(keys, f.key)
		}
	}
	for i := 1; i <= maxEnfants; i++ {
		for _, col := range enfantColumns {
			keys = append(keys, fmt.Sprintf("enfant%d_%s", i, col.key))
		}
	}
	keys = append(keys, "nombre_enfants")
	return keys
}

var repeatablePattern = regexp.MustCompile(`^([a-z_]+?)(\d+)_(.+)$`)

// repeatableBases maps the indexed prefix base to its table.
var repeatableBases = map[string]string{
	"enfant":        TableEnfant,
	"revenu":        TableRevenu,
	"actif":         TableActif,
	"bien_immo":     TableBienImmo,
	"passif":        TablePassif,
	"autre_epargne": TableAutreEpargne,
}

// ParseKey resolves a mapping target key into its table, column, and
// slot. Unknown keys return ok=false.
func ParseKey(key string) (FieldKey, bool) {
	key = strings.TrimSpace(key)
	if key == "" {
		return FieldKey{}, false
	}

	if s, ok := specIndex[key]; ok {
		fk := FieldKey{Table: s.Table, Column: s.Column, Composite: s.Composite}
		switch {
		case s.Table == TableClient:
			fk.Kind = KindMain
		case s.Index > 0:
			fk.Kind = KindRepeatable
			fk.Index = s.Index
		default:
			fk.Kind = KindSingular
		}
		return fk, true
	}

	// Indexed keys beyond the flat table, e.g. revenu3_montant.
	if m := repeatablePattern.FindStringSubmatch(key); m != nil {
		table, ok := repeatableBases[m[1]]
		if !ok {
			return FieldKey{}, false
		}
		index, err := strconv.Atoi(m[2])
		if err != nil || index < 1 || index > maxItems(table) {
			return FieldKey{}, false
		}
		column := m[3]
		composite := false
		if table == TableEnfant {
			found := false
			for _, col := range enfantColumns {
				if col.key == column {
					column = col.column
					composite = col.key == "nom_prenom"
					found = true
					break
				}
			}
			if !found {
				return FieldKey{}, false
			}
		}
		return FieldKey{Kind: KindRepeatable, Table: table, Column: column, Index: index, Composite: composite}, true
	}

	return FieldKey{}, false
}

func maxItems(table string) int {
	for _, t := range tables {
		if t.Name == table {
			if t.MaxItems > 0 {
				return t.MaxItems
			}
			return 1
		}
	}
	return 0
}

// Tables returns the section registry in catalog order.
func Tables() []Table {
	out := make([]Table, len(tables))
	copy(out, tables)
	return out
}

// TableConfig returns the section definition by name.
func TableConfig(name string) (Table, bool) {
	for _, t := range tables {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}

// Fields returns the full selectable list with French labels, grouped
// the way a mapping UI presents it.
func Fields() []FieldOption {
	options := make([]FieldOption, 0, len(specIndex))
	for _, key := range TargetKeys() {
		s := specIndex[key]
		group := TableClient
		for _, t := range tables {
			if t.Name == s.Table {
				group = t.Label
				break
			}
		}
		options = append(options, FieldOption{
			Key:   key,
			Label: Label(key),
			Group: group,
			Table: s.Table,
			Index: s.Index,
		})
	}
	return options
}
