package catalog

import (
	"fmt"
	"regexp"
	"strings"
)

// fieldLabels holds the French display labels keyed by bare field name
// (after stripping section and index prefixes).
var fieldLabels = map[string]string{
	"civilite":                       "Civilité",
	"nom":                            "Nom",
	"nom_jeune_fille":                "Nom de jeune fille",
	"prenom":                         "Prénom",
	"nom_prenom":                     "Nom et prénom",
	"date_naissance":                 "Date de naissance",
	"lieu_naissance":                 "Lieu de naissance",
	"nationalite":                    "Nationalité",
	"situation_matrimoniale":         "Situation matrimoniale",
	"date_situation_matrimoniale":    "Date de situation matrimoniale",
	"situation_actuelle":             "Situation actuelle",
	"date_evenement_professionnel":   "Date d'événement professionnel",
	"profession":                     "Profession",
	"statut":                         "Statut",
	"chef_entreprise":                "Chef d'entreprise",
	"travailleur_independant":        "Travailleur indépendant",
	"mandataire_social":              "Mandataire social",
	"risques_professionnels":         "Risques professionnels",
	"details_risques_professionnels": "Détails des risques professionnels",
	"revenus_annuels":                "Revenus annuels",
	"adresse":                        "Adresse",
	"code_postal":                    "Code postal",
	"ville":                          "Ville",
	"residence_fiscale":              "Résidence fiscale",
	"telephone":                      "Téléphone",
	"email":                          "Email",
	"fumeur":                         "Fumeur",
	"activites_sportives":            "Activités sportives",
	"details_activites_sportives":    "Détails des activités sportives",
	"niveau_activites_sportives":     "Niveau d'activités sportives",
	"niveau_activite_sportive":       "Niveau d'activité sportive",
	"km_parcourus_annuels":           "Kilomètres parcourus annuels",
	"situation_professionnelle":      "Situation professionnelle",
	"situation_chomage":              "Situation chômage",
	"fiscalement_a_charge":           "Fiscalement à charge",
	"garde_alternee":                 "Garde alternée",
	"nombre_enfants":                 "Nombre d'enfants",

	"contrat_en_place":               "Contrat en place",
	"budget_mensuel_maximum":         "Budget mensuel maximum",
	"niveau_hospitalisation":         "Niveau hospitalisation",
	"niveau_chambre_particuliere":    "Niveau chambre particulière",
	"niveau_medecin_generaliste":     "Niveau médecin généraliste",
	"niveau_analyses_imagerie":       "Niveau analyses et imagerie",
	"niveau_auxiliaires_medicaux":    "Niveau auxiliaires médicaux",
	"niveau_pharmacie":               "Niveau pharmacie",
	"niveau_dentaire":                "Niveau dentaire",
	"niveau_optique":                 "Niveau optique",
	"niveau_protheses_auditives":     "Niveau prothèses auditives",
	"souhaite_medecine_douce":        "Souhaite médecine douce",
	"souhaite_cures_thermales":       "Souhaite cures thermales",
	"souhaite_autres_protheses":      "Souhaite autres prothèses",
	"souhaite_protection_juridique":  "Souhaite protection juridique",
	"souhaite_protection_juridique_conjoint": "Souhaite protection juridique conjoint",

	"date_effet":                    "Date d'effet",
	"cotisations":                   "Cotisations",
	"souhaite_couverture_invalidite": "Souhaite couverture invalidité",
	"revenu_a_garantir":             "Revenu à garantir",
	"capital_deces_souhaite":        "Capital décès souhaité",
	"garanties_obseques":            "Garanties obsèques",
	"rente_enfants":                 "Rente enfants",
	"rente_conjoint":                "Rente conjoint",
	"payeur":                        "Payeur",

	"impot_revenu":                  "Impôt sur le revenu",
	"nombre_parts_fiscales":         "Nombre de parts fiscales",
	"tmi":                           "TMI",
	"age_depart_retraite":           "Âge de départ à la retraite",
	"cotisations_annuelles":         "Cotisations annuelles",
	"titulaire":                     "Titulaire",
	"designation_etablissement":     "Désignation de l'établissement",

	"disponible":            "Épargne disponible",
	"montant_disponible":    "Montant d'épargne disponible",
	"capacite_estimee":      "Capacité d'épargne estimée",
	"estimation_patrimoine": "Estimation du patrimoine",
	"donation_realisee":     "Donation réalisée",
	"donation_forme":        "Forme de la donation",
	"donation_date":         "Date de la donation",
	"donation_montant":      "Montant de la donation",
	"situation_financiere":  "Situation financière",

	"nature":                "Nature",
	"details":               "Détails",
	"periodicite":           "Périodicité",
	"montant":               "Montant",
	"etablissement":         "Établissement",
	"detenteur":             "Détenteur",
	"date_ouverture":        "Date d'ouverture",
	"valeur":                "Valeur",
	"designation":           "Désignation",
	"forme_propriete":       "Forme de propriété",
	"valeur_actuelle":       "Valeur actuelle",
	"annee_acquisition":     "Année d'acquisition",
	"valeur_acquisition":    "Valeur d'acquisition",
	"preteur":               "Prêteur",
	"montant_remboursement": "Montant de remboursement",
	"capital_restant":       "Capital restant dû",
	"duree_restante":        "Durée restante",

	"score_global":   "Score global",
	"profil_calcule": "Profil calculé",
	"recommandation": "Recommandation",
}

var (
	indexedPrefixPattern = regexp.MustCompile(`^([a-z_]+?)(\d+)_(.+)$`)
	sectionPrefixPattern = regexp.MustCompile(`^(conjoint|sante|prevoyance|retraite|epargne|revenu|actif|bien_immo|bien|passif|autre_epargne|entreprise|risque)_(.+)$`)
)

// Label builds the French display label for a target key: the bare
// field label, with "(conjoint)" or "#N" suffixes where the key carries
// a section or slot.
func Label(key string) string {
	bare := key
	index := 0
	section := ""

	if m := indexedPrefixPattern.FindStringSubmatch(bare); m != nil {
		section = m[1]
		fmt.Sscanf(m[2], "%d", &index)
		bare = m[3]
	} else if m := sectionPrefixPattern.FindStringSubmatch(bare); m != nil {
		if _, isLabeled := fieldLabels[bare]; !isLabeled {
			section = m[1]
			bare = m[2]
		}
	}

	label, ok := fieldLabels[bare]
	if !ok {
		label = humanize(bare)
	}

	if section == "conjoint" {
		label += " (conjoint)"
	}
	if index > 0 {
		label = fmt.Sprintf("%s #%d", label, index)
	}
	return label
}

func humanize(field string) string {
	words := strings.Split(field, "_")
	if len(words) == 0 {
		return field
	}
	out := strings.Join(words, " ")
	if out == "" {
		return field
	}
	return strings.ToUpper(out[:1]) + out[1:]
}
