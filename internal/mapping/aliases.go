package mapping

// fieldAliases lists the known source-column spellings per target key,
// most common first. Position matters: earlier aliases score slightly
// higher on an exact alias hit.
var fieldAliases = map[string][]string{
	// client - identity
	"civilite": {
		"civilite", "civilité", "title", "titre", "genre", "sexe",
		"monsieur/madame", "mr/mme", "monsieur madame", "civ",
	},
	"nom": {
		"nom", "name", "last_name", "lastname", "nom de famille",
		"family_name", "surname", "nom_client", "nom client", "patronyme",
	},
	"nom_jeune_fille": {
		"nom_jeune_fille", "nom jeune fille", "maiden_name", "nom de naissance",
		"nom naissance", "birth_name", "nom marital",
	},
	"prenom": {
		"prenom", "prénom", "first_name", "firstname", "given_name",
		"prenom_client", "prénom client", "prenom1", "forename",
	},
	"date_naissance": {
		"date_naissance", "date de naissance", "birth_date", "birthdate",
		"dob", "né le", "naissance", "dn", "anniversaire", "birthday", "ne le", "nee le",
	},
	"lieu_naissance": {
		"lieu_naissance", "lieu de naissance", "birthplace", "né à",
		"ville naissance", "birth_city", "lieu naissance", "ne a",
	},
	"nationalite": {
		"nationalite", "nationalité", "nationality", "nation", "pays origine",
		"citizenship", "citoyennete",
	},

	// client - family
	"situation_matrimoniale": {
		"situation_matrimoniale", "situation matrimoniale", "marital_status",
		"état civil", "etat civil", "statut marital", "sit_fam",
		"situation_familiale", "situation familiale", "regime matrimonial",
	},
	"date_situation_matrimoniale": {
		"date_situation_matrimoniale", "date mariage", "date pacs",
		"date_mariage", "date union", "date regime", "marie depuis",
	},

	// client - professional
	"situation_actuelle": {
		"situation_actuelle", "situation actuelle", "status", "statut pro",
		"situation professionnelle", "actif", "retraite", "retraité",
		"situation professionnelle actuelle", "statut professionnel",
		"emploi actuel", "activite actuelle", "en activite",
	},
	"date_evenement_professionnel": {
		"date_evenement_professionnel", "date debut activite", "date_embauche",
		"date_debut", "situation professionnelle actuelle depuis le",
		"date entree", "debut activite", "depuis le",
	},
	"profession": {
		"profession", "job", "métier", "metier", "occupation", "emploi",
		"travail", "activite", "poste", "fonction", "role", "job_title",
		"intitule poste", "activite professionnelle",
	},
	"statut": {
		"statut", "statut_pro", "type_contrat", "salarie", "tns",
		"fonctionnaire", "type emploi", "contrat", "regime social", "csp",
	},
	"chef_entreprise": {
		"chef_entreprise", "chef entreprise", "entrepreneur", "dirigeant",
		"ceo", "gérant", "gerant", "chef dentreprise", "patron", "president",
	},
	"travailleur_independant": {
		"travailleur_independant", "independant", "freelance", "auto_entrepreneur",
		"tns", "etes vous travailleur independant", "liberal", "profession liberale",
	},
	"mandataire_social": {
		"mandataire_social", "mandataire", "etes vous mandataire social",
		"directeur general", "dg", "representant legal",
	},
	"risques_professionnels": {
		"risques_professionnels", "risques pro", "metier a risque",
		"la profession presente t elle des risques particuliers",
		"risque professionnel", "travail dangereux",
	},
	"details_risques_professionnels": {
		"details_risques_professionnels", "details risques", "precision risques",
		"si oui lesquels", "type risques", "nature risques",
	},
	"revenus_annuels": {
		"revenus_annuels", "revenus", "income", "salaire", "revenue",
		"revenu annuel", "salaire_annuel", "raa", "revenu", "salaire annuel",
		"rémunération", "remuneration", "revenu brut", "revenu net",
	},

	// client - contact
	"adresse": {
		"adresse", "address", "rue", "street", "domicile", "adresse1",
		"adresse_postale", "adresse postale", "adresse complete", "voie",
	},
	"code_postal": {
		"code_postal", "code postal", "cp", "postal_code", "zip", "zipcode",
	},
	"ville": {
		"ville", "city", "commune", "localité", "localite", "town",
	},
	"residence_fiscale": {
		"residence_fiscale", "résidence fiscale", "fiscal_residence",
		"pays residence", "domicile fiscal",
	},
	"telephone": {
		"telephone", "téléphone", "tel", "phone", "mobile", "portable",
		"numero tel", "tel_mobile", "tel_fixe", "gsm", "numero telephone",
	},
	"email": {
		"email", "e-mail", "mail", "adresse email", "courriel", "adresse mail",
	},

	// client - health / lifestyle
	"fumeur": {
		"fumeur", "smoker", "tabac", "fume", "tabagisme", "etes vous fumeur",
		"consommation tabac", "cigarette", "non fumeur",
	},
	"activites_sportives": {
		"activites_sportives", "sport", "activite sportive", "pratique_sport",
		"faites vous des activites sportives", "sports", "sportif",
	},
	"niveau_activites_sportives": {
		"niveau_activites_sportives", "niveau sport", "frequence sport",
		"si oui a quel niveau", "intensite sport", "competition", "amateur",
	},
	"details_activites_sportives": {
		"details_activites_sportives", "sports pratiques", "type sport",
		"si oui quelles activites sportives", "quels sports",
	},
	"km_parcourus_annuels": {
		"km_parcourus_annuels", "km parcourus", "kilometres annuels",
		"combien de km faites vous par an", "km par an", "kilometrage annuel",
		"distance annuelle", "km annuel",
	},

	// conjoint
	"conjoint_nom": {
		"nom conjoint", "conjoint nom", "spouse_name", "nom epoux",
		"nom épouse", "nom du conjoint", "partenaire nom",
	},
	"conjoint_nom_jeune_fille": {
		"nom jeune fille conjoint", "maiden name spouse", "nom naissance conjoint",
	},
	"conjoint_prenom": {
		"prenom conjoint", "prénom conjoint", "conjoint prenom",
		"spouse_firstname", "prenom du conjoint", "partenaire prenom",
	},
	"conjoint_date_naissance": {
		"date naissance conjoint", "date de naissance conjoint",
		"conjoint date naissance", "spouse_birthdate", "dn conjoint",
	},
	"conjoint_lieu_naissance": {
		"lieu de naissance conjoint", "lieu naissance conjoint",
	},
	"conjoint_nationalite": {
		"conjoint nationalité", "nationalite conjoint",
	},
	"conjoint_telephone": {
		"conjoint telephone", "telephone conjoint", "tel conjoint", "mobile conjoint",
	},
	"conjoint_email": {
		"conjoint email", "email conjoint", "mail conjoint",
	},
	"conjoint_profession": {
		"profession conjoint", "conjoint profession", "metier conjoint",
	},
	"conjoint_situation_actuelle": {
		"situation professionnelle actuelle conjoint", "conjoint situation",
		"statut conjoint", "situation professionnelle conjoint",
	},
	"conjoint_fumeur": {
		"votre conjoint est fumeur", "conjoint fumeur", "fumeur conjoint",
	},
	"conjoint_km_parcourus_annuels": {
		"km conjoint", "kilometres conjoint", "km parcourus conjoint",
		"combien de km faites vous par an votre conjoint",
	},
	"conjoint_situation_professionnelle": {
		"situation professionnelle conjoint", "conjoint situation professionnelle",
		"emploi conjoint", "travail conjoint",
	},
	"conjoint_situation_chomage": {
		"situation chomage conjoint", "conjoint chomage", "chomage conjoint",
		"conjoint au chomage",
	},
	"conjoint_statut": {
		"statut conjoint", "conjoint statut", "statut professionnel conjoint",
		"csp conjoint", "categorie socio professionnelle conjoint",
	},
	"conjoint_travailleur_independant": {
		"conjoint travailleur independant", "travailleur independant conjoint",
		"conjoint tns", "tns conjoint", "conjoint independant",
	},
	"conjoint_adresse": {
		"adresse conjoint", "conjoint adresse", "domicile conjoint",
	},
	"conjoint_code_postal": {
		"code postal conjoint", "conjoint code postal", "cp conjoint",
	},
	"conjoint_ville": {
		"ville conjoint", "conjoint ville", "commune conjoint",
	},
	"conjoint_activites_sportives": {
		"activites sportives conjoint", "conjoint sport", "sport conjoint",
		"conjoint fait du sport",
	},
	"conjoint_niveau_activite_sportive": {
		"niveau sport conjoint", "conjoint niveau sport", "intensite sport conjoint",
	},
	"conjoint_details_activites_sportives": {
		"sports pratiques conjoint", "conjoint quels sports", "type sport conjoint",
	},
	"conjoint_risques_professionnels": {
		"risques professionnels conjoint", "conjoint risques pro",
		"metier a risque conjoint",
	},
	"conjoint_details_risques_professionnels": {
		"details risques conjoint", "precision risques conjoint",
	},
	"conjoint_date_evenement_professionnel": {
		"date evenement professionnel conjoint", "date embauche conjoint",
		"conjoint depuis le",
	},
	"conjoint_chef_entreprise": {
		"conjoint chef entreprise", "chef entreprise conjoint",
		"conjoint dirigeant", "conjoint gerant",
	},

	// enfants
	"enfant1_nom_prenom": {
		"nom prenom enfant 1", "nom prénom enfant 1", "enfant 1",
		"enfant1", "child 1", "premier enfant", "1er enfant",
	},
	"enfant1_date_naissance": {
		"date de naissance enfant 1", "date naissance enfant 1", "dn enfant 1",
	},
	"enfant2_nom_prenom": {
		"nom prenom enfant 2", "nom prénom enfant 2", "enfant 2",
		"enfant2", "child 2", "deuxieme enfant", "2eme enfant",
	},
	"enfant2_date_naissance": {
		"date de naissance enfant 2", "date naissance enfant 2", "dn enfant 2",
	},
	"enfant3_nom_prenom": {
		"nom prenom enfant 3", "nom prénom enfant 3", "enfant 3",
		"enfant3", "child 3", "troisieme enfant", "3eme enfant",
	},
	"enfant3_date_naissance": {
		"date de naissance enfant 3", "date naissance enfant 3", "dn enfant 3",
	},
	"enfant4_nom_prenom": {
		"nom prenom enfant 4", "nom prénom enfant 4", "enfant 4",
		"enfant4", "child 4", "quatrieme enfant", "4eme enfant",
	},
	"enfant4_date_naissance": {
		"date de naissance enfant 4", "date naissance enfant 4", "dn enfant 4",
	},
	"nombre_enfants": {
		"nombre enfant", "nombre denfant a charge", "nb enfants",
		"enfants", "nombre_enfants", "nb_enfants", "nbre enfants",
		"combien enfants", "enfants a charge",
	},

	// sante / mutuelle
	"sante_contrat_en_place": {
		"sante contrat en place", "mutuelle en place", "contrat sante",
		"mutuelle actuelle", "complementaire sante", "assurance sante",
	},
	"sante_budget_mensuel_maximum": {
		"sante budget mensuel", "budget mutuelle", "budget sante",
		"budget mensuel maximum sante", "cotisation mutuelle souhaitee",
	},
	"sante_niveau_hospitalisation": {
		"niveau hospitalisation", "hospitalisation", "couverture hospitalisation",
	},
	"sante_niveau_chambre_particuliere": {
		"niveau chambre particuliere", "chambre particuliere", "chambre individuelle",
	},
	"sante_niveau_medecin_generaliste": {
		"niveau medecin generaliste", "medecin generaliste", "consultation generaliste",
	},
	"sante_niveau_analyses_imagerie": {
		"niveau analyses imagerie", "analyses", "imagerie", "radiologie",
	},
	"sante_niveau_auxiliaires_medicaux": {
		"niveau auxiliaires medicaux", "auxiliaires medicaux", "kine", "osteo",
	},
	"sante_niveau_pharmacie": {
		"niveau pharmacie", "pharmacie", "medicaments",
	},
	"sante_niveau_dentaire": {
		"niveau dentaire", "dentaire", "soins dentaires", "dentiste",
	},
	"sante_niveau_optique": {
		"niveau optique", "optique", "lunettes", "ophtalmologie",
	},
	"sante_niveau_protheses_auditives": {
		"niveau protheses auditives", "protheses auditives", "audioprothese",
	},

	// prevoyance
	"prevoyance_contrat_en_place": {
		"prevoyance contrat en place", "contrat prevoyance", "prevoyance actuelle",
		"assurance prevoyance", "couverture prevoyance",
	},
	"prevoyance_date_effet": {
		"prevoyance date effet", "date effet prevoyance", "debut contrat prevoyance",
	},
	"prevoyance_cotisations": {
		"prevoyance cotisations", "cotisations prevoyance", "prime prevoyance",
	},
	"prevoyance_souhaite_couverture_invalidite": {
		"souhaite couverture invalidite", "couverture invalidite", "invalidite",
		"garantie invalidite", "incapacite", "arret travail",
	},
	"prevoyance_revenu_a_garantir": {
		"revenu a garantir", "revenu garanti", "indemnites journalieres",
		"ij", "maintien salaire",
	},
	"prevoyance_souhaite_couvrir_charges_professionnelles": {
		"couvrir charges professionnelles", "charges professionnelles",
		"frais professionnels", "garantie charges pro",
	},
	"prevoyance_montant_annuel_charges_professionnelles": {
		"montant annuel charges professionnelles", "charges pro annuelles",
		"frais pro annuels",
	},
	"prevoyance_capital_deces_souhaite": {
		"capital deces souhaite", "capital deces", "garantie deces",
		"assurance deces", "capital en cas de deces",
	},
	"prevoyance_garanties_obseques": {
		"garanties obseques", "obseques", "assurance obseques", "capital obseques",
	},
	"prevoyance_rente_enfants": {
		"rente enfants", "rente education", "rente orphelin",
	},
	"prevoyance_rente_conjoint": {
		"rente conjoint", "rente veuvage", "pension conjoint survivant",
	},

	// retraite
	"retraite_revenus_annuels": {
		"retraite revenus annuels", "revenus annuels retraite",
		"revenus actuels pour retraite",
	},
	"retraite_revenus_annuels_foyer": {
		"retraite revenus annuels foyer", "revenus foyer fiscal",
		"revenus annuels foyer fiscal", "revenus menage",
	},
	"retraite_impot_revenu": {
		"retraite impot revenu", "impot sur le revenu", "ir", "impot revenu",
	},
	"retraite_nombre_parts_fiscales": {
		"nombre parts fiscales", "parts fiscales", "quotient familial",
	},
	"retraite_tmi": {
		"tmi", "tranche marginale imposition", "tranche impot",
		"taux marginal imposition",
	},
	"retraite_impot_paye_n_1": {
		"impot paye n 1", "impot annee precedente", "dernier impot paye",
	},
	"retraite_age_depart_retraite": {
		"age depart retraite", "age retraite", "depart retraite",
		"a quel age comptez vous partir", "age du depart a la retraite",
	},
	"retraite_age_depart_retraite_conjoint": {
		"age depart retraite conjoint", "age retraite conjoint",
		"depart retraite conjoint",
	},
	"retraite_pourcentage_revenu_a_maintenir": {
		"pourcentage revenu a maintenir", "taux remplacement",
		"revenu a maintenir retraite", "objectif retraite",
	},
	"retraite_contrat_en_place": {
		"retraite contrat en place", "contrat retraite", "per", "perp",
		"madelin retraite", "epargne retraite",
	},
	"retraite_bilan_retraite_disponible": {
		"bilan retraite disponible", "bilan retraite", "estimation retraite",
		"releve carriere",
	},
	"retraite_complementaire_mise_en_place": {
		"complementaire retraite mise en place", "complementaire retraite",
		"retraite supplementaire", "article 83", "pere",
	},
	"retraite_designation_etablissement": {
		"retraite designation etablissement", "etablissement retraite",
		"organisme retraite", "assureur retraite",
	},
	"retraite_cotisations_annuelles": {
		"retraite cotisations annuelles", "cotisations retraite",
		"versements retraite", "prime retraite",
	},
	"retraite_titulaire": {
		"retraite titulaire", "titulaire contrat retraite",
	},

	// epargne globale
	"epargne_disponible": {
		"epargne disponible", "dispose epargne", "a une epargne",
		"le client dispose t il d une epargne disponible",
	},
	"epargne_montant_disponible": {
		"montant epargne disponible", "epargne liquide", "liquidites",
		"tresorerie disponible",
	},
	"epargne_donation_realisee": {
		"donation realisee", "a fait une donation", "donation effectuee",
	},
	"epargne_donation_forme": {
		"donation forme", "forme donation", "type donation",
		"epargne donation forme",
	},
	"epargne_donation_date": {
		"donation date", "date donation", "quand donation",
	},
	"epargne_donation_montant": {
		"donation montant", "montant donation", "valeur donation",
	},
	"epargne_donation_beneficiaires": {
		"donation beneficiaires", "beneficiaires donation", "donataires",
	},
	"epargne_capacite_estimee": {
		"capacite epargne estimee", "capacite epargne", "epargne mensuelle",
		"effort epargne", "combien pouvez vous epargner",
	},
	"epargne_estimation_patrimoine": {
		"estimation patrimoine", "patrimoine global", "patrimoine total",
		"estimation globale du patrimoine", "valeur patrimoine",
	},
	"epargne_actifs_financiers_total": {
		"actifs financiers total", "total actifs financiers",
		"patrimoine financier", "epargne financiere totale",
	},
	"epargne_actifs_immo_total": {
		"actifs immo total", "total actifs immobiliers",
		"patrimoine immobilier", "valeur immobilier",
	},
	"epargne_passifs_total_emprunts": {
		"passifs total emprunts", "total emprunts", "encours credit",
		"dettes totales", "endettement total",
	},
	"epargne_charges_totales": {
		"charges totales", "total charges", "charges annuelles",
		"depenses fixes",
	},
	"epargne_actifs_financiers_pourcentage": {
		"pourcentage actifs financiers", "part actifs financiers",
		"repartition actifs financiers", "poids financiers",
	},
	"epargne_actifs_financiers_details": {
		"details actifs financiers", "detail placements", "liste actifs financiers",
	},
	"epargne_actifs_immo_pourcentage": {
		"pourcentage actifs immobiliers", "part immobilier",
		"repartition immobilier", "poids immobilier",
	},
	"epargne_actifs_immo_details": {
		"details actifs immobiliers", "detail biens", "liste biens immobiliers",
	},
	"epargne_actifs_autres_pourcentage": {
		"pourcentage autres actifs", "part autres actifs",
		"repartition autres actifs",
	},
	"epargne_actifs_autres_total": {
		"total autres actifs", "autres actifs total", "valeur autres actifs",
	},
	"epargne_actifs_autres_details": {
		"details autres actifs", "autres placements details",
	},
	"epargne_passifs_details": {
		"details passifs", "details emprunts", "liste emprunts",
	},
	"epargne_charges_details": {
		"details charges", "liste charges", "decomposition charges",
	},
	"epargne_situation_financiere": {
		"situation financiere", "revenus moins charges", "bilan financier",
		"situation revenus charges", "equilibre financier",
	},

	// revenus (multiple)
	"revenu_nature": {
		"nature revenu", "type revenu", "source revenu", "origine revenu",
		"categorie revenu",
	},
	"revenu_details": {
		"details revenu", "precision revenu", "commentaire revenu",
	},
	"revenu_periodicite": {
		"periodicite revenu", "frequence revenu", "mensuel", "annuel",
	},
	"revenu_montant": {
		"montant revenu", "valeur revenu", "somme revenu",
	},

	// actifs financiers (multiple)
	"actif_nature": {
		"nature actif", "type actif", "type placement", "nature placement",
		"type epargne", "produit financier", "designation actif",
		"type de placement", "nature du placement",
	},
	"actif_etablissement": {
		"etablissement actif", "banque actif", "organisme", "assureur",
		"compagnie", "etablissement", "aupres de quel etablissement",
	},
	"actif_detenteur": {
		"detenteur actif", "titulaire actif", "proprietaire actif",
		"au nom de", "detenteur", "titulaire",
	},
	"actif_date_ouverture": {
		"date ouverture", "date souscription", "ouvert le", "souscrit le",
		"date creation compte", "date de souscription",
	},
	"actif_valeur": {
		"valeur actif", "montant actif", "solde", "encours",
		"valeur actuelle", "valorisation", "valeur de rachat",
	},

	// biens immobiliers (multiple)
	"bien_designation": {
		"designation bien", "type bien", "nature bien", "bien immobilier",
		"type immobilier", "residence principale", "residence secondaire",
		"investissement locatif",
	},
	"bien_detenteur": {
		"detenteur bien", "proprietaire bien", "titulaire bien",
	},
	"bien_forme_propriete": {
		"forme propriete", "type propriete", "regime propriete",
		"pleine propriete", "usufruit", "nue propriete", "indivision",
	},
	"bien_valeur_actuelle": {
		"valeur bien", "estimation bien", "valeur actuelle bien",
		"prix actuel", "valeur estimee", "valeur venale",
	},
	"bien_annee_acquisition": {
		"annee acquisition", "date achat", "annee achat", "acquis en",
	},
	"bien_valeur_acquisition": {
		"valeur acquisition", "prix achat", "prix acquisition", "cout achat",
	},

	// passifs / emprunts (multiple)
	"passif_nature": {
		"nature emprunt", "type emprunt", "type pret", "nature pret",
		"credit", "type credit", "objet pret", "pret immobilier",
		"pret consommation", "credit auto",
	},
	"passif_preteur": {
		"preteur", "banque pret", "organisme pret", "etablissement pret",
		"creancier", "banque", "organisme preteur",
	},
	"passif_periodicite": {
		"periodicite remboursement", "frequence pret", "echeance",
		"mensualite", "type echeance",
	},
	"passif_montant_remboursement": {
		"montant remboursement", "mensualite", "echeance mensuelle",
		"remboursement mensuel", "montant echeance",
	},
	"passif_capital_restant": {
		"capital restant", "crd", "capital restant du", "solde emprunt",
		"reste a payer", "encours pret",
	},
	"passif_duree_restante": {
		"duree restante", "mois restants", "echeances restantes",
		"fin emprunt", "terme pret",
	},

	// autres epargnes (multiple)
	"autre_epargne_designation": {
		"designation epargne", "type epargne", "nature epargne",
		"autre epargne", "autre placement",
	},
	"autre_epargne_detenteur": {
		"detenteur epargne", "titulaire epargne",
	},
	"autre_epargne_valeur": {
		"valeur epargne", "montant epargne", "solde epargne",
	},
}

// semanticGroups clusters target vocabulary for the contextual scoring
// fallback.
var semanticGroups = map[string][]string{
	"identity":     {"nom", "prenom", "civilite", "nom_jeune_fille", "naissance"},
	"contact":      {"telephone", "email", "adresse", "code_postal", "ville"},
	"professional": {"profession", "situation", "statut", "revenus", "entreprise", "travail", "emploi"},
	"family":       {"matrimonial", "conjoint", "enfant", "mariage", "pacs", "famille"},
	"health":       {"fumeur", "sport", "sante", "mutuelle", "medical", "hospitalisation", "dentaire", "optique"},
	"prevoyance":   {"prevoyance", "invalidite", "deces", "incapacite", "obseques", "rente", "capital"},
	"retraite":     {"retraite", "pension", "per", "perp", "madelin", "trimestre", "carriere"},
	"epargne":      {"epargne", "placement", "actif", "patrimoine", "donation", "investissement"},
	"immobilier":   {"bien", "immobilier", "propriete", "residence", "logement", "appartement", "maison"},
	"credit":       {"passif", "emprunt", "pret", "credit", "remboursement", "mensualite", "capital restant"},
	"fiscal":       {"impot", "tmi", "fiscal", "parts", "quotient"},
}

func aliasesFor(targetField string) []string {
	if aliases, ok := fieldAliases[targetField]; ok {
		return aliases
	}
	return []string{targetField}
}
