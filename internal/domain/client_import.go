package domain

// ClientImport bundles everything a single validated row contributes to
// the CRM: the client record plus its related sections. It is committed
// atomically.
type ClientImport struct {
	Client   Client
	Conjoint map[string]any
	Enfants  []map[string]any
	Sections map[string][]map[string]any
}
