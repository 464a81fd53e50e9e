// Package lookup implements the CRUD template shared by every simple
// reference entity on the platform: staff positions, staff departments, and
// the ads taxonomy tables. They are structurally identical, so one
// repository/service/handler set is parameterized by table and entity name
// instead of being copy-pasted per entity.
package lookup

import "github.com/brandforge/backoffice/internal/shared"

// Item is one reference record.
type Item struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	shared.Audit
}

// Def binds a lookup entity to its storage and its permission resource name.
type Def struct {
	// Table is the backing relation.
	Table string
	// Entity is the human-readable singular name for NotFound messages.
	Entity string
	// EntityPlural appears in all-or-nothing existence failures.
	EntityPlural string
	// Resource is the permission resource name guarding this entity's routes
	// and keying its allow-ids validator.
	Resource string
}

var listFields = []string{"id", "name", "description", "created_by_id", "updated_by_id", "created_at", "updated_at"}

// AdsDefs enumerates the ads taxonomy entities, keyed by route path. Every
// table created by the ads taxonomy migration has an entry here.
func AdsDefs() map[string]Def {
	return map[string]Def{
		"/ads/languages": {Table: "ads_languages", Entity: "language",
			EntityPlural: "languages", Resource: "ads-language"},
		"/ads/industries": {Table: "ads_industries", Entity: "industry",
			EntityPlural: "industries", Resource: "ads-industry"},
		"/ads/platforms": {Table: "ads_platforms", Entity: "platform",
			EntityPlural: "platforms", Resource: "ads-platform"},
		"/ads/tones": {Table: "ads_tones", Entity: "tone",
			EntityPlural: "tones", Resource: "ads-tone"},
		"/ads/content-types": {Table: "ads_content_types", Entity: "content type",
			EntityPlural: "content types", Resource: "ads-content-type"},
		"/ads/client-companies": {Table: "ads_client_companies", Entity: "client company",
			EntityPlural: "client companies", Resource: "ads-client-company"},
		"/ads/targets": {Table: "ads_targets", Entity: "target",
			EntityPlural: "targets", Resource: "ads-target"},
		"/ads/company-sizes": {Table: "ads_company_sizes", Entity: "company size",
			EntityPlural: "company sizes", Resource: "ads-company-size"},
		"/ads/company-types": {Table: "ads_company_types", Entity: "company type",
			EntityPlural: "company types", Resource: "ads-company-type"},
	}
}
