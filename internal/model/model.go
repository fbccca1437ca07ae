// Package model defines the codename-addressed migration snapshot (§3 of the
// migration spec): MigrationItem, MigrationItemVersion, MigrationElement,
// MigrationComponent, MigrationAsset and the MigrationData envelope that
// wraps them. Every identifier in this package is a codename; opaque ids
// never appear here — they live only in ExportContext/ImportContext.
package model

import "sort"

// ElementType is the closed enum of content element kinds (§4.3).
type ElementType string

const (
	ElementText           ElementType = "text"
	ElementNumber         ElementType = "number"
	ElementDateTime       ElementType = "date_time"
	ElementRichText       ElementType = "rich_text"
	ElementAsset          ElementType = "asset"
	ElementTaxonomy       ElementType = "taxonomy"
	ElementModularContent ElementType = "modular_content"
	ElementCustom         ElementType = "custom"
	ElementURLSlug        ElementType = "url_slug"
	ElementMultipleChoice ElementType = "multiple_choice"
	ElementSubpages       ElementType = "subpages"
)

// Reference is a codename pointer to another entity (item, asset, taxonomy
// term, multiple-choice option).
type Reference struct {
	Codename string `json:"codename"`
}

// Schedule carries the optional publish/unpublish scheduling of a version.
type Schedule struct {
	PublishTime             string `json:"publish_time,omitempty"`
	PublishDisplayTimezone  string `json:"publish_display_timezone,omitempty"`
	UnpublishTime           string `json:"unpublish_time,omitempty"`
	UnpublishDisplayTimezone string `json:"unpublish_display_timezone,omitempty"`
}

func (s *Schedule) HasPublish() bool {
	return s != nil && s.PublishTime != ""
}

func (s *Schedule) HasUnpublish() bool {
	return s != nil && s.UnpublishTime != ""
}

// CodenameRef is the {codename} shape system objects carry.
type CodenameRef struct {
	Codename string `json:"codename"`
}

// MigrationElement is a tagged-variant element value. Only the field(s)
// matching Type are populated; the rest are the zero value. This mirrors
// §9's "dynamic element table" note: the registry dispatches on Type, not
// on the Go type system, so the value shape here stays a flat struct rather
// than an interface hierarchy.
type MigrationElement struct {
	Type ElementType `json:"type"`

	// text / custom / url_slug
	StringValue string `json:"value,omitempty"`

	// url_slug
	Mode string `json:"mode,omitempty"` // "autogenerated" | "custom"

	// number
	NumberValue    *float64 `json:"number_value,omitempty"`
	NumberIsNull   bool     `json:"-"`

	// date_time
	DateTimeValue      string `json:"datetime_value,omitempty"`
	DisplayTimezone     string `json:"display_timezone,omitempty"`

	// asset / modular_content / subpages
	ItemReferences []Reference `json:"value_refs,omitempty"`

	// taxonomy / multiple_choice
	TermReferences []Reference `json:"term_refs,omitempty"`

	// rich_text
	RichText   string               `json:"rich_text,omitempty"`
	Components []MigrationComponent `json:"components,omitempty"`
}

// MigrationComponent is an inline content item nested inside a rich-text
// element, addressed by a local UUID (§3 invariant 4).
type MigrationComponent struct {
	ID       string                      `json:"id"`
	Type     CodenameRef                 `json:"type"`
	Elements map[string]MigrationElement `json:"elements"`
}

// ItemSystem carries the language-agnostic + per-variant system metadata
// of a MigrationItem.
type ItemSystem struct {
	Name       string      `json:"name"`
	Codename   string      `json:"codename"`
	Language   CodenameRef `json:"language"`
	Type       CodenameRef `json:"type"`
	Collection CodenameRef `json:"collection"`
	Workflow   CodenameRef `json:"workflow"`
}

// MigrationItemVersion is one workflow version of an item (§3 invariant 2:
// at most one published, at most one draft, per item).
type MigrationItemVersion struct {
	Elements     map[string]MigrationElement `json:"elements"`
	Schedule     *Schedule                   `json:"schedule,omitempty"`
	WorkflowStep CodenameRef                 `json:"workflow_step"`
}

// ElementCodenames returns the version's element codenames sorted
// ascending, satisfying §3 invariant 3 (byte-reproducible ordering).
func (v *MigrationItemVersion) ElementCodenames() []string {
	out := make([]string, 0, len(v.Elements))
	for k := range v.Elements {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// MigrationItem is one content item within one language.
type MigrationItem struct {
	System   ItemSystem              `json:"system"`
	Versions []MigrationItemVersion  `json:"versions"`
}

// AssetDescription is a per-language asset description.
type AssetDescription struct {
	Language    CodenameRef `json:"language"`
	Description string      `json:"description"`
}

// MigrationAsset is one binary asset with its target-side metadata.
type MigrationAsset struct {
	Codename     string             `json:"codename"`
	Filename     string             `json:"filename"`
	Title        string             `json:"title,omitempty"`
	BinaryData   []byte             `json:"-"`
	Collection   *CodenameRef       `json:"collection,omitempty"`
	Folder       *CodenameRef       `json:"folder,omitempty"`
	Descriptions []AssetDescription `json:"descriptions,omitempty"`
}

// MigrationData is the complete, codename-addressed snapshot produced by
// the export pipeline (C7) and consumed by the import pipeline (C8-C11).
type MigrationData struct {
	Items  []MigrationItem  `json:"items"`
	Assets []MigrationAsset `json:"assets"`
}
