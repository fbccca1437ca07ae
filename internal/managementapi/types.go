// Package managementapi defines the ManagementApi capability (§6): the set
// of REST operations the migration core needs against a content platform
// environment, plus the wire (id-addressed) DTOs those operations exchange.
// The concrete client (client.go) is the only component in this repo that
// knows about HTTP, JSON bodies or the platform's URL shape; everything
// upstream of it (C3-C11) talks to the ManagementApi interface only.
package managementapi

import "time"

// IDRef and CodenameRef are the two addressing modes every wire entity
// carries (§3: "every domain object has both an opaque id ... and a
// codename").
type IDRef struct {
	ID string `json:"id,omitempty"`
}

type CodenameRef struct {
	ID       string `json:"id,omitempty"`
	Codename string `json:"codename,omitempty"`
}

// Collection, Language, Workflow, Taxonomy, AssetFolder are environment
// metadata loaded once by C6.
type Collection struct {
	ID       string `json:"id"`
	Codename string `json:"codename"`
	Name     string `json:"name"`
}

type Language struct {
	ID       string `json:"id"`
	Codename string `json:"codename"`
	Name     string `json:"name"`
}

type WorkflowStep struct {
	ID             string   `json:"id"`
	Codename       string   `json:"codename"`
	Name           string   `json:"name"`
	TransitionsTo  []string `json:"transitions_to"` // step ids
}

// Workflow is a directed graph of steps (§2 C2, Glossary). Steps holds the
// regular steps; PublishedStep, ArchivedStep and ScheduledStep are the
// three pseudo-steps, each with its own id and transitions (§4.11).
type Workflow struct {
	ID             string         `json:"id"`
	Codename       string         `json:"codename"`
	Name           string         `json:"name"`
	Steps          []WorkflowStep `json:"steps"`
	PublishedStep  WorkflowStep   `json:"published_step"`
	ArchivedStep   WorkflowStep   `json:"archived_step"`
	ScheduledStep  WorkflowStep   `json:"scheduled_step"`
}

type TaxonomyTerm struct {
	ID       string         `json:"id"`
	Codename string         `json:"codename"`
	Name     string         `json:"name"`
	Terms    []TaxonomyTerm `json:"terms,omitempty"`
}

type Taxonomy struct {
	ID       string         `json:"id"`
	Codename string         `json:"codename"`
	Name     string         `json:"name"`
	Terms    []TaxonomyTerm `json:"terms"`
}

type AssetFolder struct {
	ID       string        `json:"id"`
	Codename string        `json:"codename"`
	Name     string        `json:"name"`
	Folders  []AssetFolder `json:"folders,omitempty"`
}

// ElementMetadata describes one element slot of a content type (§3
// FlattenedContentType).
type ElementMetadata struct {
	ID            string           `json:"id"`
	Codename      string           `json:"codename"`
	Type          string           `json:"type"`
	TaxonomyGroup string           `json:"taxonomy_group,omitempty"` // taxonomy group id, for type=taxonomy
	Options       []OptionMetadata `json:"options,omitempty"`        // for type=multiple_choice
}

// OptionMetadata is one selectable option of a multiple_choice element.
type OptionMetadata struct {
	ID       string `json:"id"`
	Codename string `json:"codename"`
}

// FlattenedContentType is the content model flattened into element
// descriptors, per §3.
type FlattenedContentType struct {
	ID       string            `json:"id"`
	Codename string            `json:"codename"`
	Name     string             `json:"name"`
	Elements []ElementMetadata `json:"elements"`
}

// ContentItem is the language-agnostic shell (Glossary: "Content item").
type ContentItem struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Codename       string      `json:"codename"`
	TypeRef        CodenameRef `json:"type"`
	CollectionRef  CodenameRef `json:"collection"`
	ExternalID     string      `json:"external_id,omitempty"`
}

type ContentItemCreate struct {
	Name          string      `json:"name"`
	Codename      string      `json:"codename"`
	Type          CodenameRef `json:"type"`
	Collection    CodenameRef `json:"collection"`
	ExternalID    string      `json:"external_id,omitempty"`
}

type ContentItemUpsert struct {
	Name       string      `json:"name,omitempty"`
	Collection CodenameRef `json:"collection,omitempty"`
}

// ElementValue is the wire (id-addressed) shape of one element's value.
// Only the field(s) relevant to the element's declared type are set.
type ElementValue struct {
	ElementRef CodenameRef     `json:"element"`
	Value      interface{}     `json:"value,omitempty"`
	Mode       string          `json:"mode,omitempty"`
	References []IDRef         `json:"reference_values,omitempty"`
	// Components carries the inline content items nested in a rich_text
	// value (Glossary: "Component"), addressed by local id rather than
	// codename.
	Components []WireComponent `json:"components,omitempty"`
}

// WireComponent is the id-addressed shape of a MigrationComponent.
type WireComponent struct {
	ID       string         `json:"id"`
	Type     CodenameRef    `json:"type"`
	Elements []ElementValue `json:"elements"`
}

// LanguageVariant is the per-language payload of a content item (Glossary).
type LanguageVariant struct {
	Item     IDRef          `json:"item"`
	Language CodenameRef    `json:"language"`
	Elements []ElementValue `json:"elements"`
	WorkflowStep CodenameRef `json:"workflow_step"`
	Workflow     CodenameRef `json:"workflow"`
	Schedule     *VariantSchedule `json:"schedule,omitempty"`
}

type VariantSchedule struct {
	PublishedScheduledAt   *time.Time `json:"scheduled_to,omitempty"`
	UnpublishedScheduledAt *time.Time `json:"unpublish_scheduled_to,omitempty"`
	DisplayTimezone        string     `json:"display_timezone,omitempty"`
}

type LanguageVariantUpsert struct {
	Elements []ElementValue `json:"elements"`
}

// Scheduling is passed to PublishLanguageVariant/UnpublishLanguageVariant
// to schedule rather than act immediately (§4.11 step 3).
type Scheduling struct {
	ScheduledTo     time.Time
	DisplayTimezone string
}

// Asset is a binary asset's metadata (§3 MigrationAsset's target shape).
type Asset struct {
	ID            string             `json:"id"`
	Codename      string             `json:"codename"`
	Filename      string             `json:"file_name"`
	Title         string             `json:"title,omitempty"`
	Size          int64              `json:"size,omitempty"`
	Type          string             `json:"type,omitempty"` // mime type
	URL           string             `json:"url,omitempty"`
	CollectionRef *CodenameRef       `json:"collection,omitempty"`
	FolderRef     *CodenameRef       `json:"folder,omitempty"`
	Descriptions  []AssetDescWire    `json:"descriptions,omitempty"`
	ExternalID    string             `json:"external_id,omitempty"`
}

type AssetDescWire struct {
	Language    CodenameRef `json:"language"`
	Description string      `json:"description"`
}

type FileReference struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

type BinaryUpload struct {
	BinaryData    []byte
	ContentLength int64
	ContentType   string
	Filename      string
}

type AssetCreate struct {
	Codename     string          `json:"codename"`
	ExternalID   string          `json:"external_id,omitempty"`
	FileRef      FileReference   `json:"file_reference"`
	Title        string          `json:"title,omitempty"`
	Descriptions []AssetDescWire `json:"descriptions,omitempty"`
	Collection   *CodenameRef    `json:"collection,omitempty"`
	Folder       *CodenameRef    `json:"folder,omitempty"`
}

type AssetUpsert struct {
	Title        string          `json:"title,omitempty"`
	Descriptions []AssetDescWire `json:"descriptions,omitempty"`
	Collection   *CodenameRef    `json:"collection,omitempty"`
	Folder       *CodenameRef    `json:"folder,omitempty"`
}

// ErrorResponse models the platform's error payload, carrying
// the numeric error_code §4.11/§5/§7 key off: 10000 is rateExceeded.
type ErrorResponse struct {
	Message        string `json:"message"`
	ErrorCode      int    `json:"error_code"`
	RequestID      string `json:"request_id,omitempty"`
}

const RateExceededCode = 10000

// BadPublishCode is the platform's error_code for a publish request that
// fails content validation (required elements empty, workflow step doesn't
// allow publishing, etc). §4.11/§7 require these be tolerated rather than
// treated as fatal.
const BadPublishCode = 110
