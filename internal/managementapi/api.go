package managementapi

import "context"

// ManagementApi is the capability the migration core depends on (§6). It
// is implemented by Client (client.go) against the real REST API; tests
// substitute a fake.
type ManagementApi interface {
	// Environment metadata, loaded once per run by C6.
	ListCollections(ctx context.Context) ([]Collection, error)
	ListLanguages(ctx context.Context) ([]Language, error)
	ListWorkflows(ctx context.Context) ([]Workflow, error)
	ListTaxonomies(ctx context.Context) ([]Taxonomy, error)
	ListContentTypes(ctx context.Context) ([]FlattenedContentType, error)
	ListAssetFolders(ctx context.Context) ([]AssetFolder, error)

	// Content items.
	ViewContentItem(ctx context.Context, codenameOrID string) (*ContentItem, error)
	AddContentItem(ctx context.Context, data ContentItemCreate) (*ContentItem, error)
	UpsertContentItem(ctx context.Context, codename string, data ContentItemUpsert) (*ContentItem, error)

	// Language variants.
	ViewLanguageVariant(ctx context.Context, itemCodename, langCodename string, published bool) (*LanguageVariant, error)
	UpsertLanguageVariant(ctx context.Context, itemCodename, langCodename string, data LanguageVariantUpsert) (*LanguageVariant, error)
	CreateNewVersion(ctx context.Context, itemCodename, langCodename string) error
	ChangeWorkflowOfLanguageVariant(ctx context.Context, itemCodename, langCodename, stepCodename string) error
	PublishLanguageVariant(ctx context.Context, itemCodename, langCodename string, sched *Scheduling) error
	UnpublishLanguageVariant(ctx context.Context, itemCodename, langCodename string, sched *Scheduling) error
	CancelScheduledPublish(ctx context.Context, itemCodename, langCodename string) error
	CancelScheduledUnpublish(ctx context.Context, itemCodename, langCodename string) error

	// Assets.
	ViewAsset(ctx context.Context, idOrCodename string) (*Asset, error)
	AddAsset(ctx context.Context, data AssetCreate) (*Asset, error)
	UpsertAsset(ctx context.Context, codename string, data AssetUpsert) (*Asset, error)
	UploadBinaryFile(ctx context.Context, data BinaryUpload) (*FileReference, error)
	DownloadAsset(ctx context.Context, url string) ([]byte, error)
}
