// Package managementapitest provides a fake managementapi.ManagementApi for
// tests across the import/export packages, grounded on the teacher's own
// habit of swapping in a func-field fake for its docker SDK client in
// higher-level orchestration tests. Every method is backed by an optional
// function field; an unset field returns kerrors.ErrNotFound for lookups and
// a zero value otherwise, so tests only need to wire the calls they exercise.
package managementapitest

import (
	"context"

	"github.com/artemis/kontent-migrate/internal/kerrors"
	"github.com/artemis/kontent-migrate/internal/managementapi"
)

// Fake implements managementapi.ManagementApi entirely via function fields.
type Fake struct {
	ListCollectionsFn  func(ctx context.Context) ([]managementapi.Collection, error)
	ListLanguagesFn    func(ctx context.Context) ([]managementapi.Language, error)
	ListWorkflowsFn    func(ctx context.Context) ([]managementapi.Workflow, error)
	ListTaxonomiesFn   func(ctx context.Context) ([]managementapi.Taxonomy, error)
	ListContentTypesFn func(ctx context.Context) ([]managementapi.FlattenedContentType, error)
	ListAssetFoldersFn func(ctx context.Context) ([]managementapi.AssetFolder, error)

	ViewContentItemFn   func(ctx context.Context, codenameOrID string) (*managementapi.ContentItem, error)
	AddContentItemFn    func(ctx context.Context, data managementapi.ContentItemCreate) (*managementapi.ContentItem, error)
	UpsertContentItemFn func(ctx context.Context, codename string, data managementapi.ContentItemUpsert) (*managementapi.ContentItem, error)

	ViewLanguageVariantFn             func(ctx context.Context, itemCodename, langCodename string, published bool) (*managementapi.LanguageVariant, error)
	UpsertLanguageVariantFn           func(ctx context.Context, itemCodename, langCodename string, data managementapi.LanguageVariantUpsert) (*managementapi.LanguageVariant, error)
	CreateNewVersionFn                func(ctx context.Context, itemCodename, langCodename string) error
	ChangeWorkflowOfLanguageVariantFn func(ctx context.Context, itemCodename, langCodename, stepCodename string) error
	PublishLanguageVariantFn          func(ctx context.Context, itemCodename, langCodename string, sched *managementapi.Scheduling) error
	UnpublishLanguageVariantFn        func(ctx context.Context, itemCodename, langCodename string, sched *managementapi.Scheduling) error
	CancelScheduledPublishFn          func(ctx context.Context, itemCodename, langCodename string) error
	CancelScheduledUnpublishFn        func(ctx context.Context, itemCodename, langCodename string) error

	ViewAssetFn        func(ctx context.Context, idOrCodename string) (*managementapi.Asset, error)
	AddAssetFn         func(ctx context.Context, data managementapi.AssetCreate) (*managementapi.Asset, error)
	UpsertAssetFn      func(ctx context.Context, codename string, data managementapi.AssetUpsert) (*managementapi.Asset, error)
	UploadBinaryFileFn func(ctx context.Context, data managementapi.BinaryUpload) (*managementapi.FileReference, error)
	DownloadAssetFn    func(ctx context.Context, url string) ([]byte, error)

	// Calls records every method invocation, in order, as "Method:arg".
	Calls []string
}

var _ managementapi.ManagementApi = (*Fake)(nil)

func (f *Fake) record(call string) { f.Calls = append(f.Calls, call) }

func (f *Fake) ListCollections(ctx context.Context) ([]managementapi.Collection, error) {
	f.record("ListCollections")
	if f.ListCollectionsFn != nil {
		return f.ListCollectionsFn(ctx)
	}
	return nil, nil
}

func (f *Fake) ListLanguages(ctx context.Context) ([]managementapi.Language, error) {
	f.record("ListLanguages")
	if f.ListLanguagesFn != nil {
		return f.ListLanguagesFn(ctx)
	}
	return nil, nil
}

func (f *Fake) ListWorkflows(ctx context.Context) ([]managementapi.Workflow, error) {
	f.record("ListWorkflows")
	if f.ListWorkflowsFn != nil {
		return f.ListWorkflowsFn(ctx)
	}
	return nil, nil
}

func (f *Fake) ListTaxonomies(ctx context.Context) ([]managementapi.Taxonomy, error) {
	f.record("ListTaxonomies")
	if f.ListTaxonomiesFn != nil {
		return f.ListTaxonomiesFn(ctx)
	}
	return nil, nil
}

func (f *Fake) ListContentTypes(ctx context.Context) ([]managementapi.FlattenedContentType, error) {
	f.record("ListContentTypes")
	if f.ListContentTypesFn != nil {
		return f.ListContentTypesFn(ctx)
	}
	return nil, nil
}

func (f *Fake) ListAssetFolders(ctx context.Context) ([]managementapi.AssetFolder, error) {
	f.record("ListAssetFolders")
	if f.ListAssetFoldersFn != nil {
		return f.ListAssetFoldersFn(ctx)
	}
	return nil, nil
}

func (f *Fake) ViewContentItem(ctx context.Context, codenameOrID string) (*managementapi.ContentItem, error) {
	f.record("ViewContentItem:" + codenameOrID)
	if f.ViewContentItemFn != nil {
		return f.ViewContentItemFn(ctx, codenameOrID)
	}
	return nil, kerrors.ErrNotFound
}

func (f *Fake) AddContentItem(ctx context.Context, data managementapi.ContentItemCreate) (*managementapi.ContentItem, error) {
	f.record("AddContentItem:" + data.Codename)
	if f.AddContentItemFn != nil {
		return f.AddContentItemFn(ctx, data)
	}
	return &managementapi.ContentItem{Codename: data.Codename}, nil
}

func (f *Fake) UpsertContentItem(ctx context.Context, codename string, data managementapi.ContentItemUpsert) (*managementapi.ContentItem, error) {
	f.record("UpsertContentItem:" + codename)
	if f.UpsertContentItemFn != nil {
		return f.UpsertContentItemFn(ctx, codename, data)
	}
	return &managementapi.ContentItem{Codename: codename}, nil
}

func (f *Fake) ViewLanguageVariant(ctx context.Context, itemCodename, langCodename string, published bool) (*managementapi.LanguageVariant, error) {
	f.record("ViewLanguageVariant:" + itemCodename + "/" + langCodename)
	if f.ViewLanguageVariantFn != nil {
		return f.ViewLanguageVariantFn(ctx, itemCodename, langCodename, published)
	}
	return nil, kerrors.ErrNotFound
}

func (f *Fake) UpsertLanguageVariant(ctx context.Context, itemCodename, langCodename string, data managementapi.LanguageVariantUpsert) (*managementapi.LanguageVariant, error) {
	f.record("UpsertLanguageVariant:" + itemCodename + "/" + langCodename)
	if f.UpsertLanguageVariantFn != nil {
		return f.UpsertLanguageVariantFn(ctx, itemCodename, langCodename, data)
	}
	return &managementapi.LanguageVariant{Elements: data.Elements}, nil
}

func (f *Fake) CreateNewVersion(ctx context.Context, itemCodename, langCodename string) error {
	f.record("CreateNewVersion:" + itemCodename + "/" + langCodename)
	if f.CreateNewVersionFn != nil {
		return f.CreateNewVersionFn(ctx, itemCodename, langCodename)
	}
	return nil
}

func (f *Fake) ChangeWorkflowOfLanguageVariant(ctx context.Context, itemCodename, langCodename, stepCodename string) error {
	f.record("ChangeWorkflowOfLanguageVariant:" + itemCodename + "/" + langCodename + "/" + stepCodename)
	if f.ChangeWorkflowOfLanguageVariantFn != nil {
		return f.ChangeWorkflowOfLanguageVariantFn(ctx, itemCodename, langCodename, stepCodename)
	}
	return nil
}

func (f *Fake) PublishLanguageVariant(ctx context.Context, itemCodename, langCodename string, sched *managementapi.Scheduling) error {
	f.record("PublishLanguageVariant:" + itemCodename + "/" + langCodename)
	if f.PublishLanguageVariantFn != nil {
		return f.PublishLanguageVariantFn(ctx, itemCodename, langCodename, sched)
	}
	return nil
}

func (f *Fake) UnpublishLanguageVariant(ctx context.Context, itemCodename, langCodename string, sched *managementapi.Scheduling) error {
	f.record("UnpublishLanguageVariant:" + itemCodename + "/" + langCodename)
	if f.UnpublishLanguageVariantFn != nil {
		return f.UnpublishLanguageVariantFn(ctx, itemCodename, langCodename, sched)
	}
	return nil
}

func (f *Fake) CancelScheduledPublish(ctx context.Context, itemCodename, langCodename string) error {
	f.record("CancelScheduledPublish:" + itemCodename + "/" + langCodename)
	if f.CancelScheduledPublishFn != nil {
		return f.CancelScheduledPublishFn(ctx, itemCodename, langCodename)
	}
	return nil
}

func (f *Fake) CancelScheduledUnpublish(ctx context.Context, itemCodename, langCodename string) error {
	f.record("CancelScheduledUnpublish:" + itemCodename + "/" + langCodename)
	if f.CancelScheduledUnpublishFn != nil {
		return f.CancelScheduledUnpublishFn(ctx, itemCodename, langCodename)
	}
	return nil
}

func (f *Fake) ViewAsset(ctx context.Context, idOrCodename string) (*managementapi.Asset, error) {
	f.record("ViewAsset:" + idOrCodename)
	if f.ViewAssetFn != nil {
		return f.ViewAssetFn(ctx, idOrCodename)
	}
	return nil, kerrors.ErrNotFound
}

func (f *Fake) AddAsset(ctx context.Context, data managementapi.AssetCreate) (*managementapi.Asset, error) {
	f.record("AddAsset:" + data.Codename)
	if f.AddAssetFn != nil {
		return f.AddAssetFn(ctx, data)
	}
	return &managementapi.Asset{Codename: data.Codename}, nil
}

func (f *Fake) UpsertAsset(ctx context.Context, codename string, data managementapi.AssetUpsert) (*managementapi.Asset, error) {
	f.record("UpsertAsset:" + codename)
	if f.UpsertAssetFn != nil {
		return f.UpsertAssetFn(ctx, codename, data)
	}
	return &managementapi.Asset{Codename: codename}, nil
}

func (f *Fake) UploadBinaryFile(ctx context.Context, data managementapi.BinaryUpload) (*managementapi.FileReference, error) {
	f.record("UploadBinaryFile:" + data.Filename)
	if f.UploadBinaryFileFn != nil {
		return f.UploadBinaryFileFn(ctx, data)
	}
	return &managementapi.FileReference{ID: data.Filename}, nil
}

func (f *Fake) DownloadAsset(ctx context.Context, url string) ([]byte, error) {
	f.record("DownloadAsset:" + url)
	if f.DownloadAssetFn != nil {
		return f.DownloadAssetFn(ctx, url)
	}
	return nil, nil
}
