// Package exportctx implements C6, the Export Context Fetcher: it loads an
// environment's metadata once, prepares the requested export items, and
// resolves the transitive reference closure (linked items, components,
// assets, taxonomy terms, multiple-choice options) needed to fully
// translate them. The resulting Context is what the Element Transform
// Registry (C3) and Rich-Text Processor (C4) look up ids against.
package exportctx

import (
	"context"
	"fmt"

	"github.com/artemis/kontent-migrate/internal/harness"
	"github.com/artemis/kontent-migrate/internal/kerrors"
	"github.com/artemis/kontent-migrate/internal/managementapi"
	"github.com/artemis/kontent-migrate/internal/observability"
	"github.com/artemis/kontent-migrate/internal/refs"
	"github.com/artemis/kontent-migrate/internal/workflow"
)

// EnvironmentData is the source environment's metadata, pulled once.
type EnvironmentData struct {
	Collections  []managementapi.Collection
	ContentTypes []managementapi.FlattenedContentType
	Languages    []managementapi.Language
	Workflows    []managementapi.Workflow
	Taxonomies   []managementapi.Taxonomy
	AssetFolders []managementapi.AssetFolder
}

// ItemRequest is one (itemCodename, languageCodename) pair the caller asked
// to export.
type ItemRequest struct {
	ItemCodename     string
	LanguageCodename string
}

// ExportItem is one successfully prepared item, ready for C7 to map.
type ExportItem struct {
	ContentItem managementapi.ContentItem
	Versions    []managementapi.LanguageVariant // latest, plus published if different
	ContentType managementapi.FlattenedContentType
	Collection  managementapi.Collection
	Language    managementapi.Language
	Workflow    managementapi.Workflow
}

// Context is the complete export-side lookup surface: environment data,
// the prepared export items, and the resolved reference closure. It
// implements elements.ExportContext and richtext.ItemResolver/AssetResolver.
type Context struct {
	Env   EnvironmentData
	Items []ExportItem

	itemCodenameByID map[string]string
	itemIDByCodename map[string]string
	assetCodenameByID map[string]string
	assetIDByCodename map[string]string
	typeByCodename    map[string]managementapi.FlattenedContentType
	taxonomyByGroupID map[string]managementapi.Taxonomy
}

// ItemCodenameByID implements richtext.ItemResolver / elements lookups.
func (c *Context) ItemCodenameByID(id string) (string, bool) {
	codename, ok := c.itemCodenameByID[id]
	return codename, ok
}

// ItemIDByCodename implements richtext.ItemResolver's other direction.
func (c *Context) ItemIDByCodename(codename string) (string, bool) {
	id, ok := c.itemIDByCodename[codename]
	return id, ok
}

// AssetCodenameByID implements richtext.AssetResolver.
func (c *Context) AssetCodenameByID(id string) (string, bool) {
	codename, ok := c.assetCodenameByID[id]
	return codename, ok
}

// AssetIDByCodename implements richtext.AssetResolver's other direction.
func (c *Context) AssetIDByCodename(codename string) (string, bool) {
	id, ok := c.assetIDByCodename[codename]
	return id, ok
}

// ContentTypeByCodename resolves a type codename to its flattened element
// metadata, used to classify a rich_text component's nested elements.
func (c *Context) ContentTypeByCodename(codename string) (managementapi.FlattenedContentType, bool) {
	t, ok := c.typeByCodename[codename]
	return t, ok
}

// TaxonomyTermCodename resolves a term id within the taxonomy group
// identified by groupID via a DFS through its term tree (§4.3).
func (c *Context) TaxonomyTermCodename(groupID, termID string) (string, bool) {
	tax, ok := c.taxonomyByGroupID[groupID]
	if !ok {
		return "", false
	}
	return dfsTerm(tax.Terms, termID)
}

func dfsTerm(terms []managementapi.TaxonomyTerm, id string) (string, bool) {
	for _, t := range terms {
		if t.ID == id {
			return t.Codename, true
		}
		if codename, ok := dfsTerm(t.Terms, id); ok {
			return codename, true
		}
	}
	return "", false
}

// MultipleChoiceOptionCodename resolves an option id declared on the
// element identified by elementID.
func (c *Context) MultipleChoiceOptionCodename(elementID, optionID string) (string, bool) {
	for _, ct := range c.Env.ContentTypes {
		for _, el := range ct.Elements {
			if el.ID != elementID {
				continue
			}
			for _, opt := range el.Options {
				if opt.ID == optionID {
					return opt.Codename, true
				}
			}
		}
	}
	return "", false
}

// LoadEnvironmentData pulls collections, content types, languages,
// workflows, taxonomies and asset folders once (§4.6 step 1).
func LoadEnvironmentData(ctx context.Context, api managementapi.ManagementApi) (EnvironmentData, error) {
	var env EnvironmentData
	var err error

	if env.Collections, err = api.ListCollections(ctx); err != nil {
		return env, kerrors.Remote("load_environment_data", err)
	}
	if env.ContentTypes, err = api.ListContentTypes(ctx); err != nil {
		return env, kerrors.Remote("load_environment_data", err)
	}
	if env.Languages, err = api.ListLanguages(ctx); err != nil {
		return env, kerrors.Remote("load_environment_data", err)
	}
	if env.Workflows, err = api.ListWorkflows(ctx); err != nil {
		return env, kerrors.Remote("load_environment_data", err)
	}
	if env.Taxonomies, err = api.ListTaxonomies(ctx); err != nil {
		return env, kerrors.Remote("load_environment_data", err)
	}
	if env.AssetFolders, err = api.ListAssetFolders(ctx); err != nil {
		return env, kerrors.Remote("load_environment_data", err)
	}
	return env, nil
}

// PrepareExportItems fetches each requested item's metadata and latest (+
// published, if different) language variant, validating that every
// referenced collection/type/language/workflow/step exists (§4.6 step 2).
// Per-item failures are logged and the item is dropped, not fatal.
func PrepareExportItems(ctx context.Context, api managementapi.ManagementApi, env EnvironmentData, requests []ItemRequest, logger *observability.Logger) ([]ExportItem, error) {
	opts := harness.Options{ParallelLimit: 1, Stage: "prepare_export_items", Logger: logger}

	results, err := harness.ProcessItems(ctx, requests, opts,
		func(r ItemRequest) string { return r.ItemCodename + "/" + r.LanguageCodename },
		func(ctx context.Context, r ItemRequest) (ExportItem, error) {
			return prepareOne(ctx, api, env, r)
		},
	)
	if err != nil {
		return nil, err
	}

	out := make([]ExportItem, 0, len(results))
	for _, res := range results {
		if res.Outcome == harness.OutcomeValid {
			out = append(out, res.Output)
		}
	}
	return out, nil
}

func prepareOne(ctx context.Context, api managementapi.ManagementApi, env EnvironmentData, r ItemRequest) (ExportItem, error) {
	var item ExportItem

	contentItem, err := api.ViewContentItem(ctx, r.ItemCodename)
	if err != nil {
		return item, kerrors.Lookup("prepare_export_item", r.ItemCodename, err)
	}
	item.ContentItem = *contentItem

	collection, ok := findCollection(env.Collections, contentItem.CollectionRef.Codename)
	if !ok {
		return item, kerrors.Lookup("prepare_export_item", r.ItemCodename, fmt.Errorf("collection %q not found", contentItem.CollectionRef.Codename))
	}
	item.Collection = collection

	contentType, ok := findContentType(env.ContentTypes, contentItem.TypeRef.Codename)
	if !ok {
		return item, kerrors.Lookup("prepare_export_item", r.ItemCodename, fmt.Errorf("content type %q not found", contentItem.TypeRef.Codename))
	}
	item.ContentType = contentType

	language, ok := findLanguage(env.Languages, r.LanguageCodename)
	if !ok {
		return item, kerrors.Lookup("prepare_export_item", r.ItemCodename, fmt.Errorf("language %q not found", r.LanguageCodename))
	}
	item.Language = language

	latest, err := api.ViewLanguageVariant(ctx, r.ItemCodename, r.LanguageCodename, false)
	if err != nil {
		return item, kerrors.Lookup("prepare_export_item", r.ItemCodename, err)
	}
	item.Versions = []managementapi.LanguageVariant{*latest}

	wf, ok := findWorkflow(env.Workflows, latest.Workflow.Codename)
	if !ok {
		return item, kerrors.Lookup("prepare_export_item", r.ItemCodename, fmt.Errorf("workflow %q not found", latest.Workflow.Codename))
	}
	item.Workflow = wf

	if _, ok := workflow.StepByCodename(&item.Workflow, latest.WorkflowStep.Codename); !ok {
		return item, kerrors.Lookup("prepare_export_item", r.ItemCodename, fmt.Errorf("workflow step %q not found", latest.WorkflowStep.Codename))
	}

	if wf.PublishedStep.Codename != latest.WorkflowStep.Codename {
		published, err := api.ViewLanguageVariant(ctx, r.ItemCodename, r.LanguageCodename, true)
		if err != nil && !kerrors.IsNotFound(err) {
			return item, kerrors.Lookup("prepare_export_item", r.ItemCodename, err)
		}
		if err == nil {
			item.Versions = append(item.Versions, *published)
		}
	}

	return item, nil
}

// FetchReferenceClosure runs C5 across every prepared item's versions,
// fetches every referenced item and asset by id from the source (404s
// become absence markers, not failures), and returns a Context ready for
// C3/C4 lookups (§4.6 step 3).
func FetchReferenceClosure(ctx context.Context, api managementapi.ManagementApi, env EnvironmentData, items []ExportItem, logger *observability.Logger) (*Context, error) {
	typeByCodename := make(map[string]managementapi.FlattenedContentType, len(env.ContentTypes))
	for _, t := range env.ContentTypes {
		typeByCodename[t.Codename] = t
	}
	taxonomyByGroupID := make(map[string]managementapi.Taxonomy, len(env.Taxonomies))
	for _, t := range env.Taxonomies {
		taxonomyByGroupID[t.ID] = t
	}

	componentTypeElements := func(typeCodename string) ([]managementapi.ElementMetadata, bool) {
		t, ok := typeByCodename[typeCodename]
		if !ok {
			return nil, false
		}
		return t.Elements, true
	}

	perVersion := make([]refs.Result, 0, len(items))
	for _, item := range items {
		for _, v := range item.Versions {
			perVersion = append(perVersion, refs.Extract(item.ContentType.Elements, v.Elements, componentTypeElements))
		}
	}
	allRefs := refs.Merge(perVersion...)

	itemCodenameByID := make(map[string]string)
	itemIDByCodename := make(map[string]string)
	assetCodenameByID := make(map[string]string)
	assetIDByCodename := make(map[string]string)

	for _, item := range items {
		itemCodenameByID[item.ContentItem.ID] = item.ContentItem.Codename
		itemIDByCodename[item.ContentItem.Codename] = item.ContentItem.ID
	}

	itemOpts := harness.Options{ParallelLimit: 1, Stage: "resolve_referenced_items", Logger: logger}
	itemIDs := allRefs.ItemIDs.Slice()
	itemResults, err := harness.ProcessItems(ctx, itemIDs, itemOpts,
		func(id string) string { return id },
		func(ctx context.Context, id string) (managementapi.ContentItem, error) {
			item, err := api.ViewContentItem(ctx, id)
			if err != nil {
				return managementapi.ContentItem{}, err
			}
			return *item, nil
		},
	)
	if err != nil {
		return nil, err
	}
	for i, res := range itemResults {
		if res.Outcome == harness.OutcomeValid {
			itemCodenameByID[itemIDs[i]] = res.Output.Codename
			itemIDByCodename[res.Output.Codename] = itemIDs[i]
		}
	}

	assetOpts := harness.Options{ParallelLimit: 5, Stage: "resolve_referenced_assets", Logger: logger}
	assetIDs := allRefs.AssetIDs.Slice()
	assetResults, err := harness.ProcessItems(ctx, assetIDs, assetOpts,
		func(id string) string { return id },
		func(ctx context.Context, id string) (managementapi.Asset, error) {
			asset, err := api.ViewAsset(ctx, id)
			if err != nil {
				return managementapi.Asset{}, err
			}
			return *asset, nil
		},
	)
	if err != nil {
		return nil, err
	}
	for i, res := range assetResults {
		if res.Outcome == harness.OutcomeValid {
			assetCodenameByID[assetIDs[i]] = res.Output.Codename
			assetIDByCodename[res.Output.Codename] = assetIDs[i]
		}
	}

	return &Context{
		Env:               env,
		Items:             items,
		itemCodenameByID:  itemCodenameByID,
		itemIDByCodename:  itemIDByCodename,
		assetCodenameByID: assetCodenameByID,
		assetIDByCodename: assetIDByCodename,
		typeByCodename:    typeByCodename,
		taxonomyByGroupID: taxonomyByGroupID,
	}, nil
}

func findCollection(cs []managementapi.Collection, codename string) (managementapi.Collection, bool) {
	for _, c := range cs {
		if c.Codename == codename {
			return c, true
		}
	}
	return managementapi.Collection{}, false
}

func findContentType(ts []managementapi.FlattenedContentType, codename string) (managementapi.FlattenedContentType, bool) {
	for _, t := range ts {
		if t.Codename == codename {
			return t, true
		}
	}
	return managementapi.FlattenedContentType{}, false
}

func findLanguage(ls []managementapi.Language, codename string) (managementapi.Language, bool) {
	for _, l := range ls {
		if l.Codename == codename {
			return l, true
		}
	}
	return managementapi.Language{}, false
}

func findWorkflow(ws []managementapi.Workflow, codename string) (managementapi.Workflow, bool) {
	for _, w := range ws {
		if w.Codename == codename {
			return w, true
		}
	}
	return managementapi.Workflow{}, false
}


