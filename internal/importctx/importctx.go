// Package importctx implements C8, the Import Context Builder: for every
// codename appearing in a MigrationData snapshot, it probes the target
// environment for existing items/variants/assets and computes the
// external id each create call should use, so an interrupted import can be
// safely re-run (§4.8, §9 "External-id idempotence").
package importctx

import (
	"context"

	"github.com/artemis/kontent-migrate/internal/exportctx"
	"github.com/artemis/kontent-migrate/internal/harness"
	"github.com/artemis/kontent-migrate/internal/kerrors"
	"github.com/artemis/kontent-migrate/internal/managementapi"
	"github.com/artemis/kontent-migrate/internal/model"
	"github.com/artemis/kontent-migrate/internal/observability"
)

// Options tunes the probing parallelism used while building a Context.
type Options struct {
	ItemProbeParallelism  int
	AssetProbeParallelism int
	Logger                *observability.Logger
}

// ExternalIdGenerator computes the idempotency key a create call should
// use for a given source codename. Callers that don't need a custom scheme
// should pass nil; DefaultExternalIdGenerator (identity) is used instead.
type ExternalIdGenerator func(codename string) string

// DefaultExternalIdGenerator uses the codename itself as the external id.
func DefaultExternalIdGenerator(codename string) string { return codename }

const (
	WorkflowStateDraft     = "draft"
	WorkflowStatePublished = "published"
	WorkflowStateArchived  = "archived"

	ScheduledStateNone      = "none"
	ScheduledStatePublish   = "scheduledPublish"
	ScheduledStateUnpublish = "scheduledUnpublish"
)

// ItemState is whether a content item shell already exists in the target.
type ItemState struct {
	Exists     bool
	ID         string
	ExternalID string
}

// VariantState is the target's current state for one (item, language)
// language variant.
type VariantState struct {
	Exists         bool
	Draft          *managementapi.LanguageVariant
	Published      *managementapi.LanguageVariant
	WorkflowState  string
	ScheduledState string
}

// AssetState is whether an asset already exists in the target.
type AssetState struct {
	Exists     bool
	ID         string
	ExternalID string
	Asset      *managementapi.Asset
}

// Context is the complete import-side lookup surface.
type Context struct {
	Env exportctx.EnvironmentData

	ItemStates    map[string]ItemState    // by item codename
	VariantStates map[string]VariantState // by "itemCodename/languageCodename"
	AssetStates   map[string]AssetState   // by asset codename

	itemIDByCodename  map[string]string
	itemCodenameByID  map[string]string
	assetIDByCodename map[string]string
	assetCodenameByID map[string]string
	typeByCodename    map[string]managementapi.FlattenedContentType
	taxonomyByGroupID map[string]managementapi.Taxonomy
}

func variantKey(itemCodename, languageCodename string) string {
	return itemCodename + "/" + languageCodename
}

// ItemCodenameByID / ItemIDByCodename implement richtext.ItemResolver.
func (c *Context) ItemCodenameByID(id string) (string, bool) {
	codename, ok := c.itemCodenameByID[id]
	return codename, ok
}

func (c *Context) ItemIDByCodename(codename string) (string, bool) {
	id, ok := c.itemIDByCodename[codename]
	return id, ok
}

// AssetCodenameByID / AssetIDByCodename implement richtext.AssetResolver.
func (c *Context) AssetCodenameByID(id string) (string, bool) {
	codename, ok := c.assetCodenameByID[id]
	return codename, ok
}

func (c *Context) AssetIDByCodename(codename string) (string, bool) {
	id, ok := c.assetIDByCodename[codename]
	return id, ok
}

// ContentTypeByCodename resolves a type codename's flattened element
// metadata in the target environment.
func (c *Context) ContentTypeByCodename(codename string) (managementapi.FlattenedContentType, bool) {
	if t, ok := c.typeByCodename[codename]; ok {
		return t, true
	}
	for _, t := range c.Env.ContentTypes {
		if t.Codename == codename {
			return t, true
		}
	}
	return managementapi.FlattenedContentType{}, false
}

// TaxonomyTermID is the inverse of exportctx's TaxonomyTermCodename.
func (c *Context) TaxonomyTermID(groupID, termCodename string) (string, bool) {
	tax, ok := c.taxonomyByGroupID[groupID]
	if !ok {
		return "", false
	}
	return dfsTermID(tax.Terms, termCodename)
}

func dfsTermID(terms []managementapi.TaxonomyTerm, codename string) (string, bool) {
	for _, t := range terms {
		if t.Codename == codename {
			return t.ID, true
		}
		if id, ok := dfsTermID(t.Terms, codename); ok {
			return id, true
		}
	}
	return "", false
}

// MultipleChoiceOptionID is the inverse of exportctx's
// MultipleChoiceOptionCodename.
func (c *Context) MultipleChoiceOptionID(elementID, optionCodename string) (string, bool) {
	for _, ct := range c.Env.ContentTypes {
		for _, el := range ct.Elements {
			if el.ID != elementID {
				continue
			}
			for _, opt := range el.Options {
				if opt.Codename == optionCodename {
					return opt.ID, true
				}
			}
		}
	}
	return "", false
}

// WorkflowByCodename resolves a workflow in the target by codename.
func (c *Context) WorkflowByCodename(codename string) (managementapi.Workflow, bool) {
	for _, w := range c.Env.Workflows {
		if w.Codename == codename {
			return w, true
		}
	}
	return managementapi.Workflow{}, false
}

// itemProbe is one (item, language) pair queued for probing; an item may
// legitimately appear more than once in data.Items (one per language). Each
// distinct (item, language) pair is probed once, so an item's existence is
// probed once per language it appears in.
type itemProbe struct {
	itemCodename     string
	langCodename     string
	workflowCodename string
}

type itemProbeResult struct {
	item    ItemState
	variant VariantState
}

// Build loads the target environment's metadata and probes it for every
// item, language variant and asset codename named in data (§4.8).
func Build(ctx context.Context, api managementapi.ManagementApi, data model.MigrationData, externalIDGen ExternalIdGenerator, opts Options) (*Context, error) {
	if externalIDGen == nil {
		externalIDGen = DefaultExternalIdGenerator
	}

	env, err := exportctx.LoadEnvironmentData(ctx, api)
	if err != nil {
		return nil, err
	}

	typeByCodename := make(map[string]managementapi.FlattenedContentType, len(env.ContentTypes))
	for _, t := range env.ContentTypes {
		typeByCodename[t.Codename] = t
	}
	taxonomyByGroupID := make(map[string]managementapi.Taxonomy, len(env.Taxonomies))
	for _, t := range env.Taxonomies {
		taxonomyByGroupID[t.ID] = t
	}

	c := &Context{
		Env:               env,
		ItemStates:        map[string]ItemState{},
		VariantStates:     map[string]VariantState{},
		AssetStates:       map[string]AssetState{},
		itemIDByCodename:  map[string]string{},
		itemCodenameByID:  map[string]string{},
		assetIDByCodename: map[string]string{},
		assetCodenameByID: map[string]string{},
		typeByCodename:    typeByCodename,
		taxonomyByGroupID: taxonomyByGroupID,
	}

	seen := map[string]struct{}{}
	probes := make([]itemProbe, 0, len(data.Items))
	for _, item := range data.Items {
		key := variantKey(item.System.Codename, item.System.Language.Codename)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		probes = append(probes, itemProbe{
			itemCodename:     item.System.Codename,
			langCodename:     item.System.Language.Codename,
			workflowCodename: item.System.Workflow.Codename,
		})
	}

	itemParallel := opts.ItemProbeParallelism
	if itemParallel <= 0 {
		itemParallel = 5
	}
	itemResults, err := harness.ProcessItems(ctx, probes,
		harness.Options{ParallelLimit: itemParallel, Stage: "probe_items", Logger: opts.Logger},
		func(p itemProbe) string { return p.itemCodename },
		func(ctx context.Context, p itemProbe) (itemProbeResult, error) {
			itemState, err := probeItem(ctx, api, p.itemCodename, externalIDGen)
			if err != nil {
				return itemProbeResult{}, err
			}
			variantState, err := probeVariant(ctx, api, p.itemCodename, p.langCodename, c.WorkflowByCodename, p.workflowCodename)
			if err != nil {
				return itemProbeResult{}, err
			}
			return itemProbeResult{item: itemState, variant: variantState}, nil
		},
	)
	if err != nil {
		return nil, err
	}
	for i, res := range itemResults {
		if res.Outcome != harness.OutcomeValid {
			continue
		}
		p := probes[i]
		c.ItemStates[p.itemCodename] = res.Output.item
		if res.Output.item.Exists {
			c.itemIDByCodename[p.itemCodename] = res.Output.item.ID
			c.itemCodenameByID[res.Output.item.ID] = p.itemCodename
		}
		c.VariantStates[variantKey(p.itemCodename, p.langCodename)] = res.Output.variant
	}

	assetParallel := opts.AssetProbeParallelism
	if assetParallel <= 0 {
		assetParallel = 5
	}
	assetResults, err := harness.ProcessItems(ctx, data.Assets,
		harness.Options{ParallelLimit: assetParallel, Stage: "probe_assets", Logger: opts.Logger},
		func(a model.MigrationAsset) string { return a.Codename },
		func(ctx context.Context, a model.MigrationAsset) (AssetState, error) {
			return probeAsset(ctx, api, a.Codename, externalIDGen)
		},
	)
	if err != nil {
		return nil, err
	}
	for i, res := range assetResults {
		if res.Outcome != harness.OutcomeValid {
			continue
		}
		codename := data.Assets[i].Codename
		c.AssetStates[codename] = res.Output
		if res.Output.Exists {
			c.assetIDByCodename[codename] = res.Output.ID
			c.assetCodenameByID[res.Output.ID] = codename
		}
	}

	return c, nil
}

func probeItem(ctx context.Context, api managementapi.ManagementApi, codename string, externalIDGen ExternalIdGenerator) (ItemState, error) {
	item, err := api.ViewContentItem(ctx, codename)
	if err != nil {
		if kerrors.IsNotFound(err) {
			return ItemState{Exists: false, ExternalID: externalIDGen(codename)}, nil
		}
		return ItemState{}, kerrors.Remote("probe_item", err)
	}
	return ItemState{Exists: true, ID: item.ID, ExternalID: item.ExternalID}, nil
}

func probeAsset(ctx context.Context, api managementapi.ManagementApi, codename string, externalIDGen ExternalIdGenerator) (AssetState, error) {
	asset, err := api.ViewAsset(ctx, codename)
	if err != nil {
		if kerrors.IsNotFound(err) {
			return AssetState{Exists: false, ExternalID: externalIDGen(codename)}, nil
		}
		return AssetState{}, kerrors.Remote("probe_asset", err)
	}
	return AssetState{Exists: true, ID: asset.ID, ExternalID: asset.ExternalID, Asset: asset}, nil
}

func probeVariant(ctx context.Context, api managementapi.ManagementApi, itemCodename, langCodename string, workflowLookup func(string) (managementapi.Workflow, bool), workflowCodename string) (VariantState, error) {
	var state VariantState

	draft, err := api.ViewLanguageVariant(ctx, itemCodename, langCodename, false)
	if err != nil {
		if !kerrors.IsNotFound(err) {
			return state, kerrors.Remote("probe_variant", err)
		}
	} else {
		state.Exists = true
		state.Draft = draft
	}

	published, err := api.ViewLanguageVariant(ctx, itemCodename, langCodename, true)
	if err != nil {
		if !kerrors.IsNotFound(err) {
			return state, kerrors.Remote("probe_variant", err)
		}
	} else {
		state.Exists = true
		state.Published = published
	}

	if !state.Exists {
		state.WorkflowState = WorkflowStateDraft
		state.ScheduledState = ScheduledStateNone
		return state, nil
	}

	current := state.Draft
	if current == nil {
		current = state.Published
	}

	wf, ok := workflowLookup(workflowCodename)
	switch {
	case ok && current.WorkflowStep.Codename == wf.ArchivedStep.Codename:
		state.WorkflowState = WorkflowStateArchived
	case ok && current.WorkflowStep.Codename == wf.PublishedStep.Codename:
		state.WorkflowState = WorkflowStatePublished
	default:
		state.WorkflowState = WorkflowStateDraft
	}

	state.ScheduledState = ScheduledStateNone
	for _, v := range []*managementapi.LanguageVariant{state.Draft, state.Published} {
		if v == nil || v.Schedule == nil {
			continue
		}
		if v.Schedule.PublishedScheduledAt != nil {
			state.ScheduledState = ScheduledStatePublish
			break
		}
		if v.Schedule.UnpublishedScheduledAt != nil {
			state.ScheduledState = ScheduledStateUnpublish
			break
		}
	}

	return state, nil
}
