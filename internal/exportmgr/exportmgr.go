// Package exportmgr implements C7, the Export Manager: it maps every
// prepared export item to a MigrationItem via C3, downloads every
// referenced asset's binary, and assembles the final MigrationData
// snapshot. Per-item mapping errors are caught and logged; the item is
// dropped from the output rather than aborting the run (§4.7).
package exportmgr

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/artemis/kontent-migrate/internal/elements"
	"github.com/artemis/kontent-migrate/internal/exportctx"
	"github.com/artemis/kontent-migrate/internal/harness"
	"github.com/artemis/kontent-migrate/internal/kerrors"
	"github.com/artemis/kontent-migrate/internal/managementapi"
	"github.com/artemis/kontent-migrate/internal/model"
	"github.com/artemis/kontent-migrate/internal/observability"
	"github.com/artemis/kontent-migrate/internal/richtext"
	"github.com/artemis/kontent-migrate/internal/schema"
	"go.uber.org/zap"
)

// Options tunes the export manager's behavior.
type Options struct {
	AssetDownloadParallelism int
	ReplaceInvalidLinks      bool
	Logger                   *observability.Logger
}

// Build maps every export item to a MigrationItem, downloads referenced
// asset binaries, and returns the assembled MigrationData.
func Build(ctx context.Context, api managementapi.ManagementApi, ec *exportctx.Context, opts Options) (model.MigrationData, error) {
	items := make([]model.MigrationItem, 0, len(ec.Items))

	for _, item := range ec.Items {
		migrationItem, err := mapItem(ec, item, opts)
		if err != nil {
			if opts.Logger != nil {
				opts.Logger.Error("dropping export item: mapping failed",
					zap.String("item", item.ContentItem.Codename), zap.Error(err))
			}
			continue
		}
		items = append(items, migrationItem)
	}

	assetCodenames := collectAssetCodenames(items)
	assets, err := downloadAssets(ctx, api, ec, assetCodenames, opts)
	if err != nil {
		return model.MigrationData{}, err
	}

	data := model.MigrationData{Items: items, Assets: assets}
	if err := validate(data); err != nil {
		return model.MigrationData{}, kerrors.Config("validate_snapshot", err)
	}
	return data, nil
}

func validate(data model.MigrationData) error {
	encoded, err := json.Marshal(struct {
		Items []model.MigrationItem `json:"items"`
	}{Items: data.Items})
	if err != nil {
		return fmt.Errorf("marshal snapshot for validation: %w", err)
	}
	return schema.ValidateItems(encoded)
}

func mapItem(ec *exportctx.Context, item exportctx.ExportItem, opts Options) (model.MigrationItem, error) {
	out := model.MigrationItem{
		System: model.ItemSystem{
			Name:       item.ContentItem.Name,
			Codename:   item.ContentItem.Codename,
			Language:   model.CodenameRef{Codename: item.Language.Codename},
			Type:       model.CodenameRef{Codename: item.ContentType.Codename},
			Collection: model.CodenameRef{Codename: item.Collection.Codename},
			Workflow:   model.CodenameRef{Codename: item.Workflow.Codename},
		},
	}

	elementOpts := elements.Options{ReplaceInvalidLinks: opts.ReplaceInvalidLinks}

	for _, v := range item.Versions {
		version := model.MigrationItemVersion{
			Elements:     make(map[string]model.MigrationElement, len(v.Elements)),
			WorkflowStep: model.CodenameRef{Codename: v.WorkflowStep.Codename},
			Schedule:     mapSchedule(v.Schedule),
		}

		sorted := append([]managementapi.ElementValue{}, v.Elements...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].ElementRef.Codename < sorted[j].ElementRef.Codename })

		for _, ev := range sorted {
			meta, ok := metaFor(item.ContentType, ev.ElementRef.Codename)
			if !ok {
				continue
			}
			migrated, err := elements.Export(ec, meta, ev, elementOpts)
			if err != nil {
				return out, err
			}
			version.Elements[ev.ElementRef.Codename] = migrated
		}

		out.Versions = append(out.Versions, version)
	}

	return out, nil
}

func mapSchedule(s *managementapi.VariantSchedule) *model.Schedule {
	if s == nil {
		return nil
	}
	out := &model.Schedule{}
	if s.PublishedScheduledAt != nil {
		out.PublishTime = s.PublishedScheduledAt.Format("2006-01-02T15:04:05Z07:00")
		out.PublishDisplayTimezone = s.DisplayTimezone
	}
	if s.UnpublishedScheduledAt != nil {
		out.UnpublishTime = s.UnpublishedScheduledAt.Format("2006-01-02T15:04:05Z07:00")
		out.UnpublishDisplayTimezone = s.DisplayTimezone
	}
	if out.PublishTime == "" && out.UnpublishTime == "" {
		return nil
	}
	return out
}

func metaFor(ct managementapi.FlattenedContentType, codename string) (managementapi.ElementMetadata, bool) {
	for _, m := range ct.Elements {
		if m.Codename == codename {
			return m, true
		}
	}
	return managementapi.ElementMetadata{}, false
}

func collectAssetCodenames(items []model.MigrationItem) []string {
	seen := map[string]struct{}{}
	for _, item := range items {
		for _, v := range item.Versions {
			for _, el := range v.Elements {
				collectElementAssetCodenames(el, seen)
			}
		}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// collectElementAssetCodenames gathers asset codenames directly held by an
// asset element and, for rich_text, codenames embedded in data-asset-id
// attributes (already rewritten to codenames by C4's export pass) plus any
// nested component's own elements, recursing since components can nest
// further rich_text/asset elements.
func collectElementAssetCodenames(el model.MigrationElement, seen map[string]struct{}) {
	switch el.Type {
	case model.ElementAsset:
		for _, ref := range el.ItemReferences {
			seen[ref.Codename] = struct{}{}
		}
	case model.ElementRichText:
		_, assetCodenames := richtext.ExtractReferences(el.RichText)
		for _, codename := range assetCodenames {
			seen[codename] = struct{}{}
		}
		for _, component := range el.Components {
			for _, componentEl := range component.Elements {
				collectElementAssetCodenames(componentEl, seen)
			}
		}
	}
}

func downloadAssets(ctx context.Context, api managementapi.ManagementApi, ec *exportctx.Context, codenames []string, opts Options) ([]model.MigrationAsset, error) {
	parallel := opts.AssetDownloadParallelism
	if parallel <= 0 {
		parallel = 5
	}
	harnessOpts := harness.Options{ParallelLimit: parallel, Stage: "download_assets", Logger: opts.Logger}

	results, err := harness.ProcessItems(ctx, codenames, harnessOpts,
		func(codename string) string { return codename },
		func(ctx context.Context, codename string) (model.MigrationAsset, error) {
			return downloadOne(ctx, api, ec, codename)
		},
	)
	if err != nil {
		return nil, err
	}

	out := make([]model.MigrationAsset, 0, len(results))
	for _, res := range results {
		if res.Outcome == harness.OutcomeValid {
			out = append(out, res.Output)
		}
	}
	return out, nil
}

func downloadOne(ctx context.Context, api managementapi.ManagementApi, ec *exportctx.Context, codename string) (model.MigrationAsset, error) {
	id, ok := ec.AssetIDByCodename(codename)
	if !ok {
		return model.MigrationAsset{}, nil
	}

	asset, err := api.ViewAsset(ctx, id)
	if err != nil {
		return model.MigrationAsset{}, err
	}

	binary, err := api.DownloadAsset(ctx, asset.URL)
	if err != nil {
		return model.MigrationAsset{}, err
	}

	out := model.MigrationAsset{
		Codename:   asset.Codename,
		Filename:   asset.Filename,
		Title:      asset.Title,
		BinaryData: binary,
	}
	if asset.CollectionRef != nil {
		out.Collection = &model.CodenameRef{Codename: asset.CollectionRef.Codename}
	}
	if asset.FolderRef != nil {
		out.Folder = &model.CodenameRef{Codename: asset.FolderRef.Codename}
	}
	for _, d := range asset.Descriptions {
		out.Descriptions = append(out.Descriptions, model.AssetDescription{
			Language:    model.CodenameRef{Codename: d.Language.Codename},
			Description: d.Description,
		})
	}
	return out, nil
}
