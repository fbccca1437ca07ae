// Package itemimport implements C9, the Content-Item Importer: for every
// distinct item codename in a snapshot, create or rename the
// language-agnostic item shell in the target environment (§4.9). Runs
// strictly serial (parallelism 1) so the local dedupe-by-codename pass
// needs no locking (§9 "Concurrent mutation").
package itemimport

import (
	"context"

	"github.com/artemis/kontent-migrate/internal/harness"
	"github.com/artemis/kontent-migrate/internal/importctx"
	"github.com/artemis/kontent-migrate/internal/kerrors"
	"github.com/artemis/kontent-migrate/internal/managementapi"
	"github.com/artemis/kontent-migrate/internal/model"
	"github.com/artemis/kontent-migrate/internal/observability"
)

// Options tunes the importer's logging.
type Options struct {
	Logger      *observability.Logger
	FailOnError bool
}

// Import creates or upserts one item shell per distinct codename in items,
// returning the created/fetched shell keyed by codename. Duplicate
// codenames (one MigrationItem per language) are deduped locally before
// any call is issued, on top of C8's target-probe dedup (§9 Open Question:
// "dedupe both locally and via probe").
func Import(ctx context.Context, api managementapi.ManagementApi, ic *importctx.Context, items []model.MigrationItem, opts Options) (map[string]*managementapi.ContentItem, error) {
	representative := make(map[string]model.MigrationItem)
	order := make([]string, 0, len(items))
	for _, it := range items {
		codename := it.System.Codename
		if _, ok := representative[codename]; ok {
			continue
		}
		representative[codename] = it
		order = append(order, codename)
	}

	results, err := harness.ProcessItems(ctx, order,
		harness.Options{ParallelLimit: 1, Stage: "import_items", Logger: opts.Logger, FailOnError: opts.FailOnError},
		func(codename string) string { return codename },
		func(ctx context.Context, codename string) (*managementapi.ContentItem, error) {
			return importOne(ctx, api, ic, representative[codename])
		},
	)
	if err != nil {
		return nil, err
	}

	out := make(map[string]*managementapi.ContentItem, len(order))
	for i, res := range results {
		if res.Outcome != harness.OutcomeValid {
			continue
		}
		out[order[i]] = res.Output
	}
	return out, nil
}

func importOne(ctx context.Context, api managementapi.ManagementApi, ic *importctx.Context, item model.MigrationItem) (*managementapi.ContentItem, error) {
	codename := item.System.Codename

	state, ok := ic.ItemStates[codename]
	if !ok {
		state = importctx.ItemState{Exists: false, ExternalID: codename}
	}

	if !state.Exists {
		created, err := api.AddContentItem(ctx, managementapi.ContentItemCreate{
			Name:       item.System.Name,
			Codename:   codename,
			Type:       managementapi.CodenameRef{Codename: item.System.Type.Codename},
			Collection: managementapi.CodenameRef{Codename: item.System.Collection.Codename},
			ExternalID: state.ExternalID,
		})
		if err != nil {
			return nil, kerrors.Remote("add_content_item", err)
		}
		return created, nil
	}

	existing, err := api.ViewContentItem(ctx, codename)
	if err != nil {
		return nil, kerrors.Remote("view_content_item", err)
	}

	if existing.Name == item.System.Name && existing.CollectionRef.Codename == item.System.Collection.Codename {
		return existing, nil
	}

	updated, err := api.UpsertContentItem(ctx, codename, managementapi.ContentItemUpsert{
		Name:       item.System.Name,
		Collection: managementapi.CodenameRef{Codename: item.System.Collection.Codename},
	})
	if err != nil {
		return nil, kerrors.Remote("upsert_content_item", err)
	}
	return updated, nil
}
