package importctx

import (
	"context"
	"testing"

	"github.com/artemis/kontent-migrate/internal/kerrors"
	"github.com/artemis/kontent-migrate/internal/managementapi"
	"github.com/artemis/kontent-migrate/internal/managementapitest"
	"github.com/artemis/kontent-migrate/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseFake() *managementapitest.Fake {
	return &managementapitest.Fake{
		ListWorkflowsFn: func(ctx context.Context) ([]managementapi.Workflow, error) {
			return []managementapi.Workflow{{
				ID:            "wf-1",
				Codename:      "default",
				PublishedStep: managementapi.WorkflowStep{ID: "pub", Codename: "published"},
				ArchivedStep:  managementapi.WorkflowStep{ID: "arc", Codename: "archived"},
			}}, nil
		},
	}
}

func sampleData() model.MigrationData {
	return model.MigrationData{
		Items: []model.MigrationItem{{
			System: model.ItemSystem{
				Codename: "home",
				Language: model.CodenameRef{Codename: "en"},
				Workflow: model.CodenameRef{Codename: "default"},
			},
		}},
		Assets: []model.MigrationAsset{{Codename: "logo"}},
	}
}

func TestBuildMarksMissingItemAndAssetAsNotExists(t *testing.T) {
	fake := baseFake()
	ic, err := Build(context.Background(), fake, sampleData(), nil, Options{})
	require.NoError(t, err)

	state, ok := ic.ItemStates["home"]
	require.True(t, ok)
	assert.False(t, state.Exists)
	assert.Equal(t, "home", state.ExternalID)

	assetState, ok := ic.AssetStates["logo"]
	require.True(t, ok)
	assert.False(t, assetState.Exists)
}

func TestBuildRecordsExistingItemIdentity(t *testing.T) {
	fake := baseFake()
	fake.ViewContentItemFn = func(ctx context.Context, codenameOrID string) (*managementapi.ContentItem, error) {
		return &managementapi.ContentItem{ID: "item-1", Codename: "home", ExternalID: "ext-home"}, nil
	}
	fake.ViewLanguageVariantFn = func(ctx context.Context, itemCodename, langCodename string, published bool) (*managementapi.LanguageVariant, error) {
		if published {
			return nil, kerrors.ErrNotFound
		}
		return &managementapi.LanguageVariant{WorkflowStep: managementapi.CodenameRef{Codename: "published"}}, nil
	}

	ic, err := Build(context.Background(), fake, sampleData(), nil, Options{})
	require.NoError(t, err)

	state := ic.ItemStates["home"]
	assert.True(t, state.Exists)
	assert.Equal(t, "item-1", state.ID)

	variant := ic.VariantStates["home/en"]
	assert.True(t, variant.Exists)
	assert.Equal(t, WorkflowStatePublished, variant.WorkflowState)

	codename, ok := ic.ItemCodenameByID("item-1")
	require.True(t, ok)
	assert.Equal(t, "home", codename)
}

func TestCustomExternalIdGenerator(t *testing.T) {
	fake := baseFake()
	gen := func(codename string) string { return "custom-" + codename }

	ic, err := Build(context.Background(), fake, sampleData(), gen, Options{})
	require.NoError(t, err)
	assert.Equal(t, "custom-home", ic.ItemStates["home"].ExternalID)
	assert.Equal(t, "custom-logo", ic.AssetStates["logo"].ExternalID)
}
