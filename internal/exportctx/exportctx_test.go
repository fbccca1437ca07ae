package exportctx

import (
	"context"
	"testing"

	"github.com/artemis/kontent-migrate/internal/kerrors"
	"github.com/artemis/kontent-migrate/internal/managementapi"
	"github.com/artemis/kontent-migrate/internal/managementapitest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseFake() *managementapitest.Fake {
	return &managementapitest.Fake{
		ListCollectionsFn: func(ctx context.Context) ([]managementapi.Collection, error) {
			return []managementapi.Collection{{ID: "col-1", Codename: "default"}}, nil
		},
		ListContentTypesFn: func(ctx context.Context) ([]managementapi.FlattenedContentType, error) {
			return []managementapi.FlattenedContentType{{
				ID:       "type-1",
				Codename: "page",
				Elements: []managementapi.ElementMetadata{{ID: "el-1", Codename: "title", Type: "text"}},
			}}, nil
		},
		ListLanguagesFn: func(ctx context.Context) ([]managementapi.Language, error) {
			return []managementapi.Language{{ID: "lang-1", Codename: "en"}}, nil
		},
		ListWorkflowsFn: func(ctx context.Context) ([]managementapi.Workflow, error) {
			return []managementapi.Workflow{{
				ID:            "wf-1",
				Codename:      "default",
				Steps:         []managementapi.WorkflowStep{{ID: "s1", Codename: "draft"}},
				PublishedStep: managementapi.WorkflowStep{ID: "pub", Codename: "published"},
				ArchivedStep:  managementapi.WorkflowStep{ID: "arc", Codename: "archived"},
			}}, nil
		},
		ListTaxonomiesFn: func(ctx context.Context) ([]managementapi.Taxonomy, error) { return nil, nil },
		ListAssetFoldersFn: func(ctx context.Context) ([]managementapi.AssetFolder, error) { return nil, nil },
	}
}

func TestLoadEnvironmentData(t *testing.T) {
	fake := baseFake()
	env, err := LoadEnvironmentData(context.Background(), fake)
	require.NoError(t, err)
	assert.Len(t, env.Collections, 1)
	assert.Len(t, env.ContentTypes, 1)
	assert.Len(t, env.Languages, 1)
	assert.Len(t, env.Workflows, 1)
}

func TestLoadEnvironmentDataPropagatesRemoteError(t *testing.T) {
	fake := baseFake()
	fake.ListCollectionsFn = func(ctx context.Context) ([]managementapi.Collection, error) {
		return nil, assertError{}
	}
	_, err := LoadEnvironmentData(context.Background(), fake)
	assert.Error(t, err)
}

type assertError struct{}

func (assertError) Error() string { return "boom" }

func TestPrepareExportItemsBuildsExportItem(t *testing.T) {
	fake := baseFake()
	fake.ViewContentItemFn = func(ctx context.Context, codenameOrID string) (*managementapi.ContentItem, error) {
		return &managementapi.ContentItem{
			ID:            "item-1",
			Codename:      "home",
			TypeRef:       managementapi.CodenameRef{Codename: "page"},
			CollectionRef: managementapi.CodenameRef{Codename: "default"},
		}, nil
	}
	fake.ViewLanguageVariantFn = func(ctx context.Context, itemCodename, langCodename string, published bool) (*managementapi.LanguageVariant, error) {
		if published {
			return nil, kerrors.ErrNotFound
		}
		return &managementapi.LanguageVariant{
			Item:         managementapi.IDRef{ID: "item-1"},
			Workflow:     managementapi.CodenameRef{Codename: "default"},
			WorkflowStep: managementapi.CodenameRef{Codename: "draft"},
		}, nil
	}

	env, err := LoadEnvironmentData(context.Background(), fake)
	require.NoError(t, err)

	items, err := PrepareExportItems(context.Background(), fake, env, []ItemRequest{{ItemCodename: "home", LanguageCodename: "en"}}, nil)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "home", items[0].ContentItem.Codename)
	assert.Equal(t, "page", items[0].ContentType.Codename)
	assert.Len(t, items[0].Versions, 1)
}

func TestPrepareExportItemsDropsItemWithUnknownCollection(t *testing.T) {
	fake := baseFake()
	fake.ViewContentItemFn = func(ctx context.Context, codenameOrID string) (*managementapi.ContentItem, error) {
		return &managementapi.ContentItem{
			Codename:      "orphan",
			TypeRef:       managementapi.CodenameRef{Codename: "page"},
			CollectionRef: managementapi.CodenameRef{Codename: "missing"},
		}, nil
	}

	env, err := LoadEnvironmentData(context.Background(), fake)
	require.NoError(t, err)

	items, err := PrepareExportItems(context.Background(), fake, env, []ItemRequest{{ItemCodename: "orphan", LanguageCodename: "en"}}, nil)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestFetchReferenceClosureResolvesReferencedItemsAndAssets(t *testing.T) {
	fake := baseFake()

	item := ExportItem{
		ContentItem: managementapi.ContentItem{ID: "item-1", Codename: "home"},
		ContentType: managementapi.FlattenedContentType{
			Codename: "page",
			Elements: []managementapi.ElementMetadata{{ID: "el-1", Codename: "related", Type: "modular_content"}},
		},
		Versions: []managementapi.LanguageVariant{{
			Elements: []managementapi.ElementValue{
				{ElementRef: managementapi.CodenameRef{Codename: "related"}, References: []managementapi.IDRef{{ID: "item-2"}}},
			},
		}},
	}

	fake.ViewContentItemFn = func(ctx context.Context, codenameOrID string) (*managementapi.ContentItem, error) {
		return &managementapi.ContentItem{ID: "item-2", Codename: "related-a"}, nil
	}

	env, err := LoadEnvironmentData(context.Background(), fake)
	require.NoError(t, err)

	ec, err := FetchReferenceClosure(context.Background(), fake, env, []ExportItem{item}, nil)
	require.NoError(t, err)

	codename, ok := ec.ItemCodenameByID("item-2")
	require.True(t, ok)
	assert.Equal(t, "related-a", codename)
}
