package exportmgr

import (
	"context"
	"testing"

	"github.com/artemis/kontent-migrate/internal/exportctx"
	"github.com/artemis/kontent-migrate/internal/managementapi"
	"github.com/artemis/kontent-migrate/internal/managementapitest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildContext(t *testing.T, fake *managementapitest.Fake, items []exportctx.ExportItem) *exportctx.Context {
	t.Helper()
	env, err := exportctx.LoadEnvironmentData(context.Background(), fake)
	require.NoError(t, err)
	ec, err := exportctx.FetchReferenceClosure(context.Background(), fake, env, items, nil)
	require.NoError(t, err)
	return ec
}

func TestBuildMapsItemAndDownloadsAsset(t *testing.T) {
	fake := &managementapitest.Fake{
		ListTaxonomiesFn:   func(ctx context.Context) ([]managementapi.Taxonomy, error) { return nil, nil },
		ListAssetFoldersFn: func(ctx context.Context) ([]managementapi.AssetFolder, error) { return nil, nil },
		ViewAssetFn: func(ctx context.Context, idOrCodename string) (*managementapi.Asset, error) {
			return &managementapi.Asset{ID: "asset-1", Codename: "logo", Filename: "logo.png", URL: "https://cdn/logo.png"}, nil
		},
		DownloadAssetFn: func(ctx context.Context, url string) ([]byte, error) {
			return []byte("binary"), nil
		},
	}

	item := exportctx.ExportItem{
		ContentItem: managementapi.ContentItem{ID: "item-1", Codename: "home"},
		ContentType: managementapi.FlattenedContentType{
			Codename: "page",
			Elements: []managementapi.ElementMetadata{{Codename: "hero", Type: "asset"}},
		},
		Language:   managementapi.Language{Codename: "en"},
		Collection: managementapi.Collection{Codename: "default"},
		Workflow:   managementapi.Workflow{Codename: "default"},
		Versions: []managementapi.LanguageVariant{{
			WorkflowStep: managementapi.CodenameRef{Codename: "draft"},
			Elements: []managementapi.ElementValue{
				{ElementRef: managementapi.CodenameRef{Codename: "hero"}, References: []managementapi.IDRef{{ID: "asset-1"}}},
			},
		}},
	}
	ec := buildContext(t, fake, []exportctx.ExportItem{item})

	data, err := Build(context.Background(), fake, ec, Options{})
	require.NoError(t, err)
	require.Len(t, data.Items, 1)
	assert.Equal(t, "home", data.Items[0].System.Codename)

	require.Len(t, data.Assets, 1)
	assert.Equal(t, "logo", data.Assets[0].Codename)
	assert.Equal(t, []byte("binary"), data.Assets[0].BinaryData)
}

func TestBuildDownloadsAssetReferencedOnlyFromRichText(t *testing.T) {
	fake := &managementapitest.Fake{
		ListTaxonomiesFn:   func(ctx context.Context) ([]managementapi.Taxonomy, error) { return nil, nil },
		ListAssetFoldersFn: func(ctx context.Context) ([]managementapi.AssetFolder, error) { return nil, nil },
		ViewAssetFn: func(ctx context.Context, idOrCodename string) (*managementapi.Asset, error) {
			return &managementapi.Asset{ID: "asset-1", Codename: "inline-image", Filename: "inline.png", URL: "https://cdn/inline.png"}, nil
		},
		DownloadAssetFn: func(ctx context.Context, url string) ([]byte, error) {
			return []byte("inline-binary"), nil
		},
	}

	item := exportctx.ExportItem{
		ContentItem: managementapi.ContentItem{ID: "item-1", Codename: "home"},
		ContentType: managementapi.FlattenedContentType{
			Codename: "page",
			Elements: []managementapi.ElementMetadata{{Codename: "body", Type: "rich_text"}},
		},
		Language:   managementapi.Language{Codename: "en"},
		Collection: managementapi.Collection{Codename: "default"},
		Workflow:   managementapi.Workflow{Codename: "default"},
		Versions: []managementapi.LanguageVariant{{
			WorkflowStep: managementapi.CodenameRef{Codename: "draft"},
			Elements: []managementapi.ElementValue{
				{
					ElementRef: managementapi.CodenameRef{Codename: "body"},
					Value:      `<p>see <figure data-asset-id="asset-1"></figure></p>`,
				},
			},
		}},
	}
	ec := buildContext(t, fake, []exportctx.ExportItem{item})

	data, err := Build(context.Background(), fake, ec, Options{})
	require.NoError(t, err)
	require.Len(t, data.Items, 1)

	require.Len(t, data.Assets, 1)
	assert.Equal(t, "inline-image", data.Assets[0].Codename)
	assert.Equal(t, []byte("inline-binary"), data.Assets[0].BinaryData)
}

func TestBuildDropsItemOnMappingFailureWithoutAborting(t *testing.T) {
	fake := &managementapitest.Fake{
		ListTaxonomiesFn:   func(ctx context.Context) ([]managementapi.Taxonomy, error) { return nil, nil },
		ListAssetFoldersFn: func(ctx context.Context) ([]managementapi.AssetFolder, error) { return nil, nil },
	}

	good := exportctx.ExportItem{
		ContentItem: managementapi.ContentItem{ID: "item-1", Codename: "home"},
		ContentType: managementapi.FlattenedContentType{Codename: "page"},
		Language:    managementapi.Language{Codename: "en"},
		Collection:  managementapi.Collection{Codename: "default"},
		Workflow:    managementapi.Workflow{Codename: "default"},
		Versions: []managementapi.LanguageVariant{{
			WorkflowStep: managementapi.CodenameRef{Codename: "draft"},
		}},
	}
	bad := exportctx.ExportItem{
		ContentItem: managementapi.ContentItem{ID: "item-2", Codename: "broken"},
		ContentType: managementapi.FlattenedContentType{
			Codename: "page",
			Elements: []managementapi.ElementMetadata{{Codename: "weird", Type: "not_a_real_type"}},
		},
		Language:   managementapi.Language{Codename: "en"},
		Collection: managementapi.Collection{Codename: "default"},
		Workflow:   managementapi.Workflow{Codename: "default"},
		Versions: []managementapi.LanguageVariant{{
			WorkflowStep: managementapi.CodenameRef{Codename: "draft"},
			Elements: []managementapi.ElementValue{
				{ElementRef: managementapi.CodenameRef{Codename: "weird"}, Value: "x"},
			},
		}},
	}
	ec := buildContext(t, fake, []exportctx.ExportItem{good, bad})

	data, err := Build(context.Background(), fake, ec, Options{})
	require.NoError(t, err)
	require.Len(t, data.Items, 1)
	assert.Equal(t, "home", data.Items[0].System.Codename)
}
