package assetimport

import (
	"context"
	"testing"

	"github.com/artemis/kontent-migrate/internal/exportctx"
	"github.com/artemis/kontent-migrate/internal/importctx"
	"github.com/artemis/kontent-migrate/internal/managementapi"
	"github.com/artemis/kontent-migrate/internal/managementapitest"
	"github.com/artemis/kontent-migrate/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contextWithLanguages(codenames ...string) *importctx.Context {
	env := exportctx.EnvironmentData{}
	for _, c := range codenames {
		env.Languages = append(env.Languages, managementapi.Language{Codename: c})
	}
	return &importctx.Context{Env: env, AssetStates: map[string]importctx.AssetState{}}
}

func TestImportUploadsNewAsset(t *testing.T) {
	fake := &managementapitest.Fake{
		UploadBinaryFileFn: func(ctx context.Context, data managementapi.BinaryUpload) (*managementapi.FileReference, error) {
			return &managementapi.FileReference{ID: "file-1"}, nil
		},
		AddAssetFn: func(ctx context.Context, data managementapi.AssetCreate) (*managementapi.Asset, error) {
			return &managementapi.Asset{ID: "asset-1", Codename: data.Codename}, nil
		},
	}
	ic := contextWithLanguages("en")
	assets := []model.MigrationAsset{{Codename: "logo", Filename: "logo.png", BinaryData: []byte("data")}}

	out, err := Import(context.Background(), fake, ic, assets, Options{})
	require.NoError(t, err)
	require.Contains(t, out, "logo")
	assert.Equal(t, "asset-1", out["logo"].ID)
}

func TestImportEditsChangedMetadataWithoutReupload(t *testing.T) {
	fake := &managementapitest.Fake{
		UpsertAssetFn: func(ctx context.Context, codename string, data managementapi.AssetUpsert) (*managementapi.Asset, error) {
			return &managementapi.Asset{ID: "asset-1", Codename: codename, Title: data.Title}, nil
		},
	}
	ic := contextWithLanguages("en")
	ic.AssetStates["logo"] = importctx.AssetState{
		Exists: true, ID: "asset-1",
		Asset: &managementapi.Asset{ID: "asset-1", Codename: "logo", Title: "Old Title"},
	}
	assets := []model.MigrationAsset{{Codename: "logo", Filename: "logo.png", Title: "New Title"}}

	out, err := Import(context.Background(), fake, ic, assets, Options{})
	require.NoError(t, err)
	assert.Equal(t, "New Title", out["logo"].Title)

	for _, c := range fake.Calls {
		assert.NotContains(t, c, "UploadBinaryFile")
		assert.NotContains(t, c, "AddAsset")
	}
}

func TestImportSkipsUnchangedAsset(t *testing.T) {
	fake := &managementapitest.Fake{}
	ic := contextWithLanguages("en")
	ic.AssetStates["logo"] = importctx.AssetState{
		Exists: true, ID: "asset-1",
		Asset: &managementapi.Asset{ID: "asset-1", Codename: "logo", Title: "Same"},
	}
	assets := []model.MigrationAsset{{Codename: "logo", Filename: "logo.png", Title: "Same"}}

	out, err := Import(context.Background(), fake, ic, assets, Options{})
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Empty(t, fake.Calls)
}

func TestFilterDescriptionsDropsUnknownLanguage(t *testing.T) {
	ic := contextWithLanguages("en")
	descs := []model.AssetDescription{
		{Language: model.CodenameRef{Codename: "en"}, Description: "English"},
		{Language: model.CodenameRef{Codename: "fr"}, Description: "French"},
	}
	out := filterDescriptions(descs, ic)
	require.Len(t, out, 1)
	assert.Equal(t, "en", out[0].Language.Codename)
}

func TestShouldUpdateAssetDetectsCollectionChange(t *testing.T) {
	target := &managementapi.Asset{Title: "T", CollectionRef: &managementapi.CodenameRef{Codename: "old"}}
	a := model.MigrationAsset{Title: "T", Collection: &model.CodenameRef{Codename: "new"}}
	assert.True(t, shouldUpdateAsset(a, target))
}
