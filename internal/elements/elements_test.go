package elements

import (
	"testing"

	"github.com/artemis/kontent-migrate/internal/managementapi"
	"github.com/artemis/kontent-migrate/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCtx struct {
	itemCodenameByID      map[string]string
	itemIDByCodename      map[string]string
	assetCodenameByID     map[string]string
	assetIDByCodename     map[string]string
	taxonomyTermCodename  map[string]string // groupID/id -> codename
	taxonomyTermID        map[string]string // groupID/codename -> id
	optionCodename        map[string]string // elID/optID -> codename
	optionID              map[string]string // elID/optCodename -> id
	types                 map[string]managementapi.FlattenedContentType
}

func (f fakeCtx) ItemCodenameByID(id string) (string, bool) {
	v, ok := f.itemCodenameByID[id]
	return v, ok
}
func (f fakeCtx) ItemIDByCodename(codename string) (string, bool) {
	v, ok := f.itemIDByCodename[codename]
	return v, ok
}
func (f fakeCtx) AssetCodenameByID(id string) (string, bool) {
	v, ok := f.assetCodenameByID[id]
	return v, ok
}
func (f fakeCtx) AssetIDByCodename(codename string) (string, bool) {
	v, ok := f.assetIDByCodename[codename]
	return v, ok
}
func (f fakeCtx) TaxonomyTermCodename(groupID, id string) (string, bool) {
	v, ok := f.taxonomyTermCodename[groupID+"/"+id]
	return v, ok
}
func (f fakeCtx) TaxonomyTermID(groupID, codename string) (string, bool) {
	v, ok := f.taxonomyTermID[groupID+"/"+codename]
	return v, ok
}
func (f fakeCtx) MultipleChoiceOptionCodename(elementID, optionID string) (string, bool) {
	v, ok := f.optionCodename[elementID+"/"+optionID]
	return v, ok
}
func (f fakeCtx) MultipleChoiceOptionID(elementID, optionCodename string) (string, bool) {
	v, ok := f.optionID[elementID+"/"+optionCodename]
	return v, ok
}
func (f fakeCtx) ContentTypeByCodename(codename string) (managementapi.FlattenedContentType, bool) {
	v, ok := f.types[codename]
	return v, ok
}

func TestExportImportTextRoundTrip(t *testing.T) {
	ctx := fakeCtx{}
	meta := managementapi.ElementMetadata{Codename: "title", Type: "text"}
	wire := managementapi.ElementValue{ElementRef: managementapi.CodenameRef{Codename: "title"}, Value: "Hello"}

	exported, err := Export(ctx, meta, wire, Options{})
	require.NoError(t, err)
	assert.Equal(t, "Hello", exported.StringValue)

	imported, err := Import(ctx, meta, "title", exported, Options{})
	require.NoError(t, err)
	assert.Equal(t, "Hello", imported.Value)
}

func TestExportNumberHandlesNilAndValue(t *testing.T) {
	ctx := fakeCtx{}
	meta := managementapi.ElementMetadata{Codename: "count", Type: "number"}

	exported, err := Export(ctx, meta, managementapi.ElementValue{Value: nil}, Options{})
	require.NoError(t, err)
	assert.Nil(t, exported.NumberValue)

	exported, err = Export(ctx, meta, managementapi.ElementValue{Value: float64(42)}, Options{})
	require.NoError(t, err)
	require.NotNil(t, exported.NumberValue)
	assert.Equal(t, 42.0, *exported.NumberValue)
}

func TestExportImportAssetReferences(t *testing.T) {
	ctx := fakeCtx{
		assetCodenameByID: map[string]string{"asset-1": "logo"},
		assetIDByCodename: map[string]string{"logo": "asset-1"},
	}
	meta := managementapi.ElementMetadata{Codename: "hero", Type: "asset"}
	wire := managementapi.ElementValue{References: []managementapi.IDRef{{ID: "asset-1"}}}

	exported, err := Export(ctx, meta, wire, Options{})
	require.NoError(t, err)
	require.Len(t, exported.ItemReferences, 1)
	assert.Equal(t, "logo", exported.ItemReferences[0].Codename)

	imported, err := Import(ctx, meta, "hero", exported, Options{})
	require.NoError(t, err)
	require.Len(t, imported.References, 1)
	assert.Equal(t, "asset-1", imported.References[0].ID)
}

func TestExportTaxonomyUnresolvedIsFatal(t *testing.T) {
	ctx := fakeCtx{}
	meta := managementapi.ElementMetadata{Codename: "topics", Type: "taxonomy", TaxonomyGroup: "group-1"}
	wire := managementapi.ElementValue{References: []managementapi.IDRef{{ID: "term-1"}}}

	_, err := Export(ctx, meta, wire, Options{})
	assert.Error(t, err)
}

func TestImportMultipleChoiceUnresolvedIsFatal(t *testing.T) {
	ctx := fakeCtx{}
	meta := managementapi.ElementMetadata{Codename: "color", Type: "multiple_choice", ID: "el-1"}
	el := model.MigrationElement{Type: model.ElementMultipleChoice, TermReferences: []model.Reference{{Codename: "red"}}}

	_, err := Import(ctx, meta, "color", el, Options{})
	assert.Error(t, err)
}

func TestExportModularContentIsLenient(t *testing.T) {
	ctx := fakeCtx{itemCodenameByID: map[string]string{"item-1": "related-a"}}
	meta := managementapi.ElementMetadata{Codename: "related", Type: "modular_content"}
	wire := managementapi.ElementValue{References: []managementapi.IDRef{{ID: "item-1"}, {ID: "item-missing"}}}

	exported, err := Export(ctx, meta, wire, Options{})
	require.NoError(t, err)
	require.Len(t, exported.ItemReferences, 1)
	assert.Equal(t, "related-a", exported.ItemReferences[0].Codename)
}

func TestExportImportRichTextWithComponent(t *testing.T) {
	calloutType := managementapi.FlattenedContentType{
		Codename: "callout",
		Elements: []managementapi.ElementMetadata{{Codename: "message", Type: "text"}},
	}
	ctx := fakeCtx{types: map[string]managementapi.FlattenedContentType{"callout": calloutType}}
	meta := managementapi.ElementMetadata{Codename: "body", Type: "rich_text"}

	wireComponent := managementapi.WireComponent{
		ID:   "c1",
		Type: managementapi.CodenameRef{Codename: "callout"},
		Elements: []managementapi.ElementValue{
			{ElementRef: managementapi.CodenameRef{Codename: "message"}, Value: "hi"},
		},
	}
	wire := managementapi.ElementValue{
		Value:      `<object type="application/kenticocloud" data-type="item" data-rel="component" data-codename="c1"></object>`,
		Components: []managementapi.WireComponent{wireComponent},
	}

	exported, err := Export(ctx, meta, wire, Options{})
	require.NoError(t, err)
	require.Len(t, exported.Components, 1)
	assert.Equal(t, "hi", exported.Components[0].Elements["message"].StringValue)

	imported, err := Import(ctx, meta, "body", exported, Options{})
	require.NoError(t, err)
	require.Len(t, imported.Components, 1)
	assert.Equal(t, "hi", imported.Components[0].Elements[0].Value)
}

func TestExportUnknownElementTypeErrors(t *testing.T) {
	ctx := fakeCtx{}
	meta := managementapi.ElementMetadata{Codename: "weird", Type: "not_a_real_type"}
	_, err := Export(ctx, meta, managementapi.ElementValue{}, Options{})
	assert.Error(t, err)
}
