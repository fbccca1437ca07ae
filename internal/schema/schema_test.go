package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateItemsAcceptsWellFormedDocument(t *testing.T) {
	doc := []byte(`{
		"items": [
			{
				"system": {
					"codename": "home",
					"language": {"codename": "en"},
					"type": {"codename": "page"},
					"collection": {"codename": "default"},
					"workflow": {"codename": "default"}
				},
				"versions": [
					{"elements": {}, "workflow_step": {"codename": "draft"}}
				]
			}
		]
	}`)
	assert.NoError(t, ValidateItems(doc))
}

func TestValidateItemsRejectsMissingSystem(t *testing.T) {
	doc := []byte(`{"items": [{"versions": []}]}`)
	assert.Error(t, ValidateItems(doc))
}

func TestValidateItemsRejectsMissingTopLevelKey(t *testing.T) {
	doc := []byte(`{"not_items": []}`)
	assert.Error(t, ValidateItems(doc))
}

func TestValidateItemsRejectsInvalidJSON(t *testing.T) {
	assert.Error(t, ValidateItems([]byte(`{not json`)))
}

func TestValidateAssetsManifestAcceptsWellFormed(t *testing.T) {
	doc := []byte(`{"assets": [{"codename": "logo", "filename": "logo.png", "archive_entry": "logo.png"}]}`)
	assert.NoError(t, ValidateAssetsManifest(doc))
}

func TestValidateAssetsManifestRejectsMissingFilename(t *testing.T) {
	doc := []byte(`{"assets": [{"codename": "logo", "archive_entry": "logo.png"}]}`)
	assert.Error(t, ValidateAssetsManifest(doc))
}

func TestValidateAssetsManifestRejectsMissingArchiveEntry(t *testing.T) {
	doc := []byte(`{"assets": [{"codename": "logo", "filename": "logo.png"}]}`)
	assert.Error(t, ValidateAssetsManifest(doc))
}
