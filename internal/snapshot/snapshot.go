// Package snapshot reads and writes the two on-disk artifacts a migration
// exchanges (§6): items.json, a schema-validated JSON document of
// MigrationItems, and assets.zip, a zip archive holding a JSON manifest
// plus one binary per asset. File access goes through afero so the same
// code path is exercised against an in-memory filesystem in tests,
// following the pattern the pack's other control-plane migration importer
// uses for its own archive handling.
package snapshot

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/artemis/kontent-migrate/internal/model"
	"github.com/artemis/kontent-migrate/internal/schema"
	"github.com/spf13/afero"
)

// itemsDocument is items.json's top-level shape.
type itemsDocument struct {
	Items []model.MigrationItem `json:"items"`
}

// assetManifest is assets.zip's manifest.json shape.
type assetManifest struct {
	Assets []assetManifestEntry `json:"assets"`
}

type assetManifestEntry struct {
	Codename string `json:"codename"`
	// Filename is the asset's original filename, carried through to the
	// target on import. ArchiveEntry is the name actually used for this
	// asset's zip entry ("<codename><ext>"), which can differ from
	// Filename and must be kept separate so a round-trip doesn't lose it.
	Filename     string                   `json:"filename"`
	ArchiveEntry string                   `json:"archive_entry"`
	Title        string                   `json:"title,omitempty"`
	Collection   *model.CodenameRef       `json:"collection,omitempty"`
	Folder       *model.CodenameRef       `json:"folder,omitempty"`
	Descriptions []model.AssetDescription `json:"descriptions,omitempty"`
}

const manifestEntryName = "manifest.json"

// WriteItems schema-validates and writes items.json to path on fs.
func WriteItems(fs afero.Fs, path string, items []model.MigrationItem) error {
	doc := itemsDocument{Items: items}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal items: %w", err)
	}
	if err := schema.ValidateItems(data); err != nil {
		return err
	}
	return afero.WriteFile(fs, path, data, 0644)
}

// ReadItems reads and schema-validates items.json from path on fs.
func ReadItems(fs afero.Fs, path string) ([]model.MigrationItem, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read items file: %w", err)
	}
	if err := schema.ValidateItems(data); err != nil {
		return nil, err
	}
	var doc itemsDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse items file: %w", err)
	}
	return doc.Items, nil
}

// WriteAssets packages assets into a zip archive at path on fs: a
// manifest.json plus one binary file per asset, named
// "<codename><ext>" where ext is taken from the asset's original filename.
func WriteAssets(fs afero.Fs, path string, assets []model.MigrationAsset) error {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	manifest := assetManifest{Assets: make([]assetManifestEntry, 0, len(assets))}
	for _, a := range assets {
		entryName := a.Codename + filepath.Ext(a.Filename)
		w, err := zw.Create(entryName)
		if err != nil {
			return fmt.Errorf("create zip entry %q: %w", entryName, err)
		}
		if _, err := w.Write(a.BinaryData); err != nil {
			return fmt.Errorf("write zip entry %q: %w", entryName, err)
		}
		manifest.Assets = append(manifest.Assets, assetManifestEntry{
			Codename:     a.Codename,
			Filename:     a.Filename,
			ArchiveEntry: entryName,
			Title:        a.Title,
			Collection:   a.Collection,
			Folder:       a.Folder,
			Descriptions: a.Descriptions,
		})
	}

	manifestData, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal asset manifest: %w", err)
	}
	if err := schema.ValidateAssetsManifest(manifestData); err != nil {
		return err
	}
	mw, err := zw.Create(manifestEntryName)
	if err != nil {
		return fmt.Errorf("create manifest entry: %w", err)
	}
	if _, err := mw.Write(manifestData); err != nil {
		return fmt.Errorf("write manifest entry: %w", err)
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("close zip writer: %w", err)
	}
	return afero.WriteFile(fs, path, buf.Bytes(), 0644)
}

// ReadAssets reads and unpacks an assets.zip archive from path on fs.
func ReadAssets(fs afero.Fs, path string) ([]model.MigrationAsset, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read assets archive: %w", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open assets archive: %w", err)
	}

	binaries := make(map[string][]byte, len(zr.File))
	var manifest assetManifest
	manifestFound := false

	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open zip entry %q: %w", f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read zip entry %q: %w", f.Name, err)
		}

		if f.Name == manifestEntryName {
			if err := schema.ValidateAssetsManifest(content); err != nil {
				return nil, err
			}
			if err := json.Unmarshal(content, &manifest); err != nil {
				return nil, fmt.Errorf("parse asset manifest: %w", err)
			}
			manifestFound = true
			continue
		}
		binaries[f.Name] = content
	}

	if !manifestFound {
		return nil, fmt.Errorf("assets archive missing %s", manifestEntryName)
	}

	out := make([]model.MigrationAsset, 0, len(manifest.Assets))
	for _, entry := range manifest.Assets {
		binary, ok := binaries[entry.ArchiveEntry]
		if !ok {
			return nil, fmt.Errorf("asset %q: binary %q missing from archive", entry.Codename, entry.ArchiveEntry)
		}
		out = append(out, model.MigrationAsset{
			Codename:     entry.Codename,
			Filename:     entry.Filename,
			Title:        entry.Title,
			BinaryData:   binary,
			Collection:   entry.Collection,
			Folder:       entry.Folder,
			Descriptions: entry.Descriptions,
		})
	}
	return out, nil
}
