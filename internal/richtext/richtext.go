// Package richtext implements C4: HTML rewriting of item/asset references
// inside rich_text element values, component extraction on export, and the
// symmetric inverse plus link-attribute normalization on import.
//
// Per §9's design note the platform's serialized rich text is a narrowly
// constrained HTML subset, so these transforms operate at the
// attribute-string level via regular expressions rather than a full HTML
// parser/DOM.
package richtext

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/artemis/kontent-migrate/internal/managementapi"
	"github.com/artemis/kontent-migrate/internal/model"
	"github.com/google/uuid"
)

// ItemResolver resolves content item ids/codenames during export/import.
type ItemResolver interface {
	ItemCodenameByID(id string) (string, bool)
	ItemIDByCodename(codename string) (string, bool)
}

// AssetResolver resolves asset ids/codenames during export/import.
type AssetResolver interface {
	AssetCodenameByID(id string) (string, bool)
	AssetIDByCodename(codename string) (string, bool)
}

// Warning records a non-fatal issue surfaced during rewriting (§4.4's
// "emit a warning and leave the tag untouched" cases).
type Warning struct {
	Message string
}

var (
	anchorRe      = regexp.MustCompile(`(?s)<a\s+([^>]*)>(.*?)</a>`)
	itemIDAttrRe  = regexp.MustCompile(`data-item-id="([^"]+)"`)
	linkCodenameAttrRe = regexp.MustCompile(`data-manager-link-codename="([^"]+)"`)
	assetIDAttrRe = regexp.MustCompile(`data-asset-id="([^"]+)"`)
	objectRe      = regexp.MustCompile(`(?s)<object\s+([^>]*?)>\s*</object>`)
	attrPairRe    = regexp.MustCompile(`([a-zA-Z0-9_-]+)="([^"]*)"`)
	targetBlankRe = regexp.MustCompile(`\starget="_blank"`)
	relAttrRe     = regexp.MustCompile(`\srel="[^"]*"`)
	emptyHrefRe   = regexp.MustCompile(`\shref=""`)
	imgTagRe      = regexp.MustCompile(`(?s)<img[^>]*>`)
	imageIDAttrRe = regexp.MustCompile(`\sdata-image-id="[^"]*"`)
)

// componentNamespace is the fixed UUID-v5 namespace used to hash component
// codenames into ids (§4.4, §8 invariant 5).
var componentNamespace = uuid.Nil

// ComponentID computes the UUID for a component per §3 invariant 4: the
// component's own id if it is already a valid UUID (after normalizing `_`
// to `-`), otherwise the deterministic UUID-v5 hash of its codename.
func ComponentID(codenameOrID string) string {
	normalized := strings.ReplaceAll(codenameOrID, "_", "-")
	if parsed, err := uuid.Parse(normalized); err == nil {
		return parsed.String()
	}
	return uuid.NewSHA1(componentNamespace, []byte(codenameOrID)).String()
}

// ExportResult is the outcome of exporting one rich_text element value.
type ExportResult struct {
	HTML       string
	Components []managementapi.WireComponent // the raw wire components referenced as data-rel="component"
	Warnings   []Warning
}

// Export rewrites a wire (id-addressed) rich-text HTML fragment into its
// codename-addressed migration form (§4.4 export pass).
func Export(html string, wireComponents []managementapi.WireComponent, items ItemResolver, assets AssetResolver, replaceInvalidLinks bool) ExportResult {
	result := ExportResult{}
	byRawID := make(map[string]managementapi.WireComponent, len(wireComponents))
	for _, c := range wireComponents {
		byRawID[c.ID] = c
	}

	out := html

	// 1. <a data-item-id="..."> -> <a data-manager-link-codename="...">
	out = anchorRe.ReplaceAllStringFunc(out, func(tag string) string {
		m := anchorRe.FindStringSubmatch(tag)
		attrs, content := m[1], m[2]

		if idm := itemIDAttrRe.FindStringSubmatch(attrs); idm != nil {
			id := idm[1]
			codename, ok := items.ItemCodenameByID(id)
			if ok {
				newAttrs := itemIDAttrRe.ReplaceAllString(attrs, fmt.Sprintf(`data-manager-link-codename="%s"`, codename))
				return fmt.Sprintf("<a %s>%s</a>", newAttrs, content)
			}
			if replaceInvalidLinks {
				return content
			}
			result.Warnings = append(result.Warnings, Warning{Message: fmt.Sprintf("unresolved item link id %q left untouched", id)})
			return tag
		}

		if idm := assetIDAttrRe.FindStringSubmatch(attrs); idm != nil {
			id := idm[1]
			codename, ok := assets.AssetCodenameByID(id)
			if ok {
				newAttrs := assetIDAttrRe.ReplaceAllString(attrs, fmt.Sprintf(`data-asset-id="%s"`, codename))
				return fmt.Sprintf("<a %s>%s</a>", newAttrs, content)
			}
			result.Warnings = append(result.Warnings, Warning{Message: fmt.Sprintf("unresolved asset link id %q left untouched", id)})
			return tag
		}

		return tag
	})

	// 2. linked-item / component <object> tags.
	out = objectRe.ReplaceAllStringFunc(out, func(tag string) string {
		m := objectRe.FindStringSubmatch(tag)
		attrs := parseAttrs(m[1])

		if attrs.get("type") != "application/kenticocloud" || attrs.get("data-type") != "item" {
			return tag
		}

		codenameOrID := attrs.get("data-codename")
		if attrs.get("data-rel") == "component" {
			wire, found := byRawID[codenameOrID]
			if found {
				result.Components = append(result.Components, wire)
			} else {
				result.Warnings = append(result.Warnings, Warning{Message: fmt.Sprintf("component %q referenced in rich text but not supplied", codenameOrID)})
			}
			id := ComponentID(codenameOrID)
			attrs.set("data-type", "component")
			attrs.remove("data-codename")
			attrs.set("data-id", id)
			return fmt.Sprintf("<object %s></object>", attrs.render())
		}

		// Plain linked-item reference: items are already codename-addressed
		// in rich text, nothing to rewrite.
		return tag
	})

	// 3. bare asset references outside <a> (e.g. asset object embeds) are
	// covered by the same data-asset-id pattern anywhere in the fragment.
	out = assetIDAttrRe.ReplaceAllStringFunc(out, func(m string) string {
		sub := assetIDAttrRe.FindStringSubmatch(m)
		id := sub[1]
		if codename, ok := assets.AssetCodenameByID(id); ok {
			return fmt.Sprintf(`data-asset-id="%s"`, codename)
		}
		result.Warnings = append(result.Warnings, Warning{Message: fmt.Sprintf("unresolved asset id %q left untouched", id)})
		return m
	})

	result.HTML = out
	return result
}

// ImportResult is the outcome of importing one rich_text element value.
type ImportResult struct {
	HTML     string
	Warnings []Warning
}

// Import rewrites a codename-addressed migration rich-text HTML fragment
// back into its wire (id-addressed) form for the target environment
// (§4.4 import pass), plus the link-attribute normalizations the target
// API requires.
func Import(html string, items ItemResolver, assets AssetResolver) ImportResult {
	result := ImportResult{}
	out := html

	out = linkCodenameAttrRe.ReplaceAllStringFunc(out, func(m string) string {
		sub := linkCodenameAttrRe.FindStringSubmatch(m)
		codename := sub[1]
		if id, ok := items.ItemIDByCodename(codename); ok {
			return fmt.Sprintf(`data-item-id="%s"`, id)
		}
		result.Warnings = append(result.Warnings, Warning{Message: fmt.Sprintf("unresolved item link codename %q left untouched", codename)})
		return m
	})

	out = assetIDAttrRe.ReplaceAllStringFunc(out, func(m string) string {
		sub := assetIDAttrRe.FindStringSubmatch(m)
		codename := sub[1]
		if id, ok := assets.AssetIDByCodename(codename); ok {
			return fmt.Sprintf(`data-asset-id="%s"`, id)
		}
		result.Warnings = append(result.Warnings, Warning{Message: fmt.Sprintf("unresolved asset codename %q left untouched", codename)})
		return m
	})

	// Normalize link attributes the target API requires (§4.4).
	out = targetBlankRe.ReplaceAllString(out, ` data-new-window="true"`)
	out = relAttrRe.ReplaceAllString(out, "")
	out = emptyHrefRe.ReplaceAllString(out, "")

	// Strip rendered artifacts the API refuses.
	out = imgTagRe.ReplaceAllString(out, "")
	out = imageIDAttrRe.ReplaceAllString(out, "")

	result.HTML = out
	return result
}

// ExtractReferences walks html for data-item-id and data-asset-id
// occurrences without rewriting anything, used by C5 to seed the
// reference closure (§4.5).
func ExtractReferences(html string) (itemIDs, assetIDs []string) {
	for _, m := range itemIDAttrRe.FindAllStringSubmatch(html, -1) {
		itemIDs = append(itemIDs, m[1])
	}
	for _, m := range assetIDAttrRe.FindAllStringSubmatch(html, -1) {
		assetIDs = append(assetIDs, m[1])
	}
	return itemIDs, assetIDs
}

// BuildMigrationComponent transforms extracted wire component metadata
// (id + type) into the shell of a model.MigrationComponent; the caller
// (the element transform registry, C3) fills in Elements by recursively
// invoking itself on wire.Elements, since richtext must not depend on the
// element registry to avoid an import cycle.
func BuildMigrationComponent(wire managementapi.WireComponent, elements map[string]model.MigrationElement) model.MigrationComponent {
	return model.MigrationComponent{
		ID:       ComponentID(wire.ID),
		Type:     model.CodenameRef{Codename: wire.Type.Codename},
		Elements: elements,
	}
}

// attrs is an order-preserving attribute multimap for rebuilding object
// tags deterministically.
type attrs struct {
	keys []string
	vals map[string]string
}

func parseAttrs(s string) *attrs {
	a := &attrs{vals: map[string]string{}}
	for _, m := range attrPairRe.FindAllStringSubmatch(s, -1) {
		a.keys = append(a.keys, m[1])
		a.vals[m[1]] = m[2]
	}
	return a
}

func (a *attrs) get(key string) string { return a.vals[key] }

func (a *attrs) set(key, val string) {
	if _, ok := a.vals[key]; !ok {
		a.keys = append(a.keys, key)
	}
	a.vals[key] = val
}

func (a *attrs) remove(key string) {
	if _, ok := a.vals[key]; !ok {
		return
	}
	delete(a.vals, key)
	for i, k := range a.keys {
		if k == key {
			a.keys = append(a.keys[:i], a.keys[i+1:]...)
			break
		}
	}
}

func (a *attrs) render() string {
	parts := make([]string, 0, len(a.keys))
	for _, k := range a.keys {
		parts = append(parts, fmt.Sprintf(`%s="%s"`, k, a.vals[k]))
	}
	return strings.Join(parts, " ")
}
