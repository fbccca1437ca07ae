// Package elements implements C3, the per-element-type transform registry:
// pure functions that translate one element's value between the wire
// (id-addressed) form and the migration (codename-addressed) form, in both
// directions, per §4.3's table. rich_text delegates the HTML rewriting
// itself to the richtext package (C4) and handles only the recursive
// export/import of nested component elements here, since richtext must not
// import this package (it would create a cycle).
package elements

import (
	"fmt"

	"github.com/artemis/kontent-migrate/internal/kerrors"
	"github.com/artemis/kontent-migrate/internal/managementapi"
	"github.com/artemis/kontent-migrate/internal/model"
	"github.com/artemis/kontent-migrate/internal/richtext"
)

// ExportContext supplies the id->codename lookups every export transform
// needs (§4.3: "all transforms receive an ExportContext/ImportContext for
// id lookup").
type ExportContext interface {
	richtext.ItemResolver
	richtext.AssetResolver
	TaxonomyTermCodename(groupID, termID string) (string, bool)
	MultipleChoiceOptionCodename(elementID, optionID string) (string, bool)
	ContentTypeByCodename(codename string) (managementapi.FlattenedContentType, bool)
}

// ImportContext supplies the inverse codename->id lookups.
type ImportContext interface {
	richtext.ItemResolver
	richtext.AssetResolver
	TaxonomyTermID(groupID, termCodename string) (string, bool)
	MultipleChoiceOptionID(elementID, optionCodename string) (string, bool)
	ContentTypeByCodename(codename string) (managementapi.FlattenedContentType, bool)
}

// Options tunes transform behavior that isn't purely a function of type.
type Options struct {
	// ReplaceInvalidLinks, when set, strips (rather than leaves untouched)
	// a rich_text <a> tag whose target item can't be resolved (§4.4).
	ReplaceInvalidLinks bool
}

// Export translates one element's wire value into its migration form.
func Export(ctx ExportContext, meta managementapi.ElementMetadata, wire managementapi.ElementValue, opts Options) (model.MigrationElement, error) {
	elType := model.ElementType(meta.Type)
	out := model.MigrationElement{Type: elType}

	switch elType {
	case model.ElementText, model.ElementCustom:
		out.StringValue, _ = wire.Value.(string)

	case model.ElementNumber:
		if wire.Value != nil {
			if n, ok := toFloat(wire.Value); ok {
				out.NumberValue = &n
			}
		}

	case model.ElementDateTime:
		value, tz := asDateTime(wire.Value)
		out.DateTimeValue = value
		out.DisplayTimezone = tz

	case model.ElementURLSlug:
		out.StringValue, _ = wire.Value.(string)
		out.Mode = wire.Mode
		if out.Mode == "" {
			out.Mode = "autogenerated"
		}

	case model.ElementAsset:
		refs, err := resolveAll(wire.References, func(id string) (string, bool) {
			return ctx.AssetCodenameByID(id)
		})
		if err != nil {
			return out, kerrors.Transform("elements.Export", "", meta.Codename, err)
		}
		out.ItemReferences = refs

	case model.ElementTaxonomy:
		refs, err := resolveAll(wire.References, func(id string) (string, bool) {
			return ctx.TaxonomyTermCodename(meta.TaxonomyGroup, id)
		})
		if err != nil {
			return out, kerrors.Transform("elements.Export", "", meta.Codename, err)
		}
		out.TermReferences = refs

	case model.ElementMultipleChoice:
		refs, err := resolveAll(wire.References, func(id string) (string, bool) {
			return ctx.MultipleChoiceOptionCodename(meta.ID, id)
		})
		if err != nil {
			return out, kerrors.Transform("elements.Export", "", meta.Codename, err)
		}
		out.TermReferences = refs

	case model.ElementModularContent:
		out.ItemReferences = resolveLenient(wire.References, func(id string) (string, bool) {
			return ctx.ItemCodenameByID(id)
		})

	case model.ElementSubpages:
		refs, err := resolveAll(wire.References, func(id string) (string, bool) {
			return ctx.ItemCodenameByID(id)
		})
		if err != nil {
			return out, kerrors.Transform("elements.Export", "", meta.Codename, err)
		}
		out.ItemReferences = refs

	case model.ElementRichText:
		html, _ := wire.Value.(string)
		result := richtext.Export(html, wire.Components, ctx, ctx, opts.ReplaceInvalidLinks)
		out.RichText = result.HTML
		components, err := exportComponents(ctx, result.Components, opts)
		if err != nil {
			return out, kerrors.Transform("elements.Export", "", meta.Codename, err)
		}
		out.Components = components

	default:
		return out, kerrors.Transform("elements.Export", "", meta.Codename, fmt.Errorf("unknown element type %q", meta.Type))
	}

	return out, nil
}

// Import translates one element's migration value back into its wire form.
func Import(ctx ImportContext, meta managementapi.ElementMetadata, codename string, el model.MigrationElement, opts Options) (managementapi.ElementValue, error) {
	out := managementapi.ElementValue{ElementRef: managementapi.CodenameRef{Codename: codename}}

	switch el.Type {
	case model.ElementText, model.ElementCustom:
		out.Value = el.StringValue

	case model.ElementNumber:
		if el.NumberValue != nil {
			out.Value = *el.NumberValue
		}

	case model.ElementDateTime:
		out.Value = map[string]interface{}{
			"value":            el.DateTimeValue,
			"display_timezone": el.DisplayTimezone,
		}

	case model.ElementURLSlug:
		out.Value = el.StringValue
		out.Mode = el.Mode
		if out.Mode == "" {
			out.Mode = "custom"
		}

	case model.ElementAsset:
		out.References = importRefsLenient(el.ItemReferences, func(c string) (string, bool) {
			return ctx.AssetIDByCodename(c)
		})

	case model.ElementTaxonomy:
		refs, err := importRefs(el.TermReferences, func(c string) (string, bool) {
			return ctx.TaxonomyTermID(meta.TaxonomyGroup, c)
		})
		if err != nil {
			return out, kerrors.Transform("elements.Import", "", codename, err)
		}
		out.References = refs

	case model.ElementMultipleChoice:
		refs, err := importRefs(el.TermReferences, func(c string) (string, bool) {
			return ctx.MultipleChoiceOptionID(meta.ID, c)
		})
		if err != nil {
			return out, kerrors.Transform("elements.Import", "", codename, err)
		}
		out.References = refs

	case model.ElementModularContent:
		out.References = importRefsLenient(el.ItemReferences, func(c string) (string, bool) {
			return ctx.ItemIDByCodename(c)
		})

	case model.ElementSubpages:
		refs, err := importRefs(el.ItemReferences, func(c string) (string, bool) {
			return ctx.ItemIDByCodename(c)
		})
		if err != nil {
			return out, kerrors.Transform("elements.Import", "", codename, err)
		}
		out.References = refs

	case model.ElementRichText:
		components, err := importComponents(ctx, el.Components, opts)
		if err != nil {
			return out, kerrors.Transform("elements.Import", "", codename, err)
		}
		result := richtext.Import(el.RichText, ctx, ctx)
		out.Value = result.HTML
		out.Components = components

	default:
		return out, kerrors.Transform("elements.Import", "", codename, fmt.Errorf("unknown element type %q", el.Type))
	}

	return out, nil
}

func exportComponents(ctx ExportContext, wireComponents []managementapi.WireComponent, opts Options) ([]model.MigrationComponent, error) {
	if len(wireComponents) == 0 {
		return nil, nil
	}
	out := make([]model.MigrationComponent, 0, len(wireComponents))
	for _, wc := range wireComponents {
		ctype, ok := ctx.ContentTypeByCodename(wc.Type.Codename)
		if !ok {
			return nil, fmt.Errorf("component type %q not found", wc.Type.Codename)
		}
		elementsByCodename := make(map[string]model.MigrationElement, len(wc.Elements))
		for _, wireEl := range wc.Elements {
			meta, ok := metaByCodename(ctype, wireEl.ElementRef.Codename)
			if !ok {
				continue
			}
			exported, err := Export(ctx, meta, wireEl, opts)
			if err != nil {
				return nil, err
			}
			elementsByCodename[wireEl.ElementRef.Codename] = exported
		}
		out = append(out, richtext.BuildMigrationComponent(wc, elementsByCodename))
	}
	return out, nil
}

func importComponents(ctx ImportContext, components []model.MigrationComponent, opts Options) ([]managementapi.WireComponent, error) {
	if len(components) == 0 {
		return nil, nil
	}
	out := make([]managementapi.WireComponent, 0, len(components))
	for _, c := range components {
		ctype, ok := ctx.ContentTypeByCodename(c.Type.Codename)
		if !ok {
			return nil, fmt.Errorf("component type %q not found", c.Type.Codename)
		}
		wireEls := make([]managementapi.ElementValue, 0, len(c.Elements))
		for codename, el := range c.Elements {
			meta, ok := metaByCodename(ctype, codename)
			if !ok {
				continue
			}
			wireEl, err := Import(ctx, meta, codename, el, opts)
			if err != nil {
				return nil, err
			}
			wireEls = append(wireEls, wireEl)
		}
		out = append(out, managementapi.WireComponent{
			ID:       c.ID,
			Type:     managementapi.CodenameRef{Codename: c.Type.Codename},
			Elements: wireEls,
		})
	}
	return out, nil
}

func metaByCodename(ctype managementapi.FlattenedContentType, codename string) (managementapi.ElementMetadata, bool) {
	for _, m := range ctype.Elements {
		if m.Codename == codename {
			return m, true
		}
	}
	return managementapi.ElementMetadata{}, false
}

func resolveAll(refs []managementapi.IDRef, lookup func(id string) (string, bool)) ([]model.Reference, error) {
	out := make([]model.Reference, 0, len(refs))
	for _, r := range refs {
		codename, ok := lookup(r.ID)
		if !ok {
			return nil, fmt.Errorf("unresolved reference %q", r.ID)
		}
		out = append(out, model.Reference{Codename: codename})
	}
	return out, nil
}

func resolveLenient(refs []managementapi.IDRef, lookup func(id string) (string, bool)) []model.Reference {
	out := make([]model.Reference, 0, len(refs))
	for _, r := range refs {
		if codename, ok := lookup(r.ID); ok {
			out = append(out, model.Reference{Codename: codename})
		}
	}
	return out
}

func importRefs(refs []model.Reference, lookup func(codename string) (string, bool)) ([]managementapi.IDRef, error) {
	out := make([]managementapi.IDRef, 0, len(refs))
	for _, r := range refs {
		id, ok := lookup(r.Codename)
		if !ok {
			return nil, fmt.Errorf("unresolved codename %q", r.Codename)
		}
		out = append(out, managementapi.IDRef{ID: id})
	}
	return out, nil
}

func importRefsLenient(refs []model.Reference, lookup func(codename string) (string, bool)) []managementapi.IDRef {
	out := make([]managementapi.IDRef, 0, len(refs))
	for _, r := range refs {
		if id, ok := lookup(r.Codename); ok {
			out = append(out, managementapi.IDRef{ID: id})
		}
	}
	return out
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

func asDateTime(v interface{}) (value, timezone string) {
	switch t := v.(type) {
	case string:
		return t, ""
	case map[string]interface{}:
		if s, ok := t["value"].(string); ok {
			value = s
		}
		if s, ok := t["display_timezone"].(string); ok {
			timezone = s
		}
		return value, timezone
	default:
		return "", ""
	}
}
