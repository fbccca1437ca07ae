// Package refs implements C5, the reference extractor: given a content
// type's element metadata and a set of wire element values, it walks every
// element and collects the ids of every item and asset transitively
// referenced, recursing into rich_text components. The result seeds C6's
// fetch of the reference closure by id.
package refs

import (
	"sort"

	"github.com/artemis/kontent-migrate/internal/managementapi"
	"github.com/artemis/kontent-migrate/internal/model"
	"github.com/artemis/kontent-migrate/internal/richtext"
)

// Set is a deduplicated, order-stable collection of ids.
type Set struct {
	seen map[string]struct{}
}

func newSet() *Set { return &Set{seen: map[string]struct{}{}} }

func (s *Set) add(id string) {
	if id == "" {
		return
	}
	s.seen[id] = struct{}{}
}

// Slice returns the set's members sorted ascending, for byte-reproducible
// fetch ordering.
func (s *Set) Slice() []string {
	out := make([]string, 0, len(s.seen))
	for id := range s.seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Result is the pair of reference sets a version's elements yield.
type Result struct {
	ItemIDs  *Set
	AssetIDs *Set
}

func newResult() Result {
	return Result{ItemIDs: newSet(), AssetIDs: newSet()}
}

// TypeElementsFunc resolves a content type codename (as carried by a
// rich_text component's Type ref) to its flattened element metadata, so
// nested component elements can be classified the same way top-level
// elements are.
type TypeElementsFunc func(typeCodename string) ([]managementapi.ElementMetadata, bool)

// Extract walks one element value slice against its content type's element
// metadata, emitting every referenced item and asset id.
func Extract(typeElements []managementapi.ElementMetadata, values []managementapi.ElementValue, componentTypeElements TypeElementsFunc) Result {
	result := newResult()
	walk(typeElements, values, componentTypeElements, result)
	return result
}

// Merge combines multiple Results into one, used when a single item has
// several versions (latest + published) to fetch across all of them.
func Merge(results ...Result) Result {
	merged := newResult()
	for _, r := range results {
		for _, id := range r.ItemIDs.Slice() {
			merged.ItemIDs.add(id)
		}
		for _, id := range r.AssetIDs.Slice() {
			merged.AssetIDs.add(id)
		}
	}
	return merged
}

func walk(typeElements []managementapi.ElementMetadata, values []managementapi.ElementValue, componentTypeElements TypeElementsFunc, result Result) {
	metaByCodename := make(map[string]managementapi.ElementMetadata, len(typeElements))
	for _, m := range typeElements {
		metaByCodename[m.Codename] = m
	}

	for _, v := range values {
		meta, ok := metaByCodename[v.ElementRef.Codename]
		if !ok {
			continue
		}
		switch model.ElementType(meta.Type) {
		case model.ElementAsset:
			for _, r := range v.References {
				result.AssetIDs.add(r.ID)
			}
		case model.ElementModularContent, model.ElementSubpages:
			for _, r := range v.References {
				result.ItemIDs.add(r.ID)
			}
		case model.ElementRichText:
			html, _ := v.Value.(string)
			itemIDs, assetIDs := richtext.ExtractReferences(html)
			for _, id := range itemIDs {
				result.ItemIDs.add(id)
			}
			for _, id := range assetIDs {
				result.AssetIDs.add(id)
			}
			for _, comp := range v.Components {
				walkComponent(comp, componentTypeElements, result)
			}
		default:
			// text/number/date_time/url_slug/taxonomy/multiple_choice carry
			// no item/asset references.
		}
	}
}

// walkComponent recurses into a rich_text component's own elements,
// resolving the component's content type to classify its elements the same
// way a top-level item's elements are classified. If the component's type
// isn't resolvable, its elements are skipped rather than guessed at.
func walkComponent(comp managementapi.WireComponent, componentTypeElements TypeElementsFunc, result Result) {
	if componentTypeElements == nil {
		return
	}
	typeElements, ok := componentTypeElements(comp.Type.Codename)
	if !ok {
		return
	}
	walk(typeElements, comp.Elements, componentTypeElements, result)
}
