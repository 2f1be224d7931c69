// Package catalog describes the fixed set of specification items a
// submission is assessed against.
//
// Catalog text is authored outside this module; the catalog here is an
// immutable, ordered input to assessments and compilation.
package catalog

import (
	"fmt"

	apperrors "github.com/louisbranch/accredit/internal/platform/errors"
)

// ItemKey identifies one specification item by standard and spec code.
type ItemKey struct {
	StandardCode string
	SpecCode     string
}

// String renders the key as standard/spec.
func (k ItemKey) String() string {
	return k.StandardCode + "/" + k.SpecCode
}

// Item is one gradable specification item.
type Item struct {
	Key  ItemKey
	Text string
}

// Catalog is an ordered, immutable collection of specification items.
type Catalog struct {
	items []Item
	index map[ItemKey]int
}

// New validates and builds a catalog from ordered items.
func New(items []Item) (Catalog, error) {
	if len(items) == 0 {
		return Catalog{}, apperrors.New(apperrors.CodeCatalogEmpty, "catalog requires at least one specification item")
	}
	index := make(map[ItemKey]int, len(items))
	for i, item := range items {
		if item.Key.StandardCode == "" || item.Key.SpecCode == "" {
			return Catalog{}, apperrors.New(apperrors.CodeCatalogEmptyItemCode, "specification item codes are required")
		}
		if item.Text == "" {
			return Catalog{}, apperrors.WithMetadata(
				apperrors.CodeCatalogEmptyItemText,
				fmt.Sprintf("specification item text is required: %s", item.Key),
				map[string]string{"Item": item.Key.String()},
			)
		}
		if _, exists := index[item.Key]; exists {
			return Catalog{}, apperrors.WithMetadata(
				apperrors.CodeCatalogDuplicateItem,
				fmt.Sprintf("duplicate specification item: %s", item.Key),
				map[string]string{"Item": item.Key.String()},
			)
		}
		index[item.Key] = i
	}
	stored := make([]Item, len(items))
	copy(stored, items)
	return Catalog{items: stored, index: index}, nil
}

// Items returns the ordered items.
func (c Catalog) Items() []Item {
	items := make([]Item, len(c.items))
	copy(items, c.items)
	return items
}

// Keys returns the ordered item keys.
func (c Catalog) Keys() []ItemKey {
	keys := make([]ItemKey, 0, len(c.items))
	for _, item := range c.items {
		keys = append(keys, item.Key)
	}
	return keys
}

// Lookup returns the item for a key.
func (c Catalog) Lookup(key ItemKey) (Item, bool) {
	idx, ok := c.index[key]
	if !ok {
		return Item{}, false
	}
	return c.items[idx], true
}

// Len returns the number of items.
func (c Catalog) Len() int {
	return len(c.items)
}
