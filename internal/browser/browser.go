// Package browser models the loadable-content library: a tree of
// category roots holding folders and devices, addressed either by URI
// or by a slash path like "drums/Acoustic".
package browser

import (
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// MaxSearchDepth bounds recursive URI lookups.
const MaxSearchDepth = 10

const uriCacheSize = 256

// Item is one node in the library tree.
type Item struct {
	Name       string
	URI        string
	IsDevice   bool
	IsLoadable bool
	// Kind classifies loadable devices: instrument, drum_machine,
	// audio_effect, midi_effect, rack, sample.
	Kind     string
	Children []*Item
}

// IsFolder reports whether the item has children.
func (it *Item) IsFolder() bool { return len(it.Children) > 0 }

// Browser navigates the library. Lookups by URI walk the whole tree and
// are memoized in an LRU cache.
type Browser struct {
	order    []string
	roots    map[string]*Item
	uriCache *lru.Cache[string, *Item]
}

// New builds a browser over the standard library content.
func New() *Browser {
	cache, err := lru.New[string, *Item](uriCacheSize)
	if err != nil {
		panic(err) // only fails for a non-positive size
	}
	b := &Browser{
		roots:    make(map[string]*Item),
		uriCache: cache,
	}
	for _, root := range standardLibrary() {
		key := categoryKey(root.Name)
		b.order = append(b.order, key)
		b.roots[key] = root
	}
	return b
}

// categoryKey turns a display name into its path key, e.g.
// "Audio Effects" -> "audio_effects".
func categoryKey(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "_")
}

// Categories returns the root category keys in display order.
func (b *Browser) Categories() []string {
	return append([]string(nil), b.order...)
}

// Root returns a category root by case-insensitive name.
func (b *Browser) Root(category string) (*Item, bool) {
	it, ok := b.roots[categoryKey(category)]
	return it, ok
}

// FindByURI locates an item anywhere in the tree by exact URI.
func (b *Browser) FindByURI(uri string) (*Item, bool) {
	if uri == "" {
		return nil, false
	}
	if it, ok := b.uriCache.Get(uri); ok {
		return it, true
	}
	for _, key := range b.order {
		if it := findByURI(b.roots[key], uri, 0); it != nil {
			b.uriCache.Add(uri, it)
			return it, true
		}
	}
	return nil, false
}

func findByURI(it *Item, uri string, depth int) *Item {
	if it.URI == uri {
		return it
	}
	if depth >= MaxSearchDepth {
		return nil
	}
	for _, child := range it.Children {
		if found := findByURI(child, uri, depth+1); found != nil {
			return found
		}
	}
	return nil
}

// Navigate walks a "category/folder/..." path with case-insensitive
// matching and returns the item it lands on.
func (b *Browser) Navigate(path string) (*Item, error) {
	parts := strings.Split(path, "/")
	if len(parts) == 0 || strings.TrimSpace(parts[0]) == "" {
		return nil, fmt.Errorf("invalid path %q", path)
	}

	current, ok := b.Root(parts[0])
	if !ok {
		return nil, &UnknownCategoryError{
			Category:  parts[0],
			Available: b.Categories(),
		}
	}

	for i := 1; i < len(parts); i++ {
		part := parts[i]
		if part == "" {
			continue
		}
		next := childNamed(current, part)
		if next == nil {
			return nil, &PathNotFoundError{Part: part}
		}
		current = next
	}
	return current, nil
}

func childNamed(it *Item, name string) *Item {
	for _, child := range it.Children {
		if strings.EqualFold(child.Name, name) {
			return child
		}
	}
	return nil
}

// UnknownCategoryError reports a path whose first element is not a
// category root.
type UnknownCategoryError struct {
	Category  string
	Available []string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("Unknown or unavailable category: %s", e.Category)
}

// PathNotFoundError reports a path element with no matching child.
type PathNotFoundError struct {
	Part string
}

func (e *PathNotFoundError) Error() string {
	return fmt.Sprintf("Path part '%s' not found", e.Part)
}
