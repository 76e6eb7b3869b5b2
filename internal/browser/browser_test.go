package browser

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCategories(t *testing.T) {
	b := New()
	require.Equal(t,
		[]string{"instruments", "sounds", "drums", "audio_effects", "midi_effects"},
		b.Categories())
}

func TestNavigateCaseInsensitive(t *testing.T) {
	b := New()

	it, err := b.Navigate("Drums/acoustic/brooklyn kit")
	require.NoError(t, err)
	require.Equal(t, "Brooklyn Kit", it.Name)
	require.True(t, it.IsLoadable)
	require.Equal(t, KindDrumMachine, it.Kind)
}

func TestNavigateUnknownCategory(t *testing.T) {
	b := New()

	_, err := b.Navigate("presets/whatever")
	require.Error(t, err)
	require.Equal(t, "Unknown or unavailable category: presets", err.Error())

	var unknown *UnknownCategoryError
	require.ErrorAs(t, err, &unknown)
	require.Equal(t, b.Categories(), unknown.Available)
}

func TestNavigateMissingPart(t *testing.T) {
	b := New()

	_, err := b.Navigate("drums/Nonexistent")
	require.Error(t, err)
	require.Equal(t, "Path part 'Nonexistent' not found", err.Error())
}

func TestFindByURI(t *testing.T) {
	b := New()

	it, ok := b.FindByURI("query:Drums#Drum%20Rack")
	require.True(t, ok)
	require.Equal(t, "Drum Rack", it.Name)

	// Second lookup is served from the cache and must agree.
	again, ok := b.FindByURI("query:Drums#Drum%20Rack")
	require.True(t, ok)
	require.Same(t, it, again)

	_, ok = b.FindByURI("query:Nope#Missing")
	require.False(t, ok)
}

func TestItemsAtPathListsChildren(t *testing.T) {
	b := New()

	listing := b.ItemsAtPath("drums/Electronic")
	require.Empty(t, listing.Error)
	require.Equal(t, "Electronic", listing.Name)
	require.True(t, listing.IsFolder)

	names := make([]string, 0, len(listing.Items))
	for _, it := range listing.Items {
		names = append(names, it.Name)
	}
	require.Contains(t, names, "808 Core Kit")
}

func TestItemsAtPathErrorEmbedded(t *testing.T) {
	b := New()

	listing := b.ItemsAtPath("plugins")
	require.Equal(t, "Unknown or unavailable category: plugins", listing.Error)
	require.Equal(t, b.Categories(), listing.AvailableCategories)
	require.Empty(t, listing.Items)
}

func TestCategoryTreeSingleCategory(t *testing.T) {
	b := New()

	tree := b.CategoryTree("drums")
	require.Len(t, tree.Categories, 1)
	require.Equal(t, "Drums", tree.Categories[0].Name)
	require.NotEmpty(t, tree.Categories[0].Children)

	all := b.CategoryTree("all")
	require.Len(t, all.Categories, len(b.Categories()))
}
