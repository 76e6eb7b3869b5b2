package browser

import (
	"errors"
	"strings"
)

// Wire shapes for the browser query commands.

type ItemInfo struct {
	Name       string `json:"name"`
	IsFolder   bool   `json:"is_folder"`
	IsDevice   bool   `json:"is_device"`
	IsLoadable bool   `json:"is_loadable"`
	URI        string `json:"uri"`
}

type PathListing struct {
	Path                string     `json:"path"`
	Name                string     `json:"name,omitempty"`
	URI                 string     `json:"uri,omitempty"`
	IsFolder            bool       `json:"is_folder"`
	IsDevice            bool       `json:"is_device"`
	IsLoadable          bool       `json:"is_loadable"`
	Error               string     `json:"error,omitempty"`
	AvailableCategories []string   `json:"available_categories,omitempty"`
	Items               []ItemInfo `json:"items"`
}

type TreeNode struct {
	Name       string     `json:"name"`
	IsFolder   bool       `json:"is_folder"`
	IsDevice   bool       `json:"is_device"`
	IsLoadable bool       `json:"is_loadable"`
	URI        string     `json:"uri"`
	Children   []TreeNode `json:"children"`
}

type Tree struct {
	Type                string     `json:"type"`
	Categories          []TreeNode `json:"categories"`
	AvailableCategories []string   `json:"available_categories"`
	TotalFolders        int        `json:"total_folders"`
}

func itemInfo(it *Item) ItemInfo {
	return ItemInfo{
		Name:       it.Name,
		IsFolder:   it.IsFolder(),
		IsDevice:   it.IsDevice,
		IsLoadable: it.IsLoadable,
		URI:        it.URI,
	}
}

// ItemsAtPath resolves a path and lists its children. Navigation
// failures are reported inside the listing rather than as command
// errors, so callers can surface the available categories.
func (b *Browser) ItemsAtPath(path string) PathListing {
	listing := PathListing{Path: path, Items: []ItemInfo{}}

	it, err := b.Navigate(path)
	if err != nil {
		var unknown *UnknownCategoryError
		if errors.As(err, &unknown) {
			listing.Error = unknown.Error()
			listing.AvailableCategories = unknown.Available
			return listing
		}
		listing.Error = err.Error()
		return listing
	}

	listing.Name = it.Name
	listing.URI = it.URI
	listing.IsFolder = it.IsFolder()
	listing.IsDevice = it.IsDevice
	listing.IsLoadable = it.IsLoadable
	for _, child := range it.Children {
		listing.Items = append(listing.Items, itemInfo(child))
	}
	return listing
}

// CategoryTree renders the root categories, one folder level deep.
// categoryType "all" includes every root; otherwise only the named one.
func (b *Browser) CategoryTree(categoryType string) Tree {
	tree := Tree{
		Type:                categoryType,
		Categories:          []TreeNode{},
		AvailableCategories: b.Categories(),
	}

	for _, key := range b.order {
		if categoryType != "all" && !strings.EqualFold(categoryType, key) {
			continue
		}
		root := b.roots[key]
		node := TreeNode{
			Name:       root.Name,
			IsFolder:   root.IsFolder(),
			IsDevice:   root.IsDevice,
			IsLoadable: root.IsLoadable,
			URI:        root.URI,
			Children:   []TreeNode{},
		}
		for _, child := range root.Children {
			node.Children = append(node.Children, TreeNode{
				Name:       child.Name,
				IsFolder:   child.IsFolder(),
				IsDevice:   child.IsDevice,
				IsLoadable: child.IsLoadable,
				URI:        child.URI,
				Children:   []TreeNode{},
			})
			if child.IsFolder() {
				tree.TotalFolders++
			}
		}
		tree.Categories = append(tree.Categories, node)
		tree.TotalFolders++
	}
	return tree
}
