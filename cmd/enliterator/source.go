package main

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/enliterator/enliterator/pkg/ekn/stages"
)

// fsSource is the filesystem-walk Source implementation named as the
// simplest of the three concrete collaborators in stages.Source's doc
// comment. It never sniffs content (spec.md §1 Non-goals: "file-ingestion/
// MIME details beyond the sanitized-item contract" stay out of scope),
// assigning MIME type from the file extension alone and defaulting to
// text/plain for anything unrecognized.
type fsSource struct {
	root string
}

func newFSSource(root string) *fsSource {
	return &fsSource{root: root}
}

var extMIMETypes = map[string]string{
	".md":   "text/markdown",
	".txt":  "text/plain",
	".json": "application/json",
	".html": "text/html",
	".csv":  "text/csv",
}

func mimeTypeForExt(path string) string {
	if mt, ok := extMIMETypes[strings.ToLower(filepath.Ext(path))]; ok {
		return mt
	}
	return "text/plain"
}

// Discover walks root and returns every regular file as a DiscoveredItem.
// batchID is unused: a single configured root serves every batch this
// controller process drives, the simplest discovery policy that satisfies
// stages.Source without inventing per-batch source routing the spec never
// names.
func (s *fsSource) Discover(ctx context.Context, batchID int64) ([]stages.DiscoveredItem, error) {
	var items []stages.DiscoveredItem
	if s.root == "" {
		return items, nil
	}

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		items = append(items, stages.DiscoveredItem{
			MIMEType: mimeTypeForExt(path),
			Content:  string(content),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}
