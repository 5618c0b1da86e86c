package main

import (
	"github.com/fsnotify/fsnotify"
	"github.com/go-logr/logr"

	"github.com/enliterator/enliterator/pkg/ekn/graph"
)

// watchVerbGlossary loads path once into the active graph glossary and
// keeps it in sync on every subsequent write, the hot-reload behavior
// SPEC_FULL.md §7 names ("Graph Assembly always reads the current table at
// the start of Edge Loading, never mid-phase"). A malformed reload is
// logged and the previously active table is left in place, mirroring
// internal/config.Watcher's own "never replace a working config" rule.
func watchVerbGlossary(path string, log logr.Logger) (*fsnotify.Watcher, error) {
	table, err := graph.ParseGlossaryFile(path)
	if err != nil {
		return nil, err
	}
	graph.ReplaceGlossary(table)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, err
	}

	go func() {
		for event := range watcher.Events {
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			table, err := graph.ParseGlossaryFile(path)
			if err != nil {
				log.Error(err, "verb glossary reload failed, keeping previous table", "path", path)
				continue
			}
			graph.ReplaceGlossary(table)
			log.Info("verb glossary reloaded", "path", path, "verb_count", len(table))
		}
	}()

	return watcher, nil
}
