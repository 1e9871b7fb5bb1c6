package sno

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tbakker/sno-graph/pkg/logging"
)

// Well-known keys in extracted record files.
const (
	keyFileName = "__fileName__"
	keySnoID    = "__snoID__"
	keyRawRef   = "__raw__"
)

// ScanDir walks a directory tree of extracted record files (one JSON
// document per record) and collects the nodes and the references between
// them. Files that cannot be read or parsed are skipped with a warning;
// the scan only fails if the tree itself cannot be walked.
//
// A record carries its identity in the __fileName__ and __snoID__ keys.
// Any nested object holding both a __raw__ id and a name is a reference
// to another record; the JSON key it sits under names the reference kind.
func ScanDir(root string) (*Bundle, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".json") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// WalkDir is lexical, so repeated scans of the same tree see the
	// records, and therefore the edges, in the same order.
	bundle := &Bundle{}
	for _, path := range files {
		node, refs, ok := scanFile(path)
		if !ok {
			continue
		}
		bundle.Nodes = append(bundle.Nodes, node)
		bundle.Edges = append(bundle.Edges, refs...)
	}

	logging.Info("scanned record files", "root", root, "files", len(files), "records", len(bundle.Nodes), "references", len(bundle.Edges))
	return bundle, nil
}

func scanFile(path string) (Node, []Edge, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		logging.Warn("skipping unreadable record file", "path", path, "error", err)
		return Node{}, nil, false
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		logging.Warn("skipping unparsable record file", "path", path, "error", err)
		return Node{}, nil, false
	}

	obj, ok := doc.(map[string]any)
	if !ok {
		logging.Warn("skipping record file without top-level object", "path", path)
		return Node{}, nil, false
	}

	fileName, okName := obj[keyFileName].(string)
	id, okID := asID(obj[keySnoID])
	if !okName || !okID {
		logging.Warn("skipping record file without identity keys", "path", path)
		return Node{}, nil, false
	}

	node := Node{
		ID:   id,
		Type: typeTag(fileName),
		Name: displayName(fileName),
	}

	return node, collectRefs(id, obj), true
}

// collectRefs walks the nested structure of one record document and
// returns an edge for every reference object it contains. Map keys are
// visited in sorted order so the extraction is deterministic.
func collectRefs(source int64, doc map[string]any) []Edge {
	type item struct {
		key   string
		value any
	}

	var edges []Edge
	queue := []item{{value: doc}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		switch v := cur.value.(type) {
		case map[string]any:
			raw, isRef := asID(v[keyRawRef])
			if _, hasName := v["name"]; isRef && hasName {
				edges = append(edges, Edge{Source: source, Target: raw, Label: cur.key})
				continue
			}
			keys := make([]string, 0, len(v))
			for k := range v {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				if nested, ok := v[k].(map[string]any); ok {
					queue = append(queue, item{key: k, value: nested})
				} else if nested, ok := v[k].([]any); ok {
					queue = append(queue, item{key: k, value: nested})
				}
			}
		case []any:
			for _, elem := range v {
				switch elem.(type) {
				case map[string]any, []any:
					// Elements inherit the key of the enclosing array.
					queue = append(queue, item{key: cur.key, value: elem})
				}
			}
		}
	}

	return edges
}

// asID reads a JSON number as a record id.
func asID(v any) (int64, bool) {
	f, ok := v.(float64)
	if !ok {
		return 0, false
	}
	return int64(f), true
}

// typeTag derives the record kind from the file extension, e.g.
// "Quest/SecretCellar.qst" -> "qst".
func typeTag(fileName string) string {
	ext := filepath.Ext(fileName)
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// displayName is the last path segment of the record file name.
func displayName(fileName string) string {
	if idx := strings.LastIndex(fileName, "/"); idx >= 0 {
		return fileName[idx+1:]
	}
	return fileName
}
