package transfer

import (
	"path"
	"strings"
	"time"
)

// SearchOptions bound the recursive walk so a pathological directory
// tree cannot hang a run.
type SearchOptions struct {
	MaxResults int
	MaxFolders int
	MaxDepth   int
	Budget     time.Duration
}

// DefaultSearchOptions mirrors the limits the remote store tolerates.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		MaxResults: 100,
		MaxFolders: 200,
		MaxDepth:   4,
		Budget:     30 * time.Second,
	}
}

func (o SearchOptions) withDefaults() SearchOptions {
	d := DefaultSearchOptions()
	if o.MaxResults <= 0 {
		o.MaxResults = d.MaxResults
	}
	if o.MaxFolders <= 0 {
		o.MaxFolders = d.MaxFolders
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = d.MaxDepth
	}
	if o.Budget <= 0 {
		o.Budget = d.Budget
	}
	return o
}

// Match is one search hit.
type Match struct {
	Name      string
	Path      string
	IsDir     bool
	Extension string
}

// SearchResult carries the hits plus walk accounting. Truncated is set
// when any bound cut the walk short.
type SearchResult struct {
	Matches        []Match
	FoldersVisited int
	Truncated      bool
}

// DirLister lists one remote directory. It is the minimal surface the
// search walk needs, so tests can fake it without a server.
type DirLister interface {
	ListDir(pth string) ([]Item, error)
}

type searchWalk struct {
	lister   DirLister
	query    string
	opts     SearchOptions
	deadline time.Time
	result   *SearchResult
}

// SearchTree walks the directory tree under root, collecting entries
// whose lowercased name contains the query. Hidden names are skipped;
// per-directory listing errors are ignored so one unreadable folder
// does not kill the search. The walk stops early when any bound is
// reached; that is an internal early-exit flag, not cancellation.
func SearchTree(lister DirLister, root, query string, opts SearchOptions) *SearchResult {
	w := &searchWalk{
		lister: lister,
		query:  strings.ToLower(query),
		opts:   opts.withDefaults(),
		result: &SearchResult{},
	}
	w.deadline = time.Now().Add(w.opts.Budget)
	if w.walk(root, 0) {
		w.result.Truncated = true
	}
	return w.result
}

// walk returns true when a bound forced an early exit.
func (w *searchWalk) walk(dir string, depth int) bool {
	if time.Now().After(w.deadline) {
		return true
	}
	if depth > w.opts.MaxDepth ||
		len(w.result.Matches) >= w.opts.MaxResults ||
		w.result.FoldersVisited >= w.opts.MaxFolders {
		return true
	}
	w.result.FoldersVisited++

	items, err := w.lister.ListDir(dir)
	if err != nil {
		return false
	}

	for _, it := range items {
		if time.Now().After(w.deadline) {
			return true
		}
		if len(w.result.Matches) >= w.opts.MaxResults {
			return true
		}
		if strings.HasPrefix(it.Name, ".") {
			continue
		}

		full := path.Join(dir, it.Name)
		if strings.Contains(strings.ToLower(it.Name), w.query) {
			w.result.Matches = append(w.result.Matches, Match{
				Name:      it.Name,
				Path:      full,
				IsDir:     it.IsDir,
				Extension: extensionOf(it),
			})
		}
		if it.IsDir {
			if w.walk(full, depth+1) {
				return true
			}
		}
	}
	return false
}

func extensionOf(it Item) string {
	if it.IsDir {
		return ""
	}
	return strings.ToLower(path.Ext(it.Name))
}
