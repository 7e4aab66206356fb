// Package transfer provides the remote file-store capability used to
// pull tariff documents: directory listing, navigation, download and
// bounded recursive search. The engine never assumes a transport; any
// Client implementation is interchangeable.
package transfer

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Item is one directory entry on the remote store.
type Item struct {
	Name    string
	IsDir   bool
	Size    int64
	ModTime time.Time
}

// Listing is the contents of one remote directory, directories first,
// then case-insensitive by name.
type Listing struct {
	Path  string
	Items []Item
}

// Files returns the names of the non-directory entries.
func (l *Listing) Files() []string {
	var out []string
	for _, it := range l.Items {
		if !it.IsDir {
			out = append(out, it.Name)
		}
	}
	return out
}

// Dirs returns the names of the directory entries.
func (l *Listing) Dirs() []string {
	var out []string
	for _, it := range l.Items {
		if it.IsDir {
			out = append(out, it.Name)
		}
	}
	return out
}

// SortItems applies the canonical listing order in place.
func SortItems(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].IsDir != items[j].IsDir {
			return items[i].IsDir
		}
		return strings.ToLower(items[i].Name) < strings.ToLower(items[j].Name)
	})
}

// TransferError wraps a failed remote operation.
type TransferError struct {
	Op   string
	Path string
	Err  error
}

func (e *TransferError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransferError) Unwrap() error { return e.Err }

// Client is the remote file-store capability.
type Client interface {
	// List returns the contents of the current directory.
	List(ctx context.Context) (*Listing, error)
	// ChangeDir moves the session's current directory. The current
	// directory is shared mutable session state; callers must not
	// navigate concurrently on one client.
	ChangeDir(ctx context.Context, path string) error
	// CurrentDir reports the session's current directory.
	CurrentDir() string
	// Download copies a remote file (named relative to the current
	// directory) to a local path.
	Download(ctx context.Context, remoteName, localPath string) error
	// Search walks the tree under the current directory looking for
	// entries whose name contains the query.
	Search(ctx context.Context, query string, opts SearchOptions) (*SearchResult, error)
	Close() error
}

// Dialer opens a fresh remote session. Batch workers dial one session
// each so no two contracts share navigation state.
type Dialer func(ctx context.Context) (Client, error)
