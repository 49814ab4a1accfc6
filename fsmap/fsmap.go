// Package fsmap implements uniform browsing of local and remote
// directory trees behind a single FileSystem interface, with a
// persistent listing cache and a concurrent regex search.
package fsmap

/*
   Copyright 2018 Bruno Moura <brunotm@gmail.com>

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

import (
	"os"
	"path"
	"sort"
	"time"
)

// Entry is one directory-listing row.
type Entry struct {
	Name    string
	IsDir   bool
	Size    int64
	ModTime time.Time
}

// FileSystem abstracts a browsable tree: local disk, a remote agent
// served over HTTP, or any other source a Cache can memoize.
type FileSystem interface {
	// Root identifies this tree, used as the cache key prefix.
	Root() string
	// List returns the entries directly under dir ("" or "/" for the
	// tree's root), sorted by name with directories first.
	List(dir string) ([]Entry, error)
}

// LocalFS implements FileSystem over the local filesystem rooted at Dir.
type LocalFS struct {
	Dir string
}

// NewLocalFS creates a LocalFS rooted at dir.
func NewLocalFS(dir string) *LocalFS { return &LocalFS{Dir: dir} }

// Root returns the rooted directory path.
func (f *LocalFS) Root() string { return f.Dir }

// List reads the given subdirectory of f.Dir.
func (f *LocalFS) List(dir string) ([]Entry, error) {
	full := path.Join(f.Dir, dir)
	items, err := os.ReadDir(full)
	if err != nil {
		return nil, err
	}

	out := make([]Entry, 0, len(items))
	for _, it := range items {
		info, err := it.Info()
		if err != nil {
			continue
		}
		out = append(out, Entry{
			Name:    it.Name(),
			IsDir:   it.IsDir(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	sortEntries(out)
	return out, nil
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].IsDir != entries[j].IsDir {
			return entries[i].IsDir
		}
		return entries[i].Name < entries[j].Name
	})
}

// CachedFS wraps a FileSystem with a Cache, serving List from the cache
// when present and populating it on miss.
type CachedFS struct {
	fs    FileSystem
	cache *Cache
}

// NewCachedFS wraps fs with cache.
func NewCachedFS(fs FileSystem, cache *Cache) *CachedFS {
	return &CachedFS{fs: fs, cache: cache}
}

// Root delegates to the wrapped FileSystem.
func (c *CachedFS) Root() string { return c.fs.Root() }

// List serves from the cache on a hit; otherwise calls through to the
// wrapped FileSystem and stores the result before returning it.
func (c *CachedFS) List(dir string) ([]Entry, error) {
	if entries, ok := c.cache.Get(c.fs.Root(), dir); ok {
		return entries, nil
	}

	entries, err := c.fs.List(dir)
	if err != nil {
		return nil, err
	}
	_ = c.cache.Set(c.fs.Root(), dir, entries)
	return entries, nil
}

// Invalidate drops the cached listing for dir, used after a write that
// changes the tree underneath a CachedFS.
func (c *CachedFS) Invalidate(dir string) error {
	return c.cache.Invalidate(c.fs.Root(), dir)
}
