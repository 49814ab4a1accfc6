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
	"bytes"
	"encoding/gob"

	ldb "github.com/syndtr/goleveldb/leveldb"
	ldbopt "github.com/syndtr/goleveldb/leveldb/opt"
	ldbutil "github.com/syndtr/goleveldb/leveldb/util"
)

var (
	cacheWriteOpts *ldbopt.WriteOptions
	cacheReadOpts  *ldbopt.ReadOptions
)

// Cache is a durable directory-listing cache keyed by "<root>\x00<path>",
// gob-encoding the []Entry value. It is backed by goleveldb the same way
// the pipeline's durable key-value store is, because a browsed tree can
// run into the tens of thousands of directories and a cache that doesn't
// survive a restart defeats the point.
type Cache struct {
	db *ldb.DB
}

// OpenCache opens (creating if absent) a Cache at dir.
func OpenCache(dir string) (*Cache, error) {
	db, err := ldb.OpenFile(dir, nil)
	if err != nil {
		return nil, err
	}
	return &Cache{db: db}, nil
}

// Close releases the cache's resources.
func (c *Cache) Close() error {
	err := c.db.Close()
	c.db = nil
	return err
}

func cacheKey(root, dir string) []byte {
	return append(append([]byte(root), 0), []byte(dir)...)
}

// Get returns the cached listing for (root, dir), if present.
func (c *Cache) Get(root, dir string) ([]Entry, bool) {
	raw, err := c.db.Get(cacheKey(root, dir), cacheReadOpts)
	if err != nil || raw == nil {
		return nil, false
	}

	var entries []Entry
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&entries); err != nil {
		return nil, false
	}
	return entries, true
}

// Set stores entries as the cached listing for (root, dir).
func (c *Cache) Set(root, dir string, entries []Entry) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(entries); err != nil {
		return err
	}
	return c.db.Put(cacheKey(root, dir), buf.Bytes(), cacheWriteOpts)
}

// Invalidate drops the cached listing for (root, dir).
func (c *Cache) Invalidate(root, dir string) error {
	return c.db.Delete(cacheKey(root, dir), cacheWriteOpts)
}

// InvalidatePrefix drops every cached listing whose path is dir or a
// descendant of dir within root, used after a move/delete whose blast
// radius isn't known precisely.
func (c *Cache) InvalidatePrefix(root, dir string) error {
	prefix := cacheKey(root, dir)
	iter := c.db.NewIterator(ldbutil.BytesPrefix(prefix), cacheReadOpts)
	defer iter.Release()

	var keys [][]byte
	for iter.Next() {
		key := make([]byte, len(iter.Key()))
		copy(key, iter.Key())
		keys = append(keys, key)
	}
	if err := iter.Error(); err != nil {
		return err
	}

	for _, k := range keys {
		if err := c.db.Delete(k, cacheWriteOpts); err != nil {
			return err
		}
	}
	return nil
}
