package plotitem

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
	"fmt"
	"image"

	"github.com/couchbase/moss"
)

var (
	rasterReadOpts  = moss.ReadOptions{}
	rasterWriteOpts = moss.WriteOptions{}
)

// RasterCache is an in-memory bypass cache for colorized raster tiles,
// keyed by destination rect, backed by a moss.Collection the same way the
// pipeline's key-value stores are: a gob-encoded *image.RGBA value behind
// a text key made of the rect's four coordinates. It lets Raster.Render
// skip re-extracting and recolorizing when the same destination rect is
// requested again. Entries are not dropped when the raster's data
// changes; Invalidate removes one explicitly.
type RasterCache struct {
	db moss.Collection
}

// NewRasterCache creates an empty cache.
func NewRasterCache() (*RasterCache, error) {
	db, err := moss.NewCollection(moss.DefaultCollectionOptions)
	if err != nil {
		return nil, err
	}
	if err := db.Start(); err != nil {
		return nil, err
	}
	return &RasterCache{db: db}, nil
}

// Close releases the cache's resources.
func (c *RasterCache) Close() error {
	err := c.db.Close()
	c.db = nil
	return err
}

func rectKey(r Rect) []byte {
	return []byte(fmt.Sprintf("%g|%g|%g|%g", r.Left, r.Top, r.Right, r.Bottom))
}

// Get returns the cached tile for dest, if present.
func (c *RasterCache) Get(dest Rect) (*image.RGBA, bool) {
	raw, err := c.db.Get(rectKey(dest), rasterReadOpts)
	if err != nil || raw == nil {
		return nil, false
	}

	var img image.RGBA
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&img); err != nil {
		return nil, false
	}
	return &img, true
}

// Set stores img as the cached tile for dest, replacing any prior entry.
func (c *RasterCache) Set(dest Rect, img *image.RGBA) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(img); err != nil {
		return err
	}

	key := rectKey(dest)
	batch, err := c.db.NewBatch(1, len(key)+buf.Len())
	if err != nil {
		return err
	}
	defer batch.Close()

	if err := batch.Set(key, buf.Bytes()); err != nil {
		return err
	}
	return c.db.ExecuteBatch(batch, rasterWriteOpts)
}

// Invalidate drops the cached tile for dest, if any.
func (c *RasterCache) Invalidate(dest Rect) error {
	key := rectKey(dest)
	batch, err := c.db.NewBatch(1, 0)
	if err != nil {
		return err
	}
	defer batch.Close()

	if err := batch.Del(key); err != nil {
		return err
	}
	return c.db.ExecuteBatch(batch, rasterWriteOpts)
}
