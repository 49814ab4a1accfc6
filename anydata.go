package vipflow

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
	"image"
	"math"

	"github.com/cespare/xxhash"
)

// InvalidTime is the sentinel timestamp meaning "no time", mirroring the
// source system's VipInvalidTime.
const InvalidTime int64 = math.MinInt64

// AnyData is the unit of data flowing on a graph edge: a payload, a
// timestamp, the id of the node that produced it, and an attribute map.
// Construction and copy are cheap: the attribute map is copy-on-write, so
// passing an AnyData by value across goroutines is safe as long as callers
// treat Attributes() as read-only and go through WithAttribute to mutate.
type AnyData struct {
	payload    interface{}
	timestamp  int64
	sourceID   int64
	attributes map[string]interface{}
}

// NewAnyData creates an AnyData with the given payload and InvalidTime.
func NewAnyData(payload interface{}) AnyData {
	return AnyData{payload: payload, timestamp: InvalidTime}
}

// NewAnyDataTime creates an AnyData with the given payload and timestamp.
func NewAnyDataTime(payload interface{}, timestamp int64) AnyData {
	return AnyData{payload: payload, timestamp: timestamp}
}

// IsValid reports whether this AnyData carries a non-nil payload.
func (d AnyData) IsValid() bool {
	return d.payload != nil
}

// Data returns the payload.
func (d AnyData) Data() interface{} {
	return d.payload
}

// Time returns the timestamp, or InvalidTime if none was set.
func (d AnyData) Time() int64 {
	return d.timestamp
}

// SourceID returns the id of the producing node, or 0 if unset.
func (d AnyData) SourceID() int64 {
	return d.sourceID
}

// Attributes returns the attribute map. Callers must not mutate the
// returned map; use WithAttribute or MergeAttributes to derive a new value.
func (d AnyData) Attributes() map[string]interface{} {
	return d.attributes
}

// Attribute returns the named attribute and whether it was present.
func (d AnyData) Attribute(name string) (value interface{}, ok bool) {
	value, ok = d.attributes[name]
	return value, ok
}

// SetData returns a copy of d with the payload replaced.
func (d AnyData) SetData(payload interface{}) AnyData {
	d.payload = payload
	return d
}

// SetTime returns a copy of d with the timestamp replaced.
func (d AnyData) SetTime(timestamp int64) AnyData {
	d.timestamp = timestamp
	return d
}

// SetSourceID returns a copy of d with the source id replaced.
func (d AnyData) SetSourceID(id int64) AnyData {
	d.sourceID = id
	return d
}

// WithAttribute returns a copy of d with name set to value. The attribute
// map is cloned so prior copies of d are unaffected.
func (d AnyData) WithAttribute(name string, value interface{}) AnyData {
	clone := make(map[string]interface{}, len(d.attributes)+1)
	for k, v := range d.attributes {
		clone[k] = v
	}
	clone[name] = value
	d.attributes = clone
	return d
}

// MergeAttributes returns a copy of d whose attributes are the union of
// d's own attributes and other, with other's values winning on collision.
// This is the rule used by ProcessingList when carrying a value through
// an inline chain: later attributes win.
func (d AnyData) MergeAttributes(other map[string]interface{}) AnyData {
	if len(other) == 0 {
		return d
	}
	clone := make(map[string]interface{}, len(d.attributes)+len(other))
	for k, v := range d.attributes {
		clone[k] = v
	}
	for k, v := range other {
		clone[k] = v
	}
	d.attributes = clone
	return d
}

// sourcePropertyPrefix marks an attribute as a "source property": setting
// one through Node.SetSourceProperty recursively tags every ancestor node.
const sourcePropertyPrefix = "__source_"

// IsSourceProperty reports whether name follows the source-property
// naming convention.
func IsSourceProperty(name string) bool {
	return len(name) > len(sourcePropertyPrefix) && name[:len(sourcePropertyPrefix)] == sourcePropertyPrefix
}

// memoryFootprint estimates the payload's byte size for bounded DataList
// accounting. It recognizes the common payload shapes the pipeline moves
// (byte slices, strings, numeric slices, images) and falls back to a fixed
// estimate for opaque payloads, since Go offers no generic sizeof.
func (d AnyData) memoryFootprint() int64 {
	const attrEntryOverhead = 48
	var size int64

	switch v := d.payload.(type) {
	case nil:
		size = 0
	case []byte:
		size = int64(len(v))
	case string:
		size = int64(len(v))
	case []float64:
		size = int64(len(v)) * 8
	case []float32:
		size = int64(len(v)) * 4
	case []int64:
		size = int64(len(v)) * 8
	case []int32:
		size = int64(len(v)) * 4
	case [][2]float64:
		size = int64(len(v)) * 16
	case image.Image:
		b := v.Bounds()
		size = int64(b.Dx()) * int64(b.Dy()) * 4
	default:
		size = 64
	}

	for k, v := range d.attributes {
		size += int64(len(k)) + attrEntryOverhead
		if s, ok := v.(string); ok {
			size += int64(len(s))
		}
	}

	return size
}

// Fingerprint returns a fast hash of the string-valued Name, stylesheet,
// XUnit, YUnit and ZUnit attributes, used by DisplayObject's formatting
// hook to detect when those attributes actually changed, without a full
// deep comparison. The payload and other attributes are not hashed.
func (d AnyData) Fingerprint() uint64 {
	var buf []byte
	for _, k := range []string{"Name", "stylesheet", "XUnit", "YUnit", "ZUnit"} {
		if v, ok := d.attributes[k]; ok {
			if s, ok := v.(string); ok {
				buf = append(buf, k...)
				buf = append(buf, 0)
				buf = append(buf, s...)
				buf = append(buf, 0)
			}
		}
	}
	return xxhash.Sum64(buf)
}
