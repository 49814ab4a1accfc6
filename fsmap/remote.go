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
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"time"
)

// RemoteFS implements FileSystem against a remote agent that serves JSON
// directory listings over HTTP, the same "Class:pool;node;port"-free,
// plain-HTTP style the ingest side (source/httpsource) uses for its own
// wire format. It exists for browsing acquisition directories that live
// on a separate host from the viewer process.
type RemoteFS struct {
	BaseURL string
	RootDir string
	Client  *http.Client
}

// NewRemoteFS creates a RemoteFS against baseURL (e.g.
// "http://acquisition-host:8090"), browsing rootDir on the remote side.
func NewRemoteFS(baseURL, rootDir string) *RemoteFS {
	return &RemoteFS{BaseURL: baseURL, RootDir: rootDir, Client: http.DefaultClient}
}

// Root identifies this tree by host+path, used as the cache key prefix.
func (f *RemoteFS) Root() string { return f.BaseURL + ":" + f.RootDir }

type remoteEntry struct {
	Name    string    `json:"name"`
	IsDir   bool      `json:"is_dir"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// List issues "GET {BaseURL}/fsmap/list?dir=..." and decodes a JSON array
// of remoteEntry into Entry.
func (f *RemoteFS) List(dir string) ([]Entry, error) {
	full := path.Join(f.RootDir, dir)
	u := fmt.Sprintf("%s/fsmap/list?dir=%s", f.BaseURL, url.QueryEscape(full))

	resp, err := f.Client.Get(u)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fsmap: remote list %q: status %d", u, resp.StatusCode)
	}

	var remote []remoteEntry
	if err := json.NewDecoder(resp.Body).Decode(&remote); err != nil {
		return nil, err
	}

	out := make([]Entry, len(remote))
	for i, r := range remote {
		out[i] = Entry{Name: r.Name, IsDir: r.IsDir, Size: r.Size, ModTime: r.ModTime}
	}
	sortEntries(out)
	return out, nil
}
