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
	"context"
	"path"
	"regexp"
	"sync"

	"github.com/dgryski/go-jump"
	"github.com/dgryski/go-wyhash"
	"golang.org/x/sync/errgroup"
)

// Match is one search hit.
type Match struct {
	Dir  string
	Name string
}

// Search walks fs breadth-first from root starting at dir, matching each
// entry's name against pattern, fanning the per-directory List calls out
// across workerCount goroutines via errgroup. Each discovered directory is
// assigned to a worker by jump-consistent-hashing its path, so repeated
// searches of the same tree keep sending a given subtree to the same
// worker and its warmed Cache entries.
func Search(ctx context.Context, fs FileSystem, dir, pattern string, workerCount int) ([]Match, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	if workerCount <= 0 {
		workerCount = 4
	}

	type job struct{ dir string }

	jobs := make([]chan job, workerCount)
	for i := range jobs {
		jobs[i] = make(chan job, 1024)
	}

	var mu sync.Mutex
	var matches []Match

	var pending sync.WaitGroup
	pending.Add(1)

	g, gctx := errgroup.WithContext(ctx)

	enqueue := func(d string) {
		shard := jump.Hash(pathHash(d), int32(workerCount))
		pending.Add(1)
		jobs[shard] <- job{dir: d}
	}

	for w := 0; w < workerCount; w++ {
		w := w
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return gctx.Err()
				case j, ok := <-jobs[w]:
					if !ok {
						return nil
					}
					func() {
						defer pending.Done()
						entries, err := fs.List(j.dir)
						if err != nil {
							return
						}
						for _, e := range entries {
							if re.MatchString(e.Name) {
								mu.Lock()
								matches = append(matches, Match{Dir: j.dir, Name: e.Name})
								mu.Unlock()
							}
							if e.IsDir {
								enqueue(path.Join(j.dir, e.Name))
							}
						}
					}()
				}
			}
		})
	}

	enqueue(dir)
	pending.Done() // balance the initial Add(1)

	go func() {
		pending.Wait()
		for _, ch := range jobs {
			close(ch)
		}
	}()

	if err := g.Wait(); err != nil && err != context.Canceled {
		return matches, err
	}
	return matches, nil
}

// pathHash turns a directory path into the uint64 key jump.Hash expects.
func pathHash(p string) uint64 {
	return wyhash.Hash([]byte(p), 0)
}
