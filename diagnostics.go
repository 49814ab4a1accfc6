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
	"encoding/json"
	"net/http"

	"github.com/brunotm/vipflow/internal/httpserver"
)

// registerDiagnosticsRoutes wires the graph/node/error/stats introspection
// endpoints onto srv. These routes are read-only: they never mutate the
// graph, matching the source system's introspection panels being
// observation-only by design.
func registerDiagnosticsRoutes(srv *httpserver.Server, p *Pool, m *ManagerRegistry) {
	srv.AddHandler(http.MethodGet, "/graph", func(w http.ResponseWriter, r *http.Request, _ httpserver.Params) {
		w.Header().Set("Content-Type", "text/vnd.graphviz")
		w.Write([]byte(p.DOT()))
	})

	srv.AddHandler(http.MethodGet, "/nodes", func(w http.ResponseWriter, r *http.Request, _ httpserver.Params) {
		names := make([]string, 0)
		for _, n := range p.Nodes() {
			names = append(names, n.Name())
		}
		writeJSON(w, names)
	})

	srv.AddHandler(http.MethodGet, "/nodes/:name/errors", func(w http.ResponseWriter, r *http.Request, ps httpserver.Params) {
		n, ok := p.Node(ps.ByName("name"))
		if !ok {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, n.Errors())
	})

	srv.AddHandler(http.MethodGet, "/stats", func(w http.ResponseWriter, r *http.Request, _ httpserver.Params) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte(m.LatencyReport()))
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.Encode(v)
}
