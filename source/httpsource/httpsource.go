// Package httpsource implements an ingest Node that accepts JSON payloads
// over HTTP POST and forwards them as AnyData on a single output port.
package httpsource

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
	"encoding/json"
	"errors"
	"net/http"
	"time"

	vipflow "github.com/brunotm/vipflow"
	"github.com/brunotm/vipflow/internal/httpserver"
	"github.com/brunotm/vipflow/log"
)

// Config configures a Source node.
type Config struct {
	httpserver.Config
	User     string
	Password string
	Topics   []string
}

// Source is a vipflow.Processor that owns an HTTP server: each accepted
// POST body is decoded as JSON and pushed to the node's single output as
// an AnyData tagged with the request's topic (":topic" path segment) and
// the arrival time. It never runs through apply() on its own output's
// behalf — being a producer, it drives the graph by calling SetData
// directly from the request handler, the source-node idiom the rest of
// the graph consumes via the normal push protocol.
type Source struct {
	config Config
	server *httpserver.Server
	topics map[string]struct{}
	output *vipflow.OutputPort
}

// New creates a Source node named name with its single output "data"
// already added; call Start on the returned Source to begin serving.
func New(name string, config Config) (*vipflow.Node, *Source, error) {
	if config.Addr == "" {
		return nil, nil, errors.New("httpsource: empty address")
	}

	src := &Source{config: config}
	src.topics = make(map[string]struct{}, len(config.Topics))
	for _, topic := range config.Topics {
		src.topics[topic] = struct{}{}
	}

	n := vipflow.NewNode("HttpSource", name, src)
	n.SetSchedule(vipflow.NoThread)
	src.output = n.AddOutput("data")
	return n, src, nil
}

// Apply satisfies vipflow.Processor but performs no work: Source is a
// pure producer and never has inputs to react to. It exists so the node
// can still be added to a Pool and reported on by diagnostics.
func (s *Source) Apply(n *vipflow.Node) error { return nil }

// Start begins serving HTTP requests in the background. It returns once
// the listener goroutine has been launched; Close stops it.
func (s *Source) Start() error {
	s.server = httpserver.New(s.config.Config)

	handler := func(w http.ResponseWriter, r *http.Request, ps httpserver.Params) {
		topic := ps.ByName("topic")
		if len(s.topics) > 0 {
			if _, ok := s.topics[topic]; !ok {
				http.Error(w, "topic not registered", http.StatusNotFound)
				return
			}
		}

		var payload interface{}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			r.Body.Close()
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
		r.Body.Close()

		d := vipflow.NewAnyDataTime(payload, time.Now().UnixNano())
		if topic != "" {
			d = d.WithAttribute("topic", topic)
		}
		s.output.SetData(d)

		log.New("source", "http", "topic", topic).Debugw("forwarded record")
		w.WriteHeader(http.StatusOK)
	}

	if s.config.User != "" && s.config.Password != "" {
		s.server.AddHandler("POST", "/:topic", httpserver.BasicAuth(handler, s.config.User, s.config.Password))
	} else {
		s.server.AddHandler("POST", "/:topic", handler)
	}

	go s.server.Start()
	return nil
}

// Close stops the HTTP server.
func (s *Source) Close() error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Close(ctx)
}
