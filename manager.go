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
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/couchbase/ghistogram"

	"github.com/brunotm/vipflow/internal/httpserver"
	"github.com/brunotm/vipflow/log"
)

// NodeTypeInfo describes a registered node type, the equivalent of the
// source system's plugin-registration metadata: a category, a
// description and a factory that builds a named Node.
type NodeTypeInfo struct {
	Category    string
	Description string
	Factory     func(name string) (*Node, error)
}

// ManagerRegistry is the process-wide singleton holding configuration
// defaults, the node-type registry, per-class scheduling priority and the
// diagnostics HTTP surface. It mirrors the source system's global
// "VipProcessingManager"/"GlobalConfig" singleton: constructed lazily on
// first use via Manager(), and sealed (read-mostly) once a Pool starts.
type ManagerRegistry struct {
	mu sync.RWMutex

	sealed bool

	dataListDefaults DataListDefaults
	logFilter        map[ErrorCode]bool
	priorities       map[string]int

	nodeTypes map[string]NodeTypeInfo

	lists []*DataList

	latency *ghistogram.Histogram

	diag *httpserver.Server
}

var (
	managerOnce sync.Once
	managerInst *ManagerRegistry
)

// Manager returns the process-wide ManagerRegistry, constructing it (and
// its default configuration) on first call.
func Manager() *ManagerRegistry {
	managerOnce.Do(func() {
		managerInst = &ManagerRegistry{
			dataListDefaults: DefaultDataListDefaults,
			logFilter:        cloneLogFilter(defaultLogFilter),
			priorities:       make(map[string]int),
			nodeTypes:        make(map[string]NodeTypeInfo),
			// 32 bins starting at 0us growing by 50us: enough resolution
			// to distinguish sub-millisecond node apply() calls from the
			// multi-millisecond ones that dominate diagnostics.
			latency: ghistogram.NewHistogram(32, 50000, 0),
		}
	})
	return managerInst
}

func cloneLogFilter(src map[ErrorCode]bool) map[ErrorCode]bool {
	dst := make(map[ErrorCode]bool, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// DataListDefaults returns the current process-wide DataList bounds.
func (m *ManagerRegistry) DataListDefaults() DataListDefaults {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dataListDefaults
}

// SetDataListDefaults updates the process-wide DataList bounds and
// retroactively applies them to every still-unoverridden DataList created
// so far.
func (m *ManagerRegistry) SetDataListDefaults(d DataListDefaults) {
	m.mu.Lock()
	m.dataListDefaults = d
	lists := make([]*DataList, len(m.lists))
	copy(lists, m.lists)
	m.mu.Unlock()

	for _, l := range lists {
		l.applyGlobalDefault(d)
	}
}

func (m *ManagerRegistry) registerDataList(l *DataList) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists = append(m.lists, l)
}

// ShouldLog reports whether code should be written to the structured
// logger, per the process-wide log filter.
func (m *ManagerRegistry) ShouldLog(code ErrorCode) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.logFilter[code]
	if !ok {
		return true
	}
	return v
}

// SetLogFilter overrides whether code gets written to the structured
// logger process-wide.
func (m *ManagerRegistry) SetLogFilter(code ErrorCode, enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logFilter[code] = enabled
}

// SetPriority records a scheduling priority hint for className, readable
// through Priority. The runtime itself does not apply it: TaskPool
// workers and their drain order are unaffected by it.
func (m *ManagerRegistry) SetPriority(className string, priority int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.priorities[className] = priority
}

// Priority returns the priority hint registered for className, or 0.
func (m *ManagerRegistry) Priority(className string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.priorities[className]
}

// RegisterNodeType adds name to the node-type registry so that Pool's
// graph deserialization (and any diagnostics listing available types) can
// construct nodes of this kind by name.
func (m *ManagerRegistry) RegisterNodeType(name string, info NodeTypeInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sealed {
		return ErrPoolSealed
	}
	if _, exists := m.nodeTypes[name]; exists {
		return ErrDuplicateName
	}
	m.nodeTypes[name] = info
	return nil
}

// NodeType looks up a registered node type by name.
func (m *ManagerRegistry) NodeType(name string) (NodeTypeInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	info, ok := m.nodeTypes[name]
	return info, ok
}

// NodeTypeNames returns every registered node type name.
func (m *ManagerRegistry) NodeTypeNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.nodeTypes))
	for n := range m.nodeTypes {
		names = append(names, n)
	}
	return names
}

// Seal prevents further node-type registration; a Pool calls this once it
// starts running so that concurrent registration can't race graph
// construction.
func (m *ManagerRegistry) Seal() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sealed = true
}

// observeLatency records a node Apply() duration (nanoseconds) into the
// process-wide latency histogram, surfaced at the diagnostics /stats route.
func (m *ManagerRegistry) observeLatency(nanos int64) {
	if nanos < 0 {
		return
	}
	m.mu.Lock()
	m.latency.Add(uint64(nanos), 1)
	m.mu.Unlock()
}

// LatencyReport returns a human-readable rendering of the process-wide
// node Apply() latency histogram.
func (m *ManagerRegistry) LatencyReport() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latency.String()
}

// StartDiagnostics starts the diagnostics HTTP surface (graph/node/error
// inspection) listening on addr. It is the Go-idiomatic equivalent of the
// source system's VipPlayer introspection panels, exposed over HTTP so a
// headless deployment can still be inspected. It returns once the server
// has stopped (normally via StopDiagnostics).
func (m *ManagerRegistry) StartDiagnostics(addr string, p *Pool) error {
	m.mu.Lock()
	if m.diag != nil {
		m.mu.Unlock()
		return fmt.Errorf("vipflow: diagnostics already started")
	}
	srv := httpserver.New(httpserver.Config{Addr: addr})
	registerDiagnosticsRoutes(srv, p, m)
	m.diag = srv
	m.mu.Unlock()

	log.New("component", "manager").Infow("starting diagnostics", "addr", addr)
	return srv.Start()
}

// StopDiagnostics shuts down the diagnostics HTTP surface, if running.
func (m *ManagerRegistry) StopDiagnostics() error {
	m.mu.Lock()
	srv := m.diag
	m.diag = nil
	m.mu.Unlock()

	if srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Close(ctx)
}
