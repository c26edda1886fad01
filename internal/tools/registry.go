package tools

import (
	"fmt"
	"runtime"
	"sort"
)

// Options configures the tools that take settings.
type Options struct {
	// RasterWorkers bounds concurrent page renders (default: runtime.NumCPU())
	RasterWorkers int
}

// Registry maps tool names to tools.
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry returns a registry holding all six tools.
func NewRegistry(opts Options) *Registry {
	workers := opts.RasterWorkers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	r := &Registry{tools: make(map[string]Tool)}
	for _, t := range []Tool{
		&Split{},
		&Merge{},
		&Compress{},
		&Rasterize{Workers: workers},
		&Extract{},
		&Rotate{},
	} {
		r.Register(t)
	}
	return r
}

// Register adds or replaces a tool.
func (r *Registry) Register(t Tool) {
	name := Name(t)
	if _, exists := r.tools[name]; !exists {
		r.order = append(r.order, name)
	}
	r.tools[name] = t
}

// Get returns the named tool.
func (r *Registry) Get(name string) (Tool, error) {
	t, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("unknown tool %q (available: %v)", name, r.Names())
	}
	return t, nil
}

// Names returns tool names sorted alphabetically.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Infos returns tool descriptions in registration order.
func (r *Registry) Infos() []Info {
	infos := make([]Info, 0, len(r.order))
	for _, name := range r.order {
		infos = append(infos, r.tools[name].Info())
	}
	return infos
}
