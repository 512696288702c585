// Package output renders scan reports. Formatters register themselves
// by name at init time and are selected at runtime via Get.
package output

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/jamesainslie/mediacheck/pkg/mediacheck/scan"
)

// Formatter renders one report into the buffer.
type Formatter interface {
	Format(w *bytes.Buffer, r *scan.Report) error
}

var (
	mu         sync.RWMutex
	formatters = make(map[string]func() Formatter)
)

// Register adds a formatter factory under the given name, replacing
// any previous registration.
func Register(name string, factory func() Formatter) {
	mu.Lock()
	defer mu.Unlock()
	formatters[name] = factory
}

// Get returns a new formatter instance by name. The error for an
// unknown name lists what is registered.
func Get(name string) (Formatter, error) {
	mu.RLock()
	defer mu.RUnlock()

	factory, ok := formatters[name]
	if !ok {
		return nil, fmt.Errorf("unknown format %q (available: %s)",
			name, strings.Join(names(), ", "))
	}
	return factory(), nil
}

// names returns the registered formatter names sorted. Callers hold mu.
func names() []string {
	out := make([]string, 0, len(formatters))
	for name := range formatters {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
