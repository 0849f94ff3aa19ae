// Package output provides formatters for displaying arcsum run reports
// in various formats (pretty, plain, json).
//
// The package uses a registry pattern so formatters can be selected at
// runtime by name:
//
//	formatter, err := output.Get("pretty")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := formatter.Format(os.Stdout, report); err != nil {
//	    log.Fatal(err)
//	}
package output

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/davidhaslett/arcsum/pkg/arcsum/reconcile"
)

// Formatter renders a reconciliation report to a writer.
type Formatter interface {
	Format(w io.Writer, r *reconcile.Report) error
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Formatter)
)

// Register adds a formatter under the given name, replacing any
// previous registration.
func Register(name string, f Formatter) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = f
}

// Get returns the formatter registered under name.
func Get(name string) (Formatter, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown output format %q", name)
	}
	return f, nil
}

// Available returns the registered formatter names in sorted order.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	Register("pretty", &PrettyFormatter{})
	Register("plain", &PlainFormatter{})
	Register("json", &JSONFormatter{})
}
