// Package lots provides the contract lot-size lookup. The table is built
// explicitly and injected where needed; there is no process-wide cache.
package lots

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gocarina/gocsv"
)

// csvRow matches one row of the exchange lot-size CSV. Header names carry
// stray spaces in the published file, so symbols are trimmed after decoding.
type csvRow struct {
	Underlying string `csv:"UNDERLYING"`
	Symbol     string `csv:"SYMBOL"`
	LotSize    int    `csv:"LOT_SIZE"`
}

// Table is a lot-size lookup with an explicit load time, so callers can
// decide when it is stale and refresh it.
type Table struct {
	mu       sync.RWMutex
	sizes    map[string]int
	loadedAt time.Time
}

// New creates a table from an in-memory map.
func New(sizes map[string]int, loadedAt time.Time) *Table {
	copied := make(map[string]int, len(sizes))
	for k, v := range sizes {
		copied[strings.TrimSpace(k)] = v
	}
	return &Table{sizes: copied, loadedAt: loadedAt}
}

// LoadCSV builds a table from the exchange lot-size CSV.
func LoadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening lot size csv: %w", err)
	}
	defer f.Close()

	var rows []csvRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("parsing lot size csv: %w", err)
	}

	sizes := make(map[string]int, len(rows))
	for _, row := range rows {
		symbol := strings.TrimSpace(row.Symbol)
		if symbol == "" || row.LotSize <= 0 {
			continue
		}
		sizes[symbol] = row.LotSize
	}

	return &Table{sizes: sizes, loadedAt: time.Now()}, nil
}

// Lookup returns the lot size for a symbol.
func (t *Table) Lookup(symbol string) (int, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	size, ok := t.sizes[strings.TrimSpace(symbol)]
	return size, ok
}

// Refresh replaces the table contents.
func (t *Table) Refresh(sizes map[string]int, at time.Time) {
	copied := make(map[string]int, len(sizes))
	for k, v := range sizes {
		copied[strings.TrimSpace(k)] = v
	}

	t.mu.Lock()
	t.sizes = copied
	t.loadedAt = at
	t.mu.Unlock()
}

// Snapshot returns a copy of the table contents, for persistence.
func (t *Table) Snapshot() map[string]int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	copied := make(map[string]int, len(t.sizes))
	for k, v := range t.sizes {
		copied[k] = v
	}
	return copied
}

// StaleAfter reports whether the table is older than maxAge.
func (t *Table) StaleAfter(maxAge time.Duration, now time.Time) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return now.Sub(t.loadedAt) > maxAge
}

// Len returns the number of symbols in the table.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.sizes)
}
