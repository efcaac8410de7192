package service

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// keyedLocks serializes validate+write sections per resource key, so two
// concurrent requests against the same (vehicle, date) or (driver, date)
// cannot both pass validation before either commits.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{locks: make(map[string]*lockEntry)}
}

func driverDateKey(driverID uuid.UUID, date time.Time) string {
	return fmt.Sprintf("driver:%s:%s", driverID, date.UTC().Format("2006-01-02"))
}

func vehicleDateKey(vehicleID uuid.UUID, date time.Time) string {
	return fmt.Sprintf("vehicle:%s:%s", vehicleID, date.UTC().Format("2006-01-02"))
}

// acquire locks the given keys in sorted order and returns the release
// function. Sorting gives a global lock order, so overlapping key sets taken
// by concurrent callers cannot deadlock.
func (k *keyedLocks) acquire(keys ...string) func() {
	sorted := make([]string, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, key := range keys {
		if !seen[key] {
			seen[key] = true
			sorted = append(sorted, key)
		}
	}
	sort.Strings(sorted)

	entries := make([]*lockEntry, 0, len(sorted))
	for _, key := range sorted {
		k.mu.Lock()
		entry, ok := k.locks[key]
		if !ok {
			entry = &lockEntry{}
			k.locks[key] = entry
		}
		entry.refs++
		k.mu.Unlock()

		entry.mu.Lock()
		entries = append(entries, entry)
	}

	release := func() {
		for i := len(sorted) - 1; i >= 0; i-- {
			entries[i].mu.Unlock()

			k.mu.Lock()
			entries[i].refs--
			if entries[i].refs == 0 {
				delete(k.locks, sorted[i])
			}
			k.mu.Unlock()
		}
	}
	return release
}
