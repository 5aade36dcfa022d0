package ids

import (
	"sort"
	"sync"
	"testing"
)

func TestNewIsUniqueAndSortable(t *testing.T) {
	const n = 1000
	seen := make(map[string]bool, n)
	generated := make([]string, 0, n)
	for i := 0; i < n; i++ {
		id := New()
		if seen[id] {
			t.Fatalf("duplicate id: %s", id)
		}
		seen[id] = true
		generated = append(generated, id)
	}
	if !sort.StringsAreSorted(generated) {
		t.Fatal("ids generated in sequence are not sorted")
	}
}

func TestNewConcurrent(t *testing.T) {
	const workers, per = 8, 100
	var mu sync.Mutex
	seen := make(map[string]bool, workers*per)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < per; j++ {
				id := New()
				mu.Lock()
				if seen[id] {
					t.Errorf("duplicate id: %s", id)
				}
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
}

func TestIsValid(t *testing.T) {
	if !IsValid(New()) {
		t.Fatal("generated id does not validate")
	}
	for _, bad := range []string{"", "not-an-id", "spoofed\r\nid", "0000"} {
		if IsValid(bad) {
			t.Fatalf("accepted %q", bad)
		}
	}
}
