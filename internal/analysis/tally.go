package analysis

import "sort"

// TallyEntry is one key of a Tally with its count.
type TallyEntry struct {
	Key   string
	Count int
}

// Tally counts packets per string key (SSID, hostname).
type Tally struct {
	counts map[string]*int
}

// NewTally creates an empty Tally.
func NewTally() *Tally {
	return &Tally{counts: make(map[string]*int)}
}

// Entry returns the counter for key, inserting a zero counter if the key is new.
func (t *Tally) Entry(key string) *int {
	c, ok := t.counts[key]
	if !ok {
		c = new(int)
		t.counts[key] = c
	}
	return c
}

// Inc adds one to key and returns the new count.
func (t *Tally) Inc(key string) int {
	return t.Add(key, 1)
}

// Add adds n to key and returns the new count.
func (t *Tally) Add(key string, n int) int {
	c := t.Entry(key)
	*c += n
	return *c
}

// Get returns the count for key without inserting it.
func (t *Tally) Get(key string) int {
	if c, ok := t.counts[key]; ok {
		return *c
	}
	return 0
}

// Len returns the number of distinct keys.
func (t *Tally) Len() int {
	return len(t.counts)
}

// Total returns the sum of all counts.
func (t *Tally) Total() int {
	n := 0
	for _, c := range t.counts {
		n += *c
	}
	return n
}

// Entries returns all keys sorted by count descending, then key ascending.
func (t *Tally) Entries() []TallyEntry {
	out := make([]TallyEntry, 0, len(t.counts))
	for k, c := range t.counts {
		out = append(out, TallyEntry{Key: k, Count: *c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// Top returns at most n entries in Entries order.
func (t *Tally) Top(n int) []TallyEntry {
	e := t.Entries()
	if n >= 0 && len(e) > n {
		return e[:n]
	}
	return e
}

// Clone returns an independent copy.
func (t *Tally) Clone() *Tally {
	c := NewTally()
	for k, v := range t.counts {
		c.Add(k, *v)
	}
	return c
}
