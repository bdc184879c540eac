package eix

// StringTable is an append-only string interning table. eix stores
// frequently repeated strings (licenses, keywords, USE flags, dependency
// atoms) once in the header and refers to them by index afterwards.
//
// Indexes are dense and assigned in insertion order.
type StringTable struct {
	strings []string
	index   map[string]int
}

// NewStringTable returns an empty StringTable.
func NewStringTable() *StringTable {
	return &StringTable{
		index: make(map[string]int),
	}
}

// Add adds a string and returns its index. Adding a string that is already
// present returns the existing index.
func (t *StringTable) Add(s string) int {
	if idx, exists := t.index[s]; exists {
		return idx
	}
	idx := len(t.strings)
	t.strings = append(t.strings, s)
	t.index[s] = idx
	return idx
}

// Get returns the string at index i.
func (t *StringTable) Get(i int) (string, bool) {
	if i < 0 || i >= len(t.strings) {
		return "", false
	}
	return t.strings[i], true
}

// Index returns the index of s.
func (t *StringTable) Index(s string) (int, bool) {
	idx, exists := t.index[s]
	return idx, exists
}

// Len returns the number of distinct strings in the table.
func (t *StringTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.strings)
}

// Strings returns a copy of all strings in index order.
func (t *StringTable) Strings() []string {
	out := make([]string, len(t.strings))
	copy(out, t.strings)
	return out
}
