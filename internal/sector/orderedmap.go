package sector

// Entry is one key/value pair of an OrderedMap. Values are JavaScript source
// fragments. Spread entries carry the spread text as the key and an empty
// value.
type Entry struct {
	Key   string
	Value string
}

// Spread reports whether the entry is a "...expr" spread.
func (e Entry) Spread() bool {
	return len(e.Key) > 3 && e.Key[:3] == "..."
}

// OrderedMap keeps keys in first-insertion order. Setting an existing key
// replaces its value in place, so a duplicate keeps the earlier position but
// the later content.
type OrderedMap struct {
	entries []Entry
	index   map[string]int
}

func NewOrderedMap() *OrderedMap {
	return &OrderedMap{index: make(map[string]int)}
}

func (m *OrderedMap) Set(key, value string) {
	if m.index == nil {
		m.index = make(map[string]int)
	}
	if i, ok := m.index[key]; ok {
		m.entries[i].Value = value
		return
	}
	m.index[key] = len(m.entries)
	m.entries = append(m.entries, Entry{Key: key, Value: value})
}

// SetDefault stores value only when key is absent.
func (m *OrderedMap) SetDefault(key, value string) {
	if !m.Has(key) {
		m.Set(key, value)
	}
}

func (m *OrderedMap) Get(key string) (string, bool) {
	if m == nil {
		return "", false
	}
	i, ok := m.index[key]
	if !ok {
		return "", false
	}
	return m.entries[i].Value, true
}

func (m *OrderedMap) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

func (m *OrderedMap) Delete(key string) bool {
	if m == nil {
		return false
	}
	i, ok := m.index[key]
	if !ok {
		return false
	}
	m.entries = append(m.entries[:i], m.entries[i+1:]...)
	delete(m.index, key)
	for j := i; j < len(m.entries); j++ {
		m.index[m.entries[j].Key] = j
	}
	return true
}

func (m *OrderedMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Entries returns a copy of the entries in order.
func (m *OrderedMap) Entries() []Entry {
	if m == nil {
		return nil
	}
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

func (m *OrderedMap) Keys() []string {
	if m == nil {
		return nil
	}
	keys := make([]string, len(m.entries))
	for i, e := range m.entries {
		keys[i] = e.Key
	}
	return keys
}
