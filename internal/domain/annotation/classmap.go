package annotation

import (
	"sort"
	"strings"
)

// ClassMap assigns ids to class names in first-seen order, starting at 1.
// Ids are never reused or renumbered until Reset.
type ClassMap struct {
	ids  map[string]int
	next int
}

// NewClassMap returns an empty class map.
func NewClassMap() *ClassMap {
	return &ClassMap{ids: make(map[string]int), next: 1}
}

// NormalizeName trims and lowercases a class name.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Assign returns the id for name, allocating the next id if the name is new.
func (m *ClassMap) Assign(name string) int {
	if id, ok := m.ids[name]; ok {
		return id
	}
	id := m.next
	m.ids[name] = id
	m.next++
	return id
}

// Observe records an existing name/id pair read from storage. The first id
// seen for a name wins; the next id always moves past every observed id.
func (m *ClassMap) Observe(name string, id int) {
	if _, ok := m.ids[name]; !ok {
		m.ids[name] = id
	}
	if id >= m.next {
		m.next = id + 1
	}
}

// Lookup returns the id assigned to name.
func (m *ClassMap) Lookup(name string) (int, bool) {
	id, ok := m.ids[name]
	return id, ok
}

// Next returns the id the next new class will receive.
func (m *ClassMap) Next() int {
	return m.next
}

// Len returns the number of known classes.
func (m *ClassMap) Len() int {
	return len(m.ids)
}

// Classes returns every known class ordered by id.
func (m *ClassMap) Classes() []Class {
	classes := make([]Class, 0, len(m.ids))
	for name, id := range m.ids {
		classes = append(classes, Class{ID: id, Name: name})
	}
	sort.Slice(classes, func(i, j int) bool {
		if classes[i].ID == classes[j].ID {
			return classes[i].Name < classes[j].Name
		}
		return classes[i].ID < classes[j].ID
	})
	return classes
}

// Reset forgets every assignment; numbering restarts at 1.
func (m *ClassMap) Reset() {
	m.ids = make(map[string]int)
	m.next = 1
}
