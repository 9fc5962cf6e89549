package game

import (
	"fmt"
	"sort"
)

// Tags is a set of labels attached to rooms, characters and objects.
type Tags map[string]struct{}

// NewTags builds a tag set from a list.
func NewTags(list ...string) Tags {
	t := make(Tags, len(list))
	for _, tag := range list {
		t.Add(tag)
	}
	return t
}

func (t Tags) Has(tag string) bool {
	_, ok := t[fold(tag)]
	return ok
}

// Add inserts tag and reports whether the set changed.
func (t Tags) Add(tag string) bool {
	key := fold(tag)
	if key == "" {
		return false
	}
	if _, ok := t[key]; ok {
		return false
	}
	t[key] = struct{}{}
	return true
}

// Remove deletes tag and reports whether the set changed.
func (t Tags) Remove(tag string) bool {
	key := fold(tag)
	if _, ok := t[key]; !ok {
		return false
	}
	delete(t, key)
	return true
}

// Sorted returns the tags in lexical order.
func (t Tags) Sorted() []string {
	out := make([]string, 0, len(t))
	for tag := range t {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// Properties holds free-form values loaded from the world definition.
type Properties map[string]any

// Equals compares a stored property against an expected value by their
// printed form, so JSON numbers compare equal to integers.
func (p Properties) Equals(key string, want any) bool {
	got, ok := p[key]
	if !ok {
		return want == nil
	}
	return fmt.Sprint(got) == fmt.Sprint(want)
}

func cloneProperties(src map[string]any) Properties {
	out := make(Properties, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
