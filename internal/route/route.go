// Package route holds the static table of screen names and their path templates.
package route

import (
	"fmt"
	"sort"
	"strings"
)

// Name is the dotted logical name of a screen, e.g. "classObservation.about".
type Name string

// Params carries values for the named segments of a template.
type Params map[string]string

// MissingParameterError is returned by Build when a template segment has no value.
type MissingParameterError struct {
	Route Name
	Param string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("route %s: missing parameter %q", e.Route, e.Param)
}

// Template is a path with optional ":param" segments.
type Template struct {
	name     Name
	path     string
	segments []string
}

func newTemplate(name Name, path string) Template {
	return Template{name: name, path: path, segments: strings.Split(strings.TrimPrefix(path, "/"), "/")}
}

func (t Template) Name() Name     { return t.name }
func (t Template) String() string { return t.path }

// Params lists the named segments in the order they appear.
func (t Template) Params() []string {
	var names []string
	for _, s := range t.segments {
		if strings.HasPrefix(s, ":") {
			names = append(names, s[1:])
		}
	}
	return names
}

// Build substitutes every named segment. Unused params are ignored.
func (t Template) Build(params Params) (string, error) {
	if len(t.Params()) == 0 {
		return t.path, nil
	}
	out := make([]string, len(t.segments))
	for i, s := range t.segments {
		if !strings.HasPrefix(s, ":") {
			out[i] = s
			continue
		}
		v, ok := params[s[1:]]
		if !ok || v == "" {
			return "", &MissingParameterError{Route: t.name, Param: s[1:]}
		}
		out[i] = v
	}
	return "/" + strings.Join(out, "/"), nil
}

// Table is an immutable name → template mapping.
type Table struct {
	routes map[Name]Template
}

func newTable(group map[string]interface{}) *Table {
	t := &Table{routes: make(map[Name]Template)}
	t.flatten("", group)
	return t
}

func (t *Table) flatten(prefix string, group map[string]interface{}) {
	for key, v := range group {
		name := key
		if prefix != "" {
			name = prefix + "." + key
		}
		switch v := v.(type) {
		case string:
			t.routes[Name(name)] = newTemplate(Name(name), v)
		case map[string]interface{}:
			t.flatten(name, v)
		default:
			panic(fmt.Sprintf("route: unsupported entry %s of type %T", name, v))
		}
	}
}

// Lookup resolves a dotted name.
func (t *Table) Lookup(name Name) (Template, bool) {
	tpl, ok := t.routes[name]
	return tpl, ok
}

// MustLookup panics on unknown names. A missing name is an integration error.
func (t *Table) MustLookup(name Name) Template {
	tpl, ok := t.routes[name]
	if !ok {
		panic(fmt.Sprintf("route: unknown route %q", name))
	}
	return tpl
}

// Build looks the name up and substitutes params.
func (t *Table) Build(name Name, params Params) (string, error) {
	tpl, ok := t.routes[name]
	if !ok {
		return "", fmt.Errorf("route: unknown route %q", name)
	}
	return tpl.Build(params)
}

// Names returns every route name, sorted.
func (t *Table) Names() []Name {
	names := make([]Name, 0, len(t.routes))
	for n := range t.routes {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Resolve finds the route whose template matches a concrete path and returns
// the extracted params.
func (t *Table) Resolve(path string) (Name, Params, bool) {
	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	for _, name := range t.Names() {
		tpl := t.routes[name]
		if len(tpl.segments) != len(parts) {
			continue
		}
		params := Params{}
		matched := true
		for i, s := range tpl.segments {
			if strings.HasPrefix(s, ":") {
				if parts[i] == "" {
					matched = false
					break
				}
				params[s[1:]] = parts[i]
				continue
			}
			if s != parts[i] {
				matched = false
				break
			}
		}
		if matched {
			return name, params, true
		}
	}
	return "", nil, false
}
