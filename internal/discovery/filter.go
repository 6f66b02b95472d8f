package discovery

import "strings"

// Exclusions lists resources and methods removed before code generation.
//
// A resource entry matches a resource key at any nesting level. A method entry
// matches the method key, the qualified "resource.method" key, or the method
// id declared in the document.
type Exclusions struct {
	Resources []string
	Methods   []string
}

// ArvadosV1Exclusions returns the deprecated resources and aliased methods of
// the Arvados v1 API.
func ArvadosV1Exclusions() Exclusions {
	return Exclusions{
		Resources: []string{
			"humans",
			"job_tasks",
			"jobs",
			"keep_disks",
			"nodes",
			"pipeline_instances",
			"pipeline_templates",
			"specimens",
			"traits",
		},
		Methods: []string{"destroy", "index", "show"},
	}
}

// Empty reports whether nothing would be excluded.
func (e Exclusions) Empty() bool { return len(e.Resources) == 0 && len(e.Methods) == 0 }

// Filter returns a copy of doc without the excluded resources and methods.
// doc itself is left untouched; schemas are shared with the result.
func Filter(doc *Document, ex Exclusions) *Document {
	if doc == nil {
		return nil
	}
	resources := toSet(ex.Resources)
	methods := toSet(ex.Methods)

	out := *doc
	out.Resources = filterResources(doc.Resources, nil, resources, methods)
	return &out
}

func filterResources(in map[string]*Resource, parents []string, resources, methods map[string]struct{}) map[string]*Resource {
	if in == nil {
		return nil
	}
	out := make(map[string]*Resource, len(in))
	for name, r := range in {
		if _, skip := resources[name]; skip || r == nil {
			continue
		}
		path := append(append([]string(nil), parents...), name)
		kept := &Resource{
			Resources: filterResources(r.Resources, path, resources, methods),
		}
		if r.Methods != nil {
			kept.Methods = make(map[string]*Method, len(r.Methods))
			for mname, m := range r.Methods {
				if methodExcluded(path, mname, m, methods) {
					continue
				}
				kept.Methods[mname] = m
			}
		}
		out[name] = kept
	}
	return out
}

func methodExcluded(path []string, name string, m *Method, methods map[string]struct{}) bool {
	if len(methods) == 0 {
		return false
	}
	candidates := []string{name, strings.Join(append(append([]string(nil), path...), name), ".")}
	if m != nil && m.ID != "" {
		candidates = append(candidates, m.ID)
	}
	for _, c := range candidates {
		if _, ok := methods[c]; ok {
			return true
		}
	}
	return false
}

func toSet(items []string) map[string]struct{} {
	if len(items) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			set[trimmed] = struct{}{}
		}
	}
	return set
}
