package ir

import "sort"

// prune returns the structs reachable from any method, in their original
// order.
func prune(api *API) []*Struct {
	byWire := make(map[string]*Struct, len(api.Types))
	for _, st := range api.Types {
		byWire[st.WireName] = st
	}
	reached := make(map[string]struct{})
	var queue []string
	visit := func(t TypeExpr) {
		for _, ref := range t.Refs() {
			if _, ok := reached[ref]; !ok {
				reached[ref] = struct{}{}
				queue = append(queue, ref)
			}
		}
	}
	api.Walk(func(r *Resource) {
		for _, m := range r.Methods {
			visit(m.Response)
			for _, f := range m.Fields() {
				visit(f.Type)
			}
		}
	})
	for len(queue) > 0 {
		ref := queue[0]
		queue = queue[1:]
		if st, ok := byWire[ref]; ok {
			for _, f := range st.Fields {
				visit(f.Type)
			}
		}
	}
	kept := make([]*Struct, 0, len(reached))
	for _, st := range api.Types {
		if _, ok := reached[st.WireName]; ok {
			kept = append(kept, st)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].WireName < kept[j].WireName })
	return kept
}
