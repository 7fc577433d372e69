package keymap

import "slices"

// Resolver maps key strings to actions.
type Resolver struct {
	byKey    map[string]Binding
	byAction map[Action][]string
}

// NewResolver creates a resolver from bindings. When two bindings claim a
// key, the first one wins.
func NewResolver(bindings []Binding) *Resolver {
	r := &Resolver{
		byKey:    make(map[string]Binding),
		byAction: make(map[Action][]string),
	}
	for _, b := range bindings {
		for _, key := range b.Keys {
			if _, taken := r.byKey[key]; !taken {
				r.byKey[key] = b
			}
			if !slices.Contains(r.byAction[b.Action], key) {
				r.byAction[b.Action] = append(r.byAction[b.Action], key)
			}
		}
	}
	return r
}

// Resolve returns the action for a key, or "" if it is unbound.
func (r *Resolver) Resolve(key string) Action {
	return r.byKey[key].Action
}

// ResolveIn is Resolve limited to bindings of the given contexts. The help
// overlay uses it so only global keys act while it is open.
func (r *Resolver) ResolveIn(key string, contexts ...string) Action {
	b, ok := r.byKey[key]
	if !ok || !slices.Contains(contexts, b.Context) {
		return ""
	}
	return b.Action
}

// KeysFor returns the keys bound to an action, in binding order.
func (r *Resolver) KeysFor(action Action) []string {
	return r.byAction[action]
}
