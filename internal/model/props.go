package model

import "slices"

// Value is a property value: either a single (possibly folded) text or,
// for multivalue keys, an ordered list of texts.
type Value struct {
	text  string
	items []string
	list  bool
}

// Scalar returns a single-text value.
func Scalar(text string) Value {
	return Value{text: text}
}

// List returns a list value holding items in order.
func List(items ...string) Value {
	return Value{items: slices.Clone(items), list: true}
}

func (v Value) IsList() bool { return v.list }

// Text returns the scalar text. It is empty for list values.
func (v Value) Text() string { return v.text }

// Items returns the values to emit, one per output line: the list items,
// or the scalar text as a single item.
func (v Value) Items() []string {
	if v.list {
		return slices.Clone(v.items)
	}
	return []string{v.text}
}

// Fold appends a continuation line to the value. For lists the last item
// is extended.
func (v Value) Fold(line string) Value {
	if !v.list {
		return Scalar(v.text + "\n" + line)
	}
	out := v.clone()
	if len(out.items) == 0 {
		out.items = []string{line}
		return out
	}
	out.items[len(out.items)-1] += "\n" + line
	return out
}

func (v Value) clone() Value {
	if v.list {
		v.items = slices.Clone(v.items)
	}
	return v
}

// Member is one slot of a component layout: a property key, or a group
// of child components when Group is set.
type Member struct {
	Name  string
	Group bool
}

// Props is an insertion-ordered property map. It also records where
// child component groups first appeared so that output keeps the input
// interleaving.
type Props struct {
	order []Member
	vals  map[string]Value
}

// Get returns the value stored under key.
func (p *Props) Get(key string) (Value, bool) {
	v, ok := p.vals[key]
	return v, ok
}

// Has reports whether key is present.
func (p *Props) Has(key string) bool {
	_, ok := p.vals[key]
	return ok
}

// Set stores v under key. An existing key keeps its position; a new key
// goes to the end.
func (p *Props) Set(key string, v Value) {
	if p.vals == nil {
		p.vals = make(map[string]Value)
	}
	if _, ok := p.vals[key]; !ok {
		p.order = append(p.order, Member{Name: key})
	}
	p.vals[key] = v
}

// SetText stores a scalar under key.
func (p *Props) SetText(key, text string) {
	p.Set(key, Scalar(text))
}

// Append adds item to the list under key, creating the list on first use.
// A scalar already stored under key is replaced by a one-item list.
func (p *Props) Append(key, item string) {
	v, ok := p.vals[key]
	if !ok || !v.list {
		p.Set(key, List(item))
		return
	}
	v = v.clone()
	v.items = append(v.items, item)
	p.vals[key] = v
}

// Fold appends a continuation line to the value under key. It reports
// false, leaving p unchanged, if key is not present.
func (p *Props) Fold(key, line string) bool {
	v, ok := p.vals[key]
	if !ok {
		return false
	}
	p.vals[key] = v.Fold(line)
	return true
}

// Delete removes key.
func (p *Props) Delete(key string) {
	if _, ok := p.vals[key]; !ok {
		return
	}
	delete(p.vals, key)
	p.order = slices.DeleteFunc(p.order, func(m Member) bool {
		return !m.Group && m.Name == key
	})
}

// Rename moves the value of from to to. If to already exists it keeps its
// position and is overwritten; otherwise it goes to the end.
func (p *Props) Rename(from, to string) bool {
	v, ok := p.vals[from]
	if !ok {
		return false
	}
	p.Delete(from)
	p.Set(to, v)
	return true
}

// Keys returns the property keys in order.
func (p *Props) Keys() []string {
	out := make([]string, 0, len(p.vals))
	for _, m := range p.order {
		if !m.Group {
			out = append(out, m.Name)
		}
	}
	return out
}

func (p *Props) Len() int { return len(p.vals) }

// Layout returns the stored members in order.
func (p *Props) Layout() []Member {
	return slices.Clone(p.order)
}

// Clone returns a deep copy holding properties only; group markers are
// dropped since Props alone does not own the children.
func (p *Props) Clone() Props {
	out := Props{vals: make(map[string]Value, len(p.vals))}
	for _, m := range p.order {
		if m.Group {
			continue
		}
		out.order = append(out.order, m)
		out.vals[m.Name] = p.vals[m.Name].clone()
	}
	return out
}

func (p *Props) markGroup(name string) {
	p.order = append(p.order, Member{Name: name, Group: true})
}
