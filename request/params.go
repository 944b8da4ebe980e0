package request

// Params is an ordered mapping of parameters. Keys are unique, setting
// an existing key replaces its value but keeps its original position
type Params struct {
	keys   []string
	values map[string]string
}

// NewParams creates an empty set of parameters
func NewParams() *Params {
	return &Params{values: make(map[string]string)}
}

// Set sets the value for a key
func (p *Params) Set(key, value string) {
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}

	p.values[key] = value
}

// Get returns the value for a key
func (p *Params) Get(key string) (string, bool) {
	if p == nil {
		return "", false
	}

	v, ok := p.values[key]
	return v, ok
}

// Keys returns the keys in insertion order
func (p *Params) Keys() []string {
	if p == nil {
		return nil
	}

	keys := make([]string, len(p.keys))
	copy(keys, p.keys)
	return keys
}

// Len returns the number of parameters
func (p *Params) Len() int {
	if p == nil {
		return 0
	}

	return len(p.keys)
}
