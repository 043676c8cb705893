package processor

// Smoother holds the output parameter for every control key.
// It is the single point of mutation for parameter values.
type Smoother struct {
	values map[string]float64
}

// NewSmoother returns a smoother seeded with initial values
func NewSmoother(initial map[string]float64) *Smoother {
	values := make(map[string]float64, len(initial))
	for k, v := range initial {
		values[k] = v
	}
	return &Smoother{values: values}
}

// Step moves key's value toward target by factor and returns the new value
func (s *Smoother) Step(key string, target, factor float64) float64 {
	cur := s.values[key]
	cur += (sanitizeFloat(target, cur) - cur) * factor
	s.values[key] = cur
	return cur
}

// Set places key's value exactly at v, as a manual override does.
// Later Steps continue from v.
func (s *Smoother) Set(key string, v float64) {
	s.values[key] = sanitizeFloat(v, s.values[key])
}

// Value returns key's current value
func (s *Smoother) Value(key string) float64 {
	return s.values[key]
}

// Snapshot copies the current values
func (s *Smoother) Snapshot() map[string]float64 {
	out := make(map[string]float64, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}
