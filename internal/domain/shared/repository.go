package shared

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 200
)

// Page bounds a list query
type Page struct {
	Limit  int
	Offset int
}

// Normalize clamps the page into the supported range
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}
