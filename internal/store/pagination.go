package store

// Default and maximum page sizes for feed queries.
const (
	DefaultPageLimit = 50
	MaxPageLimit     = 200
)

// PageParams contains offset pagination parameters.
type PageParams struct {
	Limit  int
	Offset int
}

// Validate clamps the parameters to sane values.
func (p *PageParams) Validate() {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}
