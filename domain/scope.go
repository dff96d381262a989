package domain

// Scope is the caller context every pipeline call runs under: whose rules and
// products apply, and which stream new events belong to.
type Scope struct {
	OwnerID  int64 `json:"owner_id"`
	StreamID int64 `json:"stream_id"`
}

// WithDefaults fills zero identifiers from fallback.
func (s Scope) WithDefaults(fallback Scope) Scope {
	if s.OwnerID <= 0 {
		s.OwnerID = fallback.OwnerID
	}
	if s.StreamID <= 0 {
		s.StreamID = fallback.StreamID
	}
	return s
}
