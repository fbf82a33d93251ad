package domain

// Species represents one entry of the species configuration
type Species struct {
	Code        string   `json:"code"`         // short key, e.g. "mmus"
	Names       []string `json:"names"`        // display names, first one is preferred
	PantherName string   `json:"panther_name"` // tag used in PANTHER dumps, e.g. "MOUSE"
}

// DisplayName returns the preferred display name, falling back to the code.
func (s Species) DisplayName() string {
	if len(s.Names) > 0 && s.Names[0] != "" {
		return s.Names[0]
	}
	return s.Code
}
