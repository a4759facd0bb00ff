package model

// Operation is one abstract action of a Domain Interface: a name shared
// by every operation group of the domain, plus the parameters a group's
// command format may reference. Every listed parameter is required when
// the operation is rendered.
type Operation struct {
	// Name identifies the operation within its domain.
	Name string `json:"name"`

	// Params lists the parameter names the operation binds.
	Params []string `json:"params,omitempty"`

	// Description is optional free-form help text.
	Description string `json:"description,omitempty"`
}

// HasParam reports whether name is one of the operation's parameters.
func (o *Operation) HasParam(name string) bool {
	for _, p := range o.Params {
		if p == name {
			return true
		}
	}
	return false
}
