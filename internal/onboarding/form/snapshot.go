package form

// FieldSnapshot is what a render surface shows for one field.
type FieldSnapshot struct {
	Value      string `json:"value"`
	Touched    bool   `json:"touched"`
	Validating bool   `json:"validating"`

	// Error is only set once the field was touched.
	Error string `json:"error,omitempty"`
}

type Snapshot struct {
	Version    uint64                  `json:"version"`
	Fields     map[Field]FieldSnapshot `json:"fields"`
	Submitting bool                    `json:"submitting"`

	// CanSubmit is true when every field has been validated and is valid with no lookup pending.
	CanSubmit bool `json:"canSubmit"`
}

// Errors returns the visible error of every field that has one.
func (s Snapshot) Errors() map[Field]string {
	errs := map[Field]string{}
	for f, fs := range s.Fields {
		if fs.Error != "" {
			errs[f] = fs.Error
		}
	}
	return errs
}

func (c *Coordinator) snapshotLocked() Snapshot {
	snap := Snapshot{
		Version:    c.version,
		Fields:     make(map[Field]FieldSnapshot, len(Fields)),
		Submitting: c.submitting,
		CanSubmit:  !c.submitting && c.pending == nil,
	}
	for _, f := range Fields {
		fs := c.fields[f]
		out := FieldSnapshot{
			Value:      c.record.Get(f),
			Touched:    fs.touched,
			Validating: fs.validating,
		}
		if fs.touched && fs.checked && !fs.outcome.Valid {
			out.Error = fs.outcome.Message
		}
		if !fs.checked || !fs.outcome.Valid {
			snap.CanSubmit = false
		}
		snap.Fields[f] = out
	}
	return snap
}
