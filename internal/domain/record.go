package domain

// Consulta is the record assembled across one data-entry flow.
// Course code is resolved by the sink from the catalog; it is not
// collected from the user and has no field here.
type Consulta struct {
	StudentName   string
	CourseName    string
	AssistantName string
	AuxiliaryName string

	// Formatted timestamps as confirmed on the date wheel,
	// "YYYY/MM/DD hh:mm:00".
	ReceivedAt string
	StartedAt  string
	EndedAt    string
}

// IsComplete reports whether every field has been populated.
func (c *Consulta) IsComplete() bool {
	return c.StudentName != "" &&
		c.CourseName != "" &&
		c.AssistantName != "" &&
		c.AuxiliaryName != "" &&
		c.ReceivedAt != "" &&
		c.StartedAt != "" &&
		c.EndedAt != ""
}
