package domain

// DataSource returns a freshly-fetched ordered list of strings for one
// logical field (course names, member names). Callers are expected to
// filter out empty entries.
type DataSource interface {
	Fetch() ([]string, error)
}

// DataSourceFunc adapts a plain function to the DataSource interface.
type DataSourceFunc func() ([]string, error)

func (f DataSourceFunc) Fetch() ([]string, error) {
	return f()
}

// RecordSink receives completed records. Enqueue is non-blocking and
// never fails synchronously; the durable write happens later on the
// sink's own drain cycle.
type RecordSink interface {
	Enqueue(record *Consulta)
}

// CatalogRepository exposes the reference data the selectors page
// through and the course-code lookup the sink performs.
type CatalogRepository interface {
	CourseNames() ([]string, error)
	MemberNames() ([]string, error)
	// CourseCode returns "N/A" for course names not in the catalog.
	CourseCode(courseName string) (string, error)
}

// RegistryRepository performs the durable write of a completed record.
type RegistryRepository interface {
	Insert(record *Consulta, courseCode string) error
}
