// Package build provides build information that is linked into the application. Other
// packages within this project can use this information in logs etc..
package build

var (
	// Version is the build version of the binary (e.g. v0.1.0 or v0.1.0-rc.1).
	Version = "dev"

	// Commit is the git commit SHA the binary was built from.
	Commit = "none"

	// Date is the date the binary was built.
	Date = "unknown"

	// ProjectName is used as the metrics namespace and the tracer service name.
	ProjectName = "reasoner"
)

// MinimumSupportedDatastoreSchemaRevision is the lowest fact table migration a
// SQL datastore must be at before it reports ready.
const MinimumSupportedDatastoreSchemaRevision = 1
