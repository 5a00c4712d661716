package constants

// Severity classifies a validation issue.
type Severity string

// Stable values (surfaced to the presentation layer as-is).
const (
	SeverityError   Severity = "error"   // record rejected from the validated set
	SeverityWarning Severity = "warning" // record retained, issue surfaced
)

// EntityType names one of the three record collections. The values double as
// the keys of metadata.unexpectedFields and validationState.
type EntityType string

const (
	Invoices  EntityType = "invoices"
	Products  EntityType = "products"
	Customers EntityType = "customers"
)

// EntityTypes lists the collections in assembly order: products first so
// invoices can resolve product data.
var EntityTypes = []EntityType{Products, Invoices, Customers}
