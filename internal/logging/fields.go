package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID identifies a single scan invocation.
	FieldRunID = "run_id"
	// FieldPath is the absolute path of the definition file a line refers to.
	FieldPath = "path"
	// FieldClassification is the known/changed/new verdict for a file.
	FieldClassification = "classification"
	// FieldEventType is a stable machine-readable name for the event.
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to do next.
	FieldErrorHint = "error_hint"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldAlert flags warnings or anomalies that should stand out in structured logs.
	FieldAlert = "alert"
)
