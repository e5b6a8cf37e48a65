package metrics

// Common metric attribute keys to keep telemetry consistent/searchable.
const (
	AttrMethod       = "method"
	AttrPath         = "path"
	AttrStatus       = "status"
	AttrOperation    = "op"
	AttrCalendarType = "calendar_type"
	AttrOutcome      = "outcome"
)
