package logger

// Field names shared by every package that logs.
const (
	FieldComponent = "component"
	FieldOperation = "operation"
	FieldError     = "error"

	FieldRoots   = "roots"
	FieldDepth   = "depth"
	FieldTier    = "tier"
	FieldSource  = "source"
	FieldTarget  = "target"
	FieldReason  = "reason"
	FieldAuthor  = "author_id"
	FieldBatchID = "batch_id"

	FieldCount      = "count"
	FieldNodes      = "nodes"
	FieldEdges      = "edges"
	FieldTotalCount = "total_count"

	FieldURL        = "url"
	FieldStatus     = "status"
	FieldDurationMS = "duration_ms"
	FieldPath       = "path"
)
