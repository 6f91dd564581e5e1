package embedding

// Task type constants understood by task-type-aware engines (currently
// GenAIEngine; Ollama ignores task type and embeds identically either way).
const (
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
)

// SelectTaskType returns the task type for a query embedding versus a
// document embedding. Knowledge entries are always indexed as documents;
// search input is always embedded as a query, so asymmetric embedding
// models (where supported) get the right encoding on each side.
func SelectTaskType(isQuery bool) string {
	if isQuery {
		return TaskRetrievalQuery
	}
	return TaskRetrievalDocument
}
