package embedding

import "testing"

func TestSelectTaskType(t *testing.T) {
	if got := SelectTaskType(true); got != TaskRetrievalQuery {
		t.Fatalf("SelectTaskType(true)=%q, want %q", got, TaskRetrievalQuery)
	}
	if got := SelectTaskType(false); got != TaskRetrievalDocument {
		t.Fatalf("SelectTaskType(false)=%q, want %q", got, TaskRetrievalDocument)
	}
}
