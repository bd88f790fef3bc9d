package core

import "strings"

// Chunk is one ordered segment of a document's normalized text.
type Chunk struct {
	Text   string
	Order  int         // zero-based position in the source document and the index entry ID
	Source Fingerprint // document version the chunk was cut from
}

// SearchResult is a chunk returned from a vector store together with its score.
// Store adapters convert provider records into this type.
type SearchResult struct {
	Chunk Chunk
	Score float32
}

// ConversationTurn is a single query/response exchange in a session.
type ConversationTurn struct {
	Query    string
	Response string
}

// TaskType identifies what the user asked the workflow to produce.
type TaskType int

const (
	// TaskQuestionAnswer is the default: a direct answer grounded in the document.
	TaskQuestionAnswer TaskType = iota
	// TaskReport produces a structured report rendered to a document file.
	TaskReport
	// TaskPresentation produces a slide outline rendered to a deck file.
	TaskPresentation
	// TaskSummary produces a condensed synthesis of the document.
	TaskSummary
)

var taskNames = map[TaskType]string{
	TaskQuestionAnswer: "qa",
	TaskReport:         "report",
	TaskPresentation:   "presentation",
	TaskSummary:        "summary",
}

var taskLabels = map[TaskType]string{
	TaskQuestionAnswer: "[일반]",
	TaskReport:         "[보고서]",
	TaskPresentation:   "[발표]",
	TaskSummary:        "[요약]",
}

func (t TaskType) String() string {
	if name, ok := taskNames[t]; ok {
		return name
	}
	return "unknown"
}

// Label returns the canonical classifier tag for the task.
func (t TaskType) Label() string {
	if label, ok := taskLabels[t]; ok {
		return label
	}
	return taskLabels[TaskQuestionAnswer]
}

// EmitsFile reports whether the task produces a rendered output file.
func (t TaskType) EmitsFile() bool {
	return t == TaskReport || t == TaskPresentation
}

// TaskFromLabel maps a canonical classifier tag to its task.
// Unknown tags map to TaskQuestionAnswer.
func TaskFromLabel(label string) TaskType {
	label = strings.TrimSpace(label)
	for task, l := range taskLabels {
		if l == label {
			return task
		}
	}
	return TaskQuestionAnswer
}

// ParseTaskType parses the short task name used in configuration and CLI flags.
func ParseTaskType(name string) (TaskType, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for task, n := range taskNames {
		if n == name {
			return task, true
		}
	}
	return TaskQuestionAnswer, false
}
