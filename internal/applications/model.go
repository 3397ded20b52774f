package applications

import "time"

// Status tracks an application's lifecycle. Transitions only ever move from
// in-progress to completed.
type Status string

const (
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// JobCategories maps the fixed category keys to their display titles.
var JobCategories = map[string]string{
	"warehouse":    "Warehouse Worker",
	"driver":       "Delivery Driver",
	"construction": "Construction Labourer",
	"hospitality":  "Kitchen Hand",
}

// ValidCategory reports whether key names one of the fixed job categories.
func ValidCategory(key string) bool {
	_, ok := JobCategories[key]
	return ok
}

// Environment is the client context declared at session start.
type Environment struct {
	UserAgent        string `json:"userAgent,omitempty"`
	ScreenResolution string `json:"screenResolution,omitempty"`
	Timezone         string `json:"timezone,omitempty"`
	Locale           string `json:"locale,omitempty"`
	Platform         string `json:"platform,omitempty"`
}

// HistoryEntry records one forward step transition.
type HistoryEntry struct {
	Step      int            `json:"step"`
	Timestamp time.Time      `json:"timestamp"`
	Snapshot  map[string]any `json:"snapshot"`
}

// Application is the evolving record for one subject. Fields carries the form
// values with file inputs reduced to file names; raw bytes live in the
// attachment store.
type Application struct {
	SubjectID    string         `json:"subjectId"`
	Category     string         `json:"category"`
	CurrentStep  int            `json:"currentStep"`
	Fields       map[string]any `json:"fields"`
	History      []HistoryEntry `json:"history"`
	Status       Status         `json:"status"`
	CompletionID string         `json:"completionId,omitempty"`
	Environment  Environment    `json:"environment"`
	CreatedAt    time.Time      `json:"createdAt"`
	LastUpdated  time.Time      `json:"lastUpdated"`
	CompletedAt  *time.Time     `json:"completedAt,omitempty"`
}

// CompletedApplication is the frozen snapshot appended at completion time.
type CompletedApplication struct {
	CompletionID string      `json:"completionId"`
	SubjectID    string      `json:"subjectId"`
	Snapshot     Application `json:"snapshot"`
	CompletedAt  time.Time   `json:"completedAt"`
}
