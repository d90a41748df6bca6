package storage

// StoredFinding is one heuristic finding recorded with a run.
type StoredFinding struct {
	File     string `json:"file"`
	RuleID   string `json:"rule_id"`
	Category string `json:"category"`
	Message  string `json:"message"`
}

// ReviewRun represents one completed review of a pull request.
type ReviewRun struct {
	ID            int64           `json:"id,omitempty"`
	Owner         string          `json:"owner"`
	Repo          string          `json:"repo"`
	PRNumber      int             `json:"pr_number"`
	Report        string          `json:"report"`
	Findings      []StoredFinding `json:"findings,omitempty"`
	FilesReviewed int             `json:"files_reviewed"`
	CreatedAt     string          `json:"created_at,omitempty"`
}
