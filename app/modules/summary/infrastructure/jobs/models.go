package summaryjobs

// WeeklyDigestJob is a scheduled digest delivery for one household. The
// reference date anchors which week the digest covers.
type WeeklyDigestJob struct {
	HouseholdID string `json:"household_id"`
	Reference   string `json:"reference"` // YYYY-MM-DD
}

// Kind returns the job type identifier for River.
func (WeeklyDigestJob) Kind() string { return "weekly_digest" }

// JobInfo describes a scheduled job for monitoring.
type JobInfo struct {
	ID          int64  `json:"id"`
	Kind        string `json:"kind"`
	HouseholdID string `json:"household_id"`
	State       string `json:"state"`
	ScheduledAt string `json:"scheduled_at"`
	CreatedAt   string `json:"created_at"`
	Attempt     int    `json:"attempt"`
	MaxAttempts int    `json:"max_attempts"`
}
