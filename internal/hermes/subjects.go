package hermes

const (
	SubjectRunRequest = "assay.run.request"

	// StreamSubjects covers every run subject, requests included.
	StreamSubjects = "assay.run.>"
	StreamName     = "ASSAY_EVENTS"
	StreamMaxAge   = "720h" // 30 days
)

func SubjectRunStarted(runID string) string   { return "assay.run." + runID + ".started" }
func SubjectRunCompleted(runID string) string { return "assay.run." + runID + ".completed" }
func SubjectRunFailed(runID string) string    { return "assay.run." + runID + ".failed" }
