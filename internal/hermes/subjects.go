package hermes

const (
	SubjectAnalyzeRequest = "decision.analyze.request"

	StreamName   = "ARBITER_EVENTS"
	StreamMaxAge = "720h" // 30 days
)

// StreamSubjects are captured by the JetStream stream.
var StreamSubjects = []string{"decision.>"}

func SubjectDecisionCreated(decisionID string) string  { return "decision." + decisionID + ".created" }
func SubjectDecisionUpdated(decisionID string) string  { return "decision." + decisionID + ".updated" }
func SubjectDecisionAnalyzed(decisionID string) string { return "decision." + decisionID + ".analyzed" }
func SubjectAnalysisFailed(decisionID string) string   { return "decision." + decisionID + ".analysis_failed" }
func SubjectDecisionReranked(decisionID string) string { return "decision." + decisionID + ".reranked" }
