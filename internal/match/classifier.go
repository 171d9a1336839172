package match

// Classifier maps a composite score onto a match status and
// confidence level. Thresholds are configuration so deployments can
// tune them without code changes.
type Classifier struct {
	MatchedThreshold float64 // score >= this -> matched/high
	PartialThreshold float64 // score >= this -> partial/medium
}

// DefaultClassifier returns the 80/50 thresholds.
func DefaultClassifier() *Classifier {
	return &Classifier{MatchedThreshold: 80, PartialThreshold: 50}
}

// Classify returns the status and confidence for a total score.
func (c *Classifier) Classify(totalScore float64) (Status, Confidence) {
	switch {
	case totalScore >= c.MatchedThreshold:
		return StatusMatched, ConfidenceHigh
	case totalScore >= c.PartialThreshold:
		return StatusPartial, ConfidenceMedium
	default:
		return StatusMismatch, ConfidenceLow
	}
}
