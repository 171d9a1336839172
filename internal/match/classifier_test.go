package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	classifier := DefaultClassifier()

	tests := []struct {
		name           string
		score          float64
		wantStatus     Status
		wantConfidence Confidence
	}{
		{"perfect score", 100, StatusMatched, ConfidenceHigh},
		{"exactly at matched threshold", 80, StatusMatched, ConfidenceHigh},
		{"just below matched threshold", 79.99, StatusPartial, ConfidenceMedium},
		{"exactly at partial threshold", 50, StatusPartial, ConfidenceMedium},
		{"just below partial threshold", 49.99, StatusMismatch, ConfidenceLow},
		{"zero score", 0, StatusMismatch, ConfidenceLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, confidence := classifier.Classify(tt.score)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantConfidence, confidence)
		})
	}
}

func TestClassifyCustomThresholds(t *testing.T) {
	classifier := &Classifier{MatchedThreshold: 90, PartialThreshold: 60}

	status, confidence := classifier.Classify(85)
	assert.Equal(t, StatusPartial, status)
	assert.Equal(t, ConfidenceMedium, confidence)

	status, _ = classifier.Classify(59.99)
	assert.Equal(t, StatusMismatch, status)
}
