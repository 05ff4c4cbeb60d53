package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTrigger(t *testing.T) {
	tests := []struct {
		in   string
		want Trigger
	}{
		{"pull_request", TriggerPullRequest},
		{"pull-request", TriggerPullRequest},
		{"PR", TriggerPullRequest},
		{"push", TriggerPush},
		{"cron", TriggerSchedule},
		{"schedule", TriggerSchedule},
		{"", TriggerManual},
		{"manual", TriggerManual},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTrigger(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseTrigger("nightly-ish")
	assert.Error(t, err)
}

func TestScanContext_FullName(t *testing.T) {
	assert.Equal(t, "org/repo", ScanContext{Repository: "org/repo"}.FullName())
	assert.Equal(t, "org/repo", ScanContext{Owner: "org", Repository: "repo"}.FullName())
	assert.Equal(t, "org/repo", ScanContext{Owner: "other", Repository: "org/repo"}.FullName())
	assert.Equal(t, "repo", ScanContext{Repository: "repo"}.FullName())
}

func TestSeverityCounts_AddAndTotal(t *testing.T) {
	var c SeverityCounts
	for _, s := range []Severity{SevCritical, SevHigh, SevMed, SevLow, SevInfo, "bogus"} {
		c.Add(s)
	}
	assert.Equal(t, SeverityCounts{Critical: 1, High: 1, Medium: 2, Low: 1, Info: 1}, c)
	assert.Equal(t, 6, c.Total())
}
