package core

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalDocumentRoundTrip(t *testing.T) {
	doc, err := Extract([]RawFinding{{File: "a.env", StartLine: 4, RuleID: "r", Secret: "hunter2", Email: "a@b.c"}},
		ScanContext{Repository: "org/repo"})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, MarshalDocument(&buf, doc))
	assert.NotContains(t, buf.String(), "hunter2")
	assert.NotContains(t, buf.String(), "a@b.c")

	back, err := UnmarshalDocument(&buf)
	require.NoError(t, err)
	assert.Equal(t, doc.Findings[0].FindingID, back.Findings[0].FindingID)
}

func TestValidateRejectsLeakyValues(t *testing.T) {
	err := Validate(map[string]any{"findings": []any{map[string]any{"Secret": "x"}}})
	assert.ErrorIs(t, err, ErrPrivacyViolation)
}

func TestExtractReport_Malformed(t *testing.T) {
	_, err := ExtractReport(strings.NewReader(`{"RuleID":`), ScanContext{Repository: "r"})
	assert.Error(t, err)
}

func TestMarshalReport(t *testing.T) {
	sc := ScanContext{Repository: "org/repo"}
	cur, err := Extract([]RawFinding{{File: "a.env", RuleID: "r", Secret: "x"}}, sc)
	require.NoError(t, err)
	rep, err := Diff(cur, nil, KeyMatch)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, MarshalReport(&buf, rep))
	assert.Contains(t, buf.String(), `"new": 1`)
	assert.NoError(t, ValidateJSON(buf.Bytes()))
}

func TestExtract_GatedDocumentWithDeniedWordRules(t *testing.T) {
	report := `[{"RuleID":"secret","File":"a.env","Secret":"hunter2"},{"RuleID":"email","File":"b.env","Secret":"x","Email":"a@b.c"}]`
	doc, err := ExtractReport(strings.NewReader(report), ScanContext{Repository: "org/repo"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"secret": 1, "email": 1}, doc.Summary.BySecretType)

	var buf bytes.Buffer
	require.NoError(t, MarshalDocument(&buf, doc))
	assert.NotContains(t, buf.String(), "hunter2")
}
