// Package core is a small, stable facade over gitzen's extraction, privacy
// gate and lifecycle diff for programs that want documents without the CLI.
//
// Example:
//
//	doc, err := core.ExtractReport(reportFile, core.ScanContext{Repository: "org/repo", Branch: "main"})
//	if err != nil { /* handle */ }
//	_ = core.MarshalDocument(os.Stdout, doc)
package core
