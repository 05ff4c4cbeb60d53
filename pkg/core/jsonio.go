package core

import (
	"encoding/json"
	"io"
)

// MarshalDocument pretty-prints doc as JSON. The bytes pass the privacy
// gate before anything is written to w.
func MarshalDocument(w io.Writer, doc *MetadataDocument) error {
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	if err := ValidateJSON(b); err != nil {
		return err
	}
	_, err = w.Write(append(b, '\n'))
	return err
}

// UnmarshalDocument decodes a metadata document, e.g. a previous scan.
func UnmarshalDocument(r io.Reader) (*MetadataDocument, error) {
	var doc MetadataDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// MarshalReport pretty-prints a lifecycle report as JSON.
func MarshalReport(w io.Writer, rep *DiffReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}
