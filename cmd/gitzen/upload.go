package gitzen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gitzen/gitzen/internal/privacy"
	"github.com/gitzen/gitzen/internal/types"
)

var uploadClient = &http.Client{Timeout: 10 * time.Second}

// uploadDocument POSTs doc as JSON. The serialized body passes the privacy
// gate again right before it leaves the process.
func uploadDocument(ctx context.Context, url, token string, doc *types.MetadataDocument) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	if err := privacy.ValidateJSON(body); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "gitzen/"+version)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := uploadClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("upload failed: %s", resp.Status)
	}
	logger.Info("document uploaded", "url", url, "status", resp.StatusCode)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
