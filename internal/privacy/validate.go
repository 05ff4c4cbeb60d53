// Package privacy is the last gate before a document leaves the process. It
// walks the serialized form and refuses any object key that names sensitive
// data, at any depth. It never repairs a document: a hit means the sanitizer
// is broken and the whole run must stop.
package privacy

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

var ErrPrivacyViolation = errors.New("privacy violation")

// denied holds normalized key names (see normalize).
var denied = map[string]bool{
	"secret":       true,
	"rawsecret":    true,
	"secretvalue":  true,
	"match":        true,
	"matchtext":    true,
	"matchedtext":  true,
	"email":        true,
	"authoremail":  true,
	"author":       true,
	"authorname":   true,
	"commitauthor": true,
	"sourcecode":   true,
	"code":         true,
	"linecontent":  true,
	"line":         true,
}

// DeniedFields lists the denylist in normalized form, sorted.
func DeniedFields() []string {
	out := make([]string, 0, len(denied))
	for k := range denied {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Violation is one offending key. Path is a JSON-path-like location such as
// "findings[3].secret"; the value found there is never recorded.
type Violation struct {
	Path  string
	Field string
}

type ViolationError struct {
	Violations []Violation
}

func (e *ViolationError) Error() string {
	paths := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		paths = append(paths, v.Path)
	}
	return fmt.Sprintf("privacy violation: %d disallowed field(s): %s", len(e.Violations), strings.Join(paths, ", "))
}

func (e *ViolationError) Unwrap() error { return ErrPrivacyViolation }

// Validate serializes v as JSON and checks the result with ValidateJSON.
func Validate(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("serialize for privacy check: %w", err)
	}
	return ValidateJSON(b)
}

// ValidateJSON checks an already serialized document.
func ValidateJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var root any
	if err := dec.Decode(&root); err != nil {
		return fmt.Errorf("decode for privacy check: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return fmt.Errorf("decode for privacy check: trailing data after document")
	}
	var found []Violation
	walk(root, "$", &found)
	if len(found) > 0 {
		return &ViolationError{Violations: found}
	}
	return nil
}

// dataKeyed lists objects whose keys are data (rule ids), not field names.
// Their values are still walked.
var dataKeyed = map[string]bool{
	"$.summary.by_secret_type": true,
}

func walk(node any, at string, found *[]Violation) {
	switch n := node.(type) {
	case map[string]any:
		keys := make([]string, 0, len(n))
		for k := range n {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			p := at + "." + k
			if !dataKeyed[at] && denied[normalize(k)] {
				*found = append(*found, Violation{Path: p, Field: k})
			}
			walk(n[k], p, found)
		}
	case []any:
		for i, v := range n {
			walk(v, at+"["+strconv.Itoa(i)+"]", found)
		}
	}
}

// normalize folds case and drops separators so "AuthorEmail",
// "author_email" and "author-email" compare equal.
func normalize(k string) string {
	var b strings.Builder
	b.Grow(len(k))
	for _, r := range strings.ToLower(k) {
		switch r {
		case '_', '-', ' ', '.':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
