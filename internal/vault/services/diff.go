package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/SwiggitySwerve/MekStation-sub005/internal/shared"
	"github.com/SwiggitySwerve/MekStation-sub005/internal/vault/models"
)

// computeDiff compares two JSON objects field by field at the top level.
// A field absent on one side is an addition or deletion; a field present on
// both sides with different values is a modification carrying both values
// verbatim. ChangedFields keeps the order fields appear in the newer content,
// with deletion-only fields appended at the end.
func computeDiff(fromContent, toContent json.RawMessage) (*models.VersionDiff, error) {
	fromKeys, fromFields, err := topLevelFields(fromContent)
	if err != nil {
		return nil, fmt.Errorf("decoding old content: %w", err)
	}
	toKeys, toFields, err := topLevelFields(toContent)
	if err != nil {
		return nil, fmt.Errorf("decoding new content: %w", err)
	}

	diff := &models.VersionDiff{
		ChangedFields: []string{},
		Additions:     map[string]json.RawMessage{},
		Deletions:     map[string]json.RawMessage{},
		Modifications: map[string]models.FieldChange{},
	}

	for _, key := range toKeys {
		newVal := toFields[key]
		oldVal, existed := fromFields[key]
		if !existed {
			diff.Additions[key] = newVal
			diff.ChangedFields = append(diff.ChangedFields, key)
			continue
		}
		if !jsonEqual(oldVal, newVal) {
			diff.Modifications[key] = models.FieldChange{From: oldVal, To: newVal}
			diff.ChangedFields = append(diff.ChangedFields, key)
		}
	}

	for _, key := range fromKeys {
		if _, stillThere := toFields[key]; !stillThere {
			diff.Deletions[key] = fromFields[key]
			diff.ChangedFields = append(diff.ChangedFields, key)
		}
	}

	return diff, nil
}

// topLevelFields decodes a JSON object into its top-level fields, preserving
// the order keys appear in the document. encoding/json maps lose ordering, so
// this walks the token stream instead.
func topLevelFields(content json.RawMessage) ([]string, map[string]json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(content))

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, fmt.Errorf("content is not valid JSON: %w", shared.ErrValidation)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, fmt.Errorf("content is not a JSON object: %w", shared.ErrValidation)
	}

	var keys []string
	fields := make(map[string]json.RawMessage)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, nil, fmt.Errorf("content is not valid JSON: %w", shared.ErrValidation)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("content has a non-string key: %w", shared.ErrValidation)
		}

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, nil, fmt.Errorf("content is not valid JSON: %w", shared.ErrValidation)
		}

		if _, dup := fields[key]; !dup {
			keys = append(keys, key)
		}
		fields[key] = value
	}

	return keys, fields, nil
}

// jsonEqual compares two raw values structurally, ignoring formatting
// differences such as whitespace or object key order.
func jsonEqual(a, b json.RawMessage) bool {
	var av, bv any
	if err := json.Unmarshal(a, &av); err != nil {
		return bytes.Equal(a, b)
	}
	if err := json.Unmarshal(b, &bv); err != nil {
		return bytes.Equal(a, b)
	}
	an, err := json.Marshal(av)
	if err != nil {
		return bytes.Equal(a, b)
	}
	bn, err := json.Marshal(bv)
	if err != nil {
		return bytes.Equal(a, b)
	}
	return bytes.Equal(an, bn)
}

// RenderDiff formats a VersionDiff for terminal display. String-valued
// modifications are rendered as inline character diffs; everything else is
// shown as whole old/new values.
func RenderDiff(d *models.VersionDiff) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s: v%d -> v%d (%d changed field(s))\n", d.ContentType, d.ItemId, d.FromVersion, d.ToVersion, len(d.ChangedFields))

	dmp := diffmatchpatch.New()
	for _, field := range d.ChangedFields {
		switch {
		case hasKey(d.Additions, field):
			fmt.Fprintf(&b, "  + %s: %s\n", field, compactJSON(d.Additions[field]))
		case hasKey(d.Deletions, field):
			fmt.Fprintf(&b, "  - %s: %s\n", field, compactJSON(d.Deletions[field]))
		default:
			mod := d.Modifications[field]
			var oldStr, newStr string
			if json.Unmarshal(mod.From, &oldStr) == nil && json.Unmarshal(mod.To, &newStr) == nil {
				diffs := dmp.DiffMain(oldStr, newStr, false)
				fmt.Fprintf(&b, "  ~ %s: %s\n", field, dmp.DiffPrettyText(diffs))
			} else {
				fmt.Fprintf(&b, "  ~ %s: %s -> %s\n", field, compactJSON(mod.From), compactJSON(mod.To))
			}
		}
	}
	return b.String()
}

func hasKey(m map[string]json.RawMessage, key string) bool {
	_, ok := m[key]
	return ok
}

func compactJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
