// Package normalize turns raw capability findings into canonical findings:
// field references resolved against the record's address index and values
// rendered as comparable text.
package normalize

import (
	"bytes"
	"encoding/json"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"

	"github.com/steveyegge/cvcheck/internal/types"
)

// Findings resolves and renders raw findings in the order received. Findings
// whose reference does not resolve are dropped and counted, never guessed.
func Findings(raw []types.RawFinding, index types.AddressIndex) ([]types.Finding, int) {
	out := make([]types.Finding, 0, len(raw))
	dropped := 0
	for _, r := range raw {
		addr, ok := Resolve(r, index)
		if !ok {
			dropped++
			continue
		}
		out = append(out, types.Finding{
			Field:        addr,
			ExpectedText: RenderValue(r.Expected),
			ActualText:   RenderValue(r.Actual),
			Message:      r.Message,
		})
	}
	return out, dropped
}

// Resolve maps a raw finding's field reference to a canonical address.
// A fieldIndex, when present, is authoritative: an out-of-range index drops
// the finding even if a literal field is also given. A literal field resolves
// only when it is one of the indexed addresses.
func Resolve(r types.RawFinding, index types.AddressIndex) (types.Address, bool) {
	if r.FieldIndex != nil {
		return index.At(*r.FieldIndex)
	}
	if r.Field != "" && index.Contains(r.Field) {
		return r.Field, true
	}
	return "", false
}

var sortedKeys = &pretty.Options{SortKeys: true}

// RenderValue renders a JSON value as text. Strings pass through unquoted;
// any other value becomes compact JSON with object keys sorted, so equal
// values always render identically. An absent value renders as "".
func RenderValue(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return ""
	}
	if !gjson.ValidBytes(trimmed) {
		return string(trimmed)
	}

	v := gjson.ParseBytes(trimmed)
	if v.Type == gjson.String {
		return v.Str
	}
	return string(pretty.Ugly(pretty.PrettyOptions(trimmed, sortedKeys)))
}
