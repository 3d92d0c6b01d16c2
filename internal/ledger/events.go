package ledger

import (
	"encoding/json"
	"strings"
)

// ExtractEventField scans emitted events for the first whose type contains
// eventType and returns the named string field from its parsed payload.
// The second return is false when no such event or field exists; callers
// decide whether to fall back to the transaction digest.
func ExtractEventField(events []Event, eventType, field string) (string, bool) {
	for _, ev := range events {
		if !strings.Contains(ev.Type, eventType) {
			continue
		}
		var payload map[string]any
		if err := json.Unmarshal(ev.ParsedJSON, &payload); err != nil {
			continue
		}
		if v, ok := payload[field].(string); ok && v != "" {
			return v, true
		}
	}
	return "", false
}
