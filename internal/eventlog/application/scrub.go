package application

import (
	"encoding/json"
	"regexp"
)

var sensitiveKeys = regexp.MustCompile(`(?i)^(email|phone|password|credential|token|secret|apikey|api_key)s?$`)

// ScrubPII walks a JSON payload and redacts values under keys that look like
// emails, phones, credentials or tokens before the event is durably written.
// It degrades to returning the original bytes if the payload isn't a JSON
// object (e.g. an array or scalar), since there's nothing keyed to scrub in
// that case.
func ScrubPII(payload []byte) []byte {
	var obj map[string]any
	if err := json.Unmarshal(payload, &obj); err != nil {
		return payload
	}
	scrubMap(obj)
	out, err := json.Marshal(obj)
	if err != nil {
		return payload
	}
	return out
}

func scrubMap(obj map[string]any) {
	for k, v := range obj {
		if sensitiveKeys.MatchString(k) {
			obj[k] = "[REDACTED]"
			continue
		}
		if nested, ok := v.(map[string]any); ok {
			scrubMap(nested)
		}
	}
}
