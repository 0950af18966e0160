package therapist

import (
	"encoding/json"
	"regexp"
	"strings"

	therapistmodel "github.com/zhouzirui/mindbloom/backend/internal/model/therapist"
)

// arrayPattern matches from the first '[' to the last ']' across lines.
var arrayPattern = regexp.MustCompile(`(?s)\[.*\]`)

// ParseList extracts the therapist array from a model answer that may be
// wrapped in prose or code fences. Anything unparseable yields an empty list.
func ParseList(text string) ([]therapistmodel.Therapist, bool) {
	if match := arrayPattern.FindString(text); match != "" {
		if list, ok := decodeList(match); ok {
			return list, true
		}
	}
	if list, ok := decodeList(strings.TrimSpace(text)); ok {
		return list, true
	}
	return []therapistmodel.Therapist{}, false
}

func decodeList(raw string) ([]therapistmodel.Therapist, bool) {
	var list []therapistmodel.Therapist
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, false
	}
	out := make([]therapistmodel.Therapist, 0, len(list))
	for _, t := range list {
		if strings.TrimSpace(t.Name) == "" {
			continue
		}
		out = append(out, t)
	}
	return out, true
}
