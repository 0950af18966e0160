package therapist

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Therapist is one entry of the nearby search result, in the order the
// search ranked it.
type Therapist struct {
	Name           string     `json:"name"`
	Specialization string     `json:"specialization,omitempty"`
	Address        string     `json:"address,omitempty"`
	DistanceKM     FlexString `json:"distance_km,omitempty"`
	Status         string     `json:"status,omitempty"`
	ClosingTime    string     `json:"closing_time,omitempty"`
	Rating         FlexString `json:"rating,omitempty"`
	Contact        string     `json:"contact,omitempty"`
	MapsLink       string     `json:"maps_link,omitempty"`
}

// FlexString accepts a JSON string, number or null. Model output is not
// consistent about quoting numeric fields.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(strconv.FormatFloat(n, 'f', -1, 64))
	return nil
}

// Availability buckets for Status.
const (
	AvailabilityOpen    = "open"
	AvailabilityBusy    = "busy"
	AvailabilityUnknown = "unknown"
)

// Availability classifies the free-form status ("Open now", "Closes at 6 PM", ...).
func (t Therapist) Availability() string {
	status := strings.ToLower(t.Status)
	switch {
	case strings.Contains(status, "online"), strings.Contains(status, "open now"):
		return AvailabilityOpen
	case strings.Contains(status, "busy"), strings.Contains(status, "closes"):
		return AvailabilityBusy
	default:
		return AvailabilityUnknown
	}
}
