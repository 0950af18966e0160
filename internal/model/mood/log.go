package mood

import "time"

const (
	MinLevel = 0
	MaxLevel = 4
)

// Log is one calendar-day journal entry.
type Log struct {
	Date  time.Time `json:"date"`
	Level int       `json:"level"`
	Note  string    `json:"note,omitempty"`
}

// ValidLevel reports whether level is within 0..4.
func ValidLevel(level int) bool {
	return level >= MinLevel && level <= MaxLevel
}

// Label describes how a level is presented.
type Label struct {
	Level int    `json:"level"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Labels lists the levels from best to worst.
var Labels = []Label{
	{Level: 4, Name: "rad", Color: "#FF1493"},
	{Level: 3, Name: "good", Color: "#9B30FF"},
	{Level: 2, Name: "meh", Color: "#FF7F50"},
	{Level: 1, Name: "bad", Color: "#666666"},
	{Level: 0, Name: "awful", Color: "#333333"},
}

// LabelFor returns the label for level, defaulting to "meh".
func LabelFor(level int) Label {
	for _, l := range Labels {
		if l.Level == level {
			return l
		}
	}
	return Labels[2]
}
