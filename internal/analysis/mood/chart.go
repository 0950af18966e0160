package mood

import (
	"sort"
	"strconv"
	"strings"
	"time"

	moodmodel "github.com/zhouzirui/mindbloom/backend/internal/model/mood"
)

// Month is the chart data for one calendar month.
type Month struct {
	Year        int             `json:"year"`
	Month       time.Month      `json:"month"`
	DaysInMonth int             `json:"daysInMonth"`
	Days        map[int]int     `json:"days"`
	Logs        []moodmodel.Log `json:"logs"`
}

// Monthly filters logs to the given month in loc and maps day-of-month to
// level. When two logs share a day the later one in input order wins.
func Monthly(logs []moodmodel.Log, year int, month time.Month, loc *time.Location) Month {
	if loc == nil {
		loc = time.Local
	}

	out := Month{
		Year:        year,
		Month:       month,
		DaysInMonth: DaysIn(year, month),
		Days:        make(map[int]int),
		Logs:        []moodmodel.Log{},
	}
	for _, log := range logs {
		y, m, d := log.Date.In(loc).Date()
		if y != year || m != month {
			continue
		}
		out.Days[d] = log.Level
		out.Logs = append(out.Logs, log)
	}
	return out
}

// DaysIn returns the number of days in month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Dims is the drawing area of the trend chart.
type Dims struct {
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Padding float64 `json:"padding"`
}

// DefaultDims matches the 600x200 trend chart.
var DefaultDims = Dims{Width: 600, Height: 200, Padding: 20}

// Point is one plotted day.
type Point struct {
	Day   int     `json:"day"`
	Level int     `json:"level"`
	Label string  `json:"label"`
	Color string  `json:"color"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// Plot 是图表的坐标数据。
type Plot struct {
	Dims     Dims    `json:"dims"`
	Points   []Point `json:"points"`
	Line     bool    `json:"line"`
	Polyline string  `json:"polyline,omitempty"`
}

// Plot lays the month's logged days out in dims. A connecting line is only
// drawn when at least two distinct days are logged.
func (m Month) Plot(dims Dims) Plot {
	days := make([]int, 0, len(m.Days))
	for day := range m.Days {
		days = append(days, day)
	}
	sort.Ints(days)

	plot := Plot{Dims: dims, Points: make([]Point, 0, len(days))}
	coords := make([]string, 0, len(days))
	for _, day := range days {
		level := m.Days[day]
		label := moodmodel.LabelFor(level)
		x, y := dims.position(day, level, m.DaysInMonth)
		plot.Points = append(plot.Points, Point{
			Day:   day,
			Level: level,
			Label: label.Name,
			Color: label.Color,
			X:     x,
			Y:     y,
		})
		coords = append(coords, formatCoord(x)+","+formatCoord(y))
	}

	if len(days) > 1 {
		plot.Line = true
		plot.Polyline = strings.Join(coords, " ")
	}
	return plot
}

func (d Dims) position(day, level, daysInMonth int) (float64, float64) {
	span := float64(daysInMonth - 1)
	if span <= 0 {
		span = 1
	}
	x := d.Padding + float64(day-1)*(d.Width-2*d.Padding)/span
	y := d.Height - d.Padding - float64(level)*(d.Height-2*d.Padding)/float64(moodmodel.MaxLevel)
	return x, y
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
