// Package mood derives the journal analytics shown next to the mood log:
// distribution, streaks, bloom level and the monthly trend chart. Every
// function is pure and recomputed from the full log on each read.
package mood

import (
	"sort"
	"time"

	moodmodel "github.com/zhouzirui/mindbloom/backend/internal/model/mood"
)

// LogsPerLevel is how many entries it takes to reach the next bloom level.
const LogsPerLevel = 5

// Stats 汇总连续打卡与等级。
type Stats struct {
	CurrentStreak int `json:"currentStreak"`
	BestStreak    int `json:"bestStreak"`
	Level         int `json:"level"`
	Total         int `json:"total"`
}

// Distribution counts logs per level; out-of-range levels are ignored.
func Distribution(logs []moodmodel.Log) [moodmodel.MaxLevel + 1]int {
	var counts [moodmodel.MaxLevel + 1]int
	for _, log := range logs {
		if moodmodel.ValidLevel(log.Level) {
			counts[log.Level]++
		}
	}
	return counts
}

// Summarize computes streaks and level as of now. Calendar days are taken in loc.
func Summarize(logs []moodmodel.Log, now time.Time, loc *time.Location) Stats {
	if len(logs) == 0 {
		return Stats{Level: 1}
	}
	if loc == nil {
		loc = time.Local
	}

	days := distinctDays(logs, loc)

	return Stats{
		CurrentStreak: currentStreak(days, dayOrdinal(now, loc)),
		BestStreak:    bestStreak(days),
		Level:         len(logs)/LogsPerLevel + 1,
		Total:         len(logs),
	}
}

// distinctDays returns the logged calendar days as ascending ordinals.
func distinctDays(logs []moodmodel.Log, loc *time.Location) []int64 {
	seen := make(map[int64]struct{}, len(logs))
	days := make([]int64, 0, len(logs))
	for _, log := range logs {
		day := dayOrdinal(log.Date, loc)
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
	return days
}

// currentStreak walks back from today, or from yesterday when today has no
// entry yet.
func currentStreak(days []int64, today int64) int {
	if len(days) == 0 {
		return 0
	}

	i := len(days) - 1
	// 未来日期不计入
	for i >= 0 && days[i] > today {
		i--
	}
	if i < 0 {
		return 0
	}

	check := today
	if days[i] != today {
		check = today - 1
	}

	streak := 0
	for ; i >= 0 && days[i] == check; i-- {
		streak++
		check--
	}
	return streak
}

func bestStreak(days []int64) int {
	best, run := 0, 0
	for i, day := range days {
		if i > 0 && day-days[i-1] == 1 {
			run++
		} else {
			run = 1
		}
		if run > best {
			best = run
		}
	}
	return best
}

// dayOrdinal numbers calendar days so that adjacent days differ by exactly
// one regardless of DST transitions in loc.
func dayOrdinal(t time.Time, loc *time.Location) int64 {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
}

// SameDay reports whether a and b fall on the same calendar day in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.Local
	}
	return dayOrdinal(a, loc) == dayOrdinal(b, loc)
}
