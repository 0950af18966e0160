package mood

import (
	"context"
	"time"

	"go.uber.org/zap"

	moodmodel "github.com/zhouzirui/mindbloom/backend/internal/model/mood"
)

const demoDays = 25

var demoReflections = []string{
	"Feeling energized after a morning run! ✨",
	"A bit tired, but managed to get through the to-do list.",
	"Great session with my mentor today.",
	"Low energy, stayed in most of the day.",
	"Actually feeling quite peaceful.",
	"Work was stressful, but home life is chill.",
	"Had a really good matcha latte. Small wins! 🍵",
	"A bit overwhelmed with projects right now.",
	"Feeling deeply grateful for my friends.",
	"Just a normal day, nothing special.",
}

// demoLogs builds one entry per day for the demoDays days ending yesterday.
func (s *Store) demoLogs() []moodmodel.Log {
	now := s.now().In(s.loc)
	logs := make([]moodmodel.Log, 0, demoDays)
	for i := demoDays; i >= 1; i-- {
		entry := moodmodel.Log{
			Date:  now.AddDate(0, 0, -i),
			Level: s.rng.IntN(moodmodel.MaxLevel + 1),
		}
		if s.rng.Float64() > 0.4 {
			entry.Note = demoReflections[s.rng.IntN(len(demoReflections))]
		}
		logs = append(logs, entry)
	}
	return normalize(logs, s.loc)
}

func (s *Store) seedLocked(ctx context.Context) {
	logs := s.demoLogs()
	if err := s.persistLocked(ctx, logs); err != nil {
		s.logger.Warn("persist demo mood logs failed", zap.Error(err))
	}
	s.logs = logs
	s.logger.Info("seeded demo mood logs", zap.Int("count", len(logs)), zap.Time("until", logs[len(logs)-1].Date.Truncate(time.Second)))
}
