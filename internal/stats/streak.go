package stats

import (
	"sort"
	"time"

	"github.com/verte-zerg/studylog/internal/model"
)

// CurrentStreak counts consecutive active days ending today. When today has
// no session yet the streak is still alive through yesterday; only a fully
// missed day breaks it.
func CurrentStreak(sessions []model.StudySession, now time.Time) int {
	active := activeDays(sessions, now.Location())
	day := civilDate(now, now.Location())
	if _, ok := active[day]; !ok {
		day = day.AddDate(0, 0, -1)
		if _, ok := active[day]; !ok {
			return 0
		}
	}
	streak := 0
	for {
		if _, ok := active[day]; !ok {
			return streak
		}
		streak++
		day = day.AddDate(0, 0, -1)
	}
}

// BestStreak returns the longest run of consecutive active days. Each
// session's day is taken in the location of its own start time.
func BestStreak(sessions []model.StudySession) int {
	set := make(map[time.Time]struct{})
	for _, s := range sessions {
		set[civilDate(s.StartTime, s.StartTime.Location())] = struct{}{}
	}
	if len(set) == 0 {
		return 0
	}
	days := make([]time.Time, 0, len(set))
	for day := range set {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	best, run := 1, 1
	for i := 1; i < len(days); i++ {
		if days[i-1].AddDate(0, 0, 1).Equal(days[i]) {
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

func activeDays(sessions []model.StudySession, loc *time.Location) map[time.Time]struct{} {
	set := make(map[time.Time]struct{}, len(sessions))
	for _, s := range sessions {
		set[civilDate(s.StartTime, loc)] = struct{}{}
	}
	return set
}
