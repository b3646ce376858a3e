package stats

import (
	"sort"

	"github.com/verte-zerg/studylog/internal/model"
)

// TopicProgress pairs a subtopic with the number of checklist stages done.
type TopicProgress struct {
	Subtopic model.Subtopic
	Stages   int
}

// StageCount returns how many of the five checklist stages are set.
func StageCount(p model.Progress) int {
	n := 0
	for _, done := range []bool{p.TopicCompleted, p.Revision1, p.Revision2, p.PYQDone, p.FinalRevision} {
		if done {
			n++
		}
	}
	return n
}

// WeakTopics selects the subtopics with the fewest checklist stages done.
// Ties keep subtopic order. top <= 0 returns all of them.
func WeakTopics(subtopics []model.Subtopic, progress []model.Progress, top int) []TopicProgress {
	stages := make(map[int64]int, len(progress))
	for _, p := range progress {
		if n := StageCount(p); n > stages[p.SubtopicID] {
			stages[p.SubtopicID] = n
		}
	}
	candidates := make([]TopicProgress, 0, len(subtopics))
	for _, st := range subtopics {
		candidates = append(candidates, TopicProgress{Subtopic: st, Stages: stages[st.ID]})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Stages < candidates[j].Stages
	})
	if top <= 0 || top > len(candidates) {
		top = len(candidates)
	}
	return candidates[:top]
}
