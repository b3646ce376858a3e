package stats

import (
	"fmt"
	"sort"

	"github.com/verte-zerg/studylog/internal/model"
)

// SubjectTotals sums study time per subject, largest first. Every known
// subject is listed; sessions referencing an unknown subject get a
// placeholder name.
func SubjectTotals(sessions []model.StudySession, subjects []model.Subject) []SubjectTotal {
	byID := make(map[int64]*SubjectTotal, len(subjects))
	items := make([]*SubjectTotal, 0, len(subjects))
	for _, subj := range subjects {
		item := &SubjectTotal{SubjectID: subj.ID, Name: subj.Name, Color: subj.Color}
		byID[subj.ID] = item
		items = append(items, item)
	}
	for _, s := range sessions {
		item, ok := byID[s.SubjectID]
		if !ok {
			item = &SubjectTotal{SubjectID: s.SubjectID, Name: fmt.Sprintf("Subject #%d", s.SubjectID)}
			byID[s.SubjectID] = item
			items = append(items, item)
		}
		item.Seconds += s.DurationSeconds
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Seconds == items[j].Seconds {
			return items[i].Name < items[j].Name
		}
		return items[i].Seconds > items[j].Seconds
	})
	out := make([]SubjectTotal, len(items))
	for i, item := range items {
		out[i] = *item
	}
	return out
}
