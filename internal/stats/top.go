package stats

import (
	"sort"

	"github.com/verte-zerg/studyboard/internal/model"
)

// TopErrorTopics ranks topics by sum(errors)/sum(questions), highest first,
// and keeps at most n. Groups start in topic-name order and the sort is
// stable, so equal rates keep that order. Rows without a topic are grouped
// under model.Unspecified.
func TopErrorTopics(table model.Table, n int) []model.TopicErrorRate {
	out := []model.TopicErrorRate{}
	if n <= 0 || len(table) == 0 {
		return out
	}
	index := map[string]int{}
	for _, r := range table {
		topic := model.OrUnspecified(r.Topic)
		i, ok := index[topic]
		if !ok {
			i = len(out)
			index[topic] = i
			out = append(out, model.TopicErrorRate{Topic: topic})
		}
		out[i].Questions += r.QuestionsAttempted
		out[i].Errors += r.Errors
	}
	for i := range out {
		if out[i].Questions > 0 {
			out[i].ErrorRate = float64(out[i].Errors) / float64(out[i].Questions)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Topic < out[j].Topic
	})
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ErrorRate > out[j].ErrorRate
	})
	if n < len(out) {
		out = out[:n]
	}
	return out
}
