package retention

import "time"

// Candidate is one backup file considered for pruning.
type Candidate struct {
	Name      string
	Timestamp time.Time
	Age       Age
}

// NewCandidate attaches the age of ts at now.
func NewCandidate(name string, ts, now time.Time) Candidate {
	return Candidate{Name: name, Timestamp: ts, Age: AgeAt(ts, now)}
}

// Decision is the verdict for one candidate. Count is the number of
// granularities for which the file is a kept representative.
type Decision struct {
	Candidate
	Count   int
	Reasons []Reason
}

// Keep reports whether the file survives.
func (d Decision) Keep() bool { return d.Count > 0 }

type bucketKey struct {
	granularity Granularity
	index       int
}

// Evaluate decides, for every candidate, whether it is kept. Decisions are
// returned in candidate order.
//
// Each (granularity, age) bucket gets one representative: the oldest file in
// it by age in days, ties going to the file seen first. A representative
// counts toward keeping its file only when the granularity's limit allows
// the bucket index. A file with no remaining count is deleted. With no limit
// configured at all every file is kept.
func Evaluate(candidates []Candidate, policy Policy) []Decision {
	decisions := make([]Decision, len(candidates))
	for i, c := range candidates {
		decisions[i] = Decision{Candidate: c}
	}

	if !policy.Configured() {
		for i := range decisions {
			decisions[i].Count = 1
			decisions[i].Reasons = []Reason{ReasonNoPolicy}
		}
		return decisions
	}

	// representative candidate index per bucket
	reps := make(map[bucketKey]int)
	for i, c := range candidates {
		for _, g := range Granularities {
			key := bucketKey{granularity: g, index: c.Age.In(g)}
			cur, ok := reps[key]
			if !ok {
				reps[key] = i
				decisions[i].Count++
				continue
			}
			if c.Age.Days > candidates[cur].Age.Days {
				decisions[cur].Count--
				reps[key] = i
				decisions[i].Count++
			}
		}
	}

	for _, g := range Granularities {
		limit := policy.Limit(g)
		for key, i := range reps {
			if key.granularity != g {
				continue
			}
			if !limit.Allows(key.index) {
				decisions[i].Count--
				continue
			}
			decisions[i].Reasons = append(decisions[i].Reasons, g.Reason())
		}
	}

	return decisions
}
