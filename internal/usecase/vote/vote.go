package usecase_vote

import (
	"bytes"
	"encoding/json"

	"leancoffee/core/internal/model"
)

// Ledger operations work directly on a meeting's model.VoteLedger. In-memory
// records are always canonical; the historical encodings only exist at the
// persistence boundary and go through Normalize on load.

// Normalize converts any historical on-disk encoding of a participant's votes
// into the canonical {total, topic->count} record. Accepted shapes:
//
//   - null / absent / unparseable        -> empty record
//   - ["t1","t2","t1"]                   -> one vote per element (a set is the
//     no-repeat case)
//   - {"topics":[["t1",2],["t2",1]]}     -> pairs, with or without "total"
//   - {"topics":{"t1":2},"total":3}      -> topic map, with or without "total"
//   - {"t1":2,"t2":1}                    -> plain object keyed by topic id
//
// A present numeric "total" is kept even when it disagrees with the sum, so
// normalization never loses information. The function is a pure function of
// its input and idempotent over its own output.
func Normalize(raw json.RawMessage) model.VoteRecord {
	rec := model.VoteRecord{Topics: make(map[string]int)}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return rec
	}

	switch raw[0] {
	case '[':
		var ids []string
		if err := json.Unmarshal(raw, &ids); err != nil {
			return rec
		}
		for _, id := range ids {
			if id == "" {
				continue
			}
			rec.Topics[id]++
			rec.Total++
		}
		return rec

	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			return rec
		}

		topicsRaw, hasTopics := fields["topics"]
		totalRaw, hasTotal := fields["total"]

		switch {
		case hasTopics:
			rec.Topics = decodeTopicCounts(topicsRaw)
		case hasTotal:
			// bare {"total": n} carries no per-topic detail
		default:
			// plain object keyed by topic id
			rec.Topics = decodeCountMap(raw)
		}

		sum := 0
		for _, n := range rec.Topics {
			sum += n
		}
		rec.Total = sum
		if hasTotal {
			var total float64
			if err := json.Unmarshal(totalRaw, &total); err == nil {
				rec.Total = int(total)
			}
		}
		return rec
	}

	return rec
}

// decodeTopicCounts accepts the "topics" field either as [[id, count], ...]
// pairs or as a {id: count} map, dropping non-positive counts.
func decodeTopicCounts(raw json.RawMessage) map[string]int {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		counts := make(map[string]int)
		var pairs [][]json.RawMessage
		if err := json.Unmarshal(raw, &pairs); err != nil {
			return counts
		}
		for _, pair := range pairs {
			if len(pair) < 2 {
				continue
			}
			var id string
			var n float64
			if json.Unmarshal(pair[0], &id) != nil || json.Unmarshal(pair[1], &n) != nil {
				continue
			}
			if id != "" && int(n) > 0 {
				counts[id] += int(n)
			}
		}
		return counts
	}
	return decodeCountMap(raw)
}

func decodeCountMap(raw json.RawMessage) map[string]int {
	counts := make(map[string]int)
	var m map[string]float64
	if err := json.Unmarshal(raw, &m); err != nil {
		return counts
	}
	for id, n := range m {
		if int(n) > 0 {
			counts[id] = int(n)
		}
	}
	return counts
}

// Ensure returns the participant's record, creating an empty one in the
// ledger when absent.
func Ensure(l model.VoteLedger, participantID string) *model.VoteRecord {
	if rec, ok := l[participantID]; ok && rec != nil {
		if rec.Topics == nil {
			rec.Topics = make(map[string]int)
		}
		return rec
	}
	rec := &model.VoteRecord{Topics: make(map[string]int)}
	l[participantID] = rec
	return rec
}

// Cast adds one vote on topicID if the participant's budget allows it.
// Multiple votes on the same topic are allowed; only the total is bounded.
// Rejection is silent: the caller just observes false and no state change.
func Cast(l model.VoteLedger, participantID, topicID string, limit int) bool {
	rec := Ensure(l, participantID)
	if rec.Total >= limit {
		return false
	}
	rec.Topics[topicID]++
	rec.Total++
	return true
}

// Retract removes one vote on topicID, dropping the topic entry at zero and
// the whole record once the participant holds no votes at all. No-op when the
// participant has no votes on that topic.
func Retract(l model.VoteLedger, participantID, topicID string) bool {
	rec, ok := l[participantID]
	if !ok || rec == nil || rec.Topics[topicID] <= 0 {
		return false
	}
	if rec.Topics[topicID] == 1 {
		delete(rec.Topics, topicID)
	} else {
		rec.Topics[topicID]--
	}
	rec.Total--
	if rec.Total < 0 {
		rec.Total = 0
	}
	if rec.Total == 0 {
		delete(l, participantID)
	}
	return true
}

// PurgeTopic removes every participant's votes on a deleted topic,
// decrementing totals accordingly.
func PurgeTopic(l model.VoteLedger, topicID string) {
	for pid, rec := range l {
		if rec == nil {
			delete(l, pid)
			continue
		}
		count := rec.Topics[topicID]
		if count <= 0 {
			continue
		}
		delete(rec.Topics, topicID)
		rec.Total -= count
		if rec.Total <= 0 {
			delete(l, pid)
		}
	}
}

// TotalCast sums every participant's total without exposing ballots.
func TotalCast(l model.VoteLedger) int {
	sum := 0
	for _, rec := range l {
		if rec != nil {
			sum += rec.Total
		}
	}
	return sum
}

// TopicCounts copies a record's per-topic counts for the private
// "your votes" reply. Nil-safe.
func TopicCounts(rec *model.VoteRecord) map[string]int {
	out := make(map[string]int)
	if rec == nil {
		return out
	}
	for id, n := range rec.Topics {
		if n > 0 {
			out[id] = n
		}
	}
	return out
}
