package session

import (
	"encoding/json"
	"fmt"

	"blanknote-backend/internal/results"
)

// SnapshotKey is the namespace a durable snapshot is stored under. The
// version suffix guards against shape changes.
const SnapshotKey = "blanknote.funnel.v1"

// snapshot is the durable subset of ClientFunnelState. Transient flags
// (cursor, submitting, error) are intentionally dropped; a restored session
// resumes at its phase's first question.
type snapshot struct {
	Phase         results.Phase    `json:"phase"`
	IntroAnswers  []results.Answer `json:"introAnswers,omitempty"`
	DeepAnswers   []results.Answer `json:"deepAnswers,omitempty"`
	IntroResultID string           `json:"introResultId,omitempty"`
}

// Snapshot serializes the durable part of the state.
func (s *ClientFunnelState) Snapshot() ([]byte, error) {
	snap := snapshot{
		Phase:         s.Phase,
		IntroAnswers:  s.IntroRecord,
		DeepAnswers:   s.DeepRecord,
		IntroResultID: s.ResultID,
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("marshal funnel snapshot: %w", err)
	}
	return data, nil
}

// Restore rebuilds a state from a snapshot. The intro question set and deep
// pool come from the caller since they are not part of the snapshot.
func Restore(data []byte, intro, deepPool []results.Question) (*ClientFunnelState, error) {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal funnel snapshot: %w", err)
	}
	if snap.Phase != results.PhaseIntro && snap.Phase != results.PhaseDeep {
		return nil, fmt.Errorf("unknown funnel phase %q", snap.Phase)
	}

	s := New(intro, deepPool, nil)
	s.Phase = snap.Phase
	s.IntroRecord = snap.IntroAnswers
	s.DeepRecord = snap.DeepAnswers
	s.ResultID = snap.IntroResultID

	if snap.Phase == results.PhaseDeep {
		// Resume over the recorded deep questions when present, otherwise
		// a fresh sample.
		if len(snap.DeepAnswers) > 0 {
			questions := make([]results.Question, 0, len(snap.DeepAnswers))
			for _, a := range snap.DeepAnswers {
				questions = append(questions, results.Question{
					ID:     a.QuestionID,
					Prompt: a.Prompt,
					Phase:  results.PhaseDeep,
				})
			}
			s.Questions = questions
			for _, a := range snap.DeepAnswers {
				s.Answers[a.QuestionID] = a.Answer
			}
		} else {
			s.StartDeepPhase()
		}
	} else {
		for _, a := range snap.IntroAnswers {
			s.Answers[a.QuestionID] = a.Answer
		}
	}
	return s, nil
}
