// Package transcript reconciles a noisy stream of speech-to-text events into
// one ordered list of speaker turns.
//
// The reconciler is a pure fold over three operations and holds no knowledge
// of the transport that produced them. Its buffer belongs to exactly one
// in-flight session and is discarded once the final turns are committed.
package transcript

import (
	"strings"
	"time"
)

// Speaker tags one reconciled turn.
type Speaker string

const (
	SpeakerRep      Speaker = "rep"
	SpeakerProspect Speaker = "prospect"
)

// Turn is one reconciled utterance in final transcript order.
type Turn struct {
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
}

// DefaultRepMergeWindow is how close together two finalized rep utterances
// must land to be absorbed into one turn. Recognizers routinely split one
// continuous sentence into several finalized segments; anything under this
// gap is treated as the same breath.
const DefaultRepMergeWindow = 2 * time.Second

type Reconciler struct {
	turns []Turn

	repMergeWindow time.Duration
	now            func() time.Time

	lastRepFinalAt time.Time
}

type Option func(*Reconciler)

// WithRepMergeWindow overrides the rep merge window. The default is a product
// tuning value, not a protocol guarantee.
func WithRepMergeWindow(window time.Duration) Option {
	return func(r *Reconciler) {
		r.repMergeWindow = window
	}
}

// WithClock injects the time source used for the rep merge heuristic so the
// boundary is deterministically testable.
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) {
		if now != nil {
			r.now = now
		}
	}
}

func NewReconciler(opts ...Option) *Reconciler {
	r := &Reconciler{
		repMergeWindow: DefaultRepMergeWindow,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// AppendRepFinal folds a finalized rep utterance into the transcript.
//
// If the previous stored turn is the rep's and the previous rep utterance was
// finalized under the merge window ago, the text is space-joined onto that
// turn instead of opening a new one. The last-finalized marker advances on
// every non-empty call, merged or not.
func (r *Reconciler) AppendRepFinal(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	now := r.now()
	elapsed := now.Sub(r.lastRepFinalAt)
	r.lastRepFinalAt = now

	if last := r.lastTurn(); last != nil && last.Speaker == SpeakerRep && elapsed < r.repMergeWindow {
		last.Text += " " + text
		return
	}

	r.turns = append(r.turns, Turn{Speaker: SpeakerRep, Text: text})
}

// AppendProspectDelta folds a streamed fragment of prospect speech into the
// transcript. Deltas are already known to belong to one in-progress
// utterance, so no time heuristic applies: the fragment joins the last
// prospect turn if there is one, otherwise it opens a new turn.
func (r *Reconciler) AppendProspectDelta(delta string) {
	if strings.TrimSpace(delta) == "" {
		return
	}

	if last := r.lastTurn(); last != nil && last.Speaker == SpeakerProspect {
		last.Text += delta
		return
	}

	r.turns = append(r.turns, Turn{Speaker: SpeakerProspect, Text: strings.TrimSpace(delta)})
}

// SetProspectFinal folds the finalized prospect utterance into the
// transcript, overwriting whatever the deltas accumulated. This reconciles
// drift between incremental fragments and the recognizer's final output.
func (r *Reconciler) SetProspectFinal(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	if last := r.lastTurn(); last != nil && last.Speaker == SpeakerProspect {
		last.Text = text
		return
	}

	r.turns = append(r.turns, Turn{Speaker: SpeakerProspect, Text: text})
}

// Turns returns a copy of the reconciled transcript in order.
func (r *Reconciler) Turns() []Turn {
	turns := make([]Turn, len(r.turns))
	copy(turns, r.turns)
	return turns
}

func (r *Reconciler) Len() int {
	return len(r.turns)
}

func (r *Reconciler) lastTurn() *Turn {
	if len(r.turns) == 0 {
		return nil
	}
	return &r.turns[len(r.turns)-1]
}
