package service

import "net/http"

// Outcome is the delivery executor's judgment of one HTTP attempt.
type Outcome int

const (
	// OutcomeSuccess ends the delivery in its terminal success state.
	OutcomeSuccess Outcome = iota
	// OutcomeTransientFailure schedules another attempt, backoff permitting.
	OutcomeTransientFailure
	// OutcomeTerminalFailure ends the delivery in failed without retries.
	OutcomeTerminalFailure
)

// OutcomeClassifier decides what a completed HTTP exchange (or transport
// error) means for the delivery state machine.
type OutcomeClassifier interface {
	Classify(resp *http.Response, err error) Outcome
}

// StatusClassifier treats only 2xx responses as acceptance. Non-2xx
// responses and transport errors are transient and retried. This is the
// default policy; earlier gateway versions counted any completed response
// as delivered, which hid subscriber-side 4xx/5xx outages.
type StatusClassifier struct{}

func (StatusClassifier) Classify(resp *http.Response, err error) Outcome {
	if err != nil || resp == nil {
		return OutcomeTransientFailure
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return OutcomeSuccess
	}
	return OutcomeTransientFailure
}

// AnyResponseClassifier preserves the legacy behavior: any response that
// arrives within the timeout counts as delivered, and only a transport
// error fails the attempt. Kept for subscribers that return non-2xx codes
// from endpoints that did in fact accept the payload.
type AnyResponseClassifier struct{}

func (AnyResponseClassifier) Classify(resp *http.Response, err error) Outcome {
	if err != nil || resp == nil {
		return OutcomeTransientFailure
	}
	return OutcomeSuccess
}
