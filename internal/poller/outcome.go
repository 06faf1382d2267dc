package poller

// Outcome classifies how a polling cycle ended.
type Outcome int

const (
	OutcomeFetchFailed  Outcome = iota // transport, status or decode error
	OutcomeEmpty                       // fetch returned no candles
	OutcomeInsufficient                // fewer candles than the indicators need
	OutcomeNoSignal                    // evaluated, direction None
	OutcomeDuplicate                   // signal on a candle already alerted
	OutcomeAlerted                     // signal delivered
	OutcomeNotifyFailed                // signal found, delivery failed (still marked)
	OutcomePanicked                    // cycle recovered from a panic
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFetchFailed:
		return "fetch_failed"
	case OutcomeEmpty:
		return "empty"
	case OutcomeInsufficient:
		return "insufficient"
	case OutcomeNoSignal:
		return "no_signal"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeAlerted:
		return "alerted"
	case OutcomeNotifyFailed:
		return "notify_failed"
	case OutcomePanicked:
		return "panicked"
	default:
		return "unknown"
	}
}
