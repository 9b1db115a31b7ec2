package segment

// Event is one speech-to-text recogniser emission.
type Event struct {
	// Text is the raw recognised fragment.
	Text string `json:"text"`
	// IsFinal distinguishes committed fragments from interim hypotheses.
	// Interim events are never applied to the document.
	IsFinal bool `json:"isFinal"`
	// Timestamp is the recogniser's monotonic event time in milliseconds.
	Timestamp int64 `json:"timestamp"`
	// Confidence is the recogniser's score in [0,1]; informational only.
	Confidence float64 `json:"confidence"`
}

// State is the per-session dedup state threaded through event application.
type State struct {
	// LastTimestamp is the timestamp of the last applied final event.
	// Recognisers re-emit final results on reconnect; any event at or
	// before this mark is a duplicate and is dropped.
	LastTimestamp int64
	// LastSentinel carries the sentinel marker of the most recent
	// AI-assisted pass, used by the caller to avoid re-submitting text.
	LastSentinel string
}

// ApplyEvent runs one recogniser event against the document: interim and
// duplicate events are dropped (applied=false, everything else unchanged);
// a fresh final event is processed through the segment pipeline and spliced
// or executed as a voice command.
func (p *Processor) ApplyEvent(st State, doc Document, ev Event, userDict map[string]string, templates TemplateLookup) (State, Document, Command, bool) {
	if !ev.IsFinal {
		return st, doc, CommandNone, false
	}
	if ev.Timestamp <= st.LastTimestamp {
		return st, doc, CommandNone, false
	}

	doc = doc.clamp()
	preceding := doc.Text[:doc.SelStart]
	fragment := p.ProcessSegment(ev.Text, userDict, preceding)

	out, cmd := p.ApplyFragment(doc, fragment, templates)
	st.LastTimestamp = ev.Timestamp
	return st, out, cmd, true
}
