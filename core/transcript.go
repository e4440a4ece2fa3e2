package core

// Transcript is an ordered, append-only view of the messages exchanged in one
// conversation. The conversation loop holds the only growing handle; routers
// and participants receive the value and can only read it. Messages are never
// reordered or deleted.
//
// Transcript values are cheap to copy. Append returns a new value backed by a
// fresh slice so earlier views stay valid regardless of later growth.
type Transcript struct {
	messages []Message
}

// NewTranscript constructs a transcript from the given messages.
func NewTranscript(msgs ...Message) Transcript {
	cp := make([]Message, len(msgs))
	copy(cp, msgs)
	return Transcript{messages: cp}
}

// Len returns the number of messages in the transcript.
func (t Transcript) Len() int { return len(t.messages) }

// Last returns the most recent message and true, or a zero message and false
// for an empty transcript.
func (t Transcript) Last() (Message, bool) {
	if len(t.messages) == 0 {
		return Message{}, false
	}
	return t.messages[len(t.messages)-1], true
}

// At returns the message at index i (insertion order). Panics on an
// out-of-range index, mirroring slice semantics.
func (t Transcript) At(i int) Message { return t.messages[i] }

// Messages returns a defensive copy of the full message slice.
func (t Transcript) Messages() []Message {
	cp := make([]Message, len(t.messages))
	copy(cp, t.messages)
	return cp
}

// Append returns a new transcript extended by the given messages. The
// receiver is left untouched.
func (t Transcript) Append(msgs ...Message) Transcript {
	next := make([]Message, 0, len(t.messages)+len(msgs))
	next = append(next, t.messages...)
	next = append(next, msgs...)
	return Transcript{messages: next}
}

// BySpeaker returns all messages authored by the named participant in order.
func (t Transcript) BySpeaker(name string) []Message {
	var res []Message
	for _, m := range t.messages {
		if m.Speaker == name {
			res = append(res, m)
		}
	}
	return res
}
