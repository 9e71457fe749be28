package rpc

import "fmt"

// OutcomeKind classifies a reply. The zero value is not a valid kind.
type OutcomeKind int

const (
	// The daemon wants us to authenticate first.
	OutcomeUnauthorized OutcomeKind = iota + 1
	// The daemon reported an error; the message is in Outcome.Message.
	OutcomeServerError
	// The daemon acknowledged a command.
	OutcomeAcknowledged
	// Anything else: a data reply, in Outcome.Reply.
	OutcomeData
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeUnauthorized:
		return "unauthorized"
	case OutcomeServerError:
		return "server-error"
	case OutcomeAcknowledged:
		return "acknowledged"
	case OutcomeData:
		return "data"
	}
	return fmt.Sprintf("OutcomeKind(%d)", int(k))
}

// Outcome is the interpretation of one reply. Message is set only for
// OutcomeServerError and Reply only for OutcomeData.
type Outcome struct {
	Kind    OutcomeKind
	Message string
	Reply   *Element
}

func (o Outcome) String() string {
	switch o.Kind {
	case OutcomeServerError:
		return fmt.Sprintf("%s(%q)", o.Kind, o.Message)
	case OutcomeData:
		if o.Reply == nil {
			return fmt.Sprintf("%s(nil)", o.Kind)
		}
		return fmt.Sprintf("%s(<%s>)", o.Kind, o.Reply.Tag)
	}
	return o.Kind.String()
}

// Interpret classifies a reply by its root tag.
func Interpret(reply *Element) Outcome {
	switch reply.Tag {
	case Unauthorized:
		return Outcome{Kind: OutcomeUnauthorized}
	case Error:
		return Outcome{Kind: OutcomeServerError, Message: reply.Text}
	case Success:
		return Outcome{Kind: OutcomeAcknowledged}
	}
	return Outcome{Kind: OutcomeData, Reply: reply}
}
