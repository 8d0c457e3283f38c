package ledgerhandlers

import (
	"github.com/ThreeDotsLabs/watermill/message"
)

// Handlers is the ledger module's event-handling surface.
type Handlers interface {
	HandleActivitySubmissionRequest(msg *message.Message) ([]*message.Message, error)
}
