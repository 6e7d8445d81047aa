package withdraw

import "time"

// State tracks a withdrawal intent through its lifecycle. Confirmed and
// Failed are terminal.
type State string

const (
	StateRequested State = "requested"
	StateReserved  State = "reserved"
	StateSubmitted State = "submitted"
	StateConfirmed State = "confirmed"
	StateFailed    State = "failed"
)

// Intent is the record of one withdrawal request. It exists to pin the
// reserve-before-submit ordering: the ledger debit happens at Reserved, the
// Chain B transaction hash is attached at Submitted, and a Failed terminal
// state always pairs with a compensating release of the reserved amount.
type Intent struct {
	ID        string
	Address   string
	Amount    int64
	State     State
	TxHash    string
	Reason    string
	CreatedAt time.Time
	UpdatedAt time.Time
}
