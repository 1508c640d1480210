package invoices

import "strings"

type Status string

const (
	StatusUnpaid     Status = "UNPAID"
	StatusProcessing Status = "PROCESSING"
	StatusPaid       Status = "PAID"
	StatusDone       Status = "DONE"
	StatusExpired    Status = "EXPIRED"
	StatusCancelled  Status = "CANCELLED"
)

// validNext is the whole lifecycle; anything absent is rejected.
var validNext = map[Status]map[Status]bool{
	StatusUnpaid:     {StatusProcessing: true, StatusPaid: true, StatusCancelled: true, StatusExpired: true},
	StatusProcessing: {StatusPaid: true, StatusCancelled: true, StatusExpired: true},
	StatusPaid:       {StatusDone: true},
	StatusDone:       {},
	StatusExpired:    {},
	StatusCancelled:  {},
}

func ParseStatus(s string) (Status, bool) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	return st, st.Valid()
}

func (s Status) Valid() bool {
	_, ok := validNext[s]
	return ok
}

// IsOpen reports whether the invoice still waits for payment.
func (s Status) IsOpen() bool { return s == StatusUnpaid || s == StatusProcessing }

func (s Status) IsTerminal() bool { return s.Valid() && len(validNext[s]) == 0 }

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}
