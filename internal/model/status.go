package model

// GroupStatus is the publicly visible life-cycle state of a group.  Only the
// group itself writes it.  The zero value is Arriving.
type GroupStatus int

const (
	Arriving        GroupStatus = iota // travelling to the restaurant
	AtReception                        // queueing for the receptionist
	WaitingForTable                    // table requested, blocked until granted
	FoodRequest                        // seated and ordering
	WaitForFood                        // order taken, blocked until food arrives
	Eating                             // eating
	Checkout                           // paying the bill
	Leaving                            // terminal
)

var groupCodes = [...]string{"GOTO", "ATRC", "WTBL", "FREQ", "WFOD", "EAT", "CKOT", "LEAV"}

// Code returns the short mnemonic used in the state log.
func (s GroupStatus) Code() string { return code(groupCodes[:], int(s)) }

func (s GroupStatus) String() string { return s.Code() }

// ReceptionistStatus is the publicly visible state of the receptionist.
type ReceptionistStatus int

const (
	ReceptionistWaitForRequest ReceptionistStatus = iota
	AssignTable
	ReceivePayment
)

var receptionistCodes = [...]string{"WREQ", "ASGN", "RPAY"}

// Code returns the short mnemonic used in the state log.
func (s ReceptionistStatus) Code() string { return code(receptionistCodes[:], int(s)) }

func (s ReceptionistStatus) String() string { return s.Code() }

// WaiterStatus is the publicly visible state of the waiter.
type WaiterStatus int

const (
	WaiterWaitForRequest WaiterStatus = iota
	InformChef
	TakeToTable
)

var waiterCodes = [...]string{"WREQ", "INFC", "TTBL"}

// Code returns the short mnemonic used in the state log.
func (s WaiterStatus) Code() string { return code(waiterCodes[:], int(s)) }

func (s WaiterStatus) String() string { return s.Code() }

// ChefStatus is the publicly visible state of the chef.
type ChefStatus int

const (
	WaitForOrder ChefStatus = iota
	Cook
	Rest
)

var chefCodes = [...]string{"WORD", "COOK", "REST"}

// Code returns the short mnemonic used in the state log.
func (s ChefStatus) Code() string { return code(chefCodes[:], int(s)) }

func (s ChefStatus) String() string { return s.Code() }

func code(codes []string, i int) string {
	if i < 0 || i >= len(codes) {
		return "????"
	}
	return codes[i]
}
