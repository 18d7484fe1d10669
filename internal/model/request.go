package model

import "fmt"

// RequestKind tags a request envelope.
type RequestKind int

const (
	NoRequest    RequestKind = iota // empty slot
	TableRequest                    // group asks the receptionist for a table
	BillRequest                     // group asks the receptionist to settle the bill
	FoodOrder                       // group asks the waiter to take its order
	FoodReady                       // chef tells the waiter an order is cooked
)

func (k RequestKind) String() string {
	switch k {
	case NoRequest:
		return "NONE"
	case TableRequest:
		return "TABLE_REQUEST"
	case BillRequest:
		return "BILL_REQUEST"
	case FoodOrder:
		return "FOOD_REQUEST"
	case FoodReady:
		return "FOOD_READY"
	}
	return fmt.Sprintf("RequestKind(%d)", int(k))
}

// Request is the envelope a client deposits in a server's mailbox.  Exactly
// one envelope per mailbox is live at a time.
//
// Fields:
//
//	Kind  – what is being asked for.
//	Group – id of the group the request concerns.
type Request struct {
	Kind  RequestKind `json:"kind"`
	Group int         `json:"group"`
}

func (r Request) String() string {
	return fmt.Sprintf("%s(group=%d)", r.Kind, r.Group)
}
