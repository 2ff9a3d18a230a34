package orders

type Status string

// Orders are created CONFIRMED; the pre-confirm cart lives in the checkout
// cache, not in the orders table.
const (
	StatusConfirmed  Status = "CONFIRMED"
	StatusDispatched Status = "DISPATCHED"
	StatusDelivered  Status = "DELIVERED"
	StatusCancelled  Status = "CANCELLED"
)

var validNext = map[Status]map[Status]bool{
	StatusConfirmed:  {StatusDispatched: true, StatusCancelled: true},
	StatusDispatched: {StatusDelivered: true},
	StatusDelivered:  {},
	StatusCancelled:  {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}
