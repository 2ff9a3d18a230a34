package orders

const (
	TopicOrderCreated    = "order.created"
	TopicOrderDispatched = "order.dispatched"
	TopicShopSynced      = "shop.stock.synced"
)

// Partition key = order id so all events of one order keep their order.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
