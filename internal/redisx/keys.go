package redisx

import "time"

const (
	// Cart calculation cache (redis backend): cartcalc:{order_no} -> JSON snapshot
	KeyCartCalc = "cartcalc:%s"

	// Idempotent checkout confirm: idem:checkout:{order_no} -> order_id
	KeyIdemCheckout = "idem:checkout:%s"

	// Cache order status: order_status:{order_id} -> {"status":"..."}
	KeyOrderStatus = "order_status:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLIdempotency = 24 * time.Hour
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
