package shopsync

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kimiashop/orderflow/internal/errs"
	kafkax "github.com/kimiashop/orderflow/internal/kafka"
	"github.com/kimiashop/orderflow/internal/orders"
	"github.com/kimiashop/orderflow/internal/redisx"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"
)

// Projector mirrors one showcase product into its shop row.
type Projector interface {
	ProjectStock(ctx context.Context, productID string) (stock, prevStock int, existed bool, err error)
}

// Deduper keeps redelivered events from projecting twice.
type Deduper interface {
	Seen(ctx context.Context, eventID string) bool
	Mark(ctx context.Context, eventID string)
}

type RedisDeduper struct {
	Client  *redis.Client
	Service string
}

func (d *RedisDeduper) Seen(ctx context.Context, eventID string) bool {
	ok, _ := redisx.Exists(ctx, d.Client, fmt.Sprintf(redisx.KeyDedup, d.Service, eventID))
	return ok
}

func (d *RedisDeduper) Mark(ctx context.Context, eventID string) {
	_ = d.Client.Set(ctx, fmt.Sprintf(redisx.KeyDedup, d.Service, eventID), "1", redisx.TTLDedup).Err()
}

type Service struct {
	Projector   Projector
	Dedup       Deduper
	Producer    *kafkax.Producer // publish shop.stock.synced
	ServiceName string
	Log         zerolog.Logger
}

// HandleOrderCreated projects showcase stock into the shop view for every
// item of the order. Showcase is authoritative: a diverged shop value is
// logged and overwritten.
func (s *Service) HandleOrderCreated(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != orders.EventOrderCreated {
		return nil
	}

	if s.Dedup.Seen(ctx, env.EventID) {
		return nil
	}
	s.Dedup.Mark(ctx, env.EventID)

	p, err := kafkax.UnwrapPayload[orders.OrderCreatedPayload](env.Payload)
	if err != nil {
		return err
	}

	details := make([]orders.ShopSyncedDetail, 0, len(p.Items))
	for _, it := range p.Items {
		stock, prev, existed, err := s.Projector.ProjectStock(ctx, it.ProductID)
		if errs.Is(err, errs.KindNotFound) {
			// showcase row gone; nothing to project, do not stall the batch
			s.Log.Error().Str("product_id", it.ProductID).Str("order_id", p.OrderID).
				Msg("showcase product missing during projection")
			continue
		}
		if err != nil {
			return err
		}
		// prev == stock+qty is just projection lag; anything else diverged
		diverged := existed && prev != stock && prev != stock+it.Qty
		if diverged {
			s.Log.Warn().Str("product_id", it.ProductID).
				Int("shop_stock", prev).Int("showcase_stock", stock).
				Msg("shop stock diverged from showcase, overwriting")
		}
		details = append(details, orders.ShopSyncedDetail{
			ProductID: it.ProductID, Stock: stock, PrevStock: prev, Diverged: diverged,
		})
	}

	s.publishSynced(p.OrderID, details, env.TraceID)
	return nil
}

func (s *Service) publishSynced(orderID string, details []orders.ShopSyncedDetail, trace string) {
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventShopSynced,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.ServiceName,
		TraceID:       trace,
		CorrelationID: orderID,
		Payload:       kafkax.MustMarshal(orders.ShopSyncedPayload{OrderID: orderID, Details: details}),
	}
	s.Producer.Publish(orders.PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventShopSynced)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
