package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/centrifugal/gocent/v3"
	"go.uber.org/zap"
)

// Message is a publication addressed to one channel.
type Message struct {
	Channel string
	Payload map[string]string
}

// Publisher sends messages to the real-time server.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
}

// CentrifugoPublisher publishes through the Centrifugo server HTTP API.
type CentrifugoPublisher struct {
	client *gocent.Client
}

func NewCentrifugoPublisher(addr, apiKey string) *CentrifugoPublisher {
	return &CentrifugoPublisher{client: gocent.New(gocent.Config{Addr: addr, Key: apiKey})}
}

func (p *CentrifugoPublisher) Publish(ctx context.Context, msg Message) error {
	data, err := json.Marshal(msg.Payload)
	if err != nil {
		return err
	}
	if _, err := p.client.Publish(ctx, msg.Channel, data); err != nil {
		return fmt.Errorf("publish %s: %w", msg.Channel, err)
	}
	return nil
}

// NopPublisher drops messages; used when CENTRIFUGO_API is not configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Message) error { return nil }

// Broadcaster builds domain messages and publishes them best-effort:
// failures are logged and never returned to the caller.
type Broadcaster struct {
	pub    Publisher
	logger *zap.Logger
	onSent func(channel string, err error)
}

func NewBroadcaster(pub Publisher, logger *zap.Logger) *Broadcaster {
	if pub == nil {
		pub = NopPublisher{}
	}
	return &Broadcaster{pub: pub, logger: logger}
}

// OnSent registers a hook called after every publish attempt (metrics).
func (b *Broadcaster) OnSent(fn func(channel string, err error)) {
	b.onSent = fn
}

func (b *Broadcaster) Send(ctx context.Context, msg Message) {
	err := b.pub.Publish(ctx, msg)
	if err != nil {
		b.logger.Error("broadcast failed", zap.String("channel", msg.Channel), zap.Error(err))
	}
	if b.onSent != nil {
		b.onSent(msg.Channel, err)
	}
}

func (b *Broadcaster) NextBeer(ctx context.Context, roomID, beerID int64) {
	b.Send(ctx, Message{
		Channel: RoomNextBeerChannel(roomID),
		Payload: map[string]string{"beerId": strconv.FormatInt(beerID, 10)},
	})
}

func (b *Broadcaster) BeerChanged(ctx context.Context, roomID int64, reason string) {
	b.Send(ctx, Message{
		Channel: RoomBeersChannel(roomID),
		Payload: map[string]string{
			"roomId": strconv.FormatInt(roomID, 10),
			"reason": reason,
		},
	})
}

func (b *Broadcaster) VoteChanged(ctx context.Context, beerID, userID int64, rating int, note, username, reason string) {
	b.Send(ctx, Message{
		Channel: BeerVotesChannel(beerID),
		Payload: map[string]string{
			"beerId":    strconv.FormatInt(beerID, 10),
			"userId":    strconv.FormatInt(userID, 10),
			"voteValue": strconv.Itoa(rating),
			"voteNote":  note,
			"username":  username,
			"reason":    reason,
		},
	})
}

// Notify sends a message to one user's personal channel.
func (b *Broadcaster) Notify(ctx context.Context, userID int64, payload map[string]string) {
	b.Send(ctx, Message{Channel: PersonalChannel(userID), Payload: payload})
}
