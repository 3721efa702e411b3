package main

import (
	"errors"
	"fmt"
	"sync"

	"beer-tasting-go/internal/broadcast"

	"github.com/centrifugal/centrifuge-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newListenCommand(a *app) *cobra.Command {
	var (
		rooms    []int64
		beers    []int64
		personal bool
	)
	cmd := &cobra.Command{
		Use:   "listen [channel...]",
		Short: "Print live publications until interrupted",
		Long: `listen connects to the real-time server and prints every publication on
the given channels. --room adds the room's next-beer and beer-list channels,
--beer adds a beer's vote channel and --personal adds your own channel.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			channels := append([]string(nil), args...)
			for _, id := range rooms {
				channels = append(channels, broadcast.RoomNextBeerChannel(id), broadcast.RoomBeersChannel(id))
			}
			for _, id := range beers {
				channels = append(channels, broadcast.BeerVotesChannel(id))
			}
			if personal {
				u, err := a.api.Profile(ctx)
				if err != nil {
					return err
				}
				channels = append(channels, broadcast.PersonalChannel(u.ID))
			}
			if len(channels) == 0 {
				return errors.New("nothing to listen to: pass channels, --room, --beer or --personal")
			}

			if err := a.rt.Init(ctx, ""); err != nil {
				return err
			}

			var mu sync.Mutex
			for _, ch := range channels {
				sub, err := a.rt.NewSubscription(ch, centrifuge.SubscriptionConfig{})
				if err != nil {
					return fmt.Errorf("subscribe %s: %w", ch, err)
				}
				sub.OnPublication(func(e centrifuge.PublicationEvent) {
					mu.Lock()
					defer mu.Unlock()
					fmt.Fprintf(a.out, "%s %s\n", sub.Channel, e.Data)
				})
				sub.OnSubscribed(func(centrifuge.SubscribedEvent) {
					a.logger.Info("subscribed", zap.String("channel", sub.Channel))
				})
				sub.OnError(func(e centrifuge.SubscriptionErrorEvent) {
					a.logger.Warn("subscription error", zap.String("channel", sub.Channel), zap.Error(e.Error))
				})
				if err := sub.Subscribe(); err != nil {
					return fmt.Errorf("subscribe %s: %w", ch, err)
				}
				defer func() { _ = a.rt.RemoveSubscription(sub) }()
			}

			<-ctx.Done()
			return nil
		},
	}
	cmd.Flags().Int64SliceVar(&rooms, "room", nil, "Room id (repeatable)")
	cmd.Flags().Int64SliceVar(&beers, "beer", nil, "Beer id (repeatable)")
	cmd.Flags().BoolVar(&personal, "personal", false, "Also listen on your personal channel")
	return cmd
}
