package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newRoomCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "room",
		Short: "Create or join tasting rooms",
	}

	var description, date string
	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a room; you become its admin",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			room, err := a.api.CreateRoom(cmd.Context(), strings.Join(args, " "), description, date)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Created room %d %q. Invite code: %s\n", room.ID, room.Name, room.Code)
			return nil
		},
	}
	create.Flags().StringVar(&description, "description", "", "Room description")
	create.Flags().StringVar(&date, "date", "", "Planned tasting date")

	join := &cobra.Command{
		Use:   "join <code>",
		Short: "Join a room with its invite code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			room, err := a.api.JoinRoom(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Joined %q. Open it with `beerctl open /rooms/%d`.\n", room.Name, room.ID)
			return nil
		},
	}

	random := &cobra.Command{
		Use:   "random <roomId>",
		Short: "Send the room to a random untasted beer (admins)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			roomID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("room id: %w", err)
			}
			beer, err := a.api.RandomBeer(cmd.Context(), roomID)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Next up: %s (/rooms/%d/beer/%d)\n", beer.Name, roomID, beer.ID)
			return nil
		},
	}

	remove := &cobra.Command{
		Use:   "remove <roomId> <userId>",
		Short: "Remove a member from the room (admins)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			roomID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("room id: %w", err)
			}
			userID, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("user id: %w", err)
			}
			if err := a.api.RemoveMember(cmd.Context(), roomID, userID); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Removed user %d\n", userID)
			return nil
		},
	}

	cmd.AddCommand(create, join, random, remove)
	return cmd
}

func newRateCommand(a *app) *cobra.Command {
	var note string
	cmd := &cobra.Command{
		Use:   "rate <roomId> <beerId> <rating>",
		Short: "Rate a beer from 1 to 10",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			roomID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("room id: %w", err)
			}
			beerID, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("beer id: %w", err)
			}
			rating, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("rating: %w", err)
			}
			vote, err := a.api.Rate(cmd.Context(), roomID, beerID, rating, note)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Rated %d\n", vote.Rating)
			return nil
		},
	}
	cmd.Flags().StringVar(&note, "note", "", "Tasting note")
	return cmd
}
