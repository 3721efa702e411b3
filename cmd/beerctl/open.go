package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"

	"beer-tasting-go/internal/apiclient"
	"beer-tasting-go/internal/navigation"

	"github.com/spf13/cobra"
)

func newOpenCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "open [path]",
		Short: "Navigate to a page, e.g. /rooms or /rooms/3/beer/7",
		Long: `open resolves a path against the route table and prints that page.
Pages other than /, /login and /register need a stored token; without one
you are sent to /login. The stored token is checked with the server first and
dropped if the server rejects it.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/"
			if len(args) == 1 {
				path = args[0]
			}
			ctx := cmd.Context()
			if err := a.router.CheckToken(ctx, a.api); err != nil {
				return err
			}
			loc, err := a.router.Push(ctx, path)
			if errors.Is(err, navigation.ErrNoMatch) {
				return fmt.Errorf("no page at %s", path)
			}
			if err != nil {
				return err
			}
			return a.render(ctx, loc)
		},
	}
}

func (a *app) render(ctx context.Context, loc navigation.Location) error {
	switch loc.Name {
	case navigation.RouteHome:
		fmt.Fprintln(a.out, "Beer tasting. Try `beerctl open /rooms`.")
	case navigation.RouteAbout:
		fmt.Fprintf(a.out, "Beer tasting client, talking to %s\n", a.api.BaseURL())
	case navigation.RouteLogin:
		fmt.Fprintln(a.out, "Not signed in. Run `beerctl login -u <username>`.")
	case navigation.RouteRegister:
		fmt.Fprintln(a.out, "Run `beerctl register -u <username> --name <display name>`.")
	case navigation.RouteProfile:
		u, err := a.api.Profile(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%s (@%s), member since %s\n", u.DisplayName(), u.Username, u.CreatedAt.Format("2006-01-02"))
	case navigation.RouteRoomList:
		return a.renderRooms(ctx)
	case navigation.RouteNewRoom:
		fmt.Fprintln(a.out, "Run `beerctl room create <name>` to open a new room.")
	case navigation.RouteRoom:
		id, err := strconv.ParseInt(loc.Param("roomId"), 10, 64)
		if err != nil {
			return fmt.Errorf("bad room id %q", loc.Param("roomId"))
		}
		return a.renderRoom(ctx, id)
	case navigation.RouteBeer:
		roomID, err1 := strconv.ParseInt(loc.Param("roomId"), 10, 64)
		beerID, err2 := strconv.ParseInt(loc.Param("beerId"), 10, 64)
		if err1 != nil || err2 != nil {
			return fmt.Errorf("bad beer path %s", loc.Path)
		}
		return a.renderBeer(ctx, roomID, beerID)
	default:
		return fmt.Errorf("no view for %s", loc)
	}
	return nil
}

func (a *app) renderRooms(ctx context.Context) error {
	rooms, err := a.api.Rooms(ctx)
	if err != nil {
		return err
	}
	if len(rooms) == 0 {
		fmt.Fprintln(a.out, "No rooms yet. Create one with `beerctl room create` or join with `beerctl room join`.")
		return nil
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tMEMBERS\tDATE")
	for _, r := range rooms {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", r.ID, r.Name, r.Members, r.PlannedDate)
	}
	return w.Flush()
}

func (a *app) renderRoom(ctx context.Context, roomID int64) error {
	detail, err := a.api.Room(ctx, roomID)
	if err != nil {
		return err
	}
	beers, err := a.api.Beers(ctx, roomID)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s\n", detail.Room.Name)
	if detail.Room.Description != "" {
		fmt.Fprintln(a.out, detail.Room.Description)
	}
	if detail.IsAdmin {
		fmt.Fprintf(a.out, "Invite code: %s\n", detail.Room.Code)
	}
	fmt.Fprintln(a.out)

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "BEER\tNAME\tAVG\tVOTES")
	for _, b := range beers {
		avg := "-"
		if b.Average != nil && (b.Published || detail.IsAdmin) {
			avg = strconv.FormatFloat(*b.Average, 'f', 1, 64)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\n", b.ID, b.Name, avg, b.Votes)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "MEMBER\t\t\t")
	for _, u := range detail.Users {
		role := ""
		if u.IsAdmin {
			role = "admin"
		}
		fmt.Fprintf(w, "%s\t%s\t\t\n", u.Name, role)
	}
	return w.Flush()
}

func (a *app) renderBeer(ctx context.Context, roomID, beerID int64) error {
	detail, err := a.api.Beer(ctx, roomID, beerID)
	if err != nil {
		return err
	}
	b := detail.Beer
	fmt.Fprintf(a.out, "%s", b.Name)
	if b.Style != nil {
		fmt.Fprintf(a.out, " (%s)", *b.Style)
	}
	fmt.Fprintln(a.out)
	if detail.MyVote != nil {
		fmt.Fprintf(a.out, "Your rating: %d\n", detail.MyVote.Rating)
	} else {
		fmt.Fprintf(a.out, "Not rated yet: beerctl rate %d %d <1-10>\n", roomID, beerID)
	}

	ratings, err := a.api.Ratings(ctx, roomID, beerID)
	if apiclient.HasStatus(err, 403) {
		fmt.Fprintln(a.out, "Ratings are hidden until the host publishes them.")
		return nil
	}
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "WHO\tRATING\tNOTE")
	for _, v := range ratings.Ratings {
		note := ""
		if v.Note != nil {
			note = *v.Note
		}
		fmt.Fprintf(w, "%s\t%d\t%s\n", v.UserName, v.Rating, note)
	}
	return w.Flush()
}
