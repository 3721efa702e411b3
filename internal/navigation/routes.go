// Package navigation resolves client paths against the route table and runs
// navigation guards before a location is committed.
package navigation

// Route names.
const (
	RouteHome     = "home"
	RouteAbout    = "about"
	RouteLogin    = "login"
	RouteRegister = "register"
	RouteProfile  = "profile"
	RouteRoomList = "roomlist"
	RouteNewRoom  = "new-room"
	RouteRoom     = "room"
	RouteBeer     = "beer"
)

// Route is one entry of the route table. A child Path of "" shares its parent's
// path; a child Path starting with "/" is absolute. Routes without a Name only
// group children and are never matched themselves.
type Route struct {
	Name     string
	Path     string
	Children []Route
}

// DefaultRoutes is the application route table. /rooms/new is declared before
// /rooms/:roomId so the static segment wins.
var DefaultRoutes = []Route{
	{Name: RouteHome, Path: "/"},
	{Name: RouteAbout, Path: "/about"},
	{Name: RouteLogin, Path: "/login"},
	{Name: RouteRegister, Path: "/register"},
	{Name: RouteProfile, Path: "/profile"},
	{
		Path: "/rooms",
		Children: []Route{
			{Name: RouteRoomList, Path: ""},
			{Name: RouteNewRoom, Path: "/rooms/new"},
			{
				Path: "/rooms/:roomId",
				Children: []Route{
					{Name: RouteRoom, Path: ""},
					{Name: RouteBeer, Path: "/rooms/:roomId/beer/:beerId"},
				},
			},
		},
	},
}

// DefaultPublic names the routes reachable without a stored token.
var DefaultPublic = []string{RouteHome, RouteLogin, RouteRegister}
