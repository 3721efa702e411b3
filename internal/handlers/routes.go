package handlers

import (
	"github.com/gin-gonic/gin"
)

// RegisterAuthRoutes wires account endpoints. Register and login are public;
// logout and verifyToken need a live bearer token.
func RegisterAuthRoutes(public, protected *gin.RouterGroup, env *Env) {
	public.POST("/auth/register", RegisterHandler(env))
	public.POST("/auth/login", LoginHandler(env))
	protected.POST("/auth/logout", LogoutHandler(env))
	protected.GET("/api/verifyToken", VerifyTokenHandler(env))
	protected.GET("/api/user/profile", GetProfileHandler(env))
	protected.PUT("/api/user/profile", UpdateProfileHandler(env))
}

// RegisterBroadcastRoutes wires the real-time token broker.
func RegisterBroadcastRoutes(protected *gin.RouterGroup, env *Env) {
	protected.GET("/broadcasting/connect", ConnectionTokenHandler(env))
	protected.POST("/broadcasting/auth", SubscriptionTokenHandler(env))
}

// RegisterRoomRoutes wires rooms, beers and ratings. Everything under /:roomId requires membership.
func RegisterRoomRoutes(protected *gin.RouterGroup, env *Env) {
	protected.GET("/api/rooms", ListRoomsHandler(env))
	protected.POST("/api/rooms", CreateRoomHandler(env))
	protected.POST("/api/rooms/join", JoinRoomHandler(env))

	room := protected.Group("/api/rooms/:roomId", requireRoomMember(env))
	room.GET("", GetRoomHandler(env))
	room.PUT("", UpdateRoomHandler(env))
	room.POST("/leave", LeaveRoomHandler(env))
	room.GET("/users", ListRoomUsersHandler(env))
	room.PUT("/users/:userId/admin", SetAdminHandler(env))
	room.DELETE("/users/:userId", RemoveMemberHandler(env))

	room.GET("/beers", ListBeersHandler(env))
	room.POST("/beers", CreateBeerHandler(env))
	room.POST("/beers/next", NextBeerHandler(env))
	room.GET("/beers/random", RandomBeerHandler(env))
	room.GET("/beers/:beerId", GetBeerHandler(env))
	room.PUT("/beers/:beerId", UpdateBeerHandler(env))
	room.POST("/beers/:beerId/rate", RateBeerHandler(env))
	room.GET("/beers/:beerId/ratings", ListRatingsHandler(env))
	room.POST("/beers/:beerId/publish", PublishBeerHandler(env, true))
	room.POST("/beers/:beerId/unpublish", PublishBeerHandler(env, false))
}
