package auth

// AuthCookieName is the name of the httpOnly cookie set on login for browser clients.
// RequireAuth accepts it as an alternative to the Authorization header.
const AuthCookieName = "beers_token"
