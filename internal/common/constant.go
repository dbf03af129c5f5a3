package common

// AuthorizationHeader carries the bearer credential on outbound requests.
const AuthorizationHeader = "Authorization"

// BearerPrefix is the scheme prefix of a bearer credential header value.
const BearerPrefix = "Bearer "

// Storage permission levels understood by the external platform.
const (
	PermissionNone       = 0
	PermissionOwnerWrite = 1
	PermissionPublicRead = 2
)

// WildcardVersion asks the store to write unconditionally.
const WildcardVersion = "*"
