package utils

// Application constants
const (
	// Application name
	AppName = "LinkSphere"

	// API version
	APIVersion = "v1"

	// Default port
	DefaultPort = "8080"

	// Session token lifetime
	JWTExpiration = "24h"

	// Maximum rows in a commission export
	MaxExportRows = 10000
)

// Error messages
const (
	ErrInvalidToken       = "Invalid or expired token"
	ErrUnauthorized       = "Unauthorized access"
	ErrProgramNotFound    = "Program not found"
	ErrDiscountNotFound   = "Discount not found"
	ErrInternalServer     = "Internal server error"
	ErrServiceUnavailable = "Service unavailable"
)
