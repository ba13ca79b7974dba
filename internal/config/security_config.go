package config

type SecurityLevel int

const (
	SecurityPublic SecurityLevel = iota // No authentication
	SecurityAccess                      // Access token required
	SecurityAdmin                       // Access token with admin role required
)

// EndpointSecurityConfig maps "METHOD /path/template" to its required security level
var EndpointSecurityConfig = map[string]SecurityLevel{
	// Health and auth - Public
	"GET /healthz":        SecurityPublic,
	"POST /auth/register": SecurityPublic,
	"POST /auth/login":    SecurityPublic,

	// Resources - browsing is public
	"GET /resources":      SecurityPublic,
	"GET /resources/{id}": SecurityPublic,

	// Auth - Access Protected
	"POST /auth/logout": SecurityAccess,
	"GET /users/me":     SecurityAccess,

	// Resources - Access Protected
	"POST /resources":            SecurityAccess,
	"PUT /resources/{id}":        SecurityAccess,
	"DELETE /resources/{id}":     SecurityAccess,
	"PUT /resources/{id}/donate": SecurityAccess,

	// Requests - Access Protected
	"POST /requests":              SecurityAccess,
	"GET /requests":               SecurityAccess,
	"GET /requests/{id}":          SecurityAccess,
	"PUT /requests/{id}/status":   SecurityAccess,
	"POST /requests/{id}/reviews": SecurityAccess,
	"GET /transactions":           SecurityAccess,

	// Reviews
	"GET /users/{id}/reviews": SecurityAccess,

	// Notifications - Access Protected
	"GET /notifications":              SecurityAccess,
	"GET /notifications/unread-count": SecurityAccess,
	"PUT /notifications/{id}/read":    SecurityAccess,

	// Moderation
	"POST /reports": SecurityAccess,

	// Admin
	"GET /admin/reports":          SecurityAdmin,
	"PUT /admin/reports/{id}":     SecurityAdmin,
	"GET /admin/users":            SecurityAdmin,
	"PUT /admin/users/{id}/ban":   SecurityAdmin,
	"GET /admin/requests":         SecurityAdmin,
	"DELETE /admin/requests/{id}": SecurityAdmin,
}

// GetSecurityLevel returns the security level for a given method and route template
func GetSecurityLevel(method, pathTemplate string) SecurityLevel {
	if level, exists := EndpointSecurityConfig[method+" "+pathTemplate]; exists {
		return level
	}
	// Default to access token for unknown endpoints
	return SecurityAccess
}
