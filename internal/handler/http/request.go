package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/jwt"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// decodeJSON reads the request body into dst and writes a 400 on failure.
// An empty body leaves dst untouched when allowEmpty is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}, allowEmpty bool) bool {
	if r.Body == nil || r.ContentLength == 0 {
		if allowEmpty {
			return true
		}
		response.BadRequest(w, "Request body is required", nil)
		return false
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		slog.Debug("Failed to decode request body", "path", r.URL.Path, "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return false
	}
	return true
}

// callerFrom returns the verified token claims, writing a 401 when they are missing.
func callerFrom(w http.ResponseWriter, r *http.Request) (jwt.Claims, bool) {
	claims, err := jwt.ClaimsFromContext(r.Context())
	if err != nil {
		response.HandleError(w, jwt.ErrMissingClaims)
		return jwt.Claims{}, false
	}
	return claims, true
}

// actorID is the identity written to audit trails: the employee behind the
// token when there is one, the user otherwise.
func actorID(c jwt.Claims) string {
	if c.EmployeeID != nil {
		return *c.EmployeeID
	}
	return c.UserID
}

// ownEmployeeOnly reports whether the caller may only act on their own records.
func ownEmployeeOnly(c jwt.Claims) bool {
	return c.Role == jwt.RoleEmployee
}
