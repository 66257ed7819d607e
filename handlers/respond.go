package handlers

import (
	"errors"

	"github.com/pocketbase/pocketbase/core"
)

var errVersionNotFound = errors.New("version not found")

// apiError writes a JSON error envelope with the given status code.
func apiError(e *core.RequestEvent, status int, message string) error {
	return e.JSON(status, map[string]any{"error": message})
}

// apiOK writes a 200 JSON response.
func apiOK(e *core.RequestEvent, payload any) error {
	return e.JSON(200, payload)
}
