package cache

import (
	"fmt"

	"github.com/google/uuid"
)

// The credential layer keeps exactly two cached entries per user: the last
// resolved API key and the selected model.

func APIKeyKey(userID uuid.UUID) string {
	return fmt.Sprintf("cred:key:%s", userID)
}

func ModelKey(userID uuid.UUID) string {
	return fmt.Sprintf("cred:model:%s", userID)
}

func RateLimitKey(userID uuid.UUID) string {
	return fmt.Sprintf("ratelimit:%s", userID)
}
