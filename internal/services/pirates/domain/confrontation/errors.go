package confrontation

import (
	"time"

	apperrors "github.com/cryptopia-com/cryptopia-world/internal/platform/errors"
)

func reject(code apperrors.Code, message string, metadata map[string]string) error {
	return apperrors.WithMetadata(code, message, metadata)
}

func actorRequired(role string) error {
	return reject(apperrors.CodeActorRequired, role+" is required", map[string]string{"Role": role})
}

func notFound(resource, target string) error {
	return reject(apperrors.CodeNotFound, resource+" not found", map[string]string{
		"Resource": resource,
		"Target":   target,
	})
}

func pair(attacker, target string) map[string]string {
	return map[string]string{"Attacker": attacker, "Target": target}
}

func withTime(metadata map[string]string, key string, value time.Time) map[string]string {
	metadata[key] = value.UTC().Format(time.RFC3339)
	return metadata
}
