package logger

import "go.uber.org/zap"

// Project tags a log entry with a project id.
func Project(id string) zap.Field {
	return zap.String("project_id", id)
}

// Entity tags a log entry with the id of the entity an operation touched.
func Entity(id string) zap.Field {
	return zap.String("entity_id", id)
}

// Operation tags a log entry with a mutation name.
func Operation(name string) zap.Field {
	return zap.String("operation", name)
}

// Tenant tags a log entry with the tenant key; single-tenant calls log "default".
func Tenant(userID string) zap.Field {
	if userID == "" {
		userID = "default"
	}
	return zap.String("user_id", userID)
}

// RequestID tags a log entry with the X-Request-ID of the request being served.
func RequestID(id string) zap.Field {
	return zap.String("request_id", id)
}
