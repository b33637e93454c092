package httpapi

// maxUploadMemory bounds the part of a multipart upload kept in memory; the
// rest spills to temporary files. The fetcher enforces the payload limit.
var maxUploadMemory int64 = 32 << 20

// SetMaxUploadMemory configures maxUploadMemory. Non-positive values restore
// the 32 MiB default.
func SetMaxUploadMemory(n int64) {
	if n <= 0 {
		maxUploadMemory = 32 << 20
		return
	}
	maxUploadMemory = n
}

// multipartOverhead is the allowance for boundaries and part headers on top
// of the payload limit.
const multipartOverhead = 64 << 10

// maxUploadBytes caps the whole POST body before multipart parsing starts.
var maxUploadBytes int64 = 32<<20 + multipartOverhead

// SetMaxUploadBytes sets the largest accepted file payload. Non-positive
// values restore the 32 MiB default.
func SetMaxUploadBytes(n int64) {
	if n <= 0 {
		n = 32 << 20
	}
	maxUploadBytes = n + multipartOverhead
}

// CORS configuration (opt-in). If disabled, no CORS middleware is added.
var (
	corsEnabled        bool
	corsAllowedOrigins []string
	corsAllowedMethods []string
	corsAllowedHeaders []string
)

// SetCORSOptions configures CORS behavior for the HTTP server.
func SetCORSOptions(enabled bool, origins, methods, headers []string) {
	corsEnabled = enabled
	corsAllowedOrigins = append([]string(nil), origins...)
	corsAllowedMethods = append([]string(nil), methods...)
	corsAllowedHeaders = append([]string(nil), headers...)
}

// swaggerEnabled mounts /swagger/* when set.
var swaggerEnabled bool

// SetSwaggerEnabled toggles the Swagger UI.
func SetSwaggerEnabled(on bool) { swaggerEnabled = on }
