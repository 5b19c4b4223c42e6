package crawler

// Sentinel status codes for failures that never produced an HTTP status.
const (
	// StatusNetworkError marks a fetch that failed at the network level.
	StatusNetworkError = 0
	// StatusDNSError marks a URL whose host could not be resolved.
	StatusDNSError = -1
)

// Error classification titles used as the H1 of error pages.
const (
	ClassDNSError   = "DNS Error"
	ClassNetwork    = "Network Error"
	ClassNonHTML    = "Non-HTML Content"
	ClassInvalidURL = "Invalid URL"
)

// classifyStatus maps a status code to a short human-readable description.
func classifyStatus(code int) string {
	switch code {
	case StatusDNSError:
		return ClassDNSError
	case StatusNetworkError:
		return ClassNetwork
	case 400:
		return "Bad Request"
	case 401:
		return "Unauthorized"
	case 403:
		return "Forbidden"
	case 404:
		return "Not Found"
	case 410:
		return "Gone"
	case 429:
		return "Too Many Requests"
	case 500:
		return "Error Page"
	case 502:
		return "Bad Gateway"
	case 503:
		return "Service Unavailable"
	case 504:
		return "Gateway Timeout"
	}

	switch {
	case code >= 500:
		return "Error Page"
	case code >= 400:
		return "Client Error"
	default:
		return "OK"
	}
}
