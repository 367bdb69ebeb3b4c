package platform

import "strings"

// Fingerprint redacts credentials from a connection string and truncates it,
// producing the durable identity used for history grouping. The operation is
// idempotent: fingerprinting a fingerprint yields the same value.
func Fingerprint(uri string) string {
	if !strings.Contains(uri, "://") {
		if len(uri) > 50 {
			return uri[:50]
		}
		return uri
	}

	parts := strings.SplitN(uri, "://", 2)
	scheme, rest := parts[0], parts[1]
	if at := strings.LastIndex(rest, "@"); at >= 0 {
		rest = "***@" + rest[at+1:]
	}

	fp := scheme + "://" + rest
	if len(fp) > 80 {
		fp = fp[:80]
	}
	return fp
}
