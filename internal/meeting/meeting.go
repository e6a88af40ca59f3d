// Package meeting derives room references for virtual interviews.
package meeting

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// Generator builds meeting room references and per-party join URLs.
// Generate is not idempotent: callers invoke it exactly once per interview,
// at scheduling, and persist the result.
type Generator struct {
	Prefix  string
	BaseURL string
}

// New returns a Generator with the configured room prefix and base URL.
func New(prefix, baseURL string) Generator {
	return Generator{Prefix: prefix, BaseURL: strings.TrimRight(baseURL, "/")}
}

// Generate returns "<prefix>-<interviewID>-<suffix>" where the suffix is an
// unguessable random token. The reference doubles as the room identifier.
func (g Generator) Generate(interviewID string) string {
	prefix := g.Prefix
	if prefix == "" {
		prefix = "hireline"
	}
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")
	return fmt.Sprintf("%s-%s-%s", prefix, interviewID, suffix)
}

// JoinURL returns the room URL for one party, with the display name carried
// in the URL fragment. The room itself is unauthenticated; possession of the
// reference is the only access control.
func (g Generator) JoinURL(ref, displayName string) string {
	base := g.BaseURL
	if base == "" {
		base = "https://meet.hireline.example"
	}
	return fmt.Sprintf("%s/%s#%s", base, ref, url.PathEscape(displayName))
}
