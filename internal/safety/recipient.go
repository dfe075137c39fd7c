package safety

import (
	"fmt"
	"net/mail"
	"strings"
)

// RecipientPolicy decides which destination addresses the email tool may
// deliver to. An empty allowlist permits any syntactically valid address.
type RecipientPolicy struct {
	allowedDomains map[string]struct{}
}

// NewRecipientPolicy builds a policy from a list of allowed domains.
// Domains are compared case-insensitively; leading "@" is tolerated.
func NewRecipientPolicy(domains []string) *RecipientPolicy {
	p := &RecipientPolicy{}
	for _, d := range domains {
		d = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(d), "@"))
		if d == "" {
			continue
		}
		if p.allowedDomains == nil {
			p.allowedDomains = map[string]struct{}{}
		}
		p.allowedDomains[d] = struct{}{}
	}
	return p
}

// ValidateRecipient checks address syntax and the domain allowlist.
// On violation it returns a ToolError with KindRecipientRejected so the
// failure flows back to the model as a typed observation.
func (p *RecipientPolicy) ValidateRecipient(addr string) error {
	parsed, err := mail.ParseAddress(strings.TrimSpace(addr))
	if err != nil {
		return ToolError{Kind: KindRecipientRejected, Message: fmt.Sprintf("invalid recipient address %q", addr)}
	}
	if p == nil || len(p.allowedDomains) == 0 {
		return nil
	}
	at := strings.LastIndex(parsed.Address, "@")
	domain := strings.ToLower(parsed.Address[at+1:])
	if _, ok := p.allowedDomains[domain]; !ok {
		return ToolError{Kind: KindRecipientRejected, Message: fmt.Sprintf("recipient domain %q is not on the allowlist", domain)}
	}
	return nil
}
