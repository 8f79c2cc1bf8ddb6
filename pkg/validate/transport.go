package validate

import (
	"math"
	"slices"
	"sort"

	"github.com/ormasoftchile/mcpstd/pkg/document"
	"github.com/ormasoftchile/mcpstd/pkg/result"
)

var (
	transportTypes   = []string{"stdio", "http_sse", "remote"}
	discoveryMethods = []string{"dns", "http", "manual"}
)

const maxTransportTimeout = 30.0

// checkTransport validates mcp_protocol.transport. Findings go to col under
// file; name is the base name used in messages.
func checkTransport(col *result.Collector, file, name string, t *document.Transport) bool {
	if t == nil {
		return true
	}
	valid := true

	if t.Type.Present() {
		typ := t.Type.Text()
		if !t.Type.IsString() || !slices.Contains(transportTypes, typ) {
			col.AddCritical(file, "invalid transport type in %s: %s", name, t.Type.Display())
			valid = false
		}
		if typ == "remote" && !checkRemote(col, file, name, t) {
			valid = false
		}
	}

	if t.Timeout.Present() {
		timeout, ok := t.Timeout.Float()
		switch {
		case !ok:
			col.AddCritical(file, "invalid timeout value in %s: %s", name, t.Timeout.Display())
			valid = false
		case math.IsNaN(timeout) || timeout <= 0 || timeout > maxTransportTimeout:
			col.AddCritical(file, "timeout out of range in %s: %ss (must be in (0, 30])", name, t.Timeout.Display())
			valid = false
		}
	}
	return valid
}

func checkRemote(col *result.Collector, file, name string, t *document.Transport) bool {
	valid := true

	if d := t.Discovery; d == nil {
		col.AddCritical(file, "remote transport is missing discovery settings in %s", name)
		valid = false
	} else if !checkDiscovery(col, file, name, d) {
		valid = false
	}

	if s := t.Security; s == nil {
		col.AddCritical(file, "remote transport is missing security settings in %s", name)
		valid = false
	} else {
		if s.TLSRequired.ExplicitlyFalse() {
			col.AddCritical(file, "security risk: TLS disabled in %s", name)
			valid = false
		}
		if s.CertificateValidation.ExplicitlyFalse() {
			col.AddCritical(file, "security risk: certificate validation disabled in %s", name)
			valid = false
		}
	}
	return valid
}

func checkDiscovery(col *result.Collector, file, name string, d *document.Discovery) bool {
	valid := true
	required := []struct {
		key string
		v   document.Value
	}{
		{"methods", d.Methods},
		{"timeout", d.Timeout},
		{"retry_policy", d.RetryPolicy},
	}
	for _, f := range required {
		if !f.v.Present() {
			col.AddCritical(file, "discovery settings are missing required field %s in %s", f.key, name)
			valid = false
		}
	}
	if !d.Methods.Present() {
		return valid
	}

	methods := d.Methods.Strings()
	if !d.Methods.IsSequence() {
		methods = []string{d.Methods.Text()}
	}
	methods = uniqueSorted(methods)

	known := false
	for _, m := range methods {
		if slices.Contains(discoveryMethods, m) {
			known = true
			break
		}
	}
	if !known {
		col.AddCritical(file, "invalid discovery methods in %s: %s", name, d.Methods.Display())
		valid = false
	}

	for _, m := range methods {
		switch m {
		case "dns":
			dns := d.DNS
			if dns == nil {
				dns = &document.DNSDiscovery{}
			}
			if dns.SecureLookup.ExplicitlyFalse() {
				col.AddCritical(file, "security risk: insecure DNS lookup in %s", name)
				valid = false
			}
			if dns.DNSSECValidation.ExplicitlyFalse() {
				col.AddCritical(file, "security risk: DNSSEC validation disabled in %s", name)
				valid = false
			}
		case "http":
			h := d.HTTP
			if h == nil {
				h = &document.HTTPDiscovery{}
			}
			if h.UseHTTPS.ExplicitlyFalse() {
				col.AddCritical(file, "security risk: HTTPS disabled in %s", name)
				valid = false
			}
			if h.VerifySSL.ExplicitlyFalse() {
				col.AddCritical(file, "security risk: SSL verification disabled in %s", name)
				valid = false
			}
			if !h.CertificatePinning.Truthy() {
				col.AddWarningf(file, "security warning: certificate pinning not configured in %s", name)
			}
		}
	}
	return valid
}

func uniqueSorted(in []string) []string {
	out := slices.Clone(in)
	sort.Strings(out)
	return slices.Compact(out)
}
