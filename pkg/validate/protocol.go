package validate

import (
	"slices"

	"github.com/ormasoftchile/mcpstd/pkg/document"
	"github.com/ormasoftchile/mcpstd/pkg/result"
)

var (
	authTypes          = []string{"none", "oauth2", "token"}
	oauth2Fields       = []string{"client_id", "client_secret", "auth_url", "token_url"}
	ipcRequiredFields  = []string{"transport_type", "jsonrpc_message", "timeout", "retry_policy"}
	communicationTypes = []string{"event", "message", "stream", "shared_memory"}
)

func checkCapabilities(col *result.Collector, file, name string, c *document.Capabilities) bool {
	if c == nil {
		return true
	}
	valid := true
	fields := []struct {
		key string
		v   document.Value
	}{
		{"resources", c.Resources},
		{"tools", c.Tools},
		{"prompts", c.Prompts},
	}
	for _, f := range fields {
		if !f.v.Present() {
			col.AddCritical(file, "capabilities are missing required field %s in %s", f.key, name)
			valid = false
			continue
		}
		if _, ok := f.v.Bool(); !ok {
			col.AddCritical(file, "capability %s must be a boolean in %s: %s", f.key, name, f.v.Display())
			valid = false
		}
	}
	return valid
}

func checkAuthentication(col *result.Collector, file, name string, a *document.Authentication) bool {
	if a == nil {
		return true
	}
	typ := a.Type.Text()
	if !a.Type.IsString() || !slices.Contains(authTypes, typ) {
		col.AddCritical(file, "unsupported authentication type in %s: %s", name, a.Type.Display())
		return false
	}
	if typ != "oauth2" {
		return true
	}
	valid := true
	for _, f := range oauth2Fields {
		if !a.Config.Has(f) {
			col.AddCritical(file, "OAuth2 config is missing required field %s in %s", f, name)
			valid = false
		}
	}
	return valid
}

// checkIPC validates the IPC declarations of a context or process schema.
func checkIPC(col *result.Collector, file, name string, doc *document.SchemaDocument) bool {
	valid := true

	declared := make(map[string]bool)
	for _, item := range doc.RequiredFields.Items() {
		switch {
		case item.IsString():
			declared[item.Text()] = true
		case item.IsMapping():
			declared[item.Get("name").Text()] = true
		}
	}
	for _, f := range ipcRequiredFields {
		if !declared[f] {
			col.AddCritical(file, "IPC schema is missing required field %s in %s", f, name)
			valid = false
		}
	}

	if ct := doc.CommunicationType; ct != nil && ct.Enum.Present() {
		for _, it := range ct.Enum.Items() {
			if !it.IsString() || !slices.Contains(communicationTypes, it.Text()) {
				col.AddCritical(file, "invalid communication type in %s: %s", name, it.Display())
				valid = false
			}
		}
	}
	return valid
}
