package validate

import (
	"path/filepath"
	"slices"

	"github.com/ormasoftchile/mcpstd/pkg/document"
	"github.com/ormasoftchile/mcpstd/pkg/standard"
)

// SchemaValidator checks documents under schemas/.
type SchemaValidator struct {
	base
	schemasDir string
}

// NewSchemaValidator returns a validator for the schemas of root. Nil std
// and loader fall back to defaults.
func NewSchemaValidator(root string, std *standard.Standard, loader *document.Loader) *SchemaValidator {
	return &SchemaValidator{
		base:       newBase("schema", root, std, loader),
		schemasDir: filepath.Join(root, standard.DirSchemas),
	}
}

// ValidateFile loads path and runs every schema check. Load failures are
// recorded and skip the remaining checks for this file only. The loaded
// document is returned when loading succeeded.
func (v *SchemaValidator) ValidateFile(path string) (*document.SchemaDocument, bool) {
	doc, err := v.loader.LoadSchema(path)
	if err != nil {
		v.record(path, err)
		return nil, false
	}
	return doc, v.Validate(doc)
}

// Validate runs every schema check on a loaded document.
func (v *SchemaValidator) Validate(doc *document.SchemaDocument) bool {
	valid := true
	for _, ok := range []bool{
		v.ValidateVersion(doc),
		v.ValidateRequiredFields(doc, "version", "type"),
		v.ValidateErrorCodes(doc),
		v.ValidateSchemaReferences(doc),
	} {
		valid = valid && ok
	}

	switch doc.Type.Text() {
	case document.TypeContextSchema, document.TypeProcessSchema:
		file, name := v.rel(doc.Path()), filepath.Base(doc.Path())
		var transport *document.Transport
		if doc.MCPProtocol != nil {
			transport = doc.MCPProtocol.Transport
		}
		if !checkTransport(v.col, file, name, transport) {
			valid = false
		}
		if !checkCapabilities(v.col, file, name, doc.Capabilities) {
			valid = false
		}
		if !checkAuthentication(v.col, file, name, doc.Authentication) {
			valid = false
		}
		if !checkIPC(v.col, file, name, doc) {
			valid = false
		}
	}
	return valid
}

// ValidateErrorCodes checks error_codes against the standard and server bands
// and, when declared, the code field of message_format.error.
func (v *SchemaValidator) ValidateErrorCodes(doc *document.SchemaDocument) bool {
	file, name := v.rel(doc.Path()), filepath.Base(doc.Path())
	valid := true

	for _, ec := range doc.ErrorCodes {
		if !ec.Code.Present() {
			continue
		}
		code, ok := ec.Code.Int()
		switch {
		case !ok:
			v.col.AddCritical(file, "invalid error code in %s: %s (must be an integer)", name, ec.Code.Display())
			valid = false
		case v.std.StandardBand.Contains(code):
			if !v.std.IsStandardCode(code) {
				v.col.AddCritical(file, "invalid standard error code in %s: %d", name, code)
				valid = false
			}
		case !v.std.ServerBand.Contains(code):
			v.col.AddCritical(file, "error code out of range in %s: %d (server codes must be in [%d, %d])",
				name, code, v.std.ServerBand.Min, v.std.ServerBand.Max)
			valid = false
		}
	}

	if doc.MessageFormat == nil || doc.MessageFormat.Error == nil {
		return valid
	}
	for _, field := range doc.MessageFormat.Error.RequiredFields {
		if field.Name != "code" {
			continue
		}
		if !slices.Equal(v.declaredStandardCodes(field), v.std.StandardErrorCodes) {
			v.col.AddCritical(file, "invalid standard error code definition in %s", name)
			valid = false
		}
		if !v.declaresServerBand(field) {
			v.col.AddCritical(file, "invalid server error code range definition in %s", name)
			valid = false
		}
	}
	return valid
}

// declaredStandardCodes returns the first enum alternative of a code field.
func (v *SchemaValidator) declaredStandardCodes(field document.FieldDecl) []int {
	for _, alt := range field.OneOf {
		if !alt.Enum.Present() {
			continue
		}
		var codes []int
		for _, it := range alt.Enum.Items() {
			n, ok := it.Int()
			if !ok {
				return nil
			}
			codes = append(codes, n)
		}
		return codes
	}
	return nil
}

// declaresServerBand reports whether the first range alternative of a code
// field equals the server band.
func (v *SchemaValidator) declaresServerBand(field document.FieldDecl) bool {
	for _, alt := range field.OneOf {
		if !alt.Minimum.Present() || !alt.Maximum.Present() {
			continue
		}
		lo, ok1 := alt.Minimum.Int()
		hi, ok2 := alt.Maximum.Int()
		return ok1 && ok2 && lo == v.std.ServerBand.Min && hi == v.std.ServerBand.Max
	}
	return false
}

// ValidateSchemaReferences checks that every entry of references names an
// existing schemas/<ref>.yaml.
func (v *SchemaValidator) ValidateSchemaReferences(doc *document.SchemaDocument) bool {
	file, name := v.rel(doc.Path()), filepath.Base(doc.Path())
	valid := true
	for _, ref := range doc.References {
		if !exists(filepath.Join(v.schemasDir, ref+".yaml")) {
			v.col.AddCritical(file, "invalid schema reference in %s: %s", name, ref)
			valid = false
		}
	}
	return valid
}
