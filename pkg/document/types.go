// Package document defines the typed schema and context documents and the
// phased loader (encoding, syntax, shape, decode) that produces them.
package document

// Kind distinguishes the two document families.
type Kind string

const (
	KindSchema  Kind = "schema"
	KindContext Kind = "context"
)

// Schema types that carry transport, capability, authentication and IPC
// sub-schemas.
const (
	TypeContextSchema = "context_schema"
	TypeProcessSchema = "process_schema"
)

// Header is shared by every document.
type Header struct {
	Version Value `yaml:"version" json:"version,omitempty"`
	Type    Value `yaml:"type" json:"type,omitempty"`
}

// Document is implemented by *SchemaDocument and *ContextDocument.
type Document interface {
	Kind() Kind
	Head() *Header
	// Fields returns the top-level mapping as decoded from YAML.
	Fields() map[string]any
	Has(key string) bool
	Path() string
}

// meta carries what the loader knows about the file a document came from.
type meta struct {
	path   string
	fields map[string]any
}

func (m *meta) Fields() map[string]any { return m.fields }
func (m *meta) Path() string            { return m.path }

// Has reports whether the top-level mapping contains key, null or not.
func (m *meta) Has(key string) bool {
	_, ok := m.fields[key]
	return ok
}

// SchemaDocument is a file under schemas/.
type SchemaDocument struct {
	Header            `yaml:",inline"`
	References        []string        `yaml:"references,omitempty" json:"references,omitempty"`
	ErrorCodes        []ErrorCode     `yaml:"error_codes,omitempty" json:"error_codes,omitempty"`
	MessageFormat     *MessageFormat  `yaml:"message_format,omitempty" json:"message_format,omitempty"`
	MCPProtocol       *MCPProtocol    `yaml:"mcp_protocol,omitempty" json:"mcp_protocol,omitempty"`
	Capabilities      *Capabilities   `yaml:"capabilities,omitempty" json:"capabilities,omitempty"`
	Authentication    *Authentication `yaml:"authentication,omitempty" json:"authentication,omitempty"`
	RequiredFields    Value           `yaml:"required_fields" json:"required_fields,omitempty"`
	CommunicationType *EnumDecl       `yaml:"communication_type,omitempty" json:"communication_type,omitempty"`

	meta `yaml:"-" json:"-"`
}

func (d *SchemaDocument) Kind() Kind    { return KindSchema }
func (d *SchemaDocument) Head() *Header { return &d.Header }

// ContextDocument is a file under contexts/.
type ContextDocument struct {
	Header            `yaml:",inline"`
	RequiredFields    Value          `yaml:"required_fields" json:"required_fields,omitempty"`
	Metrics           []Metric       `yaml:"metrics,omitempty" json:"metrics,omitempty"`
	ErrorSeverity     []SeverityRule `yaml:"error_severity,omitempty" json:"error_severity,omitempty"`
	ContextReferences []string       `yaml:"context_references,omitempty" json:"context_references,omitempty"`
	Dependencies      *Dependencies  `yaml:"dependencies,omitempty" json:"dependencies,omitempty"`
	Features          Value          `yaml:"features" json:"features,omitempty"`
	MCPProtocol       *MCPProtocol   `yaml:"mcp_protocol,omitempty" json:"mcp_protocol,omitempty"`
	Sampling          *Sampling      `yaml:"sampling,omitempty" json:"sampling,omitempty"`

	meta `yaml:"-" json:"-"`
}

func (d *ContextDocument) Kind() Kind    { return KindContext }
func (d *ContextDocument) Head() *Header { return &d.Header }

// ErrorCode is one entry of error_codes.
type ErrorCode struct {
	Code    Value  `yaml:"code" json:"code,omitempty"`
	Message string `yaml:"message,omitempty" json:"message,omitempty"`
}

// MessageFormat declares the wire shape of protocol messages.
type MessageFormat struct {
	Error *ErrorFormat `yaml:"error,omitempty" json:"error,omitempty"`
}

// ErrorFormat is message_format.error.
type ErrorFormat struct {
	RequiredFields []FieldDecl `yaml:"required_fields,omitempty" json:"required_fields,omitempty"`
}

// FieldDecl declares one field of a message.
type FieldDecl struct {
	Name  string           `yaml:"name" json:"name,omitempty"`
	Type  string           `yaml:"type,omitempty" json:"type,omitempty"`
	OneOf []CodeConstraint `yaml:"oneOf,omitempty" json:"oneOf,omitempty"`
}

// CodeConstraint is one alternative of a code field: either an enum or a
// minimum/maximum range.
type CodeConstraint struct {
	Enum    Value `yaml:"enum" json:"enum,omitempty"`
	Minimum Value `yaml:"minimum" json:"minimum,omitempty"`
	Maximum Value `yaml:"maximum" json:"maximum,omitempty"`
}

// MCPProtocol groups protocol-level settings.
type MCPProtocol struct {
	Transport *Transport `yaml:"transport,omitempty" json:"transport,omitempty"`
}

// Transport is mcp_protocol.transport.
type Transport struct {
	Type      Value      `yaml:"type" json:"type,omitempty"`
	Timeout   Value      `yaml:"timeout" json:"timeout,omitempty"`
	Discovery *Discovery `yaml:"discovery,omitempty" json:"discovery,omitempty"`
	Security  *Security  `yaml:"security,omitempty" json:"security,omitempty"`
}

// Discovery configures service discovery for remote transports.
type Discovery struct {
	Methods     Value          `yaml:"methods" json:"methods,omitempty"`
	Timeout     Value          `yaml:"timeout" json:"timeout,omitempty"`
	RetryPolicy Value          `yaml:"retry_policy" json:"retry_policy,omitempty"`
	DNS         *DNSDiscovery  `yaml:"dns,omitempty" json:"dns,omitempty"`
	HTTP        *HTTPDiscovery `yaml:"http,omitempty" json:"http,omitempty"`
}

type DNSDiscovery struct {
	SecureLookup     Value `yaml:"secure_lookup" json:"secure_lookup,omitempty"`
	DNSSECValidation Value `yaml:"dnssec_validation" json:"dnssec_validation,omitempty"`
}

type HTTPDiscovery struct {
	UseHTTPS           Value `yaml:"use_https" json:"use_https,omitempty"`
	VerifySSL          Value `yaml:"verify_ssl" json:"verify_ssl,omitempty"`
	CertificatePinning Value `yaml:"certificate_pinning" json:"certificate_pinning,omitempty"`
}

// Security switches of a remote transport. Absent switches count as enabled.
type Security struct {
	TLSRequired           Value `yaml:"tls_required" json:"tls_required,omitempty"`
	CertificateValidation Value `yaml:"certificate_validation" json:"certificate_validation,omitempty"`
}

// Capabilities advertised by a server.
type Capabilities struct {
	Resources Value `yaml:"resources" json:"resources,omitempty"`
	Tools     Value `yaml:"tools" json:"tools,omitempty"`
	Prompts   Value `yaml:"prompts" json:"prompts,omitempty"`
}

// Authentication selects the auth scheme and its settings.
type Authentication struct {
	Type   Value `yaml:"type" json:"type,omitempty"`
	Config Value `yaml:"config" json:"config,omitempty"`
}

// EnumDecl is a field restricted to an enum.
type EnumDecl struct {
	Enum Value `yaml:"enum" json:"enum,omitempty"`
}

// Metric is one entry of metrics.
type Metric struct {
	Name      Value `yaml:"name" json:"name,omitempty"`
	Type      Value `yaml:"type" json:"type,omitempty"`
	Unit      Value `yaml:"unit" json:"unit,omitempty"`
	Threshold Value `yaml:"threshold" json:"threshold,omitempty"`
}

// DisplayName is the metric name or "unknown".
func (m Metric) DisplayName() string {
	if m.Name.Present() {
		return m.Name.Display()
	}
	return "unknown"
}

// SeverityRule is one entry of error_severity.
type SeverityRule struct {
	Level        Value `yaml:"level" json:"level,omitempty"`
	ResponseTime Value `yaml:"response_time" json:"response_time,omitempty"`
}

// Dependencies between contexts, keyed by context name.
type Dependencies struct {
	RequiredVersions map[string]string   `yaml:"required_versions,omitempty" json:"required_versions,omitempty"`
	RequiredFeatures map[string][]string `yaml:"required_features,omitempty" json:"required_features,omitempty"`
}

// Sampling configures how values are produced when primary sampling is
// unavailable.
type Sampling struct {
	Enabled   Value      `yaml:"enabled" json:"enabled,omitempty"`
	Mode      Value      `yaml:"mode" json:"mode,omitempty"`
	LLMConfig *LLMConfig `yaml:"llm_config,omitempty" json:"llm_config,omitempty"`
	Fallback  *Fallback  `yaml:"fallback,omitempty" json:"fallback,omitempty"`
}

type LLMConfig struct {
	Model       Value `yaml:"model" json:"model,omitempty"`
	Temperature Value `yaml:"temperature" json:"temperature,omitempty"`
	MaxTokens   Value `yaml:"max_tokens" json:"max_tokens,omitempty"`
}

type Fallback struct {
	Type           Value       `yaml:"type" json:"type,omitempty"`
	ToolConfig     *ToolConfig `yaml:"tool_config,omitempty" json:"tool_config,omitempty"`
	PromptTemplate Value       `yaml:"prompt_template" json:"prompt_template,omitempty"`
}

type ToolConfig struct {
	Name       Value `yaml:"name" json:"name,omitempty"`
	Parameters Value `yaml:"parameters" json:"parameters,omitempty"`
}
