package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/transform"
	"gopkg.in/yaml.v3"
)

// Phase names a loading phase. A failure in any phase stops loading.
type Phase string

const (
	PhaseRead     Phase = "read"
	PhaseEncoding Phase = "encoding"
	PhaseSyntax   Phase = "syntax"
	PhaseShape    Phase = "shape"
	PhaseDecode   Phase = "decode"
)

// Violation is one shape-check failure at an instance path.
type Violation struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// LoadError reports why a file could not be turned into a document.
type LoadError struct {
	Phase      Phase
	Path       string
	Err        error
	Violations []Violation
}

func (e *LoadError) Error() string {
	if len(e.Violations) > 0 {
		return fmt.Sprintf("%s error in %s: %s", e.Phase, filepath.Base(e.Path), e.Violations[0].Message)
	}
	return fmt.Sprintf("%s error in %s: %v", e.Phase, filepath.Base(e.Path), e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Messages renders one finding message per problem.
func (e *LoadError) Messages() []string {
	name := filepath.Base(e.Path)
	switch {
	case len(e.Violations) > 0:
		out := make([]string, 0, len(e.Violations))
		for _, v := range e.Violations {
			out = append(out, fmt.Sprintf("shape error in %s at %s: %s", name, v.Path, v.Message))
		}
		return out
	case e.Phase == PhaseEncoding:
		return []string{fmt.Sprintf("encoding error in %s: %v", name, e.Err)}
	case e.Phase == PhaseSyntax:
		return []string{fmt.Sprintf("YAML syntax error in %s: %v", name, e.Err)}
	case e.Phase == PhaseDecode:
		return []string{fmt.Sprintf("malformed document %s: %v", name, e.Err)}
	}
	return []string{fmt.Sprintf("failed to read %s: %v", name, e.Err)}
}

var (
	errNotUTF8     = errors.New("file must be UTF-8 or UTF-8 with BOM")
	errEmpty       = errors.New("document is empty")
	errNotMapping  = errors.New("top level must be a mapping")
	utf8BOM        = []byte{0xEF, 0xBB, 0xBF}
	messagePrinter = message.NewPrinter(language.English)
)

// Loader turns files into typed documents. It caches compiled shape schemas
// and is safe for concurrent use.
type Loader struct {
	// Normalize rewrites UTF-8 files that start with a BOM as plain UTF-8.
	Normalize bool

	log    *zap.Logger
	mu     sync.Mutex
	shapes map[Kind]*sjsonschema.Schema
}

// NewLoader returns a Loader. A nil logger discards output.
func NewLoader(normalize bool, log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{Normalize: normalize, log: log, shapes: make(map[Kind]*sjsonschema.Schema)}
}

// LoadSchema loads a schema document.
func (l *Loader) LoadSchema(path string) (*SchemaDocument, error) {
	var doc SchemaDocument
	if err := l.load(path, KindSchema, &doc, &doc.meta); err != nil {
		return nil, err
	}
	return &doc, nil
}

// LoadContext loads a context document.
func (l *Loader) LoadContext(path string) (*ContextDocument, error) {
	var doc ContextDocument
	if err := l.load(path, KindContext, &doc, &doc.meta); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Load loads a document of the given kind.
func (l *Loader) Load(path string, kind Kind) (Document, error) {
	switch kind {
	case KindSchema:
		return l.LoadSchema(path)
	case KindContext:
		return l.LoadContext(path)
	}
	return nil, fmt.Errorf("unknown document kind %q", kind)
}

func (l *Loader) load(path string, kind Kind, out any, m *meta) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return &LoadError{Phase: PhaseRead, Path: path, Err: err}
	}

	// Phase 1: encoding
	text, hadBOM, err := decodeText(raw)
	if err != nil {
		return &LoadError{Phase: PhaseEncoding, Path: path, Err: err}
	}
	if hadBOM && l.Normalize {
		if err := rewrite(path, text); err != nil {
			return &LoadError{Phase: PhaseEncoding, Path: path, Err: fmt.Errorf("normalize BOM: %w", err)}
		}
		l.log.Info("normalized UTF-8 BOM", zap.String("file", path))
	}

	// Phase 2: syntax
	var root yaml.Node
	if err := yaml.Unmarshal(text, &root); err != nil {
		return &LoadError{Phase: PhaseSyntax, Path: path, Err: err}
	}
	if root.Kind == 0 || len(root.Content) == 0 || isNull(root.Content[0]) {
		return &LoadError{Phase: PhaseSyntax, Path: path, Err: errEmpty}
	}
	if root.Content[0].Kind != yaml.MappingNode {
		return &LoadError{Phase: PhaseSyntax, Path: path, Err: errNotMapping}
	}
	var generic map[string]any
	if err := root.Decode(&generic); err != nil {
		return &LoadError{Phase: PhaseSyntax, Path: path, Err: err}
	}
	fields, _ := normalize(generic).(map[string]any)

	// Phase 3: shape
	if violations, err := l.checkShape(kind, fields); err != nil {
		return &LoadError{Phase: PhaseShape, Path: path, Err: err}
	} else if len(violations) > 0 {
		return &LoadError{Phase: PhaseShape, Path: path, Violations: violations}
	}

	// Phase 4: typed decode
	if err := root.Decode(out); err != nil {
		return &LoadError{Phase: PhaseDecode, Path: path, Err: err}
	}
	m.path = path
	m.fields = fields
	return nil
}

// decodeText validates UTF-8 and strips a leading BOM.
func decodeText(raw []byte) ([]byte, bool, error) {
	if !utf8.Valid(raw) {
		return nil, false, errNotUTF8
	}
	if !bytes.HasPrefix(raw, utf8BOM) {
		return raw, false, nil
	}
	text, _, err := transform.Bytes(unicode.UTF8BOM.NewDecoder(), raw)
	if err != nil {
		return nil, true, err
	}
	return text, true, nil
}

func rewrite(path string, data []byte) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".mcpstd-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), info.Mode().Perm()); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null"
}

// normalize converts decoded YAML into values encoding/json accepts.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	case time.Time:
		return t.Format(time.RFC3339)
	case []byte:
		return string(t)
	case float64:
		// JSON has no infinity or NaN; the domain checks see the raw node.
		if math.IsInf(t, 0) || math.IsNaN(t) {
			return nil
		}
	}
	return v
}

func (l *Loader) shape(kind Kind) (*sjsonschema.Schema, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if s, ok := l.shapes[kind]; ok {
		return s, nil
	}

	raw, err := GenerateJSONSchema(kind)
	if err != nil {
		return nil, err
	}
	doc, err := sjsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("unmarshal %s schema: %w", kind, err)
	}
	url := string(kind) + "-document.json"
	c := sjsonschema.NewCompiler()
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("add %s schema resource: %w", kind, err)
	}
	s, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile %s schema: %w", kind, err)
	}
	l.shapes[kind] = s
	return s, nil
}

func (l *Loader) checkShape(kind Kind, fields map[string]any) ([]Violation, error) {
	sch, err := l.shape(kind)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(fields)
	if err != nil {
		return []Violation{{Path: "/", Message: fmt.Sprintf("value not representable as JSON: %v", err)}}, nil
	}
	inst, err := sjsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}

	err = sch.Validate(inst)
	if err == nil {
		return nil, nil
	}
	var ve *sjsonschema.ValidationError
	if !errors.As(err, &ve) {
		return []Violation{{Path: "/", Message: err.Error()}}, nil
	}
	var out []Violation
	for _, cause := range flattenValidationErrors(ve) {
		out = append(out, Violation{
			Path:    "/" + strings.Join(cause.InstanceLocation, "/"),
			Message: cause.ErrorKind.LocalizedString(messagePrinter),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Message < out[j].Message
	})
	return out, nil
}

// flattenValidationErrors recursively collects all leaf validation errors.
func flattenValidationErrors(ve *sjsonschema.ValidationError) []*sjsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*sjsonschema.ValidationError{ve}
	}
	var flat []*sjsonschema.ValidationError
	for _, cause := range ve.Causes {
		flat = append(flat, flattenValidationErrors(cause)...)
	}
	return flat
}
