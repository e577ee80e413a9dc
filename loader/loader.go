// Package loader parses a single YAML workflow document into the loader
// output the core requires (spec §6): an ordered action map, a context
// tree, and the as-loaded argument document per action. Grounded on
// original_source/src/grana/loader/{base,default}.py, trimmed to the
// subset the distilled specification keeps in scope: no !import
// recursion, no dynamically-loaded external action classes, no package
// requirement checks.
package loader

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"gopkg.in/yaml.v3"

	"github.com/pithecene-io/grana/actions"
	"github.com/pithecene-io/grana/errs"
	"github.com/pithecene-io/grana/types"
	"github.com/pithecene-io/grana/workflow"
)

// allowedRootKeys mirrors DefaultYAMLWorkflowLoader.ALLOWED_ROOT_TAGS,
// minus "miscellaneous" and "configuration", which belong to the CLI's
// own config loading (cli/config), not the workflow document itself.
var allowedRootKeys = map[string]struct{}{"actions": {}, "context": {}}

// objectTemplateTag is the YAML tag the original's
// `YAMLLoader.add_string_constructor("!@", ObjectTemplate)` registers: a
// scalar tagged `!@ <expr>` decodes to types.ObjectTemplate instead of a
// plain string.
const objectTemplateTag = "!@"

// staticActionFactories names the bundled action types the loader can
// dispatch by itself, mirroring STATIC_ACTION_FACTORIES minus
// docker-shell, which has no Go port in this tree.
var staticActionFactories = map[string]struct{}{"echo": {}, "shell": {}}

// Document is everything the orchestrator needs to drive a workflow:
// the action set in declaration order, the context tree, and each
// action's as-loaded (pre-render) argument document.
type Document struct {
	Order   []string
	Actions map[string]actions.Action
	Context map[string]interface{}
	Args    map[string]map[string]interface{}
}

// Graph builds the dependency graph over the loaded action set.
func (d *Document) Graph() (*workflow.Graph, error) {
	return workflow.NewGraph(d.Order, d.Actions)
}

// LoadSource reads a workflow document from a local file path or an
// "s3://bucket/key" source (grounded on quarry/lode/client_s3.go's
// AWS SDK v2 wiring) and parses it with Load.
func LoadSource(ctx context.Context, source string) (*Document, error) {
	data, err := readSource(ctx, source)
	if err != nil {
		return nil, errs.Wrap(errs.KindLoad, "reading workflow source "+source, err)
	}
	return Load(data)
}

func readSource(ctx context.Context, source string) ([]byte, error) {
	bucket, key, ok := parseS3Source(source)
	if !ok {
		return os.ReadFile(source)
	}

	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg)
	out, err := client.GetObject(ctx, &s3.GetObjectInput{Bucket: &bucket, Key: &key})
	if err != nil {
		return nil, fmt.Errorf("fetching s3://%s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

// parseS3Source splits an "s3://bucket/key" source into its bucket and
// key components.
func parseS3Source(source string) (bucket, key string, ok bool) {
	const prefix = "s3://"
	if !strings.HasPrefix(source, prefix) {
		return "", "", false
	}
	rest := strings.TrimPrefix(source, prefix)
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// Load parses data as a single workflow document. Decoding goes through
// yaml.Node rather than a direct yaml.Unmarshal into map[string]interface{}
// so that a scalar tagged `!@` (the object-template marker) can be turned
// into a types.ObjectTemplate instead of a plain string — gopkg.in/yaml.v3
// has no equivalent of PyYAML's add_string_constructor, so the tag has to
// be intercepted during the node walk itself.
func Load(data []byte) (*Document, error) {
	var docNode yaml.Node
	if err := yaml.Unmarshal(data, &docNode); err != nil {
		return nil, errs.Wrap(errs.KindLoad, "malformed workflow document", err)
	}
	root := map[string]interface{}{}
	if docNode.Kind != 0 {
		decoded, err := decodeNode(&docNode)
		if err != nil {
			return nil, errs.Wrap(errs.KindLoad, "malformed workflow document", err)
		}
		if decoded != nil {
			m, ok := decoded.(map[string]interface{})
			if !ok {
				return nil, errs.New(errs.KindLoad, "workflow document root must be a mapping")
			}
			root = m
		}
	}
	if len(root) == 0 {
		return nil, errs.New(errs.KindLoad, "empty root dictionary")
	}
	var unrecognized []string
	for key := range root {
		if _, ok := allowedRootKeys[key]; !ok {
			unrecognized = append(unrecognized, key)
		}
	}
	if len(unrecognized) > 0 {
		sort.Strings(unrecognized)
		return nil, errs.New(errs.KindLoad, fmt.Sprintf("unrecognized root keys: %v", unrecognized))
	}

	doc := &Document{
		Actions: map[string]actions.Action{},
		Args:    map[string]map[string]interface{}{},
		Context: map[string]interface{}{},
	}

	if rawActions, ok := root["actions"]; ok {
		if err := loadActions(rawActions, doc); err != nil {
			return nil, err
		}
	}
	if rawContext, ok := root["context"]; ok {
		ctxMap, ok := asStringMap(rawContext)
		if !ok {
			return nil, errs.New(errs.KindLoad, "'context' must be a mapping")
		}
		doc.Context = ctxMap
	}
	return doc, nil
}

func loadActions(raw interface{}, doc *Document) error {
	list, ok := raw.([]interface{})
	if !ok {
		return errs.New(errs.KindLoad, "'actions' contents should be a list")
	}
	typeCounters := map[string]int{}
	for i, item := range list {
		node, ok := asStringMap(item)
		if !ok {
			return errs.New(errs.KindLoad, fmt.Sprintf("action #%d is not a mapping", i+1))
		}
		a, name, rawArgs, err := buildAction(node, typeCounters)
		if err != nil {
			return err
		}
		if _, dup := doc.Actions[name]; dup {
			return errs.New(errs.KindLoad, "action declared twice: "+name)
		}
		doc.Order = append(doc.Order, name)
		doc.Actions[name] = a
		doc.Args[name] = rawArgs
	}
	return nil
}

// buildAction processes one action node, popping the envelope fields
// (type, name, description, expects, selectable, severity) reserved by
// types.ReservedArgFieldNames, then handing whatever remains to the
// matching action factory as the as-loaded argument document.
func buildAction(node map[string]interface{}, typeCounters map[string]int) (actions.Action, string, map[string]interface{}, error) {
	rawType, ok := node["type"]
	if !ok {
		return nil, "", nil, errs.New(errs.KindLoad, "'type' not specified for action")
	}
	actionType, ok := rawType.(string)
	if !ok {
		return nil, "", nil, errs.New(errs.KindLoad, "action 'type' must be a string")
	}
	if _, known := staticActionFactories[actionType]; !known {
		return nil, "", nil, errs.New(errs.KindLoad, "unknown action type: "+actionType)
	}
	delete(node, "type")

	name, err := popName(node, actionType, typeCounters)
	if err != nil {
		return nil, "", nil, err
	}

	description, err := popOptionalString(node, "description")
	if err != nil {
		return nil, "", nil, err
	}

	ancestors, err := popDependencies(node)
	if err != nil {
		return nil, "", nil, err
	}

	selectable, err := popOptionalBool(node, "selectable", true)
	if err != nil {
		return nil, "", nil, err
	}

	severity, err := popSeverity(node)
	if err != nil {
		return nil, "", nil, err
	}

	var a actions.Action
	switch actionType {
	case "echo":
		a = actions.NewEchoAction(name, actions.EchoArgs{}, ancestors, description, selectable, severity)
	case "shell":
		injectPrelude, err := popOptionalBool(node, "inject_prelude", false)
		if err != nil {
			return nil, "", nil, err
		}
		a = actions.NewPendingShellAction(name, injectPrelude, ancestors, description, selectable, severity)
	}
	return a, name, node, nil
}

func popName(node map[string]interface{}, actionType string, typeCounters map[string]int) (string, error) {
	defer func() { typeCounters[actionType]++ }()
	raw, ok := node["name"]
	if !ok {
		return fmt.Sprintf("%s-%d", actionType, typeCounters[actionType]), nil
	}
	name, ok := raw.(string)
	if !ok {
		return "", errs.New(errs.KindLoad, "action 'name' must be a string")
	}
	if name == "" {
		return "", errs.New(errs.KindLoad, "action 'name' is empty")
	}
	delete(node, "name")
	return name, nil
}

func popOptionalString(node map[string]interface{}, key string) (string, error) {
	raw, ok := node[key]
	if !ok {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", errs.New(errs.KindLoad, fmt.Sprintf("%q must be a string", key))
	}
	delete(node, key)
	return s, nil
}

func popOptionalBool(node map[string]interface{}, key string, def bool) (bool, error) {
	raw, ok := node[key]
	if !ok {
		return def, nil
	}
	b, ok := raw.(bool)
	if !ok {
		return false, errs.New(errs.KindLoad, fmt.Sprintf("%q must be a boolean", key))
	}
	delete(node, key)
	return b, nil
}

func popSeverity(node map[string]interface{}) (types.ActionSeverity, error) {
	raw, ok := node["severity"]
	if !ok {
		return types.SeverityNormal, nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", errs.New(errs.KindLoad, "'severity' must be a string")
	}
	delete(node, "severity")
	switch types.ActionSeverity(s) {
	case types.SeverityNormal, types.SeverityLow:
		return types.ActionSeverity(s), nil
	default:
		return "", errs.New(errs.KindLoad, "invalid severity: "+s)
	}
}

// popDependencies reads 'expects', accepting a bare string, a list of
// strings, or a list of {name, strict, external} mappings.
func popDependencies(node map[string]interface{}) (map[string]types.Dependency, error) {
	raw, ok := node["expects"]
	if !ok {
		return nil, nil
	}
	delete(node, "expects")

	var items []interface{}
	switch v := raw.(type) {
	case string:
		items = []interface{}{v}
	case []interface{}:
		items = v
	default:
		return nil, errs.New(errs.KindLoad, "'expects' must be a string or a list")
	}

	deps := make(map[string]types.Dependency, len(items))
	for _, item := range items {
		name, dep, err := buildDependency(item)
		if err != nil {
			return nil, err
		}
		deps[name] = dep
	}
	return deps, nil
}

func buildDependency(raw interface{}) (string, types.Dependency, error) {
	switch v := raw.(type) {
	case string:
		return v, types.Dependency{}, nil
	case map[string]interface{}:
		rawName, ok := v["name"]
		if !ok {
			return "", types.Dependency{}, errs.New(errs.KindLoad, "dependency node missing 'name'")
		}
		name, ok := rawName.(string)
		if !ok || name == "" {
			return "", types.Dependency{}, errs.New(errs.KindLoad, "dependency 'name' must be a non-empty string")
		}
		dep := types.Dependency{}
		if raw, ok := v["strict"]; ok {
			b, ok := raw.(bool)
			if !ok {
				return "", types.Dependency{}, errs.New(errs.KindLoad, "dependency 'strict' must be a boolean")
			}
			dep.Strict = b
		}
		if raw, ok := v["external"]; ok {
			b, ok := raw.(bool)
			if !ok {
				return "", types.Dependency{}, errs.New(errs.KindLoad, "dependency 'external' must be a boolean")
			}
			dep.External = b
		}
		return name, dep, nil
	default:
		return "", types.Dependency{}, errs.New(errs.KindLoad, "unrecognized dependency node structure")
	}
}

// asStringMap normalizes a YAML-decoded mapping into map[string]interface{},
// since gopkg.in/yaml.v3 decodes untyped mapping nodes into
// map[string]interface{} directly (unlike yaml.v2's map[interface{}]interface{}).
func asStringMap(v interface{}) (map[string]interface{}, bool) {
	m, ok := v.(map[string]interface{})
	return m, ok
}

// decodeNode walks a yaml.Node tree into the same plain Go value shapes
// yaml.Unmarshal(..., &map[string]interface{}{}) would produce — except a
// scalar tagged `!@` decodes to a types.ObjectTemplate instead of a string,
// giving the loader's YAML document a way to declare the object-template
// marker described in spec §4.2 and §8 scenario 6.
func decodeNode(n *yaml.Node) (interface{}, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return decodeNode(n.Content[0])
	case yaml.AliasNode:
		return decodeNode(n.Alias)
	case yaml.MappingNode:
		m := make(map[string]interface{}, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			var key string
			if err := n.Content[i].Decode(&key); err != nil {
				return nil, fmt.Errorf("mapping key: %w", err)
			}
			v, err := decodeNode(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			m[key] = v
		}
		return m, nil
	case yaml.SequenceNode:
		arr := make([]interface{}, len(n.Content))
		for i, item := range n.Content {
			v, err := decodeNode(item)
			if err != nil {
				return nil, err
			}
			arr[i] = v
		}
		return arr, nil
	case yaml.ScalarNode:
		if n.Tag == objectTemplateTag {
			return types.ObjectTemplate{Expression: n.Value}, nil
		}
		var v interface{}
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("scalar: %w", err)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported yaml node kind %v", n.Kind)
	}
}
