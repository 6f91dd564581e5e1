// Package codec implements the Markdown + YAML-frontmatter round-trip used
// to persist knowledge entries on disk. Frontmatter is kept as a yaml.Node
// mapping rather than a plain struct so that key order and any fields this
// codebase does not know about survive an update untouched.
package codec

import (
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const fence = "---"

// Document is a parsed Markdown file: an optional frontmatter mapping node
// plus the free-text body that follows it.
type Document struct {
	Frontmatter *yaml.Node // nil if the file had no (or unparsable) frontmatter
	Body        string
}

// Connection is the on-disk shape of a typed edge to another entry.
type Connection struct {
	Target string `yaml:"target"`
	Type   string `yaml:"type"`
	Note   string `yaml:"note,omitempty"`
}

// Parse splits raw Markdown into frontmatter + body. A leading fence line
// ("---") followed by a matching closing fence delimits YAML; anything
// else is body only. A YAML parse failure never raises — it falls back to
// (nil frontmatter, entire text as body), per the tolerant-read contract.
func Parse(raw string) (*Document, error) {
	lines := splitLinesKeepEnds(raw)
	if len(lines) == 0 || strings.TrimRight(lines[0], "\r\n") != fence {
		return &Document{Body: raw}, nil
	}

	closeIdx := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimRight(lines[i], "\r\n") == fence {
			closeIdx = i
			break
		}
	}
	if closeIdx == -1 {
		return &Document{Body: raw}, nil
	}

	yamlBlock := strings.Join(lines[1:closeIdx], "")
	body := strings.Join(lines[closeIdx+1:], "")
	body = strings.TrimPrefix(body, "\n")
	body = strings.TrimPrefix(body, "\r\n")

	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(yamlBlock), &doc); err != nil {
		return &Document{Body: raw}, nil
	}
	if len(doc.Content) == 0 {
		// Empty frontmatter block ("---\n---\n\nbody").
		return &Document{Body: body}, nil
	}
	mapping := doc.Content[0]
	if mapping.Kind != yaml.MappingNode {
		return &Document{Body: raw}, nil
	}
	return &Document{Frontmatter: mapping, Body: body}, nil
}

func splitLinesKeepEnds(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			out = append(out, s[start:i+1])
			start = i + 1
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}

// Serialize emits "---\n<yaml>\n---\n\n<body>" when frontmatter is
// non-empty, otherwise the body alone.
func Serialize(doc *Document) (string, error) {
	if doc.Frontmatter == nil || len(doc.Frontmatter.Content) == 0 {
		return doc.Body, nil
	}
	var sb strings.Builder
	enc := yaml.NewEncoder(&sb)
	enc.SetIndent(2)
	if err := enc.Encode(doc.Frontmatter); err != nil {
		return "", err
	}
	_ = enc.Close()

	var out strings.Builder
	out.WriteString(fence)
	out.WriteString("\n")
	out.WriteString(sb.String())
	out.WriteString(fence)
	out.WriteString("\n\n")
	out.WriteString(doc.Body)
	return out.String(), nil
}

// EntryMeta is the typed view of a frontmatter mapping used by the rest of
// the store. Legacy tracks whether the file used the old numeric-timestamp
// + UUID-id form, so updates write back in the same form they were read in.
type EntryMeta struct {
	ID           string
	Title        string
	Type         string
	Tags         []string
	Created      string // ISO-8601
	Updated      string // ISO-8601
	LastAccessed string
	AccessCount  int
	Connections  []Connection
	Legacy       bool
}

// ExtractMeta reads the typed fields out of a frontmatter mapping,
// tolerating the legacy numeric-epoch-millisecond timestamp variant.
func ExtractMeta(node *yaml.Node) EntryMeta {
	var meta EntryMeta
	if node == nil {
		return meta
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		val := node.Content[i+1]
		switch key {
		case "id":
			meta.ID = val.Value
		case "title":
			meta.Title = val.Value
		case "type":
			meta.Type = val.Value
		case "tags":
			meta.Tags = scalarSlice(val)
		case "created", "createdAt":
			meta.Created = normalizeTimestamp(val, &meta.Legacy)
		case "updated", "updatedAt":
			meta.Updated = normalizeTimestamp(val, &meta.Legacy)
		case "lastAccessed", "last_accessed", "lastAccessedAt":
			meta.LastAccessed = normalizeTimestamp(val, &meta.Legacy)
		case "accessCount", "access_count":
			if n, err := strconv.Atoi(val.Value); err == nil {
				meta.AccessCount = n
			}
		case "connections":
			meta.Connections = extractConnections(val)
		}
	}
	return meta
}

func scalarSlice(node *yaml.Node) []string {
	if node == nil || node.Kind != yaml.SequenceNode {
		return nil
	}
	out := make([]string, 0, len(node.Content))
	for _, c := range node.Content {
		out = append(out, c.Value)
	}
	return out
}

func extractConnections(node *yaml.Node) []Connection {
	if node == nil || node.Kind != yaml.SequenceNode {
		return nil
	}
	var out []Connection
	for _, item := range node.Content {
		if item.Kind != yaml.MappingNode {
			continue
		}
		var c Connection
		for i := 0; i+1 < len(item.Content); i += 2 {
			k := item.Content[i].Value
			v := item.Content[i+1].Value
			switch k {
			case "target":
				c.Target = v
			case "type":
				c.Type = v
			case "note":
				c.Note = v
			}
		}
		out = append(out, c)
	}
	return out
}

// normalizeTimestamp converts a scalar timestamp value to ISO-8601. A bare
// integer/float scalar is treated as the legacy epoch-millisecond form and
// flips *legacy to true; anything else passes through unchanged.
func normalizeTimestamp(val *yaml.Node, legacy *bool) string {
	if val == nil {
		return ""
	}
	if val.Tag == "!!int" || val.Tag == "!!float" {
		if ms, err := strconv.ParseInt(val.Value, 10, 64); err == nil {
			*legacy = true
			return time.UnixMilli(ms).UTC().Format(time.RFC3339)
		}
	}
	return val.Value
}

// ApplyMeta writes meta back into a frontmatter mapping node, mutating
// existing key/value nodes in place (preserving their position and any
// surrounding keys this codebase does not model) and appending genuinely
// new keys at the end. If node is nil, a fresh mapping is created in the
// canonical key order.
func ApplyMeta(node *yaml.Node, meta EntryMeta) *yaml.Node {
	if node == nil {
		node = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	}
	setScalar(node, "id", meta.ID)
	setScalar(node, "title", meta.Title)
	setScalar(node, "type", meta.Type)
	setSequence(node, "tags", meta.Tags)
	if meta.Legacy {
		setTimestampLegacy(node, "createdAt", meta.Created)
		setTimestampLegacy(node, "updatedAt", meta.Updated)
		if meta.LastAccessed != "" {
			setTimestampLegacy(node, "lastAccessedAt", meta.LastAccessed)
		}
	} else {
		setScalar(node, "created", meta.Created)
		setScalar(node, "updated", meta.Updated)
		if meta.LastAccessed != "" {
			setScalar(node, "lastAccessed", meta.LastAccessed)
		}
	}
	setConnections(node, meta.Connections)
	return node
}

func findKey(node *yaml.Node, key string) (int, bool) {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return i, true
		}
	}
	return -1, false
}

func setScalar(node *yaml.Node, key, value string) {
	idx, ok := findKey(node, key)
	valNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
	if ok {
		node.Content[idx+1] = valNode
		return
	}
	keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
	node.Content = append(node.Content, keyNode, valNode)
}

func setTimestampLegacy(node *yaml.Node, key, iso string) {
	ms := int64(0)
	if t, err := time.Parse(time.RFC3339, iso); err == nil {
		ms = t.UnixMilli()
	}
	idx, ok := findKey(node, key)
	valNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(ms, 10)}
	if ok {
		node.Content[idx+1] = valNode
		return
	}
	keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
	node.Content = append(node.Content, keyNode, valNode)
}

func setSequence(node *yaml.Node, key string, values []string) {
	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, v := range values {
		seq.Content = append(seq.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v})
	}
	idx, ok := findKey(node, key)
	if ok {
		node.Content[idx+1] = seq
		return
	}
	keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
	node.Content = append(node.Content, keyNode, seq)
}

func setConnections(node *yaml.Node, conns []Connection) {
	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, c := range conns {
		m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		setScalar(m, "target", c.Target)
		setScalar(m, "type", c.Type)
		if c.Note != "" {
			setScalar(m, "note", c.Note)
		}
		seq.Content = append(seq.Content, m)
	}
	idx, ok := findKey(node, "connections")
	if ok {
		node.Content[idx+1] = seq
		return
	}
	keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: "connections"}
	node.Content = append(node.Content, keyNode, seq)
}
