package workbook

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/anstrom/nmapxlsx/internal/report"
)

const (
	noteLineHeight = 15
	noteMinHeight  = 60
	noteMaxHeight  = 1200
)

// scriptNote renders a service's script results as
//
//	<id>:
//	  - <output>
//	  - <elements>
//
// and reports false when the service has no script results.
func scriptNote(_ report.Host, svc report.Service) (string, bool) {
	scripts := svc.Scripts()
	if len(scripts) == 0 {
		return "", false
	}

	// Keys are sorted so the note is identical across runs.
	sort.SliceStable(scripts, func(i, j int) bool { return scripts[i].ID < scripts[j].ID })

	doc := &yaml.Node{Kind: yaml.MappingNode}
	for _, sc := range scripts {
		doc.Content = append(doc.Content,
			stringNode(sc.ID),
			&yaml.Node{
				Kind:    yaml.SequenceNode,
				Content: []*yaml.Node{stringNode(sc.Output), valueNode(sc.Elements)},
			},
		)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fallbackNote(scripts), true
	}
	if err := enc.Close(); err != nil {
		return fallbackNote(scripts), true
	}

	return strings.TrimRight(buf.String(), "\n"), true
}

// stringNode quotes strings whose leading or trailing newlines a block
// scalar would not preserve.
func stringNode(s string) *yaml.Node {
	n := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
	if strings.HasPrefix(s, "\n") || strings.HasSuffix(s, "\n") {
		n.Style = yaml.DoubleQuotedStyle
	}
	return n
}

func valueNode(v any) *yaml.Node {
	switch v := v.(type) {
	case string:
		return stringNode(v)
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		n := &yaml.Node{Kind: yaml.MappingNode}
		for _, k := range keys {
			n.Content = append(n.Content, stringNode(k), valueNode(v[k]))
		}
		return n
	case []any:
		n := &yaml.Node{Kind: yaml.SequenceNode}
		for _, item := range v {
			n.Content = append(n.Content, valueNode(item))
		}
		return n
	case nil:
		return &yaml.Node{Kind: yaml.MappingNode}
	}

	n := &yaml.Node{}
	if err := n.Encode(v); err != nil {
		return stringNode(fmt.Sprint(v))
	}
	return n
}

func fallbackNote(scripts []report.Script) string {
	lines := make([]string, 0, len(scripts))
	for _, sc := range scripts {
		lines = append(lines, sc.ID+": "+sc.Output)
	}
	return strings.Join(lines, "\n")
}

// noteHeight sizes a comment box so every line of text is visible.
func noteHeight(text string) uint {
	h := (strings.Count(text, "\n") + 2) * noteLineHeight
	switch {
	case h < noteMinHeight:
		return noteMinHeight
	case h > noteMaxHeight:
		return noteMaxHeight
	}
	return uint(h)
}
