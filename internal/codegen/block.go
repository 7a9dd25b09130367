package codegen

import (
	"strings"
)

const indentUnit = "  "

type blockItem struct {
	text    string
	comment bool
}

// block renders an object literal whose entries sit at depth+1. Comments
// never take a separator; every other entry is followed by a comma when a
// later entry exists.
type block struct {
	depth int
	items []blockItem
}

func newBlock(depth int) *block {
	return &block{depth: depth}
}

func (b *block) pad() string {
	return strings.Repeat(indentUnit, b.depth+1)
}

func (b *block) comment(text string) {
	b.items = append(b.items, blockItem{text: "// " + text, comment: true})
}

// add appends an entry that is already laid out for this depth.
func (b *block) add(text string) {
	b.items = append(b.items, blockItem{text: text})
}

func (b *block) prop(key, value string) {
	b.add(key + ": " + value)
}

// verbatim appends a property whose value was copied from the source
// document and may span several lines.
func (b *block) verbatim(key, value string) {
	b.prop(key, reindent(value, b.pad()))
}

// nested appends a property holding a child block, skipping empty ones.
func (b *block) nested(key string, child *block) {
	if child.empty() {
		return
	}
	b.prop(key, child.String())
}

func (b *block) empty() bool {
	return len(b.items) == 0
}

func (b *block) String() string {
	last := -1
	for i, item := range b.items {
		if !item.comment {
			last = i
		}
	}

	pad := b.pad()
	var sb strings.Builder
	sb.WriteString("{\n")
	for i, item := range b.items {
		sb.WriteString(pad)
		sb.WriteString(item.text)
		if !item.comment && i < last {
			sb.WriteByte(',')
		}
		sb.WriteByte('\n')
	}
	sb.WriteString(strings.Repeat(indentUnit, b.depth))
	sb.WriteByte('}')
	return sb.String()
}

// reindent moves the continuation lines of a source fragment so that its
// least indented continuation line starts at pad. Fragments holding a
// template literal are returned as they are, since their line breaks and
// indentation are part of the value.
func reindent(text, pad string) string {
	if strings.ContainsRune(text, '`') {
		return text
	}
	lines := strings.Split(text, "\n")
	if len(lines) == 1 {
		return text
	}

	common := -1
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		n := len(line) - len(strings.TrimLeft(line, " \t"))
		if common < 0 || n < common {
			common = n
		}
	}
	if common < 0 {
		common = 0
	}

	for i := 1; i < len(lines); i++ {
		line := strings.TrimRight(lines[i], " \t\r")
		if line == "" {
			lines[i] = ""
			continue
		}
		lines[i] = pad + line[common:]
	}
	return strings.Join(lines, "\n")
}

// collapse joins a fragment onto one line for use inside a comment.
func collapse(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
