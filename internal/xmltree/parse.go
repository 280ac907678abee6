// Package xmltree converts XML documents into generic map/list trees.
package xmltree

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// TextKey holds the text of an element that also has attributes or children.
const TextKey = "#text"

type node struct {
	name     string
	attrs    []xml.Attr
	children []*node
	text     strings.Builder
}

// Parse decodes a document into {rootName: value}.
//
// Elements holding only text become scalars: numeric text becomes a float64
// unless it has leading zeros. Attributes are stored under their plain name as
// strings. Repeated child elements become lists. Names keep their namespace
// prefix.
func Parse(doc string) (map[string]any, error) {
	dec := xml.NewDecoder(strings.NewReader(doc))

	var (
		root  *node
		stack []*node
	)
	for {
		tok, err := dec.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &node{name: qualified(t.Name), attrs: t.Attr}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("xml: multiple root elements (%s after %s)", n.name, root.name)
				}
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, n)
			}
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("xml: unexpected end element </%s>", qualified(t.Name))
			}
			open := stack[len(stack)-1]
			if name := qualified(t.Name); name != open.name {
				return nil, fmt.Errorf("xml: element <%s> closed by </%s>", open.name, name)
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) == 0 {
				if strings.TrimSpace(string(t)) != "" {
					return nil, errors.New("xml: text outside the root element")
				}
				continue
			}
			stack[len(stack)-1].text.Write(t)
		}
	}

	if len(stack) > 0 {
		return nil, fmt.Errorf("xml: element <%s> is not closed", stack[len(stack)-1].name)
	}
	if root == nil {
		return nil, errors.New("xml: no root element")
	}
	return map[string]any{root.name: root.value()}, nil
}

func qualified(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

func (n *node) value() any {
	text := strings.TrimSpace(n.text.String())
	if len(n.attrs) == 0 && len(n.children) == 0 {
		return scalar(text)
	}

	out := make(map[string]any, len(n.attrs)+len(n.children)+1)
	for _, a := range n.attrs {
		out[qualified(a.Name)] = a.Value
	}
	lists := make(map[string]bool)
	for _, c := range n.children {
		v := c.value()
		existing, seen := out[c.name]
		switch {
		case !seen:
			out[c.name] = v
		case lists[c.name]:
			out[c.name] = append(existing.([]any), v)
		default:
			out[c.name] = []any{existing, v}
			lists[c.name] = true
		}
	}
	if text != "" {
		out[TextKey] = scalar(text)
	}
	return out
}

var numeric = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)

func scalar(text string) any {
	if numeric.MatchString(text) {
		if f, err := strconv.ParseFloat(text, 64); err == nil {
			return f
		}
	}
	return text
}
