// Package xmltree parses loosely-shaped XML into a plain element tree and
// projects named leaves out of it, so callers never hand-walk token
// streams and never care about leaf order or omission.
package xmltree

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

var ErrMalformed = errors.New("xmltree: malformed document")

type Node struct {
	Name     string
	Content  string // trimmed character data directly under this element
	Children []*Node

	buf strings.Builder
}

// Parse reads a whole document. Any syntax error, a missing root or a
// second root element yields ErrMalformed.
func Parse(r io.Reader) (*Node, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel

	var (
		root  *Node
		stack []*Node
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{Name: t.Name.Local}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("%w: more than one root element", ErrMalformed)
				}
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			}
			stack = append(stack, n)
		case xml.EndElement:
			n := stack[len(stack)-1]
			n.Content = strings.TrimSpace(n.buf.String())
			n.buf.Reset()
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].buf.Write(t)
			}
		}
	}
	if root == nil {
		return nil, fmt.Errorf("%w: no root element", ErrMalformed)
	}
	if len(stack) != 0 {
		return nil, fmt.Errorf("%w: unclosed element %q", ErrMalformed, stack[len(stack)-1].Name)
	}
	return root, nil
}

// All returns every descendant named name, in document order.
func (n *Node) All(name string) []*Node {
	if n == nil {
		return nil
	}
	var out []*Node
	var walk func(*Node)
	walk = func(cur *Node) {
		for _, c := range cur.Children {
			if c.Name == name {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(n)
	return out
}

// First returns the first descendant named name, or nil.
func (n *Node) First(name string) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
		if hit := c.First(name); hit != nil {
			return hit
		}
	}
	return nil
}

// Leaf follows a dot path ("roomBasicInfo.roomName") through First and
// returns the content found there, or "".
func (n *Node) Leaf(path string) string {
	cur := n
	for _, part := range strings.Split(path, ".") {
		cur = cur.First(part)
		if cur == nil {
			return ""
		}
	}
	return cur.Content
}

// Project resolves each field through its alias paths; the first
// non-empty leaf wins and absent fields map to "".
func (n *Node) Project(aliases map[string][]string) map[string]string {
	out := make(map[string]string, len(aliases))
	for field, paths := range aliases {
		out[field] = ""
		for _, p := range paths {
			if s := n.Leaf(p); s != "" {
				out[field] = s
				break
			}
		}
	}
	return out
}
