package rpc

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/ianaindex"
)

// Element is a parsed XML element from a reply. Text is the
// concatenation of the character data directly inside the element.
type Element struct {
	Tag      Tag
	Text     string
	Children []*Element
}

// Child returns the first direct child named tag, or nil.
func (e *Element) Child(tag Tag) *Element {
	for _, c := range e.Children {
		if c.Tag == tag {
			return c
		}
	}
	return nil
}

// ChildText returns the trimmed text of the first child named tag.
func (e *Element) ChildText(tag Tag) string {
	if c := e.Child(tag); c != nil {
		return strings.TrimSpace(c.Text)
	}
	return ""
}

// HasText reports whether the element carries any non-whitespace
// text of its own.
func (e *Element) HasText() bool {
	return strings.TrimSpace(e.Text) != ""
}

// Parse reads exactly one XML document and returns its root element.
// Documents may declare a non-UTF-8 encoding (the daemon uses
// ISO-8859-1); they are transcoded.
func Parse(data []byte) (*Element, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charsetReader

	var (
		stack []*Element
		root  *Element
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "parsing reply")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if root != nil && len(stack) == 0 {
				return nil, errors.New("parsing reply: more than one root element")
			}
			el := &Element{Tag: Tag(t.Name.Local)}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, el)
			} else {
				root = el
			}
			stack = append(stack, el)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].Text += string(t)
			}
		}
	}
	if root == nil {
		return nil, errors.New("parsing reply: no root element")
	}
	if len(stack) != 0 {
		return nil, errors.Errorf("parsing reply: unclosed element <%s>", stack[len(stack)-1].Tag)
	}
	return root, nil
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil {
		return nil, errors.Wrapf(err, "unknown charset %q", label)
	}
	if enc == nil {
		return nil, errors.Errorf("unsupported charset %q", label)
	}
	return enc.NewDecoder().Reader(input), nil
}
