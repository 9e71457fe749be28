package rpc

import (
	"bytes"
	"encoding/xml"
)

// Request is one GUI RPC call: a root tag with an ordered list of
// child tags, each of which may carry text or further children.
// Requests are built once with NewRequest and the With* methods and
// not changed afterwards; the With* methods return copies.
type Request struct {
	tag      Tag
	text     *string
	children []*Request
}

// NewRequest starts a request (or a child element) named tag.
func NewRequest(tag Tag, children ...*Request) *Request {
	return &Request{tag: tag, children: append([]*Request(nil), children...)}
}

// Flag is a child element with no content, e.g. <active_only/>.
func Flag(tag Tag) *Request {
	return &Request{tag: tag}
}

// Text is a child element carrying text, e.g. <seqno>4</seqno>.
func Text(tag Tag, text string) *Request {
	return &Request{tag: tag, text: &text}
}

// With returns a copy of the request with children appended.
func (r *Request) With(children ...*Request) *Request {
	cp := *r
	cp.children = append(append([]*Request(nil), r.children...), children...)
	return &cp
}

func (r *Request) Tag() Tag {
	return r.tag
}

// Children returns the request's direct children. The slice is a copy.
func (r *Request) Children() []*Request {
	return append([]*Request(nil), r.children...)
}

// Child returns the first direct child named tag, or nil.
func (r *Request) Child(tag Tag) *Request {
	for _, c := range r.children {
		if c.tag == tag {
			return c
		}
	}
	return nil
}

// Text returns the element's text, and whether it has any text at
// all (as opposed to being a flag).
func (r *Request) Text() (string, bool) {
	if r.text == nil {
		return "", false
	}
	return *r.text, true
}

// Encode writes the request, wrapped in the request envelope, as an
// XML document. The frame delimiter is the transport's business.
func (r *Request) Encode() []byte {
	var buf bytes.Buffer
	buf.WriteString("<" + string(RequestEnvelope) + ">\n")
	r.encode(&buf)
	buf.WriteString("</" + string(RequestEnvelope) + ">\n")
	return buf.Bytes()
}

func (r *Request) encode(buf *bytes.Buffer) {
	switch {
	case len(r.children) > 0:
		buf.WriteString("<" + string(r.tag) + ">\n")
		for _, c := range r.children {
			c.encode(buf)
		}
		buf.WriteString("</" + string(r.tag) + ">\n")
	case r.text != nil && *r.text != "":
		buf.WriteString("<" + string(r.tag) + ">")
		xml.EscapeText(buf, []byte(*r.text))
		buf.WriteString("</" + string(r.tag) + ">\n")
	default:
		buf.WriteString("<" + string(r.tag) + "/>\n")
	}
}

// String renders the request without its envelope; for logs.
func (r *Request) String() string {
	var buf bytes.Buffer
	r.encode(&buf)
	return buf.String()
}
