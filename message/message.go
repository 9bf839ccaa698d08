// Package message implements the structured message content model.
//
// A Content is an ordered sequence of message elements assembled
// independently of any connection. Building is pure: referenced targets
// are not validated until the content is submitted for delivery.
//
// Example:
//
//	content := message.New().Text("hello ").At(12345678).Face(66)
//	receipt, err := client.Friend(12345678).Send(ctx, content)
package message

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Element is one segment of a message. The concrete types are Text, At
// and Face; the set is closed.
type Element interface {
	element()
}

// Text is a plain text segment.
type Text struct {
	Text string
}

// At mentions another account by uin.
type At struct {
	Target int64
}

// Face is an expression, addressed either by numeric id or by symbolic
// name. Exactly one of the two forms may be used; setting both is
// rejected at validation time.
type Face struct {
	ID   int32
	Name string
}

func (Text) element() {}
func (At) element()   {}
func (Face) element() {}

// Content is an ordered, immutable-once-submitted sequence of elements.
// The zero value is an empty message; builder methods append in place
// and return the receiver for chaining.
type Content struct {
	elems []Element
}

// New creates an empty Content.
func New() *Content {
	return &Content{}
}

// From creates a Content from pre-built elements.
func From(elems ...Element) *Content {
	c := &Content{elems: make([]Element, len(elems))}
	copy(c.elems, elems)
	return c
}

// Text appends a text segment.
func (c *Content) Text(text string) *Content {
	c.elems = append(c.elems, Text{Text: text})
	return c
}

// At appends a mention of the given uin.
func (c *Content) At(target int64) *Content {
	c.elems = append(c.elems, At{Target: target})
	return c
}

// Face appends an expression by numeric id.
func (c *Content) Face(id int32) *Content {
	c.elems = append(c.elems, Face{ID: id})
	return c
}

// FaceNamed appends an expression by symbolic name.
func (c *Content) FaceNamed(name string) *Content {
	c.elems = append(c.elems, Face{Name: name})
	return c
}

// Append appends arbitrary elements.
func (c *Content) Append(elems ...Element) *Content {
	c.elems = append(c.elems, elems...)
	return c
}

// Elements returns a copy of the element sequence.
func (c *Content) Elements() []Element {
	out := make([]Element, len(c.elems))
	copy(out, c.elems)
	return out
}

// Len returns the number of elements.
func (c *Content) Len() int {
	return len(c.elems)
}

// Validate checks element-level constraints that construction leaves
// unchecked. Target existence is the protocol layer's concern.
func (c *Content) Validate() error {
	for i, elem := range c.elems {
		if face, ok := elem.(Face); ok {
			if face.Name != "" && face.ID != 0 {
				return fmt.Errorf("element %d: face id and name are mutually exclusive", i)
			}
		}
	}
	return nil
}

// String renders a loggable plain-text form of the content.
func (c *Content) String() string {
	var sb strings.Builder
	for _, elem := range c.elems {
		switch e := elem.(type) {
		case Text:
			sb.WriteString(e.Text)
		case At:
			sb.WriteString("@" + strconv.FormatInt(e.Target, 10))
		case Face:
			if e.Name != "" {
				sb.WriteString("[face:" + e.Name + "]")
			} else {
				sb.WriteString("[face:" + strconv.FormatInt(int64(e.ID), 10) + "]")
			}
		}
	}
	return sb.String()
}

// wireElement is the tagged serialization shape shared by every
// boundary that carries message elements.
type wireElement struct {
	Type   string  `json:"type"`
	Text   string  `json:"text,omitempty"`
	Target int64   `json:"target,omitempty"`
	ID     *int32  `json:"id,omitempty"`
	Name   *string `json:"name,omitempty"`
}

// MarshalJSON encodes the content as an array of tagged records.
func (c *Content) MarshalJSON() ([]byte, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	wire := make([]wireElement, 0, len(c.elems))
	for _, elem := range c.elems {
		switch e := elem.(type) {
		case Text:
			wire = append(wire, wireElement{Type: "text", Text: e.Text})
		case At:
			wire = append(wire, wireElement{Type: "at", Target: e.Target})
		case Face:
			if e.Name != "" {
				name := e.Name
				wire = append(wire, wireElement{Type: "face", Name: &name})
			} else {
				id := e.ID
				wire = append(wire, wireElement{Type: "face", ID: &id})
			}
		}
	}
	return json.Marshal(wire)
}

// UnmarshalJSON decodes an array of tagged records.
func (c *Content) UnmarshalJSON(data []byte) error {
	var wire []wireElement
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	elems := make([]Element, 0, len(wire))
	for i, w := range wire {
		switch w.Type {
		case "text":
			elems = append(elems, Text{Text: w.Text})
		case "at":
			elems = append(elems, At{Target: w.Target})
		case "face":
			switch {
			case w.ID != nil && w.Name != nil:
				return fmt.Errorf("element %d: face id and name are mutually exclusive", i)
			case w.ID != nil:
				elems = append(elems, Face{ID: *w.ID})
			case w.Name != nil:
				elems = append(elems, Face{Name: *w.Name})
			default:
				return fmt.Errorf("element %d: face requires id or name", i)
			}
		default:
			return fmt.Errorf("element %d: unknown element type %q", i, w.Type)
		}
	}
	c.elems = elems
	return nil
}

// ErrEmptyContent is returned when an empty message is submitted.
var ErrEmptyContent = errors.New("message: content is empty")
