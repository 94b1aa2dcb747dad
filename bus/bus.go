// bus.go
package bus

import (
	"strings"
	"sync"
)

// -----------------------------------------------------------------------------
// Topics
// -----------------------------------------------------------------------------

// Topic is a path of string tokens, e.g. T("bridge", "serial", "rx").
type Topic []string

// T builds a topic from its tokens.
func T(parts ...string) Topic { return Topic(parts) }

func (t Topic) Len() int          { return len(t) }
func (t Topic) At(i int) string   { return t[i] }
func (t Topic) String() string    { return strings.Join(t, "/") }
func (t Topic) Equal(o Topic) bool {
	if len(t) != len(o) {
		return false
	}
	for i := range t {
		if t[i] != o[i] {
			return false
		}
	}
	return true
}

// -----------------------------------------------------------------------------
// Message
// -----------------------------------------------------------------------------

type Message struct {
	Topic    Topic
	Payload  any
	Retained bool
	ReplyTo  Topic
}

// CanReply reports whether the sender supplied a reply topic.
func (m *Message) CanReply() bool { return len(m.ReplyTo) > 0 }

// -----------------------------------------------------------------------------
// Subscription
// -----------------------------------------------------------------------------

type Subscription struct {
	topic Topic
	ch    chan *Message
	conn  *Connection
}

func (s *Subscription) Topic() Topic             { return s.topic }
func (s *Subscription) Channel() <-chan *Message { return s.ch }
func (s *Subscription) Unsubscribe()             { s.conn.Unsubscribe(s) }

// -----------------------------------------------------------------------------
// Trie node
// -----------------------------------------------------------------------------

type node struct {
	children map[string]*node
	subs     []*Subscription
	retained *Message
}

// -----------------------------------------------------------------------------
// Bus
// -----------------------------------------------------------------------------

// Bus is an in-process topic trie with MQTT-style wildcards.
// single matches exactly one token, multi matches the remaining suffix.
type Bus struct {
	mu     sync.RWMutex
	root   *node
	qLen   int
	single string
	multi  string
}

// NewBus creates a bus with the given subscription queue length and
// wildcard tokens. Empty wildcards default to "+" and "#".
func NewBus(queueLen int, single, multi string) *Bus {
	if queueLen <= 0 {
		queueLen = 8 // safe default
	}
	if single == "" {
		single = "+"
	}
	if multi == "" {
		multi = "#"
	}
	return &Bus{root: &node{}, qLen: queueLen, single: single, multi: multi}
}

// NewMessage builds a message bound to no particular connection.
func (b *Bus) NewMessage(topic Topic, payload any, retained bool) *Message {
	return &Message{Topic: topic, Payload: payload, Retained: retained}
}

// Publish delivers a message to every subscription whose pattern matches
// the concrete topic, and stores or clears the retained copy.
func (b *Bus) Publish(msg *Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, sub := range b.collect(b.root, msg.Topic) {
		deliver(sub.ch, msg)
	}

	if !msg.Retained {
		return
	}
	n := b.root
	for _, tok := range msg.Topic {
		if n.children == nil {
			n.children = make(map[string]*node)
		}
		child, ok := n.children[tok]
		if !ok {
			child = &node{}
			n.children[tok] = child
		}
		n = child
	}
	if msg.Payload == nil {
		n.retained = nil
	} else {
		n.retained = msg
	}
}

// collect walks the trie following exact tokens and wildcard branches.
func (b *Bus) collect(n *node, topic Topic) []*Subscription {
	var out []*Subscription
	if len(topic) == 0 {
		out = append(out, n.subs...)
		// "a/#" also matches "a" itself.
		if m, ok := n.children[b.multi]; ok {
			out = append(out, m.subs...)
		}
		return out
	}
	if n.children == nil {
		return nil
	}
	if m, ok := n.children[b.multi]; ok {
		out = append(out, m.subs...)
	}
	if c, ok := n.children[topic[0]]; ok {
		out = append(out, b.collect(c, topic[1:])...)
	}
	if c, ok := n.children[b.single]; ok {
		out = append(out, b.collect(c, topic[1:])...)
	}
	return out
}

// deliver enqueues without blocking; a full queue drops the oldest entry.
func deliver(ch chan *Message, msg *Message) {
	select {
	case ch <- msg:
	default:
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- msg:
		default:
		}
	}
}

func (b *Bus) addSubscription(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.root
	for _, tok := range sub.topic {
		if n.children == nil {
			n.children = make(map[string]*node)
		}
		child, ok := n.children[tok]
		if !ok {
			child = &node{}
			n.children[tok] = child
		}
		n = child
	}
	n.subs = append(n.subs, sub)

	// Deliver any retained messages matching the pattern.
	for _, m := range b.retainedMatching(b.root, sub.topic) {
		deliver(sub.ch, m)
	}
}

// retainedMatching walks the retained trie against a (possibly wildcarded)
// subscription pattern.
func (b *Bus) retainedMatching(n *node, pattern Topic) []*Message {
	var out []*Message
	if len(pattern) == 0 {
		if n.retained != nil {
			out = append(out, n.retained)
		}
		return out
	}
	tok := pattern[0]
	switch tok {
	case b.multi:
		collectRetainedSubtree(n, &out)
	case b.single:
		for _, c := range n.children {
			out = append(out, b.retainedMatching(c, pattern[1:])...)
		}
	default:
		if c, ok := n.children[tok]; ok {
			out = append(out, b.retainedMatching(c, pattern[1:])...)
		}
	}
	return out
}

func collectRetainedSubtree(n *node, out *[]*Message) {
	if n.retained != nil {
		*out = append(*out, n.retained)
	}
	for _, c := range n.children {
		collectRetainedSubtree(c, out)
	}
}

func (b *Bus) unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.root
	var stack []*node
	for _, tok := range sub.topic {
		if n.children == nil {
			return
		}
		child, ok := n.children[tok]
		if !ok {
			return
		}
		stack = append(stack, n)
		n = child
	}

	for i, s := range n.subs {
		if s == sub {
			n.subs = append(n.subs[:i], n.subs[i+1:]...)
			break
		}
	}

	// Prune empty nodes.
	for i := len(sub.topic) - 1; i >= 0; i-- {
		parent := stack[i]
		key := sub.topic[i]
		child := parent.children[key]
		if len(child.subs) == 0 && len(child.children) == 0 && child.retained == nil {
			delete(parent.children, key)
		} else {
			break
		}
	}
}

// -----------------------------------------------------------------------------
// Connection
// -----------------------------------------------------------------------------

type Connection struct {
	bus  *Bus
	subs []*Subscription
	mu   sync.Mutex
	id   string
}

// NewConnection creates a new connection bound to this bus.
func (b *Bus) NewConnection(id string) *Connection {
	return &Connection{bus: b, id: id}
}

func (c *Connection) ID() string { return c.id }

// NewMessage builds a message for publication via this connection.
func (c *Connection) NewMessage(topic Topic, payload any, retained bool) *Message {
	return &Message{Topic: topic, Payload: payload, Retained: retained}
}

// Publish sends a message via the bus.
func (c *Connection) Publish(msg *Message) {
	c.bus.Publish(msg)
}

// Reply publishes a payload to the message's reply topic, if any.
func (c *Connection) Reply(to *Message, payload any, retained bool) {
	if !to.CanReply() {
		return
	}
	c.bus.Publish(&Message{Topic: to.ReplyTo, Payload: payload, Retained: retained})
}

// Subscribe registers a subscription owned by this connection.
func (c *Connection) Subscribe(topic Topic) *Subscription {
	sub := &Subscription{
		topic: topic,
		ch:    make(chan *Message, c.bus.qLen),
		conn:  c,
	}
	c.bus.addSubscription(sub)
	c.mu.Lock()
	c.subs = append(c.subs, sub)
	c.mu.Unlock()
	return sub
}

// Unsubscribe removes a subscription owned by this connection.
func (c *Connection) Unsubscribe(sub *Subscription) {
	c.bus.unsubscribe(sub)
	c.mu.Lock()
	for i, s := range c.subs {
		if s == sub {
			c.subs = append(c.subs[:i], c.subs[i+1:]...)
			break
		}
	}
	c.mu.Unlock()
	close(sub.ch)
}

// Disconnect closes all subscriptions and clears them.
func (c *Connection) Disconnect() {
	c.mu.Lock()
	subs := c.subs
	c.subs = nil
	c.mu.Unlock()

	for _, sub := range subs {
		c.bus.unsubscribe(sub)
		close(sub.ch)
	}
}
