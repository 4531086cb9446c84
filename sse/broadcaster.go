package sse

// Publisher delivers events to every subscriber of a topic.
type Publisher interface {
	Publish(topic string, e Event)
}
