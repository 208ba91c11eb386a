// Package messaging implements a request/reply exchange over a shared broker.
//
// A Connection owns one broker client and acts as the single session of a
// participant: it declares queue and topic destinations and creates producers
// and consumers bound to them. A Sender publishes requests, a Receiver
// dispatches every delivered message by shape and asks a Correlator to publish
// the reply on the response queue.
//
// Deliveries are driven by the broker transport. Each consumer receives its
// messages one at a time; different consumers may run concurrently, so
// handlers shared between a queue and a topic consumer must be safe for
// concurrent use.
package messaging
