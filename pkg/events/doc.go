/*
Package events provides the domain event broker and the generic broadcast
primitive used by the quota engine and the resource monitor.

Broker is a fan-out channel broker: subscribers get a buffered channel,
slow subscribers drop (at-most-once delivery), Stop closes all channels.
EventBroker wraps it for domain events and satisfies the Publisher port.
*/
package events
