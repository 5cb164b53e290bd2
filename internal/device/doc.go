// Package device provides the device registry and the generic device
// actor that participates in the network.
//
// The Registry is the authoritative set of known devices: identity,
// capabilities, free-form status, and a heartbeat refreshed on every
// status change. Device ids are unique across the registry at all
// times; concurrent registrations with the same id cannot both
// succeed.
//
// An Actor binds one registry entry to the message bus. It wraps send,
// receive, status updates, and discovery as operations on its own
// identity, so device-kind-specific behaviour (vitals evaluation,
// ingest bridges) composes on top of an Actor instead of subclassing
// anything.
package device
