// Package bus implements the message bus at the centre of the device
// network: an append-only in-process message log with send-time
// validation and push-delivery triggering.
//
// # Responsibilities
//
//   - Validate sender and receiver ids against the device registry at
//     send time (never at read time)
//   - Assign server-side message ids and timestamps
//   - Store accepted messages immutably for the process lifetime
//   - Trigger push delivery through a Notifier (the broadcast hub)
//   - Keep an optional audit copy in SQLite
//
// The bus is transport-agnostic: it fans messages out to device
// observers via the Notifier and leaves dashboard alert routing to the
// layer that inspects message types.
//
// # Delivery semantics
//
// ReceiveFor is a query, not a drain. Messages are retained after
// reading, so repeated polls re-deliver the same items; readers that
// need exactly-once behaviour must deduplicate by message id. Broadcast
// visibility starts at the device's attach point: devices do not see
// broadcasts sent before they joined.
package bus
