// Package netlist holds the placement data model: placeable objects, pins,
// nets, and the placement region.
//
// The netlist is the shared session state of the placement engine. Every
// phase reads it; each field has a single writer:
//   - object positions are written by the optimizer step (and the initial
//     placer before the optimizer starts),
//   - object inflation is written by routability feedback,
//   - net weights are written by timing feedback.
//
// # Structure
//
// A [Netlist] owns a flat slice of [Object] records and a flat slice of
// [Net] records. Pins reference objects by index, so the whole model is
// index-addressed and cheap to clone for snapshots.
//
// # Validation
//
// [New] validates the model once at construction: the region must have
// positive extent, pins must reference existing objects, and at least one
// object must be movable. After that the invariants are maintained by the
// writers above, not re-checked per iteration.
package netlist
