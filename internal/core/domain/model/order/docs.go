// Package order provides the Order aggregate and the fulfillment state machine.
//
// The package includes:
//   - Order: the aggregate root holding customer data, line items, the monetary
//     total and the mutable fulfillment state (status and separation claim)
//   - Item: an immutable order line
//   - Status: the lifecycle states and their legal transitions
//   - Intent: the operator actions that drive transitions
//   - CancelPolicy: the configurable rule for cancelling after shipment
//
// Key business rules:
//   - claimedBy is set if and only if the status is in_separation
//   - the total is computed once at placement and never recomputed
//   - cancelled is terminal; no transition leaves it
//   - a rejected transition leaves the order untouched
//
// State transitions:
//
//	pending ─┐                           ┌─> delivered ─┐
//	         ├─claim─> in_separation ─ship┤              ├─cancel*─> cancelled
//	processing┘             │             └──────────────┘
//	   │                    └──cancel (holder only)──────────────────> cancelled
//	   └──cancel────────────────────────────────────────────────────> cancelled
//
// (*) subject to CancelPolicy.
package order
