// Package services provides domain services that apply fulfillment rules
// spanning more than a single aggregate method.
//
// The package includes:
//   - ActionValidator: decides whether an operator intent is legal for an order
//     snapshot, under the configured cancel policy
package services
