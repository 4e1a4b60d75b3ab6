// Package kernel provides core domain primitives shared by the fulfillment model.
//
// The package includes:
//   - Money: a non-negative decimal amount used for prices and order totals
//   - OperatorID: the opaque identity of a staff member acting on orders
//   - Customer: the contact and shipping details captured at order placement
//
// All values are immutable and must be created through their constructors;
// zero values fail Validate.
package kernel
