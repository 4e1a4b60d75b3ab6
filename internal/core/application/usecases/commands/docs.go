// Package commands contains the operations that change order state.
//
// Every handler follows the same shape: validate the command, enter the
// order's critical section through ports.OrderLocker, read a fresh copy,
// run the guard, mutate, and commit with OrderRepository.UpdateIf. The lock
// is never held while an external collaborator is being called.
package commands
