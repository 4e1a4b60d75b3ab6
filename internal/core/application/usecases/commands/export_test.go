package commands

// InflightWaiters reports how many callers currently wait on the shared
// ready-to-ship run for cmd.
func InflightWaiters(h ReadyToShipCommandHandler, cmd ReadyToShipCommand) int {
	return h.inflight.waiting(inflightKey(cmd))
}
