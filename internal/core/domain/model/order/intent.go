package order

// Intent names an operator action on an order.
type Intent string

const (
	IntentClaim           Intent = "claim"
	IntentReadyToShip     Intent = "ready_to_ship"
	IntentCancel          Intent = "cancel"
	IntentConfirmDelivery Intent = "confirm_delivery"
)

func (i Intent) String() string {
	return string(i)
}
