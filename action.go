package xdpview

import "fmt"

// Action is the verdict an XDP handler returns to the environment that
// invoked it. The numeric values match the kernel's `enum xdp_action`.
type Action uint32

const (
	// ActionAborted signals that the handler hit an unexpected condition, it
	// results in the packet being dropped. Meant for debugging only.
	ActionAborted Action = iota
	// ActionDrop instructs the driver to drop the packet.
	ActionDrop
	// ActionPass hands the packet to the normal network stack. This is the
	// common verdict for packets the handler could not parse.
	ActionPass
	// ActionTx bounces the packet back out of the NIC it arrived on.
	ActionTx
	// ActionRedirect transmits the packet via another NIC.
	ActionRedirect
)

// String implements fmt.Stringer
func (a Action) String() string {
	switch a {
	case ActionAborted:
		return "XDP_ABORTED"
	case ActionDrop:
		return "XDP_DROP"
	case ActionPass:
		return "XDP_PASS"
	case ActionTx:
		return "XDP_TX"
	case ActionRedirect:
		return "XDP_REDIRECT"
	default:
		return fmt.Sprintf("XDP_UNKNOWN(%d)", uint32(a))
	}
}
