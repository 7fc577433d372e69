//go:build !linux

package notify

// New returns a Nop notifier; desktop notifications are Linux only.
func New(string) (Notifier, error) {
	return Nop{}, nil
}
