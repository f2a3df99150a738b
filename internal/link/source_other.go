//go:build !linux

package link

// DefaultSource returns the polling SystemSource.
func DefaultSource() Source {
	return SystemSource{}
}
