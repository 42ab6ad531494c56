//go:build !linux

package radio

func newPlatformRadio(opts Options) (Radio, error) {
	return NewProbeRadio(opts), nil
}
