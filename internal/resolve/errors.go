package resolve

import "github.com/rotisserie/eris"

// ErrConfig marks fatal configuration problems: conflicting override keys
// and override targets missing from the roster. A run that hits one aborts
// before writing any output.
var ErrConfig = eris.New("configuration error")

func configErrorf(format string, args ...any) error {
	return eris.Wrapf(ErrConfig, format, args...)
}

// IsConfigError reports whether err stems from invalid configuration.
func IsConfigError(err error) bool {
	return eris.Is(err, ErrConfig)
}
