package config

type ConfigInitError struct {
	msg string
	// Field is the dotted key of the offending setting, when known.
	Field string
}

func (e *ConfigInitError) Error() string {
	return e.msg
}
