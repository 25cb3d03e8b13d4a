// FILE: lixenwraith/optcfg/type.go
package optcfg

// Get returns the value of the option at the dotted path. found is false when
// the path does not name an option or the option has no value.
func (c *Config) Get(path string) (any, bool) {
	opt, err := c.Lookup(path)
	if err != nil || !opt.HasValue() {
		return nil, false
	}
	return opt.ValueAny(), true
}

// ValueOf returns the value at path as T. Integer values also convert to
// other integer and float types.
func ValueOf[T any](c *Config, path string) (T, error) {
	var zero T
	opt, err := c.Lookup(path)
	if err != nil {
		return zero, err
	}
	if !opt.HasValue() {
		return zero, &ValidationError{Path: path, Message: "no value"}
	}
	v, err := convertTo[T](opt.ValueAny())
	if err != nil {
		return zero, &UsageError{Path: path, Message: err.Error()}
	}
	return v, nil
}

// String retrieves the text form of the option at path.
func (c *Config) String(path string) (string, error) {
	opt, err := c.Lookup(path)
	if err != nil {
		return "", err
	}
	return opt.AsString(), nil
}

// Int64 retrieves an integer configuration value using the path.
func (c *Config) Int64(path string) (int64, error) {
	return ValueOf[int64](c, path)
}

// Bool retrieves a boolean configuration value using the path.
func (c *Config) Bool(path string) (bool, error) {
	return ValueOf[bool](c, path)
}

// Float64 retrieves a numeric configuration value using the path.
func (c *Config) Float64(path string) (float64, error) {
	return ValueOf[float64](c, path)
}
