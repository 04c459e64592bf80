package tool

// intArg extracts an optional integer argument. The model delivers numbers
// as float64 through JSON, so both forms are accepted.
func intArg(args map[string]any, key string) *int {
	switch v := args[key].(type) {
	case float64:
		n := int(v)
		return &n
	case int:
		n := v
		return &n
	default:
		return nil
	}
}
