// Package sensors contributes environmental context to the cognitive
// pipeline. Each sensor renders what it knows as a short text block;
// a failing sensor contributes nothing rather than failing the
// pipeline.
package sensors

// Sensor is one pluggable context contributor.
type Sensor interface {
	Name() string
	// Context returns a human-readable context block, or "" when the
	// sensor has nothing to report.
	Context() string
}

// Gather concatenates the context of every sensor that has something
// to say.
func Gather(list []Sensor) []string {
	var out []string
	for _, s := range list {
		if ctx := s.Context(); ctx != "" {
			out = append(out, ctx)
		}
	}
	return out
}
