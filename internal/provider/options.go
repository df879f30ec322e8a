package provider

const (
	// DefaultTemperature applies when a session has no temperature set.
	DefaultTemperature float32 = 0.7
	// DefaultMaxTokens bounds generation when a session has no budget set.
	DefaultMaxTokens = 2000
	// DefaultModel is used when a session carries no model identifier.
	DefaultModel = "gpt-4"
)

// Options carries per-request generation settings. Temperature is on the
// 0-100 integer scale used by the session store; zero or negative means
// unset.
type Options struct {
	Model       string
	Temperature int
	MaxTokens   int
}

// TemperatureValue converts the stored 0-100 scale to the provider's 0-1
// scale, defaulting when unset. A stored zero is treated as unset, matching
// the upstream behavior this service replaces.
func (o Options) TemperatureValue() float32 {
	if o.Temperature <= 0 {
		return DefaultTemperature
	}
	return float32(o.Temperature) / 100
}

// MaxTokensValue returns the generation budget, defaulting when unset.
func (o Options) MaxTokensValue() int {
	if o.MaxTokens <= 0 {
		return DefaultMaxTokens
	}
	return o.MaxTokens
}

// ModelValue returns the model identifier, defaulting when unset.
func (o Options) ModelValue() string {
	if o.Model == "" {
		return DefaultModel
	}
	return o.Model
}
