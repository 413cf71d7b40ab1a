package types

// ProjectConfig is the optional chaosprobe.yaml file. Every field has a
// working default; the file exists so a team can pin workload coordinates
// per repository instead of repeating CLI flags.
type ProjectConfig struct {
	Workload    string `yaml:"workload,omitempty"`
	Region      string `yaml:"region,omitempty"`
	Experiments int    `yaml:"experiments,omitempty"`
	Tags        string `yaml:"tags,omitempty"`
	Model       string `yaml:"model,omitempty"`
	SmallModel  string `yaml:"smallModel,omitempty"`
	LargeModel  string `yaml:"largeModel,omitempty"`
}
