package signature

// yamlSignature is the intermediate struct for parsing one signature entry,
// adapted from the teacher's pkg/rule.yamlRule to the spec's Signature
// fields (id/pattern/anchored/timeout_ms/keywords rather than
// name/examples/categories).
type yamlSignature struct {
	ID          int64    `yaml:"id"`
	Pattern     string   `yaml:"pattern"`
	Description string   `yaml:"description,omitempty"`
	Anchored    bool     `yaml:"anchored,omitempty"`
	TimeoutMS   uint32   `yaml:"timeout_ms,omitempty"`
	Keywords    []string `yaml:"keywords,omitempty"`
}

// yamlSignaturesFile is the top-level structure of one signatures YAML file.
type yamlSignaturesFile struct {
	Signatures []yamlSignature `yaml:"signatures"`
}
