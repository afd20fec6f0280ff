package config

import "time"

// Config holds jobrun settings loaded from JSON or YAML.
type Config struct {
	// JobsDataPath is the root holding triggered/<job>/<run> history.
	JobsDataPath string `json:"jobs_data_path" yaml:"jobs_data_path"`
	LogLevel     string `json:"log_level,omitempty" yaml:"log_level"`
	// TraceFile, when set, also receives the diagnostic trace.
	TraceFile  string `json:"trace_file,omitempty" yaml:"trace_file"`
	InstanceID string `json:"instance_id,omitempty" yaml:"instance_id"`

	UniqueRunIDs *bool `json:"unique_run_ids,omitempty" yaml:"unique_run_ids"` // Suffix run ids that collide within a second (default true)
	StrictStatus bool  `json:"strict_status,omitempty" yaml:"strict_status"`   // Fail status updates on a corrupt status file

	CommandTimeout string `json:"command_timeout,omitempty" yaml:"command_timeout"` // e.g. "30m"; empty means no timeout
}

// UniqueRunIDsEnabled returns whether colliding run ids are suffixed
// (defaults to true).
func (c Config) UniqueRunIDsEnabled() bool {
	if c.UniqueRunIDs == nil {
		return true
	}
	return *c.UniqueRunIDs
}

// GetCommandTimeout parses the command timeout. Zero means none.
func (c Config) GetCommandTimeout() time.Duration {
	if c.CommandTimeout == "" {
		return 0
	}
	d, err := time.ParseDuration(c.CommandTimeout)
	if err != nil || d < 0 {
		return 0
	}
	return d
}
