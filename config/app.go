package config

import (
	"runtime"

	"github.com/kbukum/readflow/duplex"
	"github.com/kbukum/readflow/errors"
	"github.com/kbukum/readflow/logger"
	"github.com/kbukum/readflow/pipeline"
	"github.com/kbukum/readflow/subread"
	"github.com/kbukum/readflow/validation"
)

// AppConfig is the root configuration of the readflow binary.
type AppConfig struct {
	Name        string          `yaml:"name" mapstructure:"name" validate:"required"`
	Environment string          `yaml:"environment" mapstructure:"environment" validate:"oneof=development staging production"`
	Logging     logger.Config   `yaml:"logging" mapstructure:"logging"`
	Pipeline    PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Monitor     MonitorConfig   `yaml:"monitor" mapstructure:"monitor"`
	Telemetry   TelemetryConfig `yaml:"telemetry" mapstructure:"telemetry"`
}

// PipelineConfig sizes the duplex graph.
//
// Unless ExplicitCandidates is set, a template named by the pairs file that
// carries no duplex candidate count is assumed to produce one duplex read.
type PipelineConfig struct {
	QueueCapacity      int           `yaml:"queue_capacity" mapstructure:"queue_capacity" validate:"gte=1"`
	EncoderWorkers     int           `yaml:"encoder_workers" mapstructure:"encoder_workers" validate:"gte=1"`
	ReassemblerWorkers int           `yaml:"reassembler_workers" mapstructure:"reassembler_workers" validate:"gte=1"`
	TaggerWorkers      int           `yaml:"tagger_workers" mapstructure:"tagger_workers" validate:"gte=1"`
	WriterWorkers      int           `yaml:"writer_workers" mapstructure:"writer_workers" validate:"gte=1"`
	PairsFile          string        `yaml:"pairs_file" mapstructure:"pairs_file"`
	PairsOnly          bool          `yaml:"pairs_only" mapstructure:"pairs_only"`
	ExplicitCandidates bool          `yaml:"explicit_candidates" mapstructure:"explicit_candidates"`
	WithSignal         bool          `yaml:"with_signal" mapstructure:"with_signal"`
	IncompleteFamilies string        `yaml:"incomplete_families" mapstructure:"incomplete_families" validate:"oneof=discard flush"`
	Encoder            duplex.Config `yaml:"encoder" mapstructure:"encoder"`
}

// MonitorConfig controls the HTTP status server.
type MonitorConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Addr    string `yaml:"addr" mapstructure:"addr"`
}

// TelemetryConfig controls OpenTelemetry export. Export is disabled when
// Endpoint is empty.
type TelemetryConfig struct {
	Endpoint    string  `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure    bool    `yaml:"insecure" mapstructure:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio" mapstructure:"sample_ratio" validate:"gte=0,lte=1"`
}

// ApplyDefaults fills zero-valued fields.
func (c *AppConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "readflow"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	c.Logging.ApplyDefaults()
	c.Pipeline.ApplyDefaults()
	if c.Monitor.Addr == "" {
		c.Monitor.Addr = ":8080"
	}
	if c.Telemetry.SampleRatio == 0 {
		c.Telemetry.SampleRatio = 1
	}
}

// ApplyDefaults fills zero-valued pipeline fields.
func (c *PipelineConfig) ApplyDefaults() {
	if c.QueueCapacity == 0 {
		c.QueueCapacity = pipeline.DefaultCapacity
	}
	if c.EncoderWorkers == 0 {
		c.EncoderWorkers = runtime.NumCPU()
	}
	if c.ReassemblerWorkers == 0 {
		c.ReassemblerWorkers = 2
	}
	if c.TaggerWorkers == 0 {
		c.TaggerWorkers = 2
	}
	if c.WriterWorkers == 0 {
		c.WriterWorkers = 1
	}
	// Derived candidate counts cannot be withdrawn when the encoder rejects
	// a pair, so the template's family is only complete at drain.
	if c.IncompleteFamilies == "" {
		c.IncompleteFamilies = string(subread.Flush)
	}
	c.Encoder.ApplyDefaults()
}

// Validate checks struct tags, including the nested encoder thresholds, and
// the logging section.
func (c *AppConfig) Validate() error {
	v := validation.New()
	v.Merge("config", validation.Validate(c))
	v.Merge("logging", c.Logging.Validate())
	if c.Monitor.Enabled {
		v.Required("monitor.addr", c.Monitor.Addr)
	}
	return v.Validate()
}

// IncompletePolicy returns the parsed shutdown policy of the reassembler.
func (c *PipelineConfig) IncompletePolicy() (subread.Policy, error) {
	p, err := subread.ParsePolicy(c.IncompleteFamilies)
	if err != nil {
		return "", errors.InvalidConfig("pipeline.incomplete_families", "must be discard or flush").WithCause(err)
	}
	return p, nil
}
