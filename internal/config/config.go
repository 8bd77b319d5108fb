// Package config defines the has-decode CLI's flag surface, mirroring
// cmd/top708reader's package-level flag variables plus init() registration.
package config

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// ReceiverKind selects which internal/adapter constructor reads the input.
type ReceiverKind string

const (
	ReceiverSeptentrioHex     ReceiverKind = "septentrio-hex"
	ReceiverSeptentrioDecimal ReceiverKind = "septentrio-decimal"
	ReceiverNovatel           ReceiverKind = "novatel"
	ReceiverJavad             ReceiverKind = "javad"
	ReceiverTopcon            ReceiverKind = "topcon"
	ReceiverSerial            ReceiverKind = "serial"
)

// Config is the resolved set of options driving one has-decode run.
type Config struct {
	Inputs          []string     `yaml:"inputs"`
	ReceiverKind    ReceiverKind `yaml:"receiver_kind"`
	PageIDOffset    int          `yaml:"page_id_offset"`
	Interpreted     bool         `yaml:"interpreted"`
	OutputDir       string       `yaml:"output_dir"`
	MaxAssemblers   int          `yaml:"max_assemblers"`
	LogLevel        string       `yaml:"log_level"`
	SerialPort      string       `yaml:"serial_port"`
	SerialBaud      int          `yaml:"serial_baud"`
	WorkerPoolSize  int          `yaml:"worker_pool_size"`
	ConfigFile      string       `yaml:"-"`
}

var (
	input           string
	receiverKind    string
	pageIDOffset    int
	interpreted     bool
	outputDir       string
	maxAssemblers   int
	logLevel        string
	serialPort      string
	serialBaud      int
	workerPoolSize  int
	configFile      string
)

func init() {
	flag.StringVar(&input, "input", "", "input capture file, or a comma-separated list for batch mode")
	flag.StringVar(&receiverKind, "receiver-kind", string(ReceiverSeptentrioHex),
		"septentrio-hex, septentrio-decimal, novatel, javad, topcon, or serial")
	flag.IntVar(&pageIDOffset, "page-id-offset", 0, "0 or 1, depending on ICD indexing era")
	flag.BoolVar(&interpreted, "interpreted", false, "Septentrio capture carries pre-interpreted TOW/SVID fields")
	flag.StringVar(&outputDir, "output-dir", ".", "directory for the four *_has_*.csv output files")
	flag.IntVar(&maxAssemblers, "max-assemblers", 64, "cap on concurrently in-flight message assemblers")
	flag.StringVar(&logLevel, "log-level", "info", "panic, fatal, error, warn, info, debug, or trace")
	flag.StringVar(&serialPort, "serial-port", "", "serial device path when receiver-kind=serial")
	flag.IntVar(&serialBaud, "serial-baud", 115200, "serial baud rate when receiver-kind=serial")
	flag.IntVar(&workerPoolSize, "workers", runtime.NumCPU(), "worker pool size for multi-file batch mode")
	flag.StringVar(&configFile, "config", "", "optional YAML file overriding all of the above")
}

// Parse reads os.Args, applies an optional -config YAML overlay, and
// returns the resolved Config. Every field present in the YAML file
// overrides the corresponding flag value; fields absent from the file keep
// their flag values.
func Parse() (*Config, error) {
	if !flag.Parsed() {
		flag.Parse()
	}

	cfg := &Config{
		ReceiverKind:   ReceiverKind(receiverKind),
		PageIDOffset:   pageIDOffset,
		Interpreted:    interpreted,
		OutputDir:      outputDir,
		MaxAssemblers:  maxAssemblers,
		LogLevel:       logLevel,
		SerialPort:     serialPort,
		SerialBaud:     serialBaud,
		WorkerPoolSize: workerPoolSize,
		ConfigFile:     configFile,
	}
	if input != "" {
		cfg.Inputs = splitInputs(input)
	}

	if configFile != "" {
		if err := cfg.loadYAML(configFile); err != nil {
			return nil, fmt.Errorf("config: loading %s: %w", configFile, err)
		}
	}
	if len(cfg.Inputs) == 0 && cfg.ReceiverKind != ReceiverSerial {
		return nil, fmt.Errorf("config: no input files given (use -input or a config file)")
	}
	return cfg, nil
}

func (c *Config) loadYAML(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return yaml.NewDecoder(f).Decode(c)
}

func splitInputs(s string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	return out
}
