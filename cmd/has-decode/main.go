// Command has-decode drives the Galileo HAS decoder over a file or serial
// capture and writes the four *_has_*.csv correction streams.
package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dborio/gohas/internal/adapter"
	"github.com/dborio/gohas/internal/config"
	"github.com/dborio/gohas/internal/csvout"
	"github.com/dborio/gohas/internal/errlog"
	"github.com/dborio/gohas/pkg/has"
)

func main() {
	cfg, err := config.Parse()
	if err != nil {
		logrus.Fatalf("has-decode: %v", err)
	}

	logger := logrus.New()
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Fatalf("has-decode: invalid log level %q: %v", cfg.LogLevel, err)
	}
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	runID := uuid.New().String()
	runLogger := logger.WithField("run_id", runID)

	if len(cfg.Inputs) > 1 {
		if err := runBatch(cfg, runLogger); err != nil {
			runLogger.Fatalf("batch run failed: %v", err)
		}
		return
	}

	var input string
	if len(cfg.Inputs) == 1 {
		input = cfg.Inputs[0]
	}
	if err := runOne(cfg, input, runLogger); err != nil {
		runLogger.Fatalf("run failed: %v", err)
	}
}

// runOne decodes a single input (file path, or "" for receiver_kind=serial)
// and writes its four output files under cfg.OutputDir.
func runOne(cfg *config.Config, input string, logger logrus.FieldLogger) error {
	ad, closer, err := openAdapter(cfg, input, logger)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	base := "has"
	if input != "" {
		base = strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	}
	out, err := csvout.New(cfg.OutputDir, base)
	if err != nil {
		return err
	}
	defer out.Close()

	suppressor := errlog.New(logger, 0)
	dec := has.NewDecoder(logger, cfg.PageIDOffset)
	dec.SetMaxAssemblers(cfg.MaxAssemblers)

	epochs := 0
	for {
		epoch, err := ad.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		corrections, err := dec.ProcessEpoch(epoch)
		if err != nil {
			if has.IsTransient(err) {
				suppressor.Warn("ProcessEpoch", 0, 0, err.Error())
				continue
			}
			return err
		}
		for _, c := range corrections {
			if err := out.Write(&c); err != nil {
				return err
			}
		}

		epochs++
		if epochs%1000 == 0 {
			logger.WithField("epochs", epochs).Info("progress")
		}
	}
	logger.WithField("epochs", epochs).Info("run complete")
	return nil
}

func openAdapter(cfg *config.Config, input string, logger logrus.FieldLogger) (adapter.Adapter, io.Closer, error) {
	if cfg.ReceiverKind == config.ReceiverSerial {
		s, err := adapter.NewSerial(cfg.SerialPort, cfg.SerialBaud)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	}

	f, err := os.Open(input)
	if err != nil {
		return nil, nil, err
	}

	switch cfg.ReceiverKind {
	case config.ReceiverSeptentrioHex:
		return adapter.NewSeptentrio(f, adapter.FormatHex, cfg.Interpreted), f, nil
	case config.ReceiverSeptentrioDecimal:
		return adapter.NewSeptentrio(f, adapter.FormatDecimal, cfg.Interpreted), f, nil
	case config.ReceiverJavad:
		return adapter.NewJavad(f), f, nil
	case config.ReceiverNovatel:
		return adapter.NewNovatel(f), f, nil
	case config.ReceiverTopcon:
		return adapter.NewTopcon(f), f, nil
	default:
		f.Close()
		return nil, nil, errUnknownReceiverKind(cfg.ReceiverKind)
	}
}

type unknownReceiverKindError string

func (e unknownReceiverKindError) Error() string { return "has-decode: unknown receiver kind " + string(e) }

func errUnknownReceiverKind(k config.ReceiverKind) error {
	return unknownReceiverKindError(string(k))
}
