// propwire encodes component props into island payloads, decodes payloads
// for inspection and converts payloads between transports.
//
//	propwire encode  [--in props.jsonc] [--transport json] [--component X --hydrate load]
//	propwire decode  [--in payload] [--transport json] [--strict]
//	propwire convert [--in payload] --from json --to cbor
//
// Input defaults to stdin, output to stdout.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/tidwall/jsonc"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/unkn0wn-root/propwire"
	"github.com/unkn0wn-root/propwire/codec"
	lrlog "github.com/unkn0wn-root/propwire/log/logrus"
	slogadapter "github.com/unkn0wn-root/propwire/log/slog"
	zaplog "github.com/unkn0wn-root/propwire/log/zap"
	zlog "github.com/unkn0wn-root/propwire/log/zerolog"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	in         string
	out        string
	transport  string
	from       string
	to         string
	component  string
	hydrate    string
	strict     bool
	maxDepth   int
	maxPayload int
	logLevel   string
	logFormat  string
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		printUsage(stderr)
		return fmt.Errorf("missing command")
	}
	cmd, rest := args[0], args[1:]

	var o options
	fs := pflag.NewFlagSet("propwire "+cmd, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVarP(&o.in, "in", "i", "-", "input file ('-' for stdin)")
	fs.StringVarP(&o.out, "out", "o", "-", "output file ('-' for stdout)")
	fs.StringVar(&o.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	fs.StringVar(&o.logFormat, "log-format", "zerolog", "logger backend: zerolog, zap, logrus, slog")
	fs.IntVar(&o.maxPayload, "max-payload", 0, "reject payloads larger than this many bytes (0 = no limit)")

	switch cmd {
	case "encode":
		fs.StringVarP(&o.transport, "transport", "t", "json", "payload transport: "+strings.Join(codec.Names, ", "))
		fs.StringVar(&o.component, "component", "", "component display name, used in error messages")
		fs.StringVar(&o.hydrate, "hydrate", "", "hydration directive, used in error messages")
		fs.IntVar(&o.maxDepth, "max-depth", 0, "container nesting limit (0 = no limit)")
	case "decode":
		fs.StringVarP(&o.transport, "transport", "t", "json", "payload transport: "+strings.Join(codec.Names, ", "))
		fs.BoolVar(&o.strict, "strict", false, "fail on unknown tags and malformed nodes")
	case "convert":
		fs.StringVar(&o.from, "from", "json", "input transport")
		fs.StringVar(&o.to, "to", "json", "output transport")
		fs.BoolVar(&o.strict, "strict", false, "fail on unknown tags and malformed nodes")
	case "help", "-h", "--help":
		printUsage(stdout)
		return nil
	default:
		printUsage(stderr)
		return fmt.Errorf("unknown command %q", cmd)
	}
	if err := fs.Parse(rest); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}

	logger, err := newLogger(stderr, o.logFormat, o.logLevel)
	if err != nil {
		return err
	}

	input, err := readInput(o.in, stdin)
	if err != nil {
		return err
	}

	var output []byte
	switch cmd {
	case "encode":
		output, err = encode(input, o, logger)
	case "decode":
		output, err = decode(input, o, logger)
	case "convert":
		output, err = convert(input, o, logger)
	}
	if err != nil {
		return err
	}
	return writeOutput(o.out, stdout, output)
}

// newLogger builds the --log-format backend writing human-readable lines to w.
func newLogger(w io.Writer, format, level string) (propwire.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl < zerolog.DebugLevel || lvl > zerolog.ErrorLevel {
		return nil, fmt.Errorf("invalid --log-level %q", level)
	}
	switch format {
	case "zerolog":
		zl := zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: true}).Level(lvl).With().Timestamp().Logger()
		return zlog.Logger{L: zl}, nil
	case "zap":
		zl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid --log-level %q: %w", level, err)
		}
		enc := zap.NewDevelopmentEncoderConfig()
		core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(w), zl)
		return zaplog.Logger{L: zap.New(core)}, nil
	case "logrus":
		ll, err := logrus.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid --log-level %q: %w", level, err)
		}
		base := logrus.New()
		base.SetOutput(w)
		base.SetFormatter(&logrus.TextFormatter{DisableColors: true})
		base.SetLevel(ll)
		return lrlog.New(base), nil
	case "slog":
		var sl slog.Level
		if err := sl.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("invalid --log-level %q: %w", level, err)
		}
		h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: sl})
		return slogadapter.Logger{L: slog.New(h)}, nil
	}
	return nil, fmt.Errorf("unknown --log-format %q", format)
}

func serializer(transport string, o options, logger propwire.Logger) (propwire.Serializer, error) {
	t, err := codec.ByName(transport)
	if err != nil {
		return nil, err
	}
	return propwire.New(propwire.Options{
		Transport:  t,
		Logger:     logger,
		Strict:     o.strict,
		MaxDepth:   o.maxDepth,
		MaxPayload: o.maxPayload,
	})
}

// encode reads plain JSON props; comments and trailing commas are allowed.
func encode(input []byte, o options, logger propwire.Logger) ([]byte, error) {
	var props map[string]any
	if err := json.Unmarshal(jsonc.ToJSON(input), &props); err != nil {
		return nil, fmt.Errorf("parse props: %w", err)
	}
	if props == nil {
		return nil, fmt.Errorf("parse props: top level must be an object")
	}
	s, err := serializer(o.transport, o, logger)
	if err != nil {
		return nil, err
	}
	return s.Serialize(props, propwire.Metadata{DisplayName: o.component, Hydrate: o.hydrate})
}

// decode prints the reconstructed props as annotated YAML.
func decode(input []byte, o options, logger propwire.Logger) ([]byte, error) {
	s, err := serializer(o.transport, o, logger)
	if err != nil {
		return nil, err
	}
	props, err := s.Deserialize(trimText(o.transport, input))
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	enc := yaml.NewEncoder(&b)
	enc.SetIndent(2)
	if err := enc.Encode(yamlTree(props)); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return []byte(b.String()), nil
}

func convert(input []byte, o options, logger propwire.Logger) ([]byte, error) {
	src, err := serializer(o.from, o, logger)
	if err != nil {
		return nil, err
	}
	dst, err := serializer(o.to, options{maxDepth: o.maxDepth}, logger)
	if err != nil {
		return nil, err
	}
	props, err := src.Deserialize(trimText(o.from, input))
	if err != nil {
		return nil, err
	}
	return dst.Serialize(props, propwire.Metadata{})
}

// trimText drops the trailing newline shells add to JSON input.
func trimText(transport string, b []byte) []byte {
	if transport == "json" || transport == "" {
		return []byte(strings.TrimSpace(string(b)))
	}
	return b
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

func writeOutput(path string, stdout io.Writer, b []byte) error {
	if path == "-" {
		_, err := stdout.Write(b)
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `propwire: encode, decode and convert island props payloads.

Usage:
  propwire encode  [--in FILE] [--transport NAME] [--component NAME] [--hydrate DIRECTIVE]
  propwire decode  [--in FILE] [--transport NAME] [--strict]
  propwire convert [--in FILE] --from NAME --to NAME

Transports: %s
Run 'propwire <command> --help' for command flags.
`, strings.Join(codec.Names, ", "))
}
