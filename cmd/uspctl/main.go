package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/uspkit/internal/config"
	"github.com/danmuck/uspkit/internal/dump"
	"github.com/danmuck/uspkit/internal/logging"
	"github.com/danmuck/uspkit/internal/protocol"
	"github.com/danmuck/uspkit/internal/protocol/uspmsg"
	"github.com/danmuck/uspkit/internal/protocol/usprecord"
)

const usage = `usage: uspctl <command> [flags]

commands:
  init     write a controller config template
  get      build a Get record
  gsp      build a GetSupportedProtocol record
  decode   decode a record and print it
`

var errUsage = errors.New("uspctl: invalid usage")

func main() {
	logging.ConfigureRuntime()
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		log.Fatal().Err(err).Msg("uspctl failed")
	}
}

// run dispatches one subcommand. A -h on any subcommand prints its flags
// and returns nil.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	err := dispatch(args, stdin, stdout, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	return err
}

func dispatch(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return errUsage
	}
	switch args[0] {
	case "init":
		return runInit(args[1:], stderr)
	case "get":
		return runGet(args[1:], stdout, stderr)
	case "gsp":
		return runGSP(args[1:], stdout, stderr)
	case "decode":
		return runDecode(args[1:], stdin, stdout, stderr)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		fmt.Fprintf(stderr, "unknown command %q\n%s", args[0], usage)
		return errUsage
	}
}

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("uspctl "+name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	return nil
}

func runInit(args []string, stderr io.Writer) error {
	fs := newFlagSet("init", stderr)
	output := fs.String("output", "uspctl.toml", "output path for config template")
	force := fs.Bool("force", false, "overwrite existing config file")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := config.WriteTemplate(*output, *force); err != nil {
		return err
	}
	log.Info().Str("path", *output).Msg("wrote controller config template")
	return nil
}

// loadBuilder reads the controller config and resolves its files against
// the config directory.
func loadBuilder(path string) (*protocol.Builder, error) {
	cfg := config.DefaultControllerConfig()
	baseDir := "."
	if path != "" {
		loaded, err := config.LoadControllerConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
		baseDir = filepath.Dir(path)
	}
	log.Debug().Str("from_id", cfg.FromID).Str("version", cfg.Version).Msg("loaded controller config")
	return cfg.Builder(baseDir)
}

func writeRecord(data []byte, out string, stdout io.Writer) error {
	log.Info().Str("cid", dump.Fingerprint(data)).Int("bytes", len(data)).Msg("built record")
	if out == "" || out == "-" {
		_, err := stdout.Write(data)
		return err
	}
	return os.WriteFile(out, data, 0o644)
}

func runGet(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("get", stderr)
	cfgPath := fs.String("config", "", "controller config path (defaults built in)")
	to := fs.String("to", "", "recipient endpoint id")
	out := fs.String("out", "", "output file (stdout when empty)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *to == "" {
		return fmt.Errorf("%w: -to is required", errUsage)
	}
	builder, err := loadBuilder(*cfgPath)
	if err != nil {
		return err
	}
	data, err := builder.Get(*to, fs.Args())
	if err != nil {
		return err
	}
	return writeRecord(data, *out, stdout)
}

func runGSP(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("gsp", stderr)
	cfgPath := fs.String("config", "", "controller config path (defaults built in)")
	to := fs.String("to", "", "recipient endpoint id")
	msgID := fs.String("id", "", "message id (defaults to -to)")
	versions := fs.String("versions", "1.0,1.1", "controller supported protocol versions")
	out := fs.String("out", "", "output file (stdout when empty)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *to == "" {
		return fmt.Errorf("%w: -to is required", errUsage)
	}
	id := *msgID
	if id == "" {
		id = *to
	}
	builder, err := loadBuilder(*cfgPath)
	if err != nil {
		return err
	}
	msg, err := protocol.BuildMessage(id, &uspmsg.Request{
		ReqType: &uspmsg.GetSupportedProtocol{ControllerSupportedProtocolVersions: *versions},
	})
	if err != nil {
		return err
	}
	payload, err := protocol.EncodeMessage(msg)
	if err != nil {
		return err
	}
	data, err := builder.EncodeRecord(*to, &usprecord.NoSessionContext{Payload: payload})
	if err != nil {
		return err
	}
	return writeRecord(data, *out, stdout)
}

type decoded struct {
	Record dump.RecordDoc `json:"record" msgpack:"record"`
	Msg    *dump.MsgDoc   `json:"msg,omitempty" msgpack:"msg,omitempty"`
}

func runDecode(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := newFlagSet("decode", stderr)
	in := fs.String("in", "", "input file (stdin when empty)")
	format := fs.String("format", "text", "output format: text|json|msgpack")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	var (
		data []byte
		err  error
	)
	if *in == "" || *in == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(*in)
	}
	if err != nil {
		return err
	}

	rec, msg, err := protocol.Open(data)
	if rec == nil {
		return err
	}
	if err != nil {
		log.Warn().Err(err).Msg("record payload is not a USP message")
	}

	out := decoded{Record: dump.FromRecord(rec)}
	if msg != nil {
		doc := dump.FromMsg(msg)
		out.Msg = &doc
	}

	if strings.EqualFold(*format, "text") {
		return printText(stdout, out)
	}
	enc, err := dump.Lookup(*format)
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	encoded, err := enc.Encode(out)
	if err != nil {
		return err
	}
	if _, err := stdout.Write(encoded); err != nil {
		return err
	}
	if _, ok := enc.(dump.JSON); ok {
		_, err = io.WriteString(stdout, "\n")
	}
	return err
}

func printText(w io.Writer, d decoded) error {
	var b strings.Builder
	r := d.Record
	fmt.Fprintf(&b, "record version=%s to=%s from=%s security=%s\n", r.Version, r.ToID, r.FromID, r.PayloadSecurity)
	switch {
	case r.NoSessionContext != nil:
		fmt.Fprintf(&b, "  no_session_context payload=%d bytes\n", len(r.NoSessionContext.Payload))
	case r.SessionContext != nil:
		sc := r.SessionContext
		fmt.Fprintf(&b, "  session_context id=%d seq=%d expected=%d sar=%s/%s segments=%d\n",
			sc.SessionID, sc.SequenceID, sc.ExpectedID, sc.PayloadSARState, sc.PayloadrecSARState, len(sc.Payload))
	default:
		b.WriteString("  no record type\n")
	}
	if m := d.Msg; m != nil {
		if m.Header != nil {
			fmt.Fprintf(&b, "msg id=%s type=%s\n", m.Header.MsgID, m.Header.MsgType)
		}
		switch {
		case m.Request != nil && m.Request.Get != nil:
			for _, p := range m.Request.Get.ParamPaths {
				fmt.Fprintf(&b, "  get %s\n", p)
			}
		case m.Request != nil && m.Request.GetSupportedProtocol != nil:
			fmt.Fprintf(&b, "  get_supported_protocol %s\n", m.Request.GetSupportedProtocol.ControllerSupportedProtocolVersions)
		case m.Response != nil && m.Response.GetSupportedProtocolResp != nil:
			fmt.Fprintf(&b, "  get_supported_protocol_resp %s\n", m.Response.GetSupportedProtocolResp.AgentSupportedProtocolVersions)
		case m.Response != nil && m.Response.GetResp != nil:
			for _, res := range m.Response.GetResp.ReqPathResults {
				fmt.Fprintf(&b, "  get_resp %s err=%d\n", res.RequestedPath, res.ErrCode)
			}
		case m.Error != nil:
			fmt.Fprintf(&b, "  error %d %s\n", m.Error.ErrCode, m.Error.ErrMsg)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
