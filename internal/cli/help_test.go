package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
)

type testCLI struct {
	Config string `short:"c" type:"path" help:"Path to TOML config file"`

	Watch struct {
		Track string `arg:"" optional:"" help:"MP3 track to play"`
	} `cmd:"" help:"Drive controls in the terminal"`

	Serve struct {
		Addr string `default:"127.0.0.1:8088" help:"Listen address"`
	} `cmd:"" help:"Stream controls to renderers"`
}

func renderHelp(t *testing.T, args ...string) string {
	t.Helper()

	var out bytes.Buffer
	parser, err := kong.New(&testCLI{},
		kong.Name("feel"),
		kong.Writers(&out, &out),
		kong.Exit(func(int) {}),
		kong.Help(StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)
	if err != nil {
		t.Fatalf("kong.New: %v", err)
	}
	// Parse errors after the help hook are irrelevant here
	_, _ = parser.Parse(args)
	return out.String()
}

func TestStyledHelpRoot(t *testing.T) {
	out := renderHelp(t, "--help")

	for _, want := range []string{"feel ♪", "Usage:", "feel [flags] <command>", "Commands:", "watch", "serve", "-c, --config=", "-h, --help"} {
		if !strings.Contains(out, want) {
			t.Errorf("root help missing %q\n%s", want, out)
		}
	}
}

func TestStyledHelpCommand(t *testing.T) {
	out := renderHelp(t, "serve", "--help")

	for _, want := range []string{"Stream controls to renderers", "feel serve [flags]", "--addr=", "127.0.0.1:8088", "--config="} {
		if !strings.Contains(out, want) {
			t.Errorf("serve help missing %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "Commands:") {
		t.Error("leaf command help lists commands")
	}
}

func TestStyledHelpArguments(t *testing.T) {
	out := renderHelp(t, "watch", "--help")
	if !strings.Contains(out, "Arguments:") || !strings.Contains(out, "MP3 track to play") {
		t.Errorf("watch help missing arguments\n%s", out)
	}
}
