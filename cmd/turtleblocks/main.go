package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"turtleblocks/internal/blocks"
	"turtleblocks/internal/config"
	"turtleblocks/internal/interp"
	"turtleblocks/internal/logger"
	"turtleblocks/internal/render"
	"turtleblocks/internal/server"
	"turtleblocks/internal/session"
	"turtleblocks/internal/turtle"
)

const (
	appName       = "turtleblocks"
	defaultConfig = "turtleblocks.cfg"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch cmd := os.Args[1]; cmd {
	case "run":
		os.Exit(cmdRun(os.Args[2:]))
	case "preview":
		os.Exit(cmdPreview(os.Args[2:]))
	case "repl":
		os.Exit(cmdRepl(os.Args[2:]))
	case "serve":
		os.Exit(cmdServe(os.Args[2:]))
	case "config":
		if _, err := config.DefaultConfig().WriteTo(os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	case "-h", "--help", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", appName, cmd)
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Printf(`Usage:
  %[1]s run [flags] <script>      Run a block script and optionally save the drawing.
  %[1]s preview [flags] <script>  Print the equivalent Python turtle program.
  %[1]s repl [flags]              Build and run a program interactively.
  %[1]s serve [flags]             Serve the block editor websocket API.
  %[1]s config                    Print a default settings file.

Run '%[1]s <command> -h' for the flags of a command.
`, appName)
}

// common holds the flags every subcommand shares.
type common struct {
	configPath string
	verbose    bool
	speed      int
	grid       float64
}

func (c *common) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", defaultConfig, "settings file")
	fs.BoolVar(&c.verbose, "v", false, "debug logging")
	fs.IntVar(&c.speed, "speed", -1, "animation speed 0 (instant) to 10, -1 uses the settings file")
	fs.Float64Var(&c.grid, "grid", -1, "grid cell size, 0 disables, -1 uses the settings file")
}

// load reads the settings file and applies flag overrides.
func (c *common) load() (config.Settings, *logger.Logger, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return config.Settings{}, nil, err
	}
	s := cfg.Settings()
	if c.verbose {
		s.LogLevel = logger.LevelDebug
	}
	if c.speed >= 0 {
		s.Speed = c.speed
	}
	if c.grid >= 0 {
		s.GridCell = c.grid
	}
	return s, logger.New(os.Stderr, s.LogLevel, ""), nil
}

func newSession(s config.Settings, src session.Source, log *logger.Logger) *session.Session {
	speed := s.Speed
	sess := session.New(session.Options{
		Source: src,
		Turtle: turtle.Config{
			Width:  s.Width,
			Height: s.Height,
			Margin: s.Margin,
			Steps:  s.Steps,
			Speed:  &speed,
		},
		Log: log,
	})
	if s.GridCell > 0 {
		sess.SetGridMode(true, s.GridCell)
	}
	return sess
}

func readScript(path string) (blocks.Sequence, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return blocks.Parse(path, string(src))
}

func writePNG(path string, sess *session.Session) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := sess.Canvas().WritePNG(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// -----------------------------------------------------------------------------
// run
// -----------------------------------------------------------------------------

func cmdRun(args []string) int {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	var c common
	c.register(fs)
	out := fs.String("o", "", "write the final drawing as PNG")
	ascii := fs.Bool("ascii", false, "animate a character view in the terminal")
	fs.Parse(args)
	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s run [flags] <script>\n", appName)
		return 2
	}

	settings, log, err := c.load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	seq, err := readScript(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	sess := newSession(settings, blocks.NewEditor(seq), log)
	if *ascii {
		sess.Observe(render.NewTerminal(os.Stdout, settings.Width, settings.Height, 60, 20))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	outcome, err := sess.Run(ctx)
	fmt.Println(sess.Status().Text)
	if err != nil {
		log.Debug("%v", err)
		return 1
	}

	if *out != "" {
		if err := writePNG(*out, sess); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		log.Info("drawing saved to %s", *out)
	}
	return exitCode(outcome)
}

func exitCode(o interp.Outcome) int {
	switch o.Status {
	case interp.Completed:
		return 0
	case interp.Cancelled:
		return 130
	}
	return 1
}

// -----------------------------------------------------------------------------
// preview
// -----------------------------------------------------------------------------

func cmdPreview(args []string) int {
	fs := flag.NewFlagSet("preview", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s preview <script>\n", appName)
		return 2
	}
	seq, err := readScript(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	sess := session.New(session.Options{Source: blocks.NewEditor(seq)})
	code, err := sess.Preview()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Print(code)
	return 0
}

// -----------------------------------------------------------------------------
// serve
// -----------------------------------------------------------------------------

func cmdServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	var c common
	c.register(fs)
	addr := fs.String("addr", "", "listen address, overrides the settings file")
	fs.Parse(args)

	settings, log, err := c.load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *addr != "" {
		settings.Addr = *addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.New(settings, log).ListenAndServe(ctx); err != nil {
		log.Error("%v", err)
		return 1
	}
	return 0
}
