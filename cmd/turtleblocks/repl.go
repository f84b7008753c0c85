package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/peterh/liner"

	"turtleblocks/internal/blocks"
	"turtleblocks/internal/render"
	"turtleblocks/internal/session"
)

const (
	historyFile = ".turtleblocks_history"
	prompt      = "🐢 "
)

const replHelp = `Type blocks to append them, e.g. "start", "loop 4 forward 100 right 90 end".
Commands:
  :run            run the program
  :reset          stop a run and put the turtle back in the middle
  :list           show the blocks with their numbers
  :del N          remove block N
  :undo           undo the last change to the blocks
  :clear          remove every block
  :preview        show the Python turtle program
  :speed N        animation speed 0 (instant) to 10
  :grid N         grid cell size, 0 turns the grid off
  :save FILE      save the blocks as a script
  :png FILE       save the drawing
  :quit           exit
`

// repl owns the editor and an undo history of block sequences.
type repl struct {
	editor  *blocks.Editor
	sess    *session.Session
	term    *render.Terminal
	history []blocks.Sequence
	out     io.Writer
}

func cmdRepl(args []string) int {
	fs := flag.NewFlagSet("repl", flag.ExitOnError)
	var c common
	c.register(fs)
	fs.Parse(args)

	settings, log, err := c.load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	r := &repl{editor: blocks.NewEditor(nil), out: os.Stdout}
	r.sess = newSession(settings, r.editor, log)
	r.term = render.NewTerminal(io.Discard, settings.Width, settings.Height, 60, 20)
	r.sess.Observe(r.term)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	fmt.Fprint(r.out, replHelp)
	for {
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(r.out)
			return 0
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		ln.AppendHistory(line)

		if strings.HasPrefix(line, ":") {
			if quit := r.command(line); quit {
				return 0
			}
			continue
		}
		if err := r.appendScript(line); err != nil {
			fmt.Fprintln(r.out, err)
		}
	}
}

// remember pushes the current blocks onto the undo history.
func (r *repl) remember() {
	r.history = append(r.history, r.editor.Snapshot())
}

func (r *repl) appendScript(line string) error {
	seq, err := blocks.Parse("repl", line)
	if err != nil {
		return err
	}
	r.remember()
	return r.editor.Append(seq...)
}

// command runs one ':' command and reports whether the REPL should exit.
func (r *repl) command(line string) bool {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case ":quit", ":q":
		return true
	case ":help", ":h":
		fmt.Fprint(r.out, replHelp)
	case ":run":
		r.run()
	case ":reset":
		r.sess.Reset()
		fmt.Fprintln(r.out, r.sess.Status().Text)
	case ":list":
		r.list()
	case ":del":
		n, err := strconv.Atoi(arg)
		if err != nil {
			fmt.Fprintln(r.out, "usage: :del N")
			break
		}
		r.remember()
		if _, err := r.editor.Remove(n - 1); err != nil {
			r.history = r.history[:len(r.history)-1]
			fmt.Fprintln(r.out, err)
		}
	case ":undo":
		if len(r.history) == 0 {
			fmt.Fprintln(r.out, "nothing to undo")
			break
		}
		r.editor.Replace(r.history[len(r.history)-1])
		r.history = r.history[:len(r.history)-1]
	case ":clear":
		r.remember()
		r.editor.Clear()
	case ":preview":
		code, err := r.sess.Preview()
		if err != nil {
			fmt.Fprintln(r.out, err)
			break
		}
		fmt.Fprint(r.out, code)
	case ":speed":
		n, err := strconv.Atoi(arg)
		if err != nil {
			fmt.Fprintln(r.out, "usage: :speed N")
			break
		}
		r.sess.SetSpeed(n)
	case ":grid":
		cell, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			fmt.Fprintln(r.out, "usage: :grid N")
			break
		}
		r.sess.SetGridMode(cell > 0, cell)
	case ":save":
		if arg == "" {
			fmt.Fprintln(r.out, "usage: :save FILE")
			break
		}
		if err := os.WriteFile(arg, []byte(blocks.Format(r.editor.Snapshot())), 0644); err != nil {
			fmt.Fprintln(r.out, err)
		}
	case ":png":
		if arg == "" {
			fmt.Fprintln(r.out, "usage: :png FILE")
			break
		}
		if err := writePNG(arg, r.sess); err != nil {
			fmt.Fprintln(r.out, err)
		}
	default:
		fmt.Fprintf(r.out, "unknown command %s, type :help\n", name)
	}
	return false
}

func (r *repl) list() {
	seq := r.editor.Snapshot()
	if len(seq) == 0 {
		fmt.Fprintln(r.out, "no blocks yet")
		return
	}
	depth := 0
	for i, in := range seq {
		if _, ok := in.(blocks.LoopEnd); ok && depth > 0 {
			depth--
		}
		fmt.Fprintf(r.out, "%3d  %s%s\n", i+1, strings.Repeat("    ", depth), blocks.FormatInstruction(in))
		if _, ok := in.(blocks.LoopStart); ok {
			depth++
		}
	}
}

// run executes the program; Ctrl+C stops it the way the reset button does.
func (r *repl) run() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := r.sess.Run(ctx); err == nil {
		fmt.Fprint(r.out, r.term.String())
	}
	fmt.Fprintln(r.out, r.sess.Status().Text)
}
