package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/JaimeStill/clerk/internal/workflow"
	"github.com/JaimeStill/clerk/pkg/formatting"
)

// errQuit ends a run without writing a document.
var errQuit = errors.New("quit")

const (
	cmdQuit     = "/quit"
	cmdReset    = "/reset"
	cmdGenerate = "/generate"
)

// filler renders one workflow run on a terminal.
type filler struct {
	machine *workflow.Machine
	in      *bufio.Scanner
	out     io.Writer
	logger  *slog.Logger

	// printed counts the log turns already written to out.
	printed int
}

func newFiller(b workflow.Backend, in io.Reader, out io.Writer, logger *slog.Logger) *filler {
	return &filler{
		machine: workflow.New(b, workflow.WithLogger(logger)),
		in:      bufio.NewScanner(in),
		out:     out,
		logger:  logger,
	}
}

// run uploads the template at path, converses until the document is
// complete, and writes it to outPath (or next to the template).
func (f *filler) run(ctx context.Context, path, outPath string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read template: %w", err)
	}
	file := workflow.UploadedFile{Filename: filepath.Base(path), Data: data}

	if err := f.upload(ctx, file); err != nil {
		return err
	}

	for f.machine.Phase() != workflow.PhaseReview {
		line, err := f.prompt()
		if errors.Is(err, errQuit) {
			fmt.Fprintln(f.out, "Exiting without a document.")
			return nil
		}
		if err != nil {
			return err
		}

		switch line {
		case cmdReset:
			if err := f.machine.Reset(); err != nil {
				return err
			}
			f.printed = 0
			fmt.Fprintln(f.out, "Starting over.")
			if err := f.upload(ctx, file); err != nil {
				return err
			}
			continue
		case cmdGenerate:
			err = f.machine.Generate(ctx)
		default:
			err = f.machine.Send(ctx, line)
		}

		f.render()
		switch {
		case err == nil:
		case errors.Is(err, workflow.ErrNothingToGenerate):
			fmt.Fprintf(f.out, "! %v\n", err)
		case !recoverable(err):
			return err
		}
	}

	return f.write(outPath, path)
}

func (f *filler) upload(ctx context.Context, file workflow.UploadedFile) error {
	err := f.machine.Upload(ctx, file)
	f.render()
	if err != nil {
		return fmt.Errorf("upload %s: %w", file.Filename, err)
	}
	return nil
}

// prompt reads the next non-empty line. End of input is treated as /quit.
func (f *filler) prompt() (string, error) {
	for {
		fmt.Fprint(f.out, "> ")
		if !f.in.Scan() {
			if err := f.in.Err(); err != nil {
				return "", fmt.Errorf("read input: %w", err)
			}
			return "", errQuit
		}

		line := strings.TrimSpace(f.in.Text())
		switch line {
		case "":
			continue
		case cmdQuit:
			return "", errQuit
		}
		return line, nil
	}
}

// render prints assistant turns added since the last call and any
// surfaced error.
func (f *filler) render() {
	state := f.machine.State()
	turns := state.Log.Turns()

	for _, t := range turns[min(f.printed, len(turns)):] {
		if t.Role == workflow.RoleAssistant {
			fmt.Fprintf(f.out, "\n%s\n\n", t.Message)
		}
	}
	f.printed = len(turns)

	if state.Status.Error != "" {
		fmt.Fprintf(f.out, "! %s\n", state.Status.Error)
		if state.Completed && state.Phase == workflow.PhaseConversation {
			fmt.Fprintf(f.out, "  type %s to retry\n", cmdGenerate)
		}
	}
}

func (f *filler) write(outPath, templatePath string) error {
	art := f.machine.State().Artifact
	if art == nil {
		return errors.New("no document was produced")
	}

	if outPath == "" {
		outPath = filepath.Join(filepath.Dir(templatePath), artifactName(art.Filename))
	}
	if samePath(outPath, templatePath) {
		return fmt.Errorf("refusing to overwrite template %s, use --out", templatePath)
	}
	if err := os.WriteFile(outPath, art.Data, 0o644); err != nil {
		return fmt.Errorf("write document: %w", err)
	}

	fmt.Fprintf(f.out, "Wrote %s (%s)\n", outPath, formatting.FormatBytes(int64(art.Size()), 1))
	return nil
}

// artifactName keeps only the final element of name, falling back to the
// default artifact name when nothing usable remains.
func artifactName(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	if name == "" || name == "." || name == ".." {
		return workflow.DefaultArtifactName
	}
	return name
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

// recoverable reports whether the conversation can continue after err.
// Remote failures are already surfaced in the status line.
func recoverable(err error) bool {
	return errors.Is(err, workflow.ErrTransport) || errors.Is(err, workflow.ErrGeneration)
}
