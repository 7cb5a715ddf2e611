package agent

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

// maxStreamLine bounds a single stream-json line. Result lines carry the
// full collected output, so this is far above bufio's default.
const maxStreamLine = 10 << 20

// CLIDispatcher runs the agent as a subprocess in print mode with
// stream-json output and translates the line stream into Events.
type CLIDispatcher struct {
	// Bin is the agent binary. Empty means "claude".
	Bin string

	// WorkDir is the working directory for the agent process. The agent
	// loads project settings (hooks included) from here.
	WorkDir string

	// PermissionMode is passed through to the agent. Empty means
	// "bypassPermissions": routines run unattended.
	PermissionMode string

	// Timeout caps one dispatch end to end. Zero means no cap beyond ctx.
	Timeout time.Duration
}

var _ Dispatcher = (*CLIDispatcher)(nil)

// Dispatch starts the agent process and returns its event stream. The
// prompt is fed on stdin. The returned channel yields EventText chunks in
// arrival order and ends with exactly one EventResult.
func (d *CLIDispatcher) Dispatch(ctx context.Context, req Request) (<-chan Event, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, fmt.Errorf("empty prompt")
	}

	bin := d.Bin
	if bin == "" {
		bin = "claude"
	}

	cancel := func() {}
	if d.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, d.Timeout)
	}

	cmd := exec.CommandContext(ctx, bin, buildArgs(req, d.PermissionMode)...)
	cmd.Dir = d.WorkDir
	cmd.Stdin = strings.NewReader(req.Prompt)
	cmd.Env = appendHeaderEnv(os.Environ(), req)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("start %s: %w", bin, err)
	}

	slog.Debug("agent process started",
		"bin", bin,
		"resume", req.Resume != "",
		"fork", req.Fork && req.Resume != "",
		"client", req.Client)

	events := make(chan Event)
	go func() {
		defer close(events)
		defer cancel()

		emit := func(ev Event) bool {
			select {
			case events <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		// The terminal event is held until the process is reaped so a
		// non-zero exit can override an optimistic result line.
		var result *Event
		abandoned := false

		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 0, 64<<10), maxStreamLine)
		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}
			texts, res := parseLine(line)
			for _, text := range texts {
				if !emit(Event{Kind: EventText, Text: text}) {
					abandoned = true
					break
				}
			}
			if res != nil {
				result = res
			}
			if abandoned {
				break
			}
		}
		scanErr := scanner.Err()

		// Drain whatever is left so Wait never blocks on the pipe.
		_, _ = io.Copy(io.Discard, stdout)
		waitErr := cmd.Wait()

		if abandoned {
			return
		}

		switch {
		case waitErr != nil:
			emit(Event{Kind: EventResult, Err: fmt.Errorf("run %s: %w%s", bin, waitErr, stderrTail(&stderr))})
		case scanErr != nil:
			emit(Event{Kind: EventResult, Err: fmt.Errorf("read agent stream: %w", scanErr)})
		case result == nil:
			emit(Event{Kind: EventResult, Err: fmt.Errorf("agent stream ended without a result%s", stderrTail(&stderr))})
		default:
			emit(*result)
		}
	}()
	return events, nil
}

// streamLine is the subset of the agent's stream-json envelope the
// dispatcher cares about.
type streamLine struct {
	Type      string `json:"type"`
	Subtype   string `json:"subtype"`
	SessionID string `json:"session_id"`
	IsError   bool   `json:"is_error"`
	Message   struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"message"`
}

// parseLine decodes one stream-json line. Assistant messages yield their
// text blocks in order; a result line yields the terminal event. Lines of
// other types, and lines that do not decode, yield nothing.
func parseLine(line []byte) (texts []string, result *Event) {
	var sl streamLine
	if err := json.Unmarshal(line, &sl); err != nil {
		slog.Debug("skipping malformed stream line", "error", err)
		return nil, nil
	}

	switch sl.Type {
	case "assistant":
		for _, block := range sl.Message.Content {
			if block.Type == "text" && block.Text != "" {
				texts = append(texts, block.Text)
			}
		}
		return texts, nil
	case "result":
		ev := Event{Kind: EventResult, SessionID: sl.SessionID}
		if sl.IsError {
			subtype := sl.Subtype
			if subtype == "" {
				subtype = "unknown"
			}
			ev.Err = fmt.Errorf("agent reported error result: %s", subtype)
		}
		return nil, &ev
	default:
		return nil, nil
	}
}

func buildArgs(req Request, permissionMode string) []string {
	if permissionMode == "" {
		permissionMode = "bypassPermissions"
	}
	args := []string{
		"-p",
		"--output-format", "stream-json",
		"--verbose",
		"--permission-mode", permissionMode,
		"--setting-sources", "project",
	}
	if req.Resume != "" {
		args = append(args, "--resume", req.Resume)
		if req.Fork {
			args = append(args, "--fork-session")
		}
	}
	if req.Allowed != nil {
		args = append(args, "--allowed-tools", strings.Join(req.Allowed, ","))
	}
	if len(req.Disallowed) > 0 {
		args = append(args, "--disallowed-tools", strings.Join(req.Disallowed, ","))
	}
	return args
}

// appendHeaderEnv attaches the identification headers through the agent's
// custom-header env var. Hooks downstream key on these to tell routine
// traffic from interactive sessions.
func appendHeaderEnv(env []string, req Request) []string {
	var headers []string
	if req.Client != "" {
		headers = append(headers, "x-routines-client: "+req.Client)
	}
	if req.Pattern != "" {
		headers = append(headers, "x-routines-pattern: "+req.Pattern)
	}
	if len(headers) == 0 {
		return env
	}
	return append(env, "ANTHROPIC_CUSTOM_HEADERS="+strings.Join(headers, "\n"))
}

func stderrTail(buf *bytes.Buffer) string {
	s := strings.TrimSpace(buf.String())
	if s == "" {
		return ""
	}
	const max = 2048
	if len(s) > max {
		s = s[len(s)-max:]
	}
	return ": " + s
}
