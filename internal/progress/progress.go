// Package progress writes and reads the machine-readable status lines a
// session emits for external monitors.
//
// Each line looks like
//
//	@status session=01J... kind=turn_end round=2 turn=5 character=alice detail="reason=requested"
//
// round, turn, character and detail are omitted when empty.
package progress

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"

	"AgentClay/internal/game"
)

// Marker starts every status line.
const Marker = "@status"

// ErrNotStatus is returned by Parse for lines that are not status lines.
var ErrNotStatus = errors.New("not a status line")

// Writer serialises whole lines onto one stream so concurrent sessions
// never interleave.
type Writer struct {
	mu  sync.Mutex
	out io.Writer
}

func NewWriter(out io.Writer) *Writer {
	return &Writer{out: out}
}

func (w *Writer) writeLine(line string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, err := io.WriteString(w.out, line+"\n")
	return err
}

// Reporter emits the status lines of one session. It implements
// game.Reporter.
type Reporter struct {
	out     *Writer
	session ulid.ULID
}

// NewReporter starts a reporter with a fresh session id.
func (w *Writer) NewReporter() *Reporter {
	return &Reporter{out: w, session: ulid.Make()}
}

// Session returns the id stamped on every line.
func (r *Reporter) Session() ulid.ULID {
	return r.session
}

// Report writes one line. Write errors are dropped: a monitor going away
// must not stop the game.
func (r *Reporter) Report(u game.StatusUpdate) {
	_ = r.out.writeLine(Format(r.session, u))
}

// Format renders an update as a status line.
func Format(session ulid.ULID, u game.StatusUpdate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s session=%s kind=%s", Marker, session, u.Kind)
	if u.Round > 0 {
		fmt.Fprintf(&b, " round=%d", u.Round)
	}
	if u.Turn > 0 {
		fmt.Fprintf(&b, " turn=%d", u.Turn)
	}
	if u.Character != "" {
		fmt.Fprintf(&b, " character=%s", u.Character)
	}
	if u.Detail != "" {
		fmt.Fprintf(&b, " detail=%s", strconv.Quote(u.Detail))
	}
	return b.String()
}

// Line is a decoded status line.
type Line struct {
	Session ulid.ULID
	game.StatusUpdate
}

// Parse decodes a status line. Unknown keys are ignored.
func Parse(line string) (Line, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(line), Marker+" ")
	if !ok {
		return Line{}, ErrNotStatus
	}
	var out Line
	for rest = strings.TrimSpace(rest); rest != ""; rest = strings.TrimSpace(rest) {
		key, value, remainder, err := nextField(rest)
		if err != nil {
			return Line{}, err
		}
		rest = remainder
		switch key {
		case "session":
			id, err := ulid.ParseStrict(value)
			if err != nil {
				return Line{}, fmt.Errorf("session: %w", err)
			}
			out.Session = id
		case "kind":
			out.Kind = game.StatusKind(value)
		case "round":
			if out.Round, err = strconv.Atoi(value); err != nil {
				return Line{}, fmt.Errorf("round: %w", err)
			}
		case "turn":
			if out.Turn, err = strconv.Atoi(value); err != nil {
				return Line{}, fmt.Errorf("turn: %w", err)
			}
		case "character":
			out.Character = game.CharacterID(value)
		case "detail":
			out.Detail = value
		}
	}
	if out.Kind == "" {
		return Line{}, fmt.Errorf("%w: missing kind", ErrNotStatus)
	}
	return out, nil
}

func nextField(s string) (key, value, rest string, err error) {
	eq := strings.IndexByte(s, '=')
	if eq <= 0 {
		return "", "", "", fmt.Errorf("malformed field %q", s)
	}
	key, s = s[:eq], s[eq+1:]
	if strings.HasPrefix(s, `"`) {
		quoted, err := strconv.QuotedPrefix(s)
		if err != nil {
			return "", "", "", fmt.Errorf("%s: %w", key, err)
		}
		value, err = strconv.Unquote(quoted)
		if err != nil {
			return "", "", "", fmt.Errorf("%s: %w", key, err)
		}
		return key, value, s[len(quoted):], nil
	}
	if sp := strings.IndexByte(s, ' '); sp >= 0 {
		return key, s[:sp], s[sp:], nil
	}
	return key, s, "", nil
}
