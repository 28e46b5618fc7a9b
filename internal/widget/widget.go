// Package widget holds the roller's host state: the notation field, the
// current roll specification, the last output and the chosen color. State
// lives in opaque key-value slots supplied by the caller.
package widget

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/verte-zerg/tuidice/internal/dice"
	"github.com/verte-zerg/tuidice/internal/model"
)

// Slot keys.
const (
	KeyColor      = "color"
	KeyRollString = "rollString"
	KeyValid      = "validRollString"
	KeyDice       = "dice"
	KeyOutput     = "output"
)

const defaultUser = "User"

var (
	// ErrNotRollable is returned by Roll while the notation field is invalid.
	ErrNotRollable = errors.New("current notation is invalid")
	// ErrTooManyDice is returned when a spec exceeds the configured limit.
	ErrTooManyDice = errors.New("too many dice")
	// ErrUnknownColor is returned for colors outside the palette.
	ErrUnknownColor = errors.New("color is not in the palette")
)

// KV is a key-value store scoped to one widget instance.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Recorder stores completed rolls.
type Recorder interface {
	InsertRoll(ctx context.Context, rec model.RollRecord) (int64, error)
}

// Options configure a Widget. Zero values fall back to defaults.
type Options struct {
	Notation string
	Color    string
	User     string
	Instance string
	MaxDice  int
	Source   dice.Source
	Recorder Recorder
	Logger   *slog.Logger
	Now      func() time.Time
}

// Snapshot is the persisted widget state.
type Snapshot struct {
	RollString string
	Valid      bool
	Dice       dice.Spec
	Output     string
	Color      string
}

// Outcome describes a completed roll.
type Outcome struct {
	Spec         dice.Spec
	Result       dice.Result
	Notification string
}

// Widget applies user actions to the persisted state.
type Widget struct {
	kv   KV
	opts Options
	snap Snapshot
}

// Load reads the widget state from kv. Missing or unreadable slots keep
// their defaults.
func Load(ctx context.Context, kv KV, opts Options) (*Widget, error) {
	if kv == nil {
		return nil, fmt.Errorf("widget state store is nil")
	}
	if opts.Source == nil {
		return nil, fmt.Errorf("widget random source is nil")
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	w := &Widget{kv: kv, opts: opts, snap: defaultSnapshot(opts)}
	if err := w.load(ctx); err != nil {
		return nil, err
	}
	return w, nil
}

func defaultSnapshot(opts Options) Snapshot {
	snap := Snapshot{
		RollString: dice.DefaultSpec().Raw,
		Valid:      true,
		Dice:       dice.DefaultSpec(),
		Color:      DefaultColor,
	}
	if opts.Notation != "" {
		if spec, err := dice.Parse(opts.Notation); err == nil {
			snap.RollString = opts.Notation
			snap.Dice = spec
		}
	}
	if s, ok := LookupColor(opts.Color); ok {
		snap.Color = s.Hex
	}
	return snap
}

func (w *Widget) load(ctx context.Context) error {
	if v, ok, err := w.kv.Get(ctx, KeyColor); err != nil {
		return fmt.Errorf("failed to read %s: %w", KeyColor, err)
	} else if ok {
		if s, found := LookupColor(v); found {
			w.snap.Color = s.Hex
		} else {
			w.opts.Logger.Warn("ignoring unknown stored color", "color", v)
		}
	}
	if v, ok, err := w.kv.Get(ctx, KeyRollString); err != nil {
		return fmt.Errorf("failed to read %s: %w", KeyRollString, err)
	} else if ok {
		w.snap.RollString = v
	}
	if v, ok, err := w.kv.Get(ctx, KeyValid); err != nil {
		return fmt.Errorf("failed to read %s: %w", KeyValid, err)
	} else if ok {
		if valid, perr := strconv.ParseBool(v); perr == nil {
			w.snap.Valid = valid
		} else {
			w.opts.Logger.Warn("ignoring malformed validity slot", "value", v)
		}
	}
	if v, ok, err := w.kv.Get(ctx, KeyDice); err != nil {
		return fmt.Errorf("failed to read %s: %w", KeyDice, err)
	} else if ok {
		var spec dice.Spec
		if derr := json.Unmarshal([]byte(v), &spec); derr == nil {
			w.snap.Dice = spec
		} else {
			w.opts.Logger.Warn("ignoring malformed dice slot", "err", derr)
		}
	}
	if v, ok, err := w.kv.Get(ctx, KeyOutput); err != nil {
		return fmt.Errorf("failed to read %s: %w", KeyOutput, err)
	} else if ok {
		w.snap.Output = v
	}
	return nil
}

// Snapshot returns the current state.
func (w *Widget) Snapshot() Snapshot {
	return w.snap
}

// User returns the display name used in notifications.
func (w *Widget) User() string {
	if u := strings.TrimSpace(w.opts.User); u != "" {
		return u
	}
	return defaultUser
}

// Edit applies a completed edit of the notation field. The text and its
// validity are always stored; the specification is replaced only when text
// parses, so an invalid edit keeps the last valid spec in force.
func (w *Widget) Edit(ctx context.Context, text string) (bool, error) {
	spec, perr := dice.Parse(text)
	valid := perr == nil
	if err := w.kv.Set(ctx, KeyValid, strconv.FormatBool(valid)); err != nil {
		return valid, fmt.Errorf("failed to store %s: %w", KeyValid, err)
	}
	w.snap.Valid = valid
	if err := w.kv.Set(ctx, KeyRollString, text); err != nil {
		return valid, fmt.Errorf("failed to store %s: %w", KeyRollString, err)
	}
	w.snap.RollString = text
	if !valid {
		w.opts.Logger.Debug("rejected notation", "text", text)
		return false, nil
	}
	data, err := json.Marshal(spec)
	if err != nil {
		return true, fmt.Errorf("failed to encode dice: %w", err)
	}
	if err := w.kv.Set(ctx, KeyDice, string(data)); err != nil {
		return true, fmt.Errorf("failed to store %s: %w", KeyDice, err)
	}
	w.snap.Dice = spec
	w.opts.Logger.Debug("accepted notation", "raw", spec.Raw)
	return true, nil
}

// Roll rolls the current specification and stores the aggregate text.
func (w *Widget) Roll(ctx context.Context) (Outcome, error) {
	if !w.snap.Valid {
		return Outcome{}, ErrNotRollable
	}
	spec := w.snap.Dice
	if w.opts.MaxDice > 0 && spec.Count > w.opts.MaxDice {
		return Outcome{}, fmt.Errorf("%w: %d exceeds limit %d", ErrTooManyDice, spec.Count, w.opts.MaxDice)
	}
	result := dice.Roll(spec, w.opts.Source)
	out := Outcome{
		Spec:         spec,
		Result:       result,
		Notification: fmt.Sprintf("%s rolled %s", w.User(), dice.Summary(spec, result)),
	}
	if err := w.kv.Set(ctx, KeyOutput, result.AggregateText()); err != nil {
		return out, fmt.Errorf("failed to store %s: %w", KeyOutput, err)
	}
	w.snap.Output = result.AggregateText()
	w.opts.Logger.Info("rolled", "raw", spec.Raw, "values", result.Values, "aggregate", result.Aggregate)

	if w.opts.Recorder != nil {
		rec := model.RollRecord{
			Instance:  w.opts.Instance,
			User:      w.User(),
			Raw:       spec.Raw,
			Count:     spec.Count,
			Kind:      spec.Kind.Token(),
			Faces:     spec.Faces,
			Modifier:  spec.Modifier,
			Values:    result.Values,
			Aggregate: result.Aggregate,
			RolledAt:  w.opts.Now(),
		}
		if _, err := w.opts.Recorder.InsertRoll(ctx, rec); err != nil {
			// History is best-effort; the roll itself already happened.
			w.opts.Logger.Error("failed to record roll", "err", err)
		}
	}
	return out, nil
}

// SetColor selects a palette color by hex value or name.
func (w *Widget) SetColor(ctx context.Context, value string) error {
	s, ok := LookupColor(value)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownColor, value)
	}
	if err := w.kv.Set(ctx, KeyColor, s.Hex); err != nil {
		return fmt.Errorf("failed to store %s: %w", KeyColor, err)
	}
	w.snap.Color = s.Hex
	return nil
}

// CycleColor advances to the next palette color.
func (w *Widget) CycleColor(ctx context.Context) (Swatch, error) {
	next := NextColor(w.snap.Color)
	if err := w.SetColor(ctx, next.Hex); err != nil {
		return Swatch{}, err
	}
	return next, nil
}
