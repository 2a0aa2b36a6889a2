package patch

import (
	"errors"
	"fmt"

	"github.com/aretw0/vibecam/pkg/domain"
)

// Entry is a single path/value update.
type Entry struct {
	Path  string
	Value any
}

// Patch is an ordered list of updates. Order is load-bearing: entries are
// applied one after the other against the same document.
type Patch []Entry

// Paths returns the entry paths in order.
func (p Patch) Paths() []string {
	out := make([]string, len(p))
	for i, e := range p {
		out[i] = e.Path
	}
	return out
}

// Object returns the patch as an ordered object, suitable for echoing back to clients.
func (p Patch) Object() *domain.Object {
	obj := domain.NewObject()
	for _, e := range p {
		obj.Set(e.Path, e.Value)
	}
	return obj
}

// ErrNotAMapping is returned by Decode when the payload is valid JSON but not an object.
var ErrNotAMapping = errors.New("patch is not a mapping of path to value")

// Decode parses a JSON object of path → value, keeping the producer's key order.
func Decode(data []byte) (Patch, error) {
	obj, err := domain.DecodeObject(data)
	if err != nil {
		if errors.Is(err, domain.ErrNotObject) {
			return nil, ErrNotAMapping
		}
		return nil, err
	}
	out := make(Patch, 0, obj.Len())
	obj.Range(func(key string, value any) bool {
		out = append(out, Entry{Path: key, Value: value})
		return true
	})
	return out, nil
}

// ApplyError reports the entry that stopped a patch.
// Entries before Index were applied and are kept.
type ApplyError struct {
	Index int
	Path  string
	Err   error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("patch entry %d (%q): %v", e.Index, e.Path, e.Err)
}

func (e *ApplyError) Unwrap() error {
	return e.Err
}

// ErrIncompatibleValue is wrapped by ApplyError when a path descends through a
// value that cannot hold the next segment (for example indexing into a string).
var ErrIncompatibleValue = errors.New("incompatible existing value")

// ErrIndexLimit is wrapped by ApplyError when an index exceeds the ceiling set
// with WithMaxIndex.
var ErrIndexLimit = errors.New("list index above limit")

type applyConfig struct {
	maxIndex int
}

// Option tunes Apply and ApplyAtomic.
type Option func(*applyConfig)

// WithMaxIndex rejects entries addressing a list index above n. Zero or a
// negative n means no ceiling, which is the default.
func WithMaxIndex(n int) Option {
	return func(c *applyConfig) {
		c.maxIndex = n
	}
}

// Apply writes every entry of p into doc, in order, and returns how many were applied.
//
// Missing intermediate keys are created as empty objects and lists are
// auto-extended with empty objects up to the addressed index. A key that is
// present but null is a scalar and cannot be descended into. The terminal
// segment overwrites whatever was there, including its type.
//
// Without WithMaxIndex auto-extension is unbounded: an index taken from
// untrusted input allocates that many elements.
//
// The first failing entry stops the call with an *ApplyError; earlier entries
// stay applied.
func Apply(doc *domain.Object, p Patch, opts ...Option) (int, error) {
	var cfg applyConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	for i, entry := range p {
		path, err := ParsePath(entry.Path)
		if err != nil {
			return i, &ApplyError{Index: i, Path: entry.Path, Err: err}
		}
		if err := cfg.checkIndexes(path); err != nil {
			return i, &ApplyError{Index: i, Path: entry.Path, Err: err}
		}
		if err := set(doc, path, entry.Value); err != nil {
			return i, &ApplyError{Index: i, Path: entry.Path, Err: err}
		}
	}
	return len(p), nil
}

// ApplyAtomic applies p to a scratch copy of doc and commits it only when every
// entry succeeds. On failure doc is left untouched.
func ApplyAtomic(doc *domain.Object, p Patch, opts ...Option) (int, error) {
	scratch := doc.Clone()
	n, err := Apply(scratch, p, opts...)
	if err != nil {
		return 0, err
	}
	doc.Replace(scratch)
	return n, nil
}

func (c applyConfig) checkIndexes(path Path) error {
	if c.maxIndex <= 0 {
		return nil
	}
	for _, seg := range path {
		if seg.Indexed && seg.Index > c.maxIndex {
			return fmt.Errorf("%w: %s (max %d)", ErrIndexLimit, seg.String(), c.maxIndex)
		}
	}
	return nil
}

func set(root *domain.Object, path Path, value any) error {
	ref := root
	last := len(path) - 1

	for i, seg := range path {
		if i == last {
			return assign(ref, seg, value)
		}

		var next any
		if seg.Indexed {
			list, err := listFor(ref, seg)
			if err != nil {
				return err
			}
			next = list[seg.Index]
		} else {
			existing, ok := ref.Get(seg.Name)
			if !ok {
				existing = domain.NewObject()
				ref.Set(seg.Name, existing)
			}
			next = existing
		}

		obj, ok := next.(*domain.Object)
		if !ok {
			return fmt.Errorf("%w: %q holds %s, not an object", ErrIncompatibleValue, seg.String(), kind(next))
		}
		ref = obj
	}
	return nil
}

func assign(ref *domain.Object, seg Segment, value any) error {
	value = domain.CloneValue(value)
	if !seg.Indexed {
		ref.Set(seg.Name, value)
		return nil
	}
	list, err := listFor(ref, seg)
	if err != nil {
		return err
	}
	list[seg.Index] = value
	return nil
}

// listFor returns the list under seg.Name, created and extended so that
// seg.Index is addressable. The extended list is stored back into ref.
func listFor(ref *domain.Object, seg Segment) ([]any, error) {
	var list []any
	existing, ok := ref.Get(seg.Name)
	switch v := existing.(type) {
	case []any:
		list = v
	case nil:
		list = []any{}
	default:
		if ok {
			return nil, fmt.Errorf("%w: %q holds %s, not a list", ErrIncompatibleValue, seg.Name, kind(existing))
		}
	}

	for len(list) <= seg.Index {
		list = append(list, domain.NewObject())
	}
	ref.Set(seg.Name, list)
	return list, nil
}

func kind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case *domain.Object:
		return "an object"
	case []any:
		return "a list"
	case string:
		return "a string"
	case bool:
		return "a boolean"
	default:
		return "a number"
	}
}
