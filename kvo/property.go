package kvo

import "fmt"

// Kind is the variant of a declared property.
type Kind uint8

const (
	KindRaw Kind = iota
	KindComputed
	KindBound
)

func (k Kind) String() string {
	switch k {
	case KindRaw:
		return "raw"
	case KindComputed:
		return "computed"
	case KindBound:
		return "bound"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Getter evaluates a computed property.
type Getter func(o *Object) any

// Setter stores a value written to a computed property, usually by setting
// the raw properties it derives from.
type Setter func(o *Object, value any) error

// Validator rejects values that a raw property must not hold.
type Validator func(value any) error

// Transform converts a value travelling across a binding.
type Transform func(value any) (any, error)

// Property declares how a key on an object is read and written. Values are
// built with Raw, Strict, Validated, Computed or Bound and refined with the
// chainable modifiers; a Property is copied into a Class and never changes
// afterwards.
type Property struct {
	kind     Kind
	initial  any
	validate Validator

	get      Getter
	set      Setter
	deps     []string
	noCache  bool
	volatile bool

	source     *Object
	sourcePath string
	transform  Transform
	reverse    Transform
	twoWay     bool
}

// Raw declares a plain stored property.
func Raw(initial any) Property {
	return Property{kind: KindRaw, initial: initial}
}

// Validated declares a stored property whose writes pass through validate.
func Validated(initial any, validate Validator) Property {
	return Property{kind: KindRaw, initial: initial, validate: validate}
}

// Strict declares a stored property that only accepts values of type T.
func Strict[T any](initial T) Property {
	return Validated(initial, func(value any) error {
		if _, ok := value.(T); !ok {
			var zero T
			return fmt.Errorf("%w: want %T, got %T", ErrInvalidValue, zero, value)
		}
		return nil
	})
}

// Computed declares a property derived by get from the listed dependency
// keys. The result is cached until one of the dependencies changes.
func Computed(get Getter, deps ...string) Property {
	return Property{
		kind: KindComputed,
		get:  get,
		deps: append([]string(nil), deps...),
	}
}

// Bound declares a property kept in sync with path on source. The binding is
// created and connected when the object is constructed.
func Bound(source *Object, path string, transform Transform) Property {
	if source == nil {
		panic(fmt.Errorf("%w: bound property %q has no source", ErrEndpointGone, path))
	}
	return Property{
		kind:       KindBound,
		source:     source,
		sourcePath: path,
		transform:  transform,
	}
}

// WithSetter makes a computed property writable.
func (p Property) WithSetter(set Setter) Property {
	p.set = set
	return p
}

// NoCache makes a computed property re-evaluate on every read.
func (p Property) NoCache() Property {
	p.noCache = true
	return p
}

// Volatile marks a computed property whose value can change without any
// notification. It is never cached, and neither is anything computed from
// it, but changes to its declared dependencies still propagate.
func (p Property) Volatile() Property {
	p.volatile = true
	return p
}

// TwoWay makes a bound property push its own changes back to the source,
// converted with reverse (nil for identity).
func (p Property) TwoWay(reverse Transform) Property {
	p.twoWay = true
	p.reverse = reverse
	return p
}

// Kind returns the property variant.
func (p Property) Kind() Kind { return p.kind }

// Dependencies returns the declared dependency keys of a computed property.
func (p Property) Dependencies() []string {
	return append([]string(nil), p.deps...)
}
