package classfile

import (
	"errors"
	"fmt"
)

// Access flags shared by classes and methods.
const (
	AccPublic    uint16 = 0x0001
	AccPrivate   uint16 = 0x0002
	AccProtected uint16 = 0x0004
	AccStatic    uint16 = 0x0008
	AccFinal     uint16 = 0x0010
	AccSynthetic uint16 = 0x1000
	AccModule    uint16 = 0x8000
)

const (
	magic = 0xCAFEBABE

	minMajorVersion = 45 // JDK 1.1
	maxMajorVersion = 70 // Java SE 26

	// DeprecatedDescriptor is the annotation type marking a member deprecated.
	DeprecatedDescriptor = "Ljava/lang/Deprecated;"

	maxAnnotationDepth = 64
)

var (
	ErrBadMagic           = errors.New("bad magic")
	ErrUnsupportedVersion = errors.New("unsupported class file version")
	ErrTruncated          = errors.New("truncated")
	ErrMalformed          = errors.New("malformed")
)

// Member is one public method of a class.
type Member struct {
	Name       string
	Descriptor string
	Access     uint16
	Deprecated bool
}

// Signature is the key distinguishing overloads: name followed by the full
// parameter/return descriptor, e.g. "render(I)V".
func (m Member) Signature() string { return m.Name + m.Descriptor }

// Class is the API surface recovered from one class file.
type Class struct {
	Name         string // internal form, e.g. "com/example/Widget"
	Access       uint16
	MajorVersion uint16
	MinorVersion uint16
	// Members holds public methods in declaration order.
	Members []Member
}

// Public reports whether the class itself is declared public.
func (c *Class) Public() bool { return c.Access&AccPublic != 0 }

// DecodeError reports a class file that could not be decoded. Archive and
// Entry are filled in by callers that know where the bytes came from.
type DecodeError struct {
	Archive string
	Entry   string
	Offset  int
	Err     error
}

func (e *DecodeError) Error() string {
	where := e.Entry
	if e.Archive != "" {
		where = e.Archive + "!" + e.Entry
	}
	if where == "" {
		return fmt.Sprintf("decode class at offset %d: %v", e.Offset, e.Err)
	}
	return fmt.Sprintf("decode %s at offset %d: %v", where, e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
