// Package classfile decodes the structural part of JVM class files: the
// declared class name, its visibility, and each public method together with
// its deprecation marker. Method bodies are skipped, never interpreted.
package classfile

import "fmt"

// Constant pool tags.
const (
	tagUtf8               = 1
	tagInteger            = 3
	tagFloat              = 4
	tagLong               = 5
	tagDouble             = 6
	tagClass              = 7
	tagString             = 8
	tagFieldref           = 9
	tagMethodref          = 10
	tagInterfaceMethodref = 11
	tagNameAndType        = 12
	tagMethodHandle       = 15
	tagMethodType         = 16
	tagDynamic            = 17
	tagInvokeDynamic      = 18
	tagModule             = 19
	tagPackage            = 20
)

const (
	attrRuntimeVisibleAnnotations   = "RuntimeVisibleAnnotations"
	attrRuntimeInvisibleAnnotations = "RuntimeInvisibleAnnotations"
)

type constantPool struct {
	tags []uint8
	// utf8 holds decoded Utf8 entries; refs holds the name index of Class entries.
	utf8 []string
	refs []uint16
}

func (cp *constantPool) entry(i uint16, tag uint8) error {
	if int(i) == 0 || int(i) >= len(cp.tags) {
		return fmt.Errorf("%w: constant pool index %d out of range", ErrMalformed, i)
	}
	if cp.tags[i] != tag {
		return fmt.Errorf("%w: constant pool index %d has tag %d, want %d", ErrMalformed, i, cp.tags[i], tag)
	}
	return nil
}

func (cp *constantPool) utf8At(i uint16) (string, error) {
	if err := cp.entry(i, tagUtf8); err != nil {
		return "", err
	}
	return cp.utf8[i], nil
}

func (cp *constantPool) className(i uint16) (string, error) {
	if err := cp.entry(i, tagClass); err != nil {
		return "", err
	}
	return cp.utf8At(cp.refs[i])
}

// Decode parses one class file. Only public methods are retained; a method
// is deprecated when it carries a java.lang.Deprecated annotation, visible or
// invisible. The legacy Deprecated attribute written for javadoc @deprecated
// tags is not a marker. Any failure is returned as a *DecodeError.
func Decode(data []byte) (*Class, error) {
	r := &reader{data: data}
	c, err := decodeClass(r)
	if err == nil {
		err = r.err
	}
	if err != nil {
		off := r.off
		if r.err != nil {
			off = r.errOff
		}
		return nil, &DecodeError{Offset: off, Err: err}
	}
	return c, nil
}

func decodeClass(r *reader) (*Class, error) {
	if m := r.u4("magic"); r.err == nil && m != magic {
		return nil, fmt.Errorf("%w: 0x%08x", ErrBadMagic, m)
	}
	minor := r.u2("minor version")
	major := r.u2("major version")
	if r.err != nil {
		return nil, r.err
	}
	if major < minMajorVersion || major > maxMajorVersion {
		return nil, fmt.Errorf("%w: %d.%d", ErrUnsupportedVersion, major, minor)
	}

	cp, err := readConstantPool(r)
	if err != nil {
		return nil, err
	}

	c := &Class{MajorVersion: major, MinorVersion: minor}
	c.Access = r.u2("access flags")
	thisClass := r.u2("this_class")
	r.u2("super_class")
	if r.err != nil {
		return nil, r.err
	}
	if c.Name, err = cp.className(thisClass); err != nil {
		return nil, fmt.Errorf("this_class: %w", err)
	}

	interfaces := r.u2("interfaces count")
	r.skip(2*int(interfaces), "interfaces")

	fields := r.u2("fields count")
	for i := 0; i < int(fields) && r.err == nil; i++ {
		r.skip(6, "field header")
		if err := skipAttributes(r); err != nil {
			return nil, fmt.Errorf("field %d: %w", i, err)
		}
	}

	methods := r.u2("methods count")
	for i := 0; i < int(methods) && r.err == nil; i++ {
		m, err := readMethod(r, cp)
		if err != nil {
			return nil, fmt.Errorf("method %d: %w", i, err)
		}
		if r.err == nil && m.Access&AccPublic != 0 {
			c.Members = append(c.Members, m)
		}
	}

	if err := skipAttributes(r); err != nil {
		return nil, fmt.Errorf("class attributes: %w", err)
	}
	if r.err != nil {
		return nil, r.err
	}
	if r.off != len(r.data) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrMalformed, len(r.data)-r.off)
	}
	return c, nil
}

func readConstantPool(r *reader) (*constantPool, error) {
	count := int(r.u2("constant pool count"))
	if r.err != nil {
		return nil, r.err
	}
	cp := &constantPool{
		tags: make([]uint8, count),
		utf8: make([]string, count),
		refs: make([]uint16, count),
	}
	for i := 1; i < count; i++ {
		tag := r.u1("constant tag")
		if r.err != nil {
			return nil, r.err
		}
		cp.tags[i] = tag
		switch tag {
		case tagUtf8:
			n := r.u2("utf8 length")
			b := r.bytes(int(n), "utf8 bytes")
			if r.err != nil {
				return nil, r.err
			}
			s, err := decodeModifiedUTF8(b)
			if err != nil {
				return nil, fmt.Errorf("constant %d: %w", i, err)
			}
			cp.utf8[i] = s
		case tagClass:
			cp.refs[i] = r.u2("class name index")
		case tagString, tagMethodType, tagModule, tagPackage:
			r.skip(2, "constant")
		case tagInteger, tagFloat, tagFieldref, tagMethodref, tagInterfaceMethodref,
			tagNameAndType, tagDynamic, tagInvokeDynamic:
			r.skip(4, "constant")
		case tagMethodHandle:
			r.skip(3, "constant")
		case tagLong, tagDouble:
			// Eight-byte constants occupy two pool slots.
			r.skip(8, "constant")
			i++
		default:
			return nil, fmt.Errorf("%w: constant %d has unknown tag %d", ErrMalformed, i, tag)
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	return cp, nil
}

func readMethod(r *reader, cp *constantPool) (Member, error) {
	var m Member
	m.Access = r.u2("method access flags")
	nameIdx := r.u2("method name index")
	descIdx := r.u2("method descriptor index")
	attrs := r.u2("method attributes count")
	if r.err != nil {
		return m, r.err
	}

	var err error
	if m.Name, err = cp.utf8At(nameIdx); err != nil {
		return m, fmt.Errorf("name: %w", err)
	}
	if m.Descriptor, err = cp.utf8At(descIdx); err != nil {
		return m, fmt.Errorf("descriptor: %w", err)
	}

	for i := 0; i < int(attrs) && r.err == nil; i++ {
		attrName := r.u2("attribute name index")
		length := r.u4("attribute length")
		body := r.bytes(int(length), "attribute body")
		if r.err != nil {
			return m, r.err
		}
		name, err := cp.utf8At(attrName)
		if err != nil {
			return m, fmt.Errorf("attribute %d: %w", i, err)
		}
		switch name {
		case attrRuntimeVisibleAnnotations, attrRuntimeInvisibleAnnotations:
			dep, err := annotationsMarkDeprecated(body, cp)
			if err != nil {
				return m, fmt.Errorf("%s: %w", name, err)
			}
			if dep {
				m.Deprecated = true
			}
		}
	}
	return m, r.err
}

func skipAttributes(r *reader) error {
	n := r.u2("attributes count")
	for i := 0; i < int(n) && r.err == nil; i++ {
		r.skip(2, "attribute name index")
		length := r.u4("attribute length")
		r.skip(int(length), "attribute body")
	}
	return r.err
}

// annotationsMarkDeprecated scans a Runtime*Annotations attribute body.
func annotationsMarkDeprecated(body []byte, cp *constantPool) (bool, error) {
	r := &reader{data: body}
	deprecated := false
	n := r.u2("annotations count")
	for i := 0; i < int(n) && r.err == nil; i++ {
		typeIdx := r.u2("annotation type index")
		if r.err != nil {
			break
		}
		desc, err := cp.utf8At(typeIdx)
		if err != nil {
			return false, fmt.Errorf("annotation %d: %w", i, err)
		}
		if desc == DeprecatedDescriptor {
			deprecated = true
		}
		if err := skipElementPairs(r, 0); err != nil {
			return false, fmt.Errorf("annotation %d: %w", i, err)
		}
	}
	if r.err != nil {
		return false, r.err
	}
	if r.off != len(body) {
		return false, fmt.Errorf("%w: %d trailing bytes in annotations", ErrMalformed, len(body)-r.off)
	}
	return deprecated, nil
}

func skipElementPairs(r *reader, depth int) error {
	pairs := r.u2("element value pairs count")
	for i := 0; i < int(pairs) && r.err == nil; i++ {
		r.skip(2, "element name index")
		if err := skipElementValue(r, depth); err != nil {
			return err
		}
	}
	return r.err
}

func skipElementValue(r *reader, depth int) error {
	if depth > maxAnnotationDepth {
		return fmt.Errorf("%w: annotation nesting deeper than %d", ErrMalformed, maxAnnotationDepth)
	}
	tag := r.u1("element value tag")
	if r.err != nil {
		return r.err
	}
	switch tag {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z', 's', 'c':
		r.skip(2, "element value index")
	case 'e':
		r.skip(4, "enum constant")
	case '@':
		r.skip(2, "nested annotation type")
		return skipElementPairs(r, depth+1)
	case '[':
		n := r.u2("array length")
		for i := 0; i < int(n) && r.err == nil; i++ {
			if err := skipElementValue(r, depth+1); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%w: unknown element value tag %q", ErrMalformed, tag)
	}
	return r.err
}
