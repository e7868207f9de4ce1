// Package classfiletest encodes small but well-formed class files and jars
// for tests of the decoder and everything built on it.
package classfiletest

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"unicode/utf16"

	"github.com/klauspost/compress/zip"
)

const (
	AccPublic  uint16 = 0x0001
	AccPrivate uint16 = 0x0002
	AccStatic  uint16 = 0x0008
	AccSuper   uint16 = 0x0020
)

// Method describes one method to encode.
type Method struct {
	Name       string
	Descriptor string
	Access     uint16
	// Deprecated adds @Deprecated(since = "9", forRemoval = true) as a
	// RuntimeVisibleAnnotations attribute.
	Deprecated bool
	// DeprecatedAttribute adds the legacy Deprecated attribute only.
	DeprecatedAttribute bool
	// Annotations lists extra annotation descriptors, each encoded with an
	// array-valued element so decoders must walk element values.
	Annotations []string
}

// Field describes one field to encode. Fields are never part of the surface
// but exercise attribute skipping.
type Field struct {
	Name       string
	Descriptor string
	Access     uint16
}

// Class describes one class file.
type Class struct {
	Name       string // internal name, e.g. "com/example/Widget"
	Access     uint16
	Major      uint16 // defaults to 52 (Java 8)
	Super      string // defaults to java/lang/Object
	Interfaces []string
	Fields     []Field
	Methods    []Method
}

// PublicClass is a convenience constructor for a public class with the given methods.
func PublicClass(name string, methods ...Method) Class {
	return Class{Name: name, Access: AccPublic | AccSuper, Methods: methods}
}

// PublicMethod returns a public method with the given name and descriptor.
func PublicMethod(name, descriptor string) Method {
	return Method{Name: name, Descriptor: descriptor, Access: AccPublic}
}

type pool struct {
	buf   bytes.Buffer
	count uint16
	index map[string]uint16
}

func newPool() *pool {
	return &pool{count: 1, index: make(map[string]uint16)}
}

func (p *pool) add(key string, slots uint16, body []byte) uint16 {
	if i, ok := p.index[key]; ok {
		return i
	}
	i := p.count
	p.buf.Write(body)
	p.count += slots
	p.index[key] = i
	return i
}

func (p *pool) utf8(s string) uint16 {
	enc := encodeModifiedUTF8(s)
	body := []byte{1}
	body = binary.BigEndian.AppendUint16(body, uint16(len(enc)))
	body = append(body, enc...)
	return p.add("u:"+s, 1, body)
}

func (p *pool) class(name string) uint16 {
	n := p.utf8(name)
	return p.add("c:"+name, 1, binary.BigEndian.AppendUint16([]byte{7}, n))
}

func (p *pool) integer(v int32) uint16 {
	body := binary.BigEndian.AppendUint32([]byte{3}, uint32(v))
	return p.add("i:"+string(body), 1, body)
}

func (p *pool) long(v int64) uint16 {
	body := binary.BigEndian.AppendUint64([]byte{5}, uint64(v))
	return p.add("j:"+string(body), 2, body)
}

func (p *pool) methodref(owner, name, desc string) uint16 {
	c := p.class(owner)
	nt := p.add("nt:"+name+desc, 1, binary.BigEndian.AppendUint16(
		binary.BigEndian.AppendUint16([]byte{12}, p.utf8(name)), p.utf8(desc)))
	body := binary.BigEndian.AppendUint16(binary.BigEndian.AppendUint16([]byte{10}, c), nt)
	return p.add("m:"+owner+name+desc, 1, body)
}

// Bytes encodes the class file.
func (c Class) Bytes() []byte {
	p := newPool()
	major := c.Major
	if major == 0 {
		major = 52
	}
	super := c.Super
	if super == "" {
		super = "java/lang/Object"
	}

	this := p.class(c.Name)
	superIdx := p.class(super)
	ifaces := make([]uint16, 0, len(c.Interfaces))
	for _, iface := range c.Interfaces {
		ifaces = append(ifaces, p.class(iface))
	}
	// Wide and reference constants so decoders handle two-slot entries.
	p.long(0x0123456789)
	p.methodref(super, "<init>", "()V")

	var body bytes.Buffer
	u2 := func(v uint16) { _ = binary.Write(&body, binary.BigEndian, v) }
	u4 := func(v uint32) { _ = binary.Write(&body, binary.BigEndian, v) }
	attr := func(name string, data []byte) {
		u2(p.utf8(name))
		u4(uint32(len(data)))
		body.Write(data)
	}

	u2(c.Access)
	u2(this)
	u2(superIdx)
	u2(uint16(len(ifaces)))
	for _, i := range ifaces {
		u2(i)
	}

	u2(uint16(len(c.Fields)))
	for _, f := range c.Fields {
		u2(f.Access)
		u2(p.utf8(f.Name))
		u2(p.utf8(f.Descriptor))
		u2(1)
		attr("Signature", binary.BigEndian.AppendUint16(nil, p.utf8(f.Descriptor)))
	}

	u2(uint16(len(c.Methods)))
	for _, m := range c.Methods {
		u2(m.Access)
		u2(p.utf8(m.Name))
		u2(p.utf8(m.Descriptor))

		attrs := []rawAttr{{"Code", fakeCode()}}
		if len(m.Annotations) > 0 || m.Deprecated {
			attrs = append(attrs, rawAttr{"RuntimeVisibleAnnotations", p.annotations(m)})
		}
		if m.DeprecatedAttribute {
			attrs = append(attrs, rawAttr{"Deprecated", nil})
		}
		u2(uint16(len(attrs)))
		for _, a := range attrs {
			attr(a.name, a.data)
		}
	}

	// Class attributes.
	u2(1)
	attr("SourceFile", binary.BigEndian.AppendUint16(nil, p.utf8("Generated.java")))

	var out bytes.Buffer
	_ = binary.Write(&out, binary.BigEndian, uint32(0xCAFEBABE))
	_ = binary.Write(&out, binary.BigEndian, uint16(0))
	_ = binary.Write(&out, binary.BigEndian, major)
	_ = binary.Write(&out, binary.BigEndian, p.count)
	out.Write(p.buf.Bytes())
	out.Write(body.Bytes())
	return out.Bytes()
}

type rawAttr struct {
	name string
	data []byte
}

func (p *pool) annotations(m Method) []byte {
	var b bytes.Buffer
	u2 := func(v uint16) { _ = binary.Write(&b, binary.BigEndian, v) }

	n := len(m.Annotations)
	if m.Deprecated {
		n++
	}
	u2(uint16(n))
	for _, desc := range m.Annotations {
		u2(p.utf8(desc))
		u2(1)
		u2(p.utf8("value"))
		b.WriteByte('[')
		u2(2)
		b.WriteByte('s')
		u2(p.utf8("x"))
		b.WriteByte('e')
		u2(p.utf8("Lcom/example/Kind;"))
		u2(p.utf8("FAST"))
	}
	if m.Deprecated {
		u2(p.utf8("Ljava/lang/Deprecated;"))
		u2(2)
		u2(p.utf8("since"))
		b.WriteByte('s')
		u2(p.utf8("9"))
		u2(p.utf8("forRemoval"))
		b.WriteByte('Z')
		u2(p.integer(1))
	}
	return b.Bytes()
}

// fakeCode is an opaque Code attribute body; decoders only skip it.
func fakeCode() []byte {
	return []byte{
		0x00, 0x01, // max_stack
		0x00, 0x01, // max_locals
		0x00, 0x00, 0x00, 0x01, // code_length
		0xB1,       // return
		0x00, 0x00, // exception_table_length
		0x00, 0x00, // attributes_count
	}
}

func encodeModifiedUTF8(s string) []byte {
	var out []byte
	for _, r := range s {
		units := []uint16{uint16(r)}
		if r >= 0x10000 {
			a, b := utf16.EncodeRune(r)
			units = []uint16{uint16(a), uint16(b)}
		}
		for _, u := range units {
			switch {
			case u != 0 && u < 0x80:
				out = append(out, byte(u))
			case u < 0x800:
				out = append(out, 0xC0|byte(u>>6), 0x80|byte(u&0x3F))
			default:
				out = append(out, 0xE0|byte(u>>12), 0x80|byte((u>>6)&0x3F), 0x80|byte(u&0x3F))
			}
		}
	}
	return out
}

// Entry is one file stored in a test jar.
type Entry struct {
	Name string
	Data []byte
}

// ClassEntry encodes c under its conventional entry name.
func ClassEntry(c Class) Entry {
	return Entry{Name: c.Name + ".class", Data: c.Bytes()}
}

// JarBytes builds a zip archive holding entries in order.
func JarBytes(entries ...Entry) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e.Name)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(e.Data); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteJar writes a jar holding entries to path, creating parent directories.
func WriteJar(t testing.TB, path string, entries ...Entry) {
	t.Helper()
	data, err := JarBytes(entries...)
	if err != nil {
		t.Fatalf("build jar %s: %v", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write jar %s: %v", path, err)
	}
}
