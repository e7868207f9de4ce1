package object

import (
	"reflect"
	"strings"
	"testing"
)

func TestMarshalArchiveFormat(t *testing.T) {
	a := &ArchiveObj{Modules: []ModuleRecord{
		{Name: "com/example/Widget", Public: true, Members: []MemberRecord{
			{Signature: "render()V"},
			{Signature: "legacy()V", Deprecated: true},
		}},
		{Name: "com/example/Impl"},
	}}
	got := string(MarshalArchive(a))
	want := strings.Join([]string{
		`module "com/example/Widget" public`,
		`member "render()V"`,
		`member "legacy()V" deprecated`,
		`module "com/example/Impl" private`,
		``,
	}, "\n")
	if got != want {
		t.Fatalf("MarshalArchive =\n%s\nwant\n%s", got, want)
	}
}

func TestUnmarshalArchiveQuotedNames(t *testing.T) {
	a := &ArchiveObj{Modules: []ModuleRecord{
		{Name: "odd name\n\"x\"", Public: true, Members: []MemberRecord{
			{Signature: "a b(Ljava/lang/String;)V", Deprecated: true},
		}},
	}}
	out, err := UnmarshalArchive(MarshalArchive(a))
	if err != nil {
		t.Fatalf("UnmarshalArchive: %v", err)
	}
	if !reflect.DeepEqual(out, a) {
		t.Fatalf("UnmarshalArchive = %+v, want %+v", out, a)
	}
}

func TestUnmarshalArchiveEmpty(t *testing.T) {
	out, err := UnmarshalArchive(nil)
	if err != nil {
		t.Fatalf("UnmarshalArchive: %v", err)
	}
	if len(out.Modules) != 0 {
		t.Fatalf("len(Modules) = %d, want 0", len(out.Modules))
	}
}

func TestUnmarshalArchiveErrors(t *testing.T) {
	cases := map[string]string{
		"member before module": "member \"a()V\"\n",
		"unknown key":          "class \"a\" public\n",
		"bad visibility":       "module \"a\" protected\n",
		"bad member flag":      "module \"a\" public\nmember \"b()V\" removed\n",
		"unquoted":             "module a public\n",
		"no space":             "module\n",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := UnmarshalArchive([]byte(in)); err == nil {
				t.Fatalf("UnmarshalArchive(%q) succeeded", in)
			}
		})
	}
}
