package object

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// MarshalArchive serializes an ArchiveObj to a deterministic line format:
//
//	module "com/example/Widget" public
//	member "render()V"
//	member "legacy()V" deprecated
//	module "com/example/Internal" private
//
// Names are Go-quoted so any character a class file allows survives.
func MarshalArchive(a *ArchiveObj) []byte {
	var buf bytes.Buffer
	for _, m := range a.Modules {
		vis := "private"
		if m.Public {
			vis = "public"
		}
		fmt.Fprintf(&buf, "module %s %s\n", strconv.Quote(m.Name), vis)
		for _, mem := range m.Members {
			if mem.Deprecated {
				fmt.Fprintf(&buf, "member %s deprecated\n", strconv.Quote(mem.Signature))
			} else {
				fmt.Fprintf(&buf, "member %s\n", strconv.Quote(mem.Signature))
			}
		}
	}
	return buf.Bytes()
}

// UnmarshalArchive parses an ArchiveObj from its serialized form.
func UnmarshalArchive(data []byte) (*ArchiveObj, error) {
	a := &ArchiveObj{}
	text := strings.TrimRight(string(data), "\n")
	if text == "" {
		return a, nil
	}
	for n, line := range strings.Split(text, "\n") {
		key, rest, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("unmarshal archive: line %d: malformed %q", n+1, line)
		}
		name, flag, err := splitQuoted(rest)
		if err != nil {
			return nil, fmt.Errorf("unmarshal archive: line %d: %w", n+1, err)
		}
		switch key {
		case "module":
			switch flag {
			case "public", "private":
			default:
				return nil, fmt.Errorf("unmarshal archive: line %d: unknown visibility %q", n+1, flag)
			}
			a.Modules = append(a.Modules, ModuleRecord{Name: name, Public: flag == "public"})
		case "member":
			if len(a.Modules) == 0 {
				return nil, fmt.Errorf("unmarshal archive: line %d: member before module", n+1)
			}
			if flag != "" && flag != "deprecated" {
				return nil, fmt.Errorf("unmarshal archive: line %d: unknown member flag %q", n+1, flag)
			}
			m := &a.Modules[len(a.Modules)-1]
			m.Members = append(m.Members, MemberRecord{Signature: name, Deprecated: flag == "deprecated"})
		default:
			return nil, fmt.Errorf("unmarshal archive: line %d: unknown key %q", n+1, key)
		}
	}
	return a, nil
}

func splitQuoted(s string) (string, string, error) {
	quoted, err := strconv.QuotedPrefix(s)
	if err != nil {
		return "", "", fmt.Errorf("bad quoted name %q: %w", s, err)
	}
	name, err := strconv.Unquote(quoted)
	if err != nil {
		return "", "", fmt.Errorf("bad quoted name %q: %w", quoted, err)
	}
	return name, strings.TrimPrefix(s[len(quoted):], " "), nil
}
