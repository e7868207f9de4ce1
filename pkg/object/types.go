package object

// Hash is a 64-character hex-encoded BLAKE2b-256 digest.
type Hash string

// ObjectType identifies the kind of object stored.
type ObjectType string

const (
	// TypeArchive holds the decoded surface of one archive.
	TypeArchive ObjectType = "archive"
)

// MemberRecord is one public member of a cached module.
type MemberRecord struct {
	Signature  string
	Deprecated bool
}

// ModuleRecord is one successfully decoded module of an archive.
type ModuleRecord struct {
	Name    string
	Public  bool
	Members []MemberRecord // declaration order
}

// ArchiveObj is the cached decode result of one archive, modules in entry order.
type ArchiveObj struct {
	Modules []ModuleRecord
}
