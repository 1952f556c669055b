package domain

// Backend identifies a concrete storage medium for the database image.
type Backend string

const (
	// BackendFile stores the image as a single named file in the data
	// directory.
	BackendFile Backend = "file"
	// BackendKV stores the image under a fixed key in a bbolt database.
	BackendKV Backend = "kv"
	// BackendMemory holds the image in process memory only; it never
	// survives a restart. This is documented, expected behavior, not a bug.
	BackendMemory Backend = "memory"
)

// Preference is the user's requested backend. It is a request, not a fact:
// automatic selection or fallthrough may leave a different backend active.
type Preference string

const (
	PreferAuto   Preference = "auto"
	PreferFile   Preference = Preference(BackendFile)
	PreferKV     Preference = Preference(BackendKV)
	PreferMemory Preference = Preference(BackendMemory)
)

// ParsePreference maps a stored token to a Preference, defaulting to
// automatic for anything unrecognized.
func ParsePreference(s string) Preference {
	switch Preference(s) {
	case PreferAuto, PreferFile, PreferKV, PreferMemory:
		return Preference(s)
	}
	return PreferAuto
}

// Concrete returns the concrete backend named by an explicit preference and
// true, or false when the preference is automatic.
func (p Preference) Concrete() (Backend, bool) {
	switch p {
	case PreferFile, PreferKV, PreferMemory:
		return Backend(p), true
	}
	return "", false
}
