package hg

// FileStatus is the one-letter change code reported by `hg status`.
type FileStatus string

const (
	StatusModified FileStatus = "M"
	StatusAdded    FileStatus = "A"
	StatusRemoved  FileStatus = "R"
	StatusMissing  FileStatus = "!"
	StatusUnknown  FileStatus = "?"
	StatusIgnored  FileStatus = "I"
	StatusClean    FileStatus = "C"
	StatusCopied   FileStatus = " "
)

// FileStatusFromCode normalizes a raw status token to its first rune.
// Unrecognized runes pass through so new hg codes still render.
func FileStatusFromCode(code string) FileStatus {
	for _, r := range code {
		return FileStatus(string(r))
	}
	return StatusUnknown
}

func (s FileStatus) Code() string {
	if s == "" {
		return string(StatusUnknown)
	}
	return string(s)
}

type FileChange struct {
	Path   string     `json:"path"`
	Status FileStatus `json:"status"`
}

type Revision struct {
	Rev          int64    `json:"rev"`
	Node         string   `json:"node"`
	Desc         string   `json:"desc"`
	User         string   `json:"user"`
	Branch       string   `json:"branch"`
	Phase        string   `json:"phase"`
	Tags         []string `json:"tags"`
	Bookmarks    []string `json:"bookmarks"`
	DateUnixSecs int64    `json:"date_unix_secs"`
	GraphPrefix  string   `json:"graph_prefix,omitempty"`
}

type Bookmark struct {
	Name   string `json:"name"`
	Rev    int64  `json:"rev"`
	Node   string `json:"node"`
	Active bool   `json:"active"`
}

type ConflictEntry struct {
	Resolved bool   `json:"resolved"`
	Path     string `json:"path"`
}

type Shelf struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Capabilities records which optional hg features and output formats the
// local installation supports. Detected once per client and cached for the
// process lifetime.
type Capabilities struct {
	Version               string `json:"version"`
	HasRebase             bool   `json:"has_rebase"`
	HasHistedit           bool   `json:"has_histedit"`
	HasShelve             bool   `json:"has_shelve"`
	SupportsJSONStatus    bool   `json:"supports_json_status"`
	SupportsJSONLog       bool   `json:"supports_json_log"`
	SupportsJSONBookmarks bool   `json:"supports_json_bookmarks"`
}

// RebaseState is derived per snapshot: InProgress mirrors the
// .hg/rebasestate marker file and the counts partition the conflict list.
type RebaseState struct {
	InProgress bool
	Unresolved int
	Resolved   int
	Total      int
}

// RepoSnapshot is an immutable view of the repository, replaced wholesale
// on every refresh.
type RepoSnapshot struct {
	RepoRoot     string          `json:"repo_root"`
	Branch       string          `json:"branch"`
	Files        []FileChange    `json:"files"`
	Revisions    []Revision      `json:"revisions"`
	Bookmarks    []Bookmark      `json:"bookmarks"`
	Shelves      []Shelf         `json:"shelves"`
	Conflicts    []ConflictEntry `json:"conflicts"`
	Rebase       RebaseState     `json:"-"`
	Capabilities Capabilities    `json:"capabilities"`
}

// CommandResult captures a finished hg (or custom) command. A non-zero exit
// is not an error: Success turns false and the streams stay available for
// the log and detail panes.
type CommandResult struct {
	CommandPreview string `json:"command_preview"`
	Success        bool   `json:"success"`
	Stdout         string `json:"stdout"`
	Stderr         string `json:"stderr"`
}

type SnapshotOptions struct {
	RevisionLimit    int
	IncludeRevisions bool
}
