package analyze

// Input is what a user has collected so far: a LaTeX snippet, an image, or both.
type Input struct {
	Text string
	File *Upload
}

// CanSubmit reports whether at least one of the fields is present.
func (in Input) CanSubmit() bool {
	return in.Text != "" || in.File != nil
}

// FailureKind says where a failed submission broke. It never goes on the wire.
type FailureKind string

const (
	KindNone       FailureKind = ""
	KindValidation FailureKind = "validation" // nothing to send, no request made
	KindTransport  FailureKind = "transport"  // network, non-2xx or undecodable body
	KindDomain     FailureKind = "domain"     // server answered success=false
)

// Result mirrors the /api/analyze response. Success picks the variant:
// Type/Hints/CommonMistakes/RelatedTopics on success, Error/Details otherwise.
type Result struct {
	Success bool `json:"success"`

	Type           string   `json:"type,omitempty"`
	Hints          []string `json:"hints,omitempty"`
	CommonMistakes []string `json:"commonMistakes,omitempty"`
	RelatedTopics  []string `json:"relatedTopics,omitempty"`

	Error   string `json:"error,omitempty"`
	Details string `json:"details,omitempty"`

	Kind FailureKind `json:"-"`
}

// IsZero is true for a Result nobody produced yet (nothing to render).
func (r Result) IsZero() bool {
	return !r.Success && r.Error == "" && r.Details == "" && r.Kind == KindNone
}

func failure(kind FailureKind, msg string) Result {
	return Result{Success: false, Error: msg, Kind: kind}
}
