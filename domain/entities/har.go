package entities

// HAR 1.2 document model, compatible with Chrome DevTools and other HAR viewers.
// Only the fields this library produces or inspects are modeled; unknown fields
// in recorded files are dropped on load.

// HAR is the top-level HTTP Archive document
type HAR struct {
	Log HARLog `json:"log"`
}

// HARLog holds the archive metadata and captured entries
type HARLog struct {
	Version string     `json:"version"`
	Creator HARCreator `json:"creator"`
	Entries []HAREntry `json:"entries"`
}

// HARCreator identifies the tool that generated the archive
type HARCreator struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// HAREntry is a single request/response pair
type HAREntry struct {
	StartedDateTime string      `json:"startedDateTime"`
	Time            int         `json:"time"`
	Request         HARRequest  `json:"request"`
	Response        HARResponse `json:"response"`
	Cache           struct{}    `json:"cache"`
	Timings         HARTimings  `json:"timings"`
}

// HARRequest is the request half of an entry
type HARRequest struct {
	Method      string      `json:"method"`
	URL         string      `json:"url"`
	HTTPVersion string      `json:"httpVersion"`
	Headers     []HARHeader `json:"headers"`
	QueryString []HARQuery  `json:"queryString"`
	HeadersSize int         `json:"headersSize"`
	BodySize    int         `json:"bodySize"`
}

// HARResponse is the response half of an entry
type HARResponse struct {
	Status      int         `json:"status"`
	StatusText  string      `json:"statusText"`
	HTTPVersion string      `json:"httpVersion"`
	Headers     []HARHeader `json:"headers"`
	Content     HARContent  `json:"content"`
	RedirectURL string      `json:"redirectURL"`
	HeadersSize int         `json:"headersSize"`
	BodySize    int         `json:"bodySize"`
}

// HARContent describes the response body
type HARContent struct {
	Size     int    `json:"size"`
	MimeType string `json:"mimeType"`
	Text     string `json:"text,omitempty"`
}

// HARTimings carries per-phase timing, -1 where unknown
type HARTimings struct {
	Send    int `json:"send"`
	Wait    int `json:"wait"`
	Receive int `json:"receive"`
}

// HARHeader is a single header name/value pair
type HARHeader struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// HARQuery is a single query string parameter
type HARQuery struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// CreatorName and CreatorVersion identify this library in generated archives.
const (
	CreatorName    = "pagewright"
	CreatorVersion = "0.1.0"
)

// NewHAR - builds a HAR document around the given entries
func NewHAR(entries []HAREntry) *HAR {
	if entries == nil {
		entries = []HAREntry{}
	}
	return &HAR{
		Log: HARLog{
			Version: "1.2",
			Creator: HARCreator{Name: CreatorName, Version: CreatorVersion},
			Entries: entries,
		},
	}
}
