package probe

// Category classifies the outcome of probing a single credential.
type Category string

const (
	CategoryValid         Category = "valid"
	CategoryInvalid       Category = "invalid"
	CategoryModelNotFound Category = "model_not_found"
	CategoryError         Category = "error"
)

// Sentinel HTTP status values for probes that never produced a response.
const (
	StatusNoResponse = -1 // transport failure: no status code available
	StatusUnexpected = -2 // non-network failure before a response
)

// Detail length bounds.
const (
	maxBodyDetail = 500 // response body excerpts
	maxErrDetail  = 300 // transport/unexpected error text
)

// Result is the verdict for one credential, immutable once produced.
type Result struct {
	Key            string
	Category       Category
	HTTPStatus     int
	Detail         string
	ElapsedSeconds float64
}

// truncate shortens s to at most max characters. No ellipsis is added;
// report consumers rely on the exact-length cut.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// Abbrev returns a short display prefix of key for progress lines and
// logs. Full keys only ever appear in the report artifacts.
func Abbrev(key string) string {
	const n = 6
	runes := []rune(key)
	if len(runes) <= n {
		return key
	}
	return string(runes[:n]) + "..."
}
