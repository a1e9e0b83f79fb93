package relayclient

import "strings"

// Reference points at a generated image, either by remote URL or as inline
// base64 data. The two are mutually exclusive.
type Reference struct {
	URL string
	B64 string
}

// IsInline reports whether the reference carries inline base64 data
func (r Reference) IsInline() bool {
	return r.B64 != ""
}

// IsRemote reports whether the reference points at a fetchable URL
func (r Reference) IsRemote() bool {
	return r.B64 == "" && strings.TrimSpace(r.URL) != ""
}
