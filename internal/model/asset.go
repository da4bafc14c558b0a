package model

// Asset is one remote page of a chapter.
//
// An Asset is created by discovery and written only by the fetch that
// targets it. Once Outcome is terminal it is not changed again within a run.
type Asset struct {
	// URL is the remote locator.
	URL string

	// Ordinal is the 1-based position within the chapter.
	Ordinal int

	// Path is the local file the asset is written to.
	Path string

	// Outcome is OutcomePending until the fetch settles.
	Outcome Outcome
}

// Name identifies the asset in progress reports.
func (a *Asset) Name() string {
	return AssetFileName(a.Ordinal)
}
