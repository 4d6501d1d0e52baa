package domain

// PageKey is the opaque pagination cursor returned by the pass list
// endpoint. It identifies the last record of the current page and must be
// threaded unchanged into the next fetch.
type PageKey struct {
	ID    string `json:"id"`
	EndAt string `json:"endAt"`
}

// Valid reports whether the key can be used to fetch a further page. A key
// missing either sub-field means the collection is exhausted.
func (k *PageKey) Valid() bool {
	return k != nil && k.ID != "" && k.EndAt != ""
}

// PassPage is one page of the server-paginated pass collection.
type PassPage struct {
	Passes  []Pass   `json:"passes"`
	NextKey *PageKey `json:"nextKey,omitempty"`
}
