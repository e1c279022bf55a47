package domain

// Domain contains core models shared by the Airtable client and the HTTP server.

// Record is the post-delete state of a single remote record.
type Record struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

// RecordList is the envelope Airtable wraps batch-delete results in.
type RecordList struct {
	Records []Record `json:"records"`
}

// APIErrorBody is the error envelope returned by Airtable on non-2xx responses.
type APIErrorBody struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}
