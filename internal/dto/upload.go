package dto

// FileResult reports the outcome of one uploaded statement file. A failed
// file carries its error here instead of aborting the whole upload.
type FileResult struct {
	File       string `json:"file"`
	Saved      int    `json:"saved"`
	Duplicates int    `json:"duplicates"`
	Total      int    `json:"total"`
	Error      string `json:"error,omitempty"`
	Warning    string `json:"warning,omitempty"`
}

type UploadResponse struct {
	Files      []FileResult `json:"files"`
	Saved      int          `json:"saved"`
	Duplicates int          `json:"duplicates"`
	Total      int          `json:"total"`
}
