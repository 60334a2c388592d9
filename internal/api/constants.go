package api

// Scan uploads are photos; anything larger is refused before decoding.
const maxScanBytes = 15 << 20

// Per-client limits for the scan endpoint.
const (
	scanRequestsPerMinute = 30
	scanBurst             = 5
)

// Uploaded backup archives larger than this are refused.
const maxRestoreBytes = 64 << 20
