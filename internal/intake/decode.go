package intake

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"

	"claimguard/internal/claims"
	"claimguard/internal/faults"
)

// DecodeDocument reads and decodes one extraction document from disk. Read
// failures are transient (the file may still be arriving); decode failures
// mark the document itself as bad.
func DecodeDocument(path string) (claims.ExtractedClaim, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return claims.ExtractedClaim{}, faults.Wrap(faults.ErrTransient, "intake", "read_document", path, err)
	}
	return DecodeExtracted(data)
}

// DecodeExtracted decodes extraction output. Every field except raw_text is
// optional; missing values degrade individual rules downstream rather than
// failing here.
func DecodeExtracted(data []byte) (claims.ExtractedClaim, error) {
	var e claims.ExtractedClaim
	if err := json.NewDecoder(bytes.NewReader(data)).Decode(&e); err != nil {
		return claims.ExtractedClaim{}, faults.Wrap(faults.ErrInput, "intake", "decode_document", "not a valid extraction document", err)
	}
	if strings.TrimSpace(e.RawText) == "" {
		return claims.ExtractedClaim{}, faults.Wrap(faults.ErrInput, "intake", "decode_document", "raw_text is required", nil)
	}
	return e, nil
}
