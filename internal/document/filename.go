package document

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"civicportal/pkg/types"
)

var unsafeFilenameReg = regexp.MustCompile(`[^A-Za-z0-9]+`)

// DownloadFilename names the file handed to the browser, for example
// ID_CARD_Jane_Doe_20260115.pdf.
func DownloadFilename(doc *types.DocumentRequest, at time.Time) string {
	return fmt.Sprintf("%s_%s_%s.pdf", doc.Type, SanitizeName(doc.FullName), at.Format("20060102"))
}

// SanitizeName reduces name to ASCII letters and digits joined by
// underscores.
func SanitizeName(name string) string {
	clean := strings.Trim(unsafeFilenameReg.ReplaceAllString(name, "_"), "_")
	if clean == "" {
		return "applicant"
	}
	return clean
}
