package cite

import (
	"fmt"
	"strings"

	"github.com/refutelab/refute/internal/model"
)

// FormatCitation builds an author-year reference string from document
// metadata. Beyond maxAuthors authors, the list truncates to the first
// author plus "et al.". The formatter is deterministic: the same
// document always yields the same string.
func FormatCitation(doc model.Document, maxAuthors int) string {
	if maxAuthors <= 0 {
		maxAuthors = 3
	}

	var b strings.Builder

	switch {
	case len(doc.Authors) == 0:
		b.WriteString("[no authors listed]")
	case len(doc.Authors) > maxAuthors:
		b.WriteString(doc.Authors[0])
		b.WriteString(", et al.")
	default:
		b.WriteString(strings.Join(doc.Authors, ", "))
		if !strings.HasSuffix(doc.Authors[len(doc.Authors)-1], ".") {
			b.WriteString(".")
		}
	}

	if doc.Year > 0 {
		fmt.Fprintf(&b, " (%d).", doc.Year)
	}

	if doc.Title != "" {
		b.WriteString(" ")
		b.WriteString(doc.Title)
		if !strings.HasSuffix(doc.Title, ".") {
			b.WriteString(".")
		}
	}

	if doc.Journal != "" {
		b.WriteString(" ")
		b.WriteString(doc.Journal)
		b.WriteString(".")
	}

	if doc.PMID != "" {
		fmt.Fprintf(&b, " PMID: %s.", doc.PMID)
	}
	if doc.DOI != "" {
		fmt.Fprintf(&b, " doi:%s", doc.DOI)
	}

	return strings.TrimSpace(b.String())
}
