package ocr

import "strings"

// normalizeOCRText collapses whitespace and replaces newlines/tabs.
func normalizeOCRText(t string) string {
	t = strings.ReplaceAll(t, "\n", " ")
	t = strings.ReplaceAll(t, "\t", " ")
	return strings.Join(strings.Fields(t), " ")
}

// joinPasses concatenates pass outputs in order, dropping a pass whose words already
// appear as a run in the text kept so far. Word order inside a pass is preserved.
func joinPasses(texts []string) string {
	var kept []string
	seen := " "
	for _, t := range texts {
		t = normalizeOCRText(t)
		if t == "" {
			continue
		}
		k := " " + strings.ToLower(t) + " "
		if strings.Contains(seen, k) {
			continue
		}
		kept = append(kept, t)
		seen += strings.ToLower(t) + " "
	}
	return strings.Join(kept, " ")
}
