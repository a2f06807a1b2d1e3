package utils

import "fmt"

// FormatSequence renders a human-readable document number such as CRE-00042.
func FormatSequence(prefix string, value int64) string {
	return fmt.Sprintf("%s-%05d", prefix, value)
}
