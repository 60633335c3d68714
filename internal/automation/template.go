package automation

import (
	"strings"

	"github.com/crmforge/crmforge/internal/domain"
)

// Render substitutes {{field}} placeholders with values from the
// record payload. Placeholders without a matching field are left
// untouched so a typo stays visible in the output.
func Render(template string, data domain.Payload) string {
	var b strings.Builder
	for {
		start := strings.Index(template, "{{")
		if start == -1 {
			b.WriteString(template)
			return b.String()
		}
		end := strings.Index(template[start:], "}}")
		if end == -1 {
			b.WriteString(template)
			return b.String()
		}
		end += start

		b.WriteString(template[:start])
		name := strings.TrimSpace(template[start+2 : end])
		if value, ok := data[name]; ok {
			b.WriteString(value.Text())
		} else {
			b.WriteString(template[start : end+2])
		}
		template = template[end+2:]
	}
}
