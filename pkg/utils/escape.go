package utils

import (
	"strconv"
	"strings"
)

// EscapeString escapes s for use inside a single-quoted Redshift string
// literal. Quotes are doubled, backslashes and control characters are
// backslash escaped.
func EscapeString(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		r := s[i]
		switch r {
		case '\'':
			sb.Write([]byte{'\'', '\''})
		case '\\':
			sb.Write([]byte{'\\', '\\'})
		case '\b':
			sb.Write([]byte{'\\', 'b'})
		case '\f':
			sb.Write([]byte{'\\', 'f'})
		case '\n':
			sb.Write([]byte{'\\', 'n'})
		case '\r':
			sb.Write([]byte{'\\', 'r'})
		case '\t':
			sb.Write([]byte{'\\', 't'})
		case 0:
			// NUL can not appear in a literal
		default:
			if r < 0x20 || r == 0x7f {
				sb.WriteString("\\")
				sb.WriteString(strconv.FormatInt(int64(r), 8))
				continue
			}
			sb.WriteByte(r)
		}
	}
	return sb.String()
}
