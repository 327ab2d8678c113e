package metrics

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"syscall"
	"unicode"

	"github.com/torosent/packetfire/internal/transport"
)

var errnoNames = map[syscall.Errno]string{
	syscall.ECONNREFUSED:  "Connection refused",
	syscall.ENOBUFS:       "No buffer space",
	syscall.EHOSTUNREACH:  "Host unreachable",
	syscall.ENETUNREACH:   "Network unreachable",
	syscall.EPERM:         "Operation not permitted",
	syscall.EACCES:        "Permission denied",
	syscall.EMSGSIZE:      "Message too long",
	syscall.EAGAIN:        "Resource temporarily unavailable",
	syscall.EMFILE:        "Too many open files",
	syscall.EADDRNOTAVAIL: "Address not available",
}

// FriendlyErrorName returns a short, stable label for a send or dial error.
// Labels are used as map keys in Stats.Errors and as Prometheus label values.
func FriendlyErrorName(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, transport.ErrShortWrite) {
		return "Short write"
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return "Write timeout"
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		if name, ok := errnoNames[errno]; ok {
			return name
		}
		return capitalize(errno.Error())
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op != "" {
		return capitalize(opErr.Op) + " error"
	}

	return friendlyTypeName(fmt.Sprintf("%T", err))
}

func friendlyTypeName(typeName string) string {
	cleaned := strings.TrimPrefix(strings.TrimSpace(typeName), "*")
	if cleaned == "" {
		return "Unknown error"
	}
	if idx := strings.LastIndex(cleaned, "/"); idx != -1 {
		cleaned = cleaned[idx+1:]
	}

	pkg := ""
	name := cleaned
	if idx := strings.Index(name, "."); idx != -1 {
		pkg = name[:idx]
		name = name[idx+1:]
	}

	pretty := humanizeTypeName(name)
	if pretty == "" {
		pretty = name
	}
	if pkg != "" && pkg != "main" && pkg != "errors" {
		return fmt.Sprintf("%s (%s)", pretty, pkg)
	}
	return pretty
}

func humanizeTypeName(name string) string {
	if name == "" {
		return ""
	}

	var words []string
	var current []rune
	runes := []rune(name)

	appendWord := func() {
		if len(current) == 0 {
			return
		}
		word := string(current)
		if isAllUpper(word) {
			words = append(words, word)
		} else {
			words = append(words, capitalize(word))
		}
		current = current[:0]
	}

	for i, r := range runes {
		if i > 0 {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsUpper(r) && (unicode.IsLower(prev) || (unicode.IsUpper(prev) && nextLower)) {
				appendWord()
			} else if unicode.IsDigit(r) && !unicode.IsDigit(prev) {
				appendWord()
			}
		}
		current = append(current, r)
	}
	appendWord()

	return strings.Join(words, " ")
}

func isAllUpper(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return hasLetter
}

func capitalize(s string) string {
	if s == "" {
		return ""
	}
	lower := strings.ToLower(s)
	runes := []rune(lower)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
