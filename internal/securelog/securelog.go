package securelog

import (
	"errors"
	"fmt"
	"log"
	"runtime"
	"strings"
)

// Error logs an error without including user-provided data.
// It records the caller location and error type chain.
func Error(context string, err error) {
	if err == nil {
		return
	}
	loc := callerLocation(2)
	types := strings.Join(errorTypes(err), "->")
	if context == "" {
		log.Printf("error at %s types=%s", loc, types)
		return
	}
	log.Printf("error at %s context=%s types=%s", loc, context, types)
}

// Link logs an invite link event with the token portion redacted.
func Link(context, event, url string) {
	log.Printf("link %s context=%s url=%s", event, context, RedactLink(url))
}

// RedactLink keeps the base of an invite link and masks its final path
// segment, which carries the join token.
func RedactLink(url string) string {
	url = strings.TrimSpace(url)
	if url == "" {
		return ""
	}
	idx := strings.LastIndex(url, "/")
	token := url[idx+1:]
	if token == "" {
		return url
	}
	keep := 0
	if len(token) > 8 {
		keep = 4
	}
	return url[:idx+1] + token[:keep] + strings.Repeat("*", len(token)-keep)
}

func callerLocation(skip int) string {
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "unknown"
	}
	fn := runtime.FuncForPC(pc)
	name := "unknown"
	if fn != nil {
		name = fn.Name()
	}
	return fmt.Sprintf("%s:%d %s", file, line, name)
}

func errorTypes(err error) []string {
	types := []string{}
	seen := map[string]struct{}{}
	for err != nil {
		name := fmt.Sprintf("%T", err)
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			types = append(types, name)
		}
		err = errors.Unwrap(err)
	}
	return types
}
