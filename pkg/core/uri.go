package core

import (
	"regexp"
	"strings"
)

// transactionSegment matches the token a transactional repository embeds in
// every URI minted inside a transaction.
var transactionSegment = regexp.MustCompile(`tx:[a-fA-F0-9]{8}-[a-fA-F0-9]{4}-[a-fA-F0-9]{4}-[a-fA-F0-9]{4}-[a-fA-F0-9]{12}`)

// StripTransaction removes the transaction segment from uri, yielding the
// URI the resource has once the transaction is committed.
//
// Only a URI with exactly one segment is rewritten; anything else is
// returned unchanged. Separators around the removed segment collapse to a
// single '/'; nothing is prepended when the segment was the first one, and
// nothing is appended when it was the last one.
func StripTransaction(uri string) string {
	parts := transactionSegment.Split(uri, -1)
	if len(parts) != 2 {
		return uri
	}
	head := strings.TrimRight(parts[0], "/")
	tail := strings.TrimLeft(parts[1], "/")
	if tail == "" {
		return head
	}
	if head == "" {
		return tail
	}
	return head + "/" + tail
}

// TransactionToken returns the transaction segment embedded in uri, if any.
func TransactionToken(uri string) (string, bool) {
	tok := transactionSegment.FindString(uri)
	return tok, tok != ""
}
